package interfaces

import "errors"

// Error taxonomy. Connectivity and registration failures are surfaced to
// the caller and never masked by fallback behavior; only attestation
// supports an explicit degraded mode, which is a tagged result rather than
// an error (see the attestation package).
var (
	// ErrTEEUnavailable indicates the TEE service could not be reached or
	// timed out. Key derivation callers must not substitute an insecure key
	// unless explicitly configured for development mode.
	ErrTEEUnavailable = errors.New("tee service unavailable")

	// ErrRPCUnavailable indicates the Ethereum RPC endpoint could not be
	// reached.
	ErrRPCUnavailable = errors.New("rpc endpoint unavailable")

	// ErrInvalidConfig indicates missing required fields or an inconsistent
	// role/mode combination. Fatal at construction time.
	ErrInvalidConfig = errors.New("invalid agent configuration")

	// ErrRegistrationFailed indicates on-chain rejection, insufficient
	// funds, or a receipt timeout. Retryable only by explicit caller
	// re-invocation.
	ErrRegistrationFailed = errors.New("agent registration failed")

	// ErrRegistrationInFlight is returned when Register is invoked while a
	// previous invocation on the same instance is still in flight.
	ErrRegistrationInFlight = errors.New("registration already in flight")

	// ErrAgentNotFound is returned by registry lookups for addresses with
	// no registered agent.
	ErrAgentNotFound = errors.New("agent not registered")

	// ErrContentNotFound is returned by storage backends when the requested
	// artifact does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidLocationURI is returned for malformed storage backend URIs.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)
