// Package teeclient implements the HTTP client for the TEE service
// consumed by key derivation and attestation.
//
// The TEE service exposes three endpoints:
//
//	GET /info              instance identity and measured TCB state
//	GET /key/{unique_id}   deterministic key derivation with provenance
//	GET /attest/{report}   hardware quote over hex-encoded report data
//
// The endpoint may be a TCP address (http://host:port) or a local socket
// (unix:///var/run/tee.sock). All methods honor the caller's context
// deadline; transport failures wrap interfaces.ErrTEEUnavailable so callers
// can distinguish connectivity problems from protocol errors.
package teeclient
