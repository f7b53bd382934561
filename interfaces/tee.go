package interfaces

import "context"

// TEEInfo describes the running TEE instance and its measured state.
type TEEInfo struct {
	AppID      string  `json:"app_id"`
	InstanceID string  `json:"instance_id"`
	TCBInfo    TCBInfo `json:"tcb_info"`
}

// TCBInfo carries the enclave measurements and the boot event log a remote
// verifier replays against published reference values.
type TCBInfo struct {
	MRTD     string   `json:"mrtd"`
	RTMRs    []string `json:"rtmrs,omitempty"`
	EventLog string   `json:"event_log,omitempty"`
}

// TEEKeyResult is the response to a deterministic key derivation request.
// Key is a 32-byte secp256k1 scalar. SignatureChain proves the derivation
// happened inside the measured enclave; it is stable for a given derivation
// path.
type TEEKeyResult struct {
	Key            []byte
	SignatureChain []string
}

// TEEQuoteResult is the response to a hardware quote request over
// caller-supplied report data.
type TEEQuoteResult struct {
	Quote    []byte
	EventLog string
}

// TEEClient is the client-side contract for the TEE service. All calls are
// out-of-process round trips and honor the context deadline. Transport
// failures wrap ErrTEEUnavailable.
type TEEClient interface {
	// Info returns instance identity and measured TCB state.
	Info(ctx context.Context) (*TEEInfo, error)

	// GetKey derives the key identified by uniqueID. Identical uniqueIDs
	// always yield the identical key and signature chain.
	GetKey(ctx context.Context, uniqueID string) (*TEEKeyResult, error)

	// GetQuote requests a hardware quote binding reportData (at most 64
	// bytes) to the enclave's measured state.
	GetQuote(ctx context.Context, reportData []byte) (*TEEQuoteResult, error)
}
