// Package attestation produces hardware quotes binding the agent's derived
// key and domain to the enclave's measured code identity.
//
// Every quote covers a fixed 64-byte application-data payload: a 32-byte
// Keccak-256 commitment of the derived account address followed by the
// 32-byte SHA-256 hash of the agent domain. A remote verifier replays the
// quote's event log against published reference measurements to confirm
// code identity; this package only produces quotes, it never verifies its
// own output (the VerifyQuote helper exists for operator tooling).
//
// Quotes are never cached — each request reflects current enclave state.
//
// # Degraded mode
//
// When the quote source is unavailable or times out the service does not
// fail: it returns a result explicitly tagged Mode == "development".
// Callers must inspect the mode before trusting the quote. This is the only
// component with a fallback; key derivation and registration always surface
// their failures.
package attestation
