// Package kms derives the agent's secp256k1 signing key.
//
// A key is fully determined by the agent's (domain, salt) pair. In TEE mode
// the derivation happens inside the enclave: the pair is expanded into a
// stable derivation path identifier (HKDF-SHA256) and sent to the TEE
// service, which returns the private scalar together with a signature chain
// proving the derivation occurred inside the measured enclave. In
// development mode an explicitly supplied raw private key is used instead —
// never as a silent fallback for a failed TEE call.
//
// # Determinism
//
// Repeated derivations for the same (domain, salt) return the identical
// address and identical provenance chain. The key source computes the key
// at most once per process: the first call populates a cache, and
// concurrent first callers are collapsed into a single in-flight TEE
// request (singleflight), all observing its result.
//
// # Failure behavior
//
// A TEE connectivity failure surfaces as an error wrapping
// interfaces.ErrTEEUnavailable. The key source never substitutes the
// development key for a failed TEE derivation; the two modes are selected
// by configuration at construction time.
package kms
