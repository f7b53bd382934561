// Package registry provides clients for the on-chain agent registries:
// identity (domain/address to agent id), reputation (signature-based
// feedback authorization), and validation (signed validation requests).
//
// Clients are built over parsed contract ABIs. Read-only methods work with
// just a contract backend; state-changing methods require transaction
// options via SetTransactOpts first and return the submitted transaction.
// WaitRegistered polls for the registration receipt with exponential
// backoff, bounded by the caller's context.
//
// The package ships testify mocks (mock.go) and an in-memory fake
// (fake.go) so lifecycle code can be tested without a chain.
package registry
