// Package agent implements the agent lifecycle: key-backed identity,
// on-chain registration, role-specific task processing, and agent card
// publication.
//
// An Agent starts UNREGISTERED and moves through REGISTERING to REGISTERED
// via Register, which is idempotent against the identity registry. Task
// processing is valid in every state and isolates each task from handler
// panics and errors.
package agent
