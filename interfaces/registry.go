package interfaces

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// IdentityRegistry is the on-chain registry mapping a (domain, address)
// pair to a unique agent identifier. State-changing calls require prior
// transactor configuration and return the submitted transaction; callers
// wait for inclusion separately.
type IdentityRegistry interface {
	// RegistrationFee returns the fee the register call must carry.
	RegistrationFee(ctx context.Context) (*big.Int, error)

	// ResolveByAddress looks up the registered agent for an address.
	// Returns ErrAgentNotFound if no agent is registered.
	ResolveByAddress(ctx context.Context, addr ContractAddress) (*AgentRecord, error)

	// Register submits a fee-bearing registration transaction for the
	// (domain, address) pair.
	Register(ctx context.Context, domain string, addr ContractAddress, fee *big.Int) (*types.Transaction, error)

	// WaitRegistered blocks until the registration transaction is mined and
	// returns the assigned agent id, or an error on rejection or timeout.
	WaitRegistered(ctx context.Context, tx *types.Transaction) (*big.Int, error)
}

// ReputationRegistry accepts signature-based feedback authorizations
// between agent id pairs.
type ReputationRegistry interface {
	AuthorizeFeedback(ctx context.Context, clientID, serverID *big.Int, signature []byte) (*types.Transaction, error)
}

// ValidationRegistry accepts signed validation requests keyed by agent id
// pairs and content hashes.
type ValidationRegistry interface {
	RequestValidation(ctx context.Context, validatorID, serverID *big.Int, dataHash [32]byte, signature []byte) (*types.Transaction, error)
}
