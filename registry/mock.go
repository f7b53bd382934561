package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// MockIdentityRegistry is a testify mock for interfaces.IdentityRegistry.
type MockIdentityRegistry struct {
	mock.Mock
}

func (m *MockIdentityRegistry) RegistrationFee(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockIdentityRegistry) ResolveByAddress(ctx context.Context, addr interfaces.ContractAddress) (*interfaces.AgentRecord, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.AgentRecord), args.Error(1)
}

func (m *MockIdentityRegistry) Register(ctx context.Context, domain string, addr interfaces.ContractAddress, fee *big.Int) (*types.Transaction, error) {
	args := m.Called(ctx, domain, addr, fee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}

func (m *MockIdentityRegistry) WaitRegistered(ctx context.Context, tx *types.Transaction) (*big.Int, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

// MockReputationRegistry is a testify mock for interfaces.ReputationRegistry.
type MockReputationRegistry struct {
	mock.Mock
}

func (m *MockReputationRegistry) AuthorizeFeedback(ctx context.Context, clientID, serverID *big.Int, signature []byte) (*types.Transaction, error) {
	args := m.Called(ctx, clientID, serverID, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}

// MockValidationRegistry is a testify mock for interfaces.ValidationRegistry.
type MockValidationRegistry struct {
	mock.Mock
}

func (m *MockValidationRegistry) RequestValidation(ctx context.Context, validatorID, serverID *big.Int, dataHash [32]byte, signature []byte) (*types.Transaction, error) {
	args := m.Called(ctx, validatorID, serverID, dataHash, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}
