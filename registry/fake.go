package registry

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// FakeIdentityRegistry is an in-memory identity registry for tests and
// local development. Agent ids are assigned sequentially per registration
// and the fake counts submitted transactions so callers can assert
// idempotent behavior.
type FakeIdentityRegistry struct {
	mu      sync.Mutex
	nextID  int64
	fee     *big.Int
	byAddr  map[interfaces.ContractAddress]*interfaces.AgentRecord
	pending map[[32]byte]*interfaces.AgentRecord

	// TxCount is the number of register transactions submitted.
	TxCount int
}

func NewFakeIdentityRegistry(fee *big.Int) *FakeIdentityRegistry {
	if fee == nil {
		fee = big.NewInt(0)
	}
	return &FakeIdentityRegistry{
		nextID:  1,
		fee:     fee,
		byAddr:  make(map[interfaces.ContractAddress]*interfaces.AgentRecord),
		pending: make(map[[32]byte]*interfaces.AgentRecord),
	}
}

func (f *FakeIdentityRegistry) RegistrationFee(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.fee), nil
}

func (f *FakeIdentityRegistry) ResolveByAddress(ctx context.Context, addr interfaces.ContractAddress) (*interfaces.AgentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.byAddr[addr]
	if !ok {
		return nil, interfaces.ErrAgentNotFound
	}
	return rec, nil
}

func (f *FakeIdentityRegistry) Register(ctx context.Context, domain string, addr interfaces.ContractAddress, fee *big.Int) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TxCount++
	rec := &interfaces.AgentRecord{
		AgentID: big.NewInt(f.nextID),
		Domain:  domain,
		Address: addr,
	}
	f.nextID++

	tx := types.NewTx(&types.LegacyTx{Nonce: uint64(f.TxCount), Data: []byte(domain)})
	f.pending[tx.Hash()] = rec
	return tx, nil
}

func (f *FakeIdentityRegistry) WaitRegistered(ctx context.Context, tx *types.Transaction) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.pending[tx.Hash()]
	if !ok {
		return nil, interfaces.ErrRegistrationFailed
	}
	delete(f.pending, tx.Hash())
	f.byAddr[rec.Address] = rec
	return rec.AgentID, nil
}
