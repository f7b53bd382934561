package agent

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/kms"
	"github.com/attestable/tee-agent-registry/registry"
)

const testRawKey = "0x1111111111111111111111111111111111111111111111111111111111111111"

func testAgentConfig(role interfaces.AgentRole) *interfaces.AgentConfig {
	return &interfaces.AgentConfig{
		Domain:        "test.example.com",
		Salt:          "test-salt-123",
		Role:          role,
		ChainID:       31337,
		RawPrivateKey: testRawKey,
	}
}

func newTestKeys(t *testing.T, cfg *interfaces.AgentConfig) (*kms.KeySource, error) {
	t.Helper()
	return kms.NewKeySource(cfg, nil)
}

func newTestAgent(t *testing.T, identity interfaces.IdentityRegistry) *Agent {
	t.Helper()

	cfg := testAgentConfig(interfaces.RoleServer)
	keys, err := kms.NewKeySource(cfg, nil)
	require.NoError(t, err)

	a, err := New(Config{
		AgentConfig: cfg,
		Keys:        keys,
		Identity:    identity,
		Log:         slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return a
}

func TestRegisterLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := registry.NewFakeIdentityRegistry(big.NewInt(100))
	a := newTestAgent(t, fake)

	assert.Equal(t, interfaces.StateUnregistered, a.Status())

	info, err := a.AgentInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, info.AgentID)

	identity, err := a.Register(ctx)
	require.NoError(t, err)
	require.NotNil(t, identity.AgentID)
	assert.Equal(t, interfaces.StateRegistered, a.Status())
	assert.Equal(t, 1, fake.TxCount)
	assert.Equal(t, "test.example.com", identity.Domain)
}

func TestRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := registry.NewFakeIdentityRegistry(big.NewInt(100))
	a := newTestAgent(t, fake)

	first, err := a.Register(ctx)
	require.NoError(t, err)

	second, err := a.Register(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, first.AgentID.Cmp(second.AgentID))
	assert.Equal(t, 1, fake.TxCount, "second Register must not submit a transaction")
}

func TestRegisterAdoptsExistingRegistration(t *testing.T) {
	ctx := context.Background()
	fake := registry.NewFakeIdentityRegistry(big.NewInt(100))

	// A previous instance of the same agent already registered.
	prior := newTestAgent(t, fake)
	priorIdentity, err := prior.Register(ctx)
	require.NoError(t, err)

	// A fresh instance with the same (domain, salt, key) adopts the entry.
	a := newTestAgent(t, fake)
	identity, err := a.Register(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, priorIdentity.AgentID.Cmp(identity.AgentID))
	assert.Equal(t, 1, fake.TxCount)
	assert.Equal(t, interfaces.StateRegistered, a.Status())
}

type failingIdentity struct {
	*registry.FakeIdentityRegistry
	failRegister bool
}

func (f *failingIdentity) Register(ctx context.Context, domain string, addr interfaces.ContractAddress, fee *big.Int) (*types.Transaction, error) {
	if f.failRegister {
		return nil, interfaces.ErrRegistrationFailed
	}
	return f.FakeIdentityRegistry.Register(ctx, domain, addr, fee)
}

func TestRegisterFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	identity := &failingIdentity{
		FakeIdentityRegistry: registry.NewFakeIdentityRegistry(big.NewInt(100)),
		failRegister:         true,
	}
	a := newTestAgent(t, identity)

	_, err := a.Register(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrRegistrationFailed))
	assert.Equal(t, interfaces.StateFailed, a.Status())

	// The failed state persists until an explicit retry.
	assert.Equal(t, interfaces.StateFailed, a.Status())

	identity.failRegister = false
	info, err := a.Register(ctx)
	require.NoError(t, err)
	require.NotNil(t, info.AgentID)
	assert.Equal(t, interfaces.StateRegistered, a.Status())
}

type gatedIdentity struct {
	*registry.FakeIdentityRegistry
	entered chan struct{}
	release chan struct{}
}

func (g *gatedIdentity) RegistrationFee(ctx context.Context) (*big.Int, error) {
	close(g.entered)
	<-g.release
	return g.FakeIdentityRegistry.RegistrationFee(ctx)
}

func TestRegisterRejectsConcurrentInvocation(t *testing.T) {
	ctx := context.Background()
	identity := &gatedIdentity{
		FakeIdentityRegistry: registry.NewFakeIdentityRegistry(big.NewInt(100)),
		entered:              make(chan struct{}),
		release:              make(chan struct{}),
	}
	a := newTestAgent(t, identity)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = a.Register(ctx)
	}()

	<-identity.entered
	_, err := a.Register(ctx)
	assert.ErrorIs(t, err, interfaces.ErrRegistrationInFlight)

	close(identity.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, interfaces.StateRegistered, a.Status())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testAgentConfig(interfaces.RoleServer)
	keys, err := kms.NewKeySource(cfg, nil)
	require.NoError(t, err)

	_, err = New(Config{AgentConfig: cfg, Keys: keys})
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)

	_, err = New(Config{AgentConfig: cfg, Identity: registry.NewFakeIdentityRegistry(nil)})
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)

	custom := testAgentConfig(interfaces.RoleCustom)
	customKeys, err := kms.NewKeySource(custom, nil)
	require.NoError(t, err)
	_, err = New(Config{
		AgentConfig: custom,
		Keys:        customKeys,
		Identity:    registry.NewFakeIdentityRegistry(nil),
	})
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig, "custom role without plugins")
}
