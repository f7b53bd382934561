package kms

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// fakeTEE derives keys server-side as sha256 of the unique id, so distinct
// ids yield distinct scalars and identical ids yield identical material.
type fakeTEE struct {
	keyCalls atomic.Int64
	delay    time.Duration
	fail     bool
}

func (f *fakeTEE) Info(ctx context.Context) (*interfaces.TEEInfo, error) {
	return &interfaces.TEEInfo{AppID: "fake"}, nil
}

func (f *fakeTEE) GetKey(ctx context.Context, uniqueID string) (*interfaces.TEEKeyResult, error) {
	f.keyCalls.Inc()
	if f.fail {
		return nil, interfaces.ErrTEEUnavailable
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	key := sha256.Sum256([]byte(uniqueID))
	return &interfaces.TEEKeyResult{
		Key:            key[:],
		SignatureChain: []string{"root", "leaf-" + uniqueID[:8]},
	}, nil
}

func (f *fakeTEE) GetQuote(ctx context.Context, reportData []byte) (*interfaces.TEEQuoteResult, error) {
	return &interfaces.TEEQuoteResult{Quote: []byte("quote")}, nil
}

func teeConfig(domain, salt string) *interfaces.AgentConfig {
	return &interfaces.AgentConfig{
		Domain:      domain,
		Salt:        salt,
		Role:        interfaces.RoleServer,
		ChainID:     31337,
		UseTEEAuth:  true,
		TEEEndpoint: "http://tee.local",
	}
}

func TestDeriveDeterministic(t *testing.T) {
	tee := &fakeTEE{}
	source, err := NewKeySource(teeConfig("test.example.com", "test-salt-123"), tee)
	require.NoError(t, err)

	first, err := source.DerivedKey(context.Background())
	require.NoError(t, err)

	second, err := source.DerivedKey(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, first.Provenance, second.Provenance)

	// A fresh source over the same (domain, salt) reaches the same key.
	other, err := NewKeySource(teeConfig("test.example.com", "test-salt-123"), &fakeTEE{})
	require.NoError(t, err)
	otherKey, err := other.DerivedKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Address, otherKey.Address)
	assert.Equal(t, first.Provenance, otherKey.Provenance)
}

func TestDeriveDistinctSalts(t *testing.T) {
	a, err := NewKeySource(teeConfig("test.example.com", "salt-a"), &fakeTEE{})
	require.NoError(t, err)
	b, err := NewKeySource(teeConfig("test.example.com", "salt-b"), &fakeTEE{})
	require.NoError(t, err)

	keyA, err := a.DerivedKey(context.Background())
	require.NoError(t, err)
	keyB, err := b.DerivedKey(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, keyA.Address, keyB.Address)
}

func TestDeriveSingleFlight(t *testing.T) {
	tee := &fakeTEE{delay: 50 * time.Millisecond}
	source, err := NewKeySource(teeConfig("test.example.com", "test-salt-123"), tee)
	require.NoError(t, err)

	const callers = 10
	results := make([]*DerivedKey, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := source.DerivedKey(context.Background())
			require.NoError(t, err)
			results[i] = key
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), tee.keyCalls.Load(), "concurrent first derivations must collapse into one TEE call")
	for _, key := range results {
		assert.Equal(t, results[0].Address, key.Address)
	}
}

func TestDeriveTEEFailureDoesNotFallBack(t *testing.T) {
	source, err := NewKeySource(teeConfig("test.example.com", "test-salt-123"), &fakeTEE{fail: true})
	require.NoError(t, err)

	_, err = source.DerivedKey(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrTEEUnavailable)
}

func TestDevModeKnownVector(t *testing.T) {
	rawKey := strings.Repeat("11", 32)
	cfg := &interfaces.AgentConfig{
		Domain:        "test.example.com",
		Salt:          "test-salt-123",
		Role:          interfaces.RoleServer,
		ChainID:       31337,
		UseTEEAuth:    false,
		RawPrivateKey: rawKey,
	}

	source, err := NewKeySource(cfg, nil)
	require.NoError(t, err)

	key, err := source.DerivedKey(context.Background())
	require.NoError(t, err)

	priv, err := crypto.HexToECDSA(rawKey)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey), key.Address)
	assert.Empty(t, key.Provenance)
}

func TestDevModeRequiresExplicitKey(t *testing.T) {
	cfg := &interfaces.AgentConfig{
		Domain:     "test.example.com",
		Salt:       "test-salt-123",
		Role:       interfaces.RoleServer,
		ChainID:    31337,
		UseTEEAuth: false,
	}

	_, err := NewKeySource(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)
}

func TestKeyIDStable(t *testing.T) {
	a, err := KeyID("test.example.com", "test-salt-123")
	require.NoError(t, err)
	b, err := KeyID("test.example.com", "test-salt-123")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	c, err := KeyID("test.example.com", "other-salt")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
