package kms

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/singleflight"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// DerivedKey is the agent's signing key together with its account address
// and, in TEE mode, the provenance chain returned by the enclave.
type DerivedKey struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address

	// Provenance attests the in-enclave derivation. Empty in development
	// mode.
	Provenance []string
}

// KeySource derives and caches the agent key for one (domain, salt) pair.
// The derivation runs at most once per process; concurrent first callers
// share a single in-flight request.
type KeySource struct {
	cfg *interfaces.AgentConfig
	tee interfaces.TEEClient

	group  singleflight.Group
	mu     sync.RWMutex
	cached *DerivedKey
}

// NewKeySource creates a key source for the given configuration. In TEE
// mode a TEE client is required; in development mode the configured raw
// private key is validated eagerly so misconfiguration fails at
// construction.
func NewKeySource(cfg *interfaces.AgentConfig, tee interfaces.TEEClient) (*KeySource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UseTEEAuth && tee == nil {
		return nil, fmt.Errorf("%w: TEE mode requires a tee client", interfaces.ErrInvalidConfig)
	}

	s := &KeySource{cfg: cfg, tee: tee}
	if !cfg.UseTEEAuth {
		key, err := devKey(cfg.RawPrivateKey)
		if err != nil {
			return nil, err
		}
		s.cached = key
	}
	return s, nil
}

// DerivedKey returns the agent key, deriving it on first use. All callers
// of a concurrent first derivation observe the same result.
func (s *KeySource) DerivedKey(ctx context.Context) (*DerivedKey, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	res, err, _ := s.group.Do("derive", func() (interface{}, error) {
		// Re-check under the group: a previous flight may have populated
		// the cache between the RLock above and entering the group.
		s.mu.RLock()
		cached := s.cached
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		key, err := s.deriveTEE(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cached = key
		s.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*DerivedKey), nil
}

// DeriveAddress returns the account address of the agent key.
func (s *KeySource) DeriveAddress(ctx context.Context) (common.Address, error) {
	key, err := s.DerivedKey(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return key.Address, nil
}

func (s *KeySource) deriveTEE(ctx context.Context) (*DerivedKey, error) {
	id, err := KeyID(s.cfg.Domain, s.cfg.Salt)
	if err != nil {
		return nil, err
	}

	res, err := s.tee.GetKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tee key derivation for domain %s: %w", s.cfg.Domain, err)
	}

	priv, err := crypto.ToECDSA(res.Key)
	if err != nil {
		return nil, fmt.Errorf("tee returned invalid secp256k1 scalar: %w", err)
	}

	return &DerivedKey{
		PrivateKey: priv,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		Provenance: res.SignatureChain,
	}, nil
}

func devKey(rawHex string) (*DerivedKey, error) {
	clean := strings.TrimPrefix(rawHex, "0x")
	if clean == "" {
		return nil, errors.New("development mode requires an explicit raw private key")
	}

	priv, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid raw private key: %v", interfaces.ErrInvalidConfig, err)
	}

	return &DerivedKey{
		PrivateKey: priv,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
	}, nil
}
