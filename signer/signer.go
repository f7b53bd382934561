// Package signer produces the agent's protocol signatures. Every signature
// is made with the key the kms package derived for this instance; the
// signer never sources key material independently.
package signer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/attestable/tee-agent-registry/kms"
)

// SignatureLength is r(32) || s(32) || v(1).
const SignatureLength = 65

// ErrInvalidSignature is returned by RecoverAddress for malformed input.
var ErrInvalidSignature = errors.New("invalid signature")

// Signer signs digests, structured messages, and transactions with the
// derived agent key. It is immutable and safe for concurrent use.
type Signer struct {
	key     *kms.DerivedKey
	chainID *big.Int
}

// New creates a signer over the derived key, binding chainID into every
// signed transaction.
func New(key *kms.DerivedKey, chainID int64) *Signer {
	return &Signer{key: key, chainID: big.NewInt(chainID)}
}

// Address returns the account address of the signing key.
func (s *Signer) Address() common.Address {
	return s.key.Address
}

// ChainID returns the chain id bound into signed transactions.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignDigest signs a 32-byte digest and returns a 65-byte signature
// r || s || v with v in {27, 28}.
func (s *Signer) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}

	sig, err := crypto.Sign(digest, s.key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}

	// go-ethereum returns the recovery id as 0/1; the registry contracts
	// expect 27/28.
	sig[64] += 27
	return sig, nil
}

// MessageDigest computes the canonical digest for a structured message:
// keccak256(0x19 || 0x01 || keccak256(domainTag) || keccak256(payload)).
// Hashing the domain separator and payload independently keeps signatures
// from being replayable across differing contexts.
func MessageDigest(domainTag string, payload []byte) []byte {
	domainHash := crypto.Keccak256([]byte(domainTag))
	payloadHash := crypto.Keccak256(payload)
	return crypto.Keccak256([]byte{0x19, 0x01}, domainHash, payloadHash)
}

// SignMessage signs a structured message under the given domain separator
// tag.
func (s *Signer) SignMessage(domainTag string, payload []byte) ([]byte, error) {
	return s.SignDigest(MessageDigest(domainTag, payload))
}

// SignTransaction signs tx with the agent key, binding the configured chain
// id to prevent cross-chain replay.
func (s *Signer) SignTransaction(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// RecoverAddress recovers the signing account from a 65-byte signature over
// digest.
func RecoverAddress(digest, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	if sig[64] != 27 && sig[64] != 28 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[64])
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	normalized[64] -= 27

	pubkey, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pubkey), nil
}
