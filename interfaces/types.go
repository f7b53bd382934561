package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AgentRole selects the task-handling variant for an agent instance.
type AgentRole string

const (
	RoleServer    AgentRole = "SERVER"
	RoleValidator AgentRole = "VALIDATOR"
	RoleClient    AgentRole = "CLIENT"
	RoleCustom    AgentRole = "CUSTOM"
)

// ParseAgentRole converts a string to an AgentRole, case-insensitively.
func ParseAgentRole(s string) (AgentRole, error) {
	switch AgentRole(strings.ToUpper(s)) {
	case RoleServer:
		return RoleServer, nil
	case RoleValidator:
		return RoleValidator, nil
	case RoleClient:
		return RoleClient, nil
	case RoleCustom:
		return RoleCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown agent role %q", ErrInvalidConfig, s)
	}
}

// String returns the role as its canonical upper-case tag.
func (r AgentRole) String() string {
	return string(r)
}

// ContractAddress represents a 20-byte Ethereum account or contract address.
type ContractAddress [20]byte

// NewContractAddressFromBytes creates a contract address from a 20-byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex creates a contract address from a 40-character
// hex string, with or without the 0x prefix.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return ContractAddress{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewContractAddressFromBytes(addrBytes)
}

// String returns the 0x-prefixed hex representation of the address.
func (addr ContractAddress) String() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr ContractAddress) Bytes() []byte {
	return addr[:]
}

// Common returns the go-ethereum representation of the address.
func (addr ContractAddress) Common() common.Address {
	return common.Address(addr)
}

// AgentConfig is the immutable configuration for a single agent instance.
// It is constructed once at process start, validated, and passed by
// reference to every component.
type AgentConfig struct {
	// Domain is the agent's identity domain, e.g. "agent.example.com".
	Domain string

	// Salt disambiguates multiple agents under the same domain. Together
	// with Domain it fully determines the derived signing key.
	Salt string

	// Role selects the task-handling variant.
	Role AgentRole

	// RPCURL is the Ethereum JSON-RPC endpoint.
	RPCURL string

	// ChainID is bound into every signed transaction.
	ChainID int64

	// UseTEEAuth selects TEE-backed key derivation. When false the agent
	// runs in development mode and requires RawPrivateKey.
	UseTEEAuth bool

	// TEEEndpoint is the TEE service endpoint (http://host:port or
	// unix:///path/to.sock). Required when UseTEEAuth is true.
	TEEEndpoint string

	// RawPrivateKey is a 32-byte hex-encoded secp256k1 scalar. Only
	// meaningful when UseTEEAuth is false; never used as a fallback for a
	// failed TEE derivation.
	RawPrivateKey string
}

// Validate checks the configuration for completeness and consistent
// role/mode combinations. Failures here are fatal at construction time.
func (c *AgentConfig) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidConfig)
	}
	if c.Salt == "" {
		return fmt.Errorf("%w: salt is required", ErrInvalidConfig)
	}
	if _, err := ParseAgentRole(string(c.Role)); err != nil {
		return err
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidConfig)
	}
	if c.UseTEEAuth {
		if c.TEEEndpoint == "" {
			return fmt.Errorf("%w: tee endpoint is required in TEE mode", ErrInvalidConfig)
		}
		if c.RawPrivateKey != "" {
			return fmt.Errorf("%w: raw private key must not be set in TEE mode", ErrInvalidConfig)
		}
	} else {
		key := strings.TrimPrefix(c.RawPrivateKey, "0x")
		if len(key) != 64 {
			return fmt.Errorf("%w: development mode requires a 32-byte hex private key", ErrInvalidConfig)
		}
		if _, err := hex.DecodeString(key); err != nil {
			return fmt.Errorf("%w: raw private key is not valid hex: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// RegistryAddresses holds the deployed contract addresses for the on-chain
// registries. Immutable once constructed.
type RegistryAddresses struct {
	Identity    ContractAddress
	Reputation  ContractAddress
	Validation  ContractAddress
	TEEVerifier ContractAddress
}

// AgentState is the lifecycle state of an agent instance.
type AgentState string

const (
	StateUnregistered AgentState = "UNREGISTERED"
	StateRegistering  AgentState = "REGISTERING"
	StateRegistered   AgentState = "REGISTERED"
	StateFailed       AgentState = "FAILED"
)

// AgentIdentity describes a (possibly registered) agent. AgentID is nil
// until the on-chain registry has assigned one; once assigned it never
// changes.
type AgentIdentity struct {
	AgentID *big.Int        `json:"agent_id,omitempty"`
	Address ContractAddress `json:"address"`
	Domain  string          `json:"domain"`
	Role    AgentRole       `json:"role"`
}

// AgentRecord is a registry-side view of a registered agent, as returned by
// resolveByAddress.
type AgentRecord struct {
	AgentID *big.Int
	Domain  string
	Address ContractAddress
}
