package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// ErrNoTransactOpts is returned when a state-changing call is attempted
// without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// receipt polling bounds for WaitRegistered
const (
	receiptPollInitial = 500 * time.Millisecond
	receiptPollMax     = 5 * time.Second
)

// IdentityClient implements interfaces.IdentityRegistry against the
// deployed identity registry contract.
type IdentityClient struct {
	contract *bind.BoundContract
	abi      abi.ABI
	client   bind.ContractBackend
	backend  bind.DeployBackend
	address  interfaces.ContractAddress
	auth     *bind.TransactOpts
}

// NewIdentityClient creates a client for the identity registry at the given
// address. client serves reads, backend serves receipt lookups.
func NewIdentityClient(client bind.ContractBackend, backend bind.DeployBackend, address interfaces.ContractAddress) (*IdentityClient, error) {
	parsed, err := abi.JSON(strings.NewReader(identityRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parsing identity registry abi: %w", err)
	}

	return &IdentityClient{
		contract: bind.NewBoundContract(address.Common(), parsed, client, client, client),
		abi:      parsed,
		client:   client,
		backend:  backend,
		address:  address,
	}, nil
}

// SetTransactOpts sets the transaction options required for register().
// Must be called before any method that sends a transaction.
func (c *IdentityClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// RegistrationFee returns the fee the register call must carry.
func (c *IdentityClient) RegistrationFee(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "registrationFee")
	if err != nil {
		return nil, fmt.Errorf("%w: registrationFee: %v", interfaces.ErrRPCUnavailable, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// ResolveByAddress looks up the registered agent for an address. Returns
// interfaces.ErrAgentNotFound when the registry holds no entry.
func (c *IdentityClient) ResolveByAddress(ctx context.Context, addr interfaces.ContractAddress) (*interfaces.AgentRecord, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "resolveByAddress", addr.Common())
	if err != nil {
		return nil, fmt.Errorf("%w: resolveByAddress: %v", interfaces.ErrRPCUnavailable, err)
	}

	agentID := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	if agentID.Sign() == 0 {
		return nil, interfaces.ErrAgentNotFound
	}

	domain := *abi.ConvertType(out[1], new(string)).(*string)
	return &interfaces.AgentRecord{
		AgentID: agentID,
		Domain:  domain,
		Address: addr,
	}, nil
}

// Register submits the fee-bearing registration transaction for the
// (domain, address) pair.
func (c *IdentityClient) Register(ctx context.Context, domain string, addr interfaces.ContractAddress, fee *big.Int) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx
	opts.Value = fee

	tx, err := c.contract.Transact(&opts, "register", domain, addr.Common())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrRegistrationFailed, err)
	}
	return tx, nil
}

// WaitRegistered polls for the registration receipt and extracts the
// assigned agent id from the AgentRegistered event. The caller's context
// bounds the wait; expiry or an on-chain revert surfaces as
// interfaces.ErrRegistrationFailed.
func (c *IdentityClient) WaitRegistered(ctx context.Context, tx *types.Transaction) (*big.Int, error) {
	policy := backoff.WithContext(newReceiptBackoff(), ctx)

	var receipt *types.Receipt
	err := backoff.Retry(func() error {
		r, err := c.backend.TransactionReceipt(ctx, tx.Hash())
		if err != nil {
			return err // not yet mined, keep polling
		}
		receipt = r
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for receipt: %v", interfaces.ErrRegistrationFailed, err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted", interfaces.ErrRegistrationFailed, tx.Hash())
	}

	agentID, err := c.agentIDFromLogs(receipt.Logs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrRegistrationFailed, err)
	}
	return agentID, nil
}

func (c *IdentityClient) agentIDFromLogs(logs []*types.Log) (*big.Int, error) {
	eventID := c.abi.Events["AgentRegistered"].ID
	for _, l := range logs {
		if l.Address != c.address.Common() || len(l.Topics) < 2 || l.Topics[0] != eventID {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[1].Bytes()), nil
	}
	return nil, errors.New("no AgentRegistered event in receipt")
}

func newReceiptBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = receiptPollInitial
	b.MaxInterval = receiptPollMax
	b.MaxElapsedTime = 0 // caller context bounds the wait
	return b
}

// ReputationClient implements interfaces.ReputationRegistry.
type ReputationClient struct {
	contract *bind.BoundContract
	auth     *bind.TransactOpts
}

// NewReputationClient creates a client for the reputation registry.
func NewReputationClient(client bind.ContractBackend, address interfaces.ContractAddress) (*ReputationClient, error) {
	parsed, err := abi.JSON(strings.NewReader(reputationRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parsing reputation registry abi: %w", err)
	}
	return &ReputationClient{
		contract: bind.NewBoundContract(address.Common(), parsed, client, client, client),
	}, nil
}

// SetTransactOpts sets the transaction options for state-changing calls.
func (c *ReputationClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// AuthorizeFeedback submits a signed feedback authorization between a
// client and server agent id pair.
func (c *ReputationClient) AuthorizeFeedback(ctx context.Context, clientID, serverID *big.Int, signature []byte) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx
	return c.contract.Transact(&opts, "acceptFeedback", clientID, serverID, signature)
}

// ValidationClient implements interfaces.ValidationRegistry.
type ValidationClient struct {
	contract *bind.BoundContract
	auth     *bind.TransactOpts
}

// NewValidationClient creates a client for the validation registry.
func NewValidationClient(client bind.ContractBackend, address interfaces.ContractAddress) (*ValidationClient, error) {
	parsed, err := abi.JSON(strings.NewReader(validationRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parsing validation registry abi: %w", err)
	}
	return &ValidationClient{
		contract: bind.NewBoundContract(address.Common(), parsed, client, client, client),
	}, nil
}

// SetTransactOpts sets the transaction options for state-changing calls.
func (c *ValidationClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// RequestValidation submits a signed validation request keyed by the
// validator/server agent id pair and a content hash.
func (c *ValidationClient) RequestValidation(ctx context.Context, validatorID, serverID *big.Int, dataHash [32]byte, signature []byte) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx
	return c.contract.Transact(&opts, "validationRequest", validatorID, serverID, dataHash, signature)
}
