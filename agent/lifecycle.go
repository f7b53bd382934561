package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/kms"
	"github.com/attestable/tee-agent-registry/metrics"
	"github.com/attestable/tee-agent-registry/signer"
)

// Config collects the dependencies of an Agent. AgentConfig, Keys, and
// Identity are required; Reputation and Validation may be nil for agents
// that never submit feedback or validation transactions.
type Config struct {
	AgentConfig *interfaces.AgentConfig
	Keys        *kms.KeySource
	Identity    interfaces.IdentityRegistry
	Reputation  interfaces.ReputationRegistry
	Validation  interfaces.ValidationRegistry

	// Plugins is required for CUSTOM role agents.
	Plugins *PluginRegistry

	// Handler overrides the role-selected task handler when set.
	Handler TaskHandler

	Log *slog.Logger
}

// Agent is a single TEE-backed agent instance: one derived key, one
// lifecycle, one role.
type Agent struct {
	cfg        *interfaces.AgentConfig
	keys       *kms.KeySource
	identity   interfaces.IdentityRegistry
	reputation interfaces.ReputationRegistry
	validation interfaces.ValidationRegistry
	plugins    *PluginRegistry
	handler    TaskHandler
	log        *slog.Logger

	// regMu serializes Register; concurrent invocations are rejected rather
	// than queued so a second caller can never double-submit.
	regMu sync.Mutex

	mu      sync.RWMutex
	state   interfaces.AgentState
	agentID *big.Int
}

func New(cfg Config) (*Agent, error) {
	if cfg.AgentConfig == nil {
		return nil, fmt.Errorf("%w: agent config is required", interfaces.ErrInvalidConfig)
	}
	if err := cfg.AgentConfig.Validate(); err != nil {
		return nil, err
	}
	if cfg.Keys == nil {
		return nil, fmt.Errorf("%w: key source is required", interfaces.ErrInvalidConfig)
	}
	if cfg.Identity == nil {
		return nil, fmt.Errorf("%w: identity registry is required", interfaces.ErrInvalidConfig)
	}

	handler := cfg.Handler
	if handler == nil {
		var err error
		handler, err = NewTaskHandler(cfg.AgentConfig.Role, cfg.Plugins)
		if err != nil {
			return nil, err
		}
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Agent{
		cfg:        cfg.AgentConfig,
		keys:       cfg.Keys,
		identity:   cfg.Identity,
		reputation: cfg.Reputation,
		validation: cfg.Validation,
		plugins:    cfg.Plugins,
		handler:    handler,
		log:        log.With("domain", cfg.AgentConfig.Domain, "role", cfg.AgentConfig.Role.String()),
		state:      interfaces.StateUnregistered,
	}, nil
}

// Status returns the current lifecycle state. Valid in every state.
func (a *Agent) Status() interfaces.AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// AgentInfo returns the agent's identity. AgentID is nil unless the agent
// is REGISTERED.
func (a *Agent) AgentInfo(ctx context.Context) (*interfaces.AgentIdentity, error) {
	addr, err := a.keys.DeriveAddress(ctx)
	if err != nil {
		return nil, err
	}
	contractAddr, err := interfaces.NewContractAddressFromBytes(addr.Bytes())
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	info := &interfaces.AgentIdentity{
		Address: contractAddr,
		Domain:  a.cfg.Domain,
		Role:    a.cfg.Role,
	}
	if a.state == interfaces.StateRegistered && a.agentID != nil {
		info.AgentID = new(big.Int).Set(a.agentID)
	}
	return info, nil
}

// Signer returns a signer over the derived agent key, bound to the
// configured chain id.
func (a *Agent) Signer(ctx context.Context) (*signer.Signer, error) {
	key, err := a.keys.DerivedKey(ctx)
	if err != nil {
		return nil, err
	}
	return signer.New(key, a.cfg.ChainID), nil
}

// Register ensures the agent is registered with the identity registry and
// returns its identity. If the registry already holds an entry for the
// derived address, the existing agent id is adopted without submitting a
// transaction. Only one invocation may be in flight per instance; a failed
// registration is retried only by calling Register again.
func (a *Agent) Register(ctx context.Context) (*interfaces.AgentIdentity, error) {
	if !a.regMu.TryLock() {
		return nil, interfaces.ErrRegistrationInFlight
	}
	defer a.regMu.Unlock()

	if a.Status() == interfaces.StateRegistered {
		return a.AgentInfo(ctx)
	}

	addr, err := a.keys.DeriveAddress(ctx)
	if err != nil {
		return nil, err
	}
	contractAddr, err := interfaces.NewContractAddressFromBytes(addr.Bytes())
	if err != nil {
		return nil, err
	}

	// Idempotency check before any transaction leaves the instance.
	existing, err := a.identity.ResolveByAddress(ctx, contractAddr)
	switch {
	case err == nil:
		a.log.Info("adopting existing registration", "agent_id", existing.AgentID)
		a.setRegistered(existing.AgentID)
		metrics.RegistrationsTotal.WithLabelValues("adopted").Inc()
		return a.AgentInfo(ctx)
	case errors.Is(err, interfaces.ErrAgentNotFound):
		// fall through to register
	default:
		return nil, fmt.Errorf("resolving existing registration: %w", err)
	}

	a.setState(interfaces.StateRegistering)

	agentID, err := a.submitRegistration(ctx, contractAddr)
	if err != nil {
		a.setState(interfaces.StateFailed)
		metrics.RegistrationsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	a.log.Info("agent registered", "agent_id", agentID, "address", contractAddr)
	a.setRegistered(agentID)
	metrics.RegistrationsTotal.WithLabelValues("registered").Inc()
	return a.AgentInfo(ctx)
}

func (a *Agent) submitRegistration(ctx context.Context, addr interfaces.ContractAddress) (*big.Int, error) {
	fee, err := a.identity.RegistrationFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching registration fee: %w", err)
	}

	tx, err := a.identity.Register(ctx, a.cfg.Domain, addr, fee)
	if err != nil {
		return nil, fmt.Errorf("submitting registration: %w", err)
	}
	a.log.Info("registration submitted", "tx", tx.Hash(), "fee", fee)

	agentID, err := a.identity.WaitRegistered(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("awaiting registration receipt: %w", err)
	}
	return agentID, nil
}

func (a *Agent) setState(state interfaces.AgentState) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
}

func (a *Agent) setRegistered(agentID *big.Int) {
	a.mu.Lock()
	a.state = interfaces.StateRegistered
	a.agentID = new(big.Int).Set(agentID)
	a.mu.Unlock()
}

// registeredID returns the assigned agent id, or an error when the agent is
// not REGISTERED.
func (a *Agent) registeredID() (*big.Int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != interfaces.StateRegistered || a.agentID == nil {
		return nil, fmt.Errorf("%w: agent is %s", interfaces.ErrAgentNotFound, a.state)
	}
	return new(big.Int).Set(a.agentID), nil
}
