package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// AgentCard is the public, role-variant description of an agent, served
// over HTTP and publishable to storage backends for discovery.
type AgentCard struct {
	Domain       string   `json:"domain"`
	Address      string   `json:"address"`
	Role         string   `json:"role"`
	AgentID      *big.Int `json:"agent_id,omitempty"`
	Capabilities []string `json:"capabilities"`
	TrustModels  []string `json:"trust_models"`
	Endpoints    []string `json:"endpoints"`
}

func roleCapabilities(role interfaces.AgentRole, plugins *PluginRegistry) []string {
	switch role {
	case interfaces.RoleServer:
		return []string{"task-execution", "feedback-authorization"}
	case interfaces.RoleValidator:
		return []string{"validation", "data-hash-commitment"}
	case interfaces.RoleClient:
		return []string{"task-submission"}
	case interfaces.RoleCustom:
		caps := []string{"plugin-dispatch"}
		if plugins != nil {
			for _, name := range plugins.Names() {
				caps = append(caps, "plugin:"+name)
			}
		}
		return caps
	default:
		return nil
	}
}

// Card builds the agent card from the current identity. The trust model
// reflects the key derivation mode: TEE-backed agents advertise attestation
// support.
func (a *Agent) Card(ctx context.Context) (*AgentCard, error) {
	info, err := a.AgentInfo(ctx)
	if err != nil {
		return nil, err
	}

	trust := []string{"signature"}
	endpoints := []string{"/api/public/agent_card", "/api/tasks", "/api/public/status"}
	if a.cfg.UseTEEAuth {
		trust = append(trust, "tee-attestation")
		endpoints = append(endpoints, "/api/attested/quote")
	}

	return &AgentCard{
		Domain:       info.Domain,
		Address:      info.Address.String(),
		Role:         info.Role.String(),
		AgentID:      info.AgentID,
		Capabilities: roleCapabilities(a.cfg.Role, a.plugins),
		TrustModels:  trust,
		Endpoints:    endpoints,
	}, nil
}

// PublishCard stores the JSON-encoded agent card in the given backend and
// returns its content id.
func (a *Agent) PublishCard(ctx context.Context, backend interfaces.StorageBackend) (interfaces.ContentID, error) {
	card, err := a.Card(ctx)
	if err != nil {
		return interfaces.ContentID{}, err
	}

	data, err := json.Marshal(card)
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("encoding agent card: %w", err)
	}

	id, err := backend.Store(ctx, data, interfaces.AgentCardType)
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("publishing agent card: %w", err)
	}
	a.log.Info("agent card published", "content_id", fmt.Sprintf("%x", id), "backend", backend.LocationURI())
	return id, nil
}
