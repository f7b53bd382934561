package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// TaskHandler processes a single task and returns its output. Handlers are
// selected by role tag at construction time.
type TaskHandler interface {
	Handle(ctx context.Context, task Task) (json.RawMessage, error)
}

// NewTaskHandler returns the handler variant for the given role. Custom
// agents dispatch to plugins by task kind and require a plugin registry.
func NewTaskHandler(role interfaces.AgentRole, plugins *PluginRegistry) (TaskHandler, error) {
	switch role {
	case interfaces.RoleServer:
		return &serverHandler{}, nil
	case interfaces.RoleValidator:
		return &validatorHandler{}, nil
	case interfaces.RoleClient:
		return &clientHandler{}, nil
	case interfaces.RoleCustom:
		if plugins == nil {
			return nil, fmt.Errorf("%w: custom role requires a plugin registry", interfaces.ErrInvalidConfig)
		}
		return &customHandler{plugins: plugins}, nil
	default:
		return nil, fmt.Errorf("%w: no task handler for role %q", interfaces.ErrInvalidConfig, role)
	}
}

// serverHandler acknowledges the task and echoes its payload, the baseline
// behavior for agents serving requests from other agents.
type serverHandler struct{}

func (h *serverHandler) Handle(ctx context.Context, task Task) (json.RawMessage, error) {
	out, err := json.Marshal(map[string]any{
		"kind":   task.Kind,
		"served": true,
		"echo":   task.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding server response: %w", err)
	}
	return out, nil
}

// validatorHandler commits to the payload it was asked to validate. The
// digest in the output is the hash a validation request would carry
// on-chain.
type validatorHandler struct{}

func (h *validatorHandler) Handle(ctx context.Context, task Task) (json.RawMessage, error) {
	if len(task.Payload) == 0 {
		return nil, fmt.Errorf("validator task %s carries no payload", task.ID)
	}

	digest := crypto.Keccak256(task.Payload)
	out, err := json.Marshal(map[string]any{
		"kind":        task.Kind,
		"data_hash":   fmt.Sprintf("0x%x", digest),
		"payload_len": len(task.Payload),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding validation response: %w", err)
	}
	return out, nil
}

// clientHandler shapes the payload into an outbound request envelope.
type clientHandler struct{}

func (h *clientHandler) Handle(ctx context.Context, task Task) (json.RawMessage, error) {
	out, err := json.Marshal(map[string]any{
		"kind":    task.Kind,
		"request": task.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding client request: %w", err)
	}
	return out, nil
}

// customHandler dispatches by task kind to the injected plugin registry.
type customHandler struct {
	plugins *PluginRegistry
}

func (h *customHandler) Handle(ctx context.Context, task Task) (json.RawMessage, error) {
	p, ok := h.plugins.Get(task.Kind)
	if !ok {
		return nil, fmt.Errorf("no plugin registered for task kind %q", task.Kind)
	}
	return p.Handle(ctx, task)
}
