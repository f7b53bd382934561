package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/attestable/tee-agent-registry/agent"
	"github.com/attestable/tee-agent-registry/attestation"
)

// maxBodySize caps task submissions at 1MB.
const maxBodySize = 1024 * 1024

// RequestError carries an HTTP status code alongside the underlying error.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Handler processes the agent's HTTP API requests.
type Handler struct {
	agent       *agent.Agent
	attestation *attestation.Service
	log         *slog.Logger
}

func NewHandler(a *agent.Agent, att *attestation.Service, log *slog.Logger) *Handler {
	return &Handler{
		agent:       a,
		attestation: att,
		log:         log,
	}
}

// HandleAgentCard serves the public agent card.
//
// GET /api/public/agent_card
func (h *Handler) HandleAgentCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.agent.Card(r.Context())
	if err != nil {
		h.log.Error("Failed to build agent card", "err", err)
		http.Error(w, "agent card unavailable", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// statusResponse reports the lifecycle state and identity of the agent.
type statusResponse struct {
	State     string    `json:"state"`
	AgentID   string    `json:"agent_id,omitempty"`
	Address   string    `json:"address"`
	Domain    string    `json:"domain"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleStatus serves the lifecycle state. Valid in every state.
//
// GET /api/public/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	info, err := h.agent.AgentInfo(r.Context())
	if err != nil {
		h.log.Error("Failed to read agent identity", "err", err)
		http.Error(w, "agent identity unavailable", http.StatusInternalServerError)
		return
	}

	resp := statusResponse{
		State:     string(h.agent.Status()),
		Address:   info.Address.String(),
		Domain:    info.Domain,
		Role:      info.Role.String(),
		Timestamp: time.Now().UTC(),
	}
	if info.AgentID != nil {
		resp.AgentID = info.AgentID.String()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleQuote serves a fresh attestation quote. The Mode field of the
// response distinguishes hardware-backed quotes from development-mode
// degradation; clients must inspect it.
//
// GET /api/attested/quote
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.attestation.GetAttestation(r.Context())
	if err != nil {
		h.log.Error("Failed to produce attestation", "err", err)
		http.Error(w, "attestation unavailable", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// HandleTask accepts a task and returns its result. Handler failures are
// reported as status=error results with HTTP 200; only malformed requests
// produce HTTP errors.
//
// POST /api/tasks
func (h *Handler) HandleTask(w http.ResponseWriter, r *http.Request) {
	var task agent.Task
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := decoder.Decode(&task); err != nil {
		http.Error(w, "invalid task payload", http.StatusBadRequest)
		return
	}
	if task.Kind == "" {
		http.Error(w, "task kind is required", http.StatusBadRequest)
		return
	}

	result := h.agent.ProcessTask(r.Context(), task)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
