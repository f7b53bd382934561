package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestable/tee-agent-registry/agent"
	"github.com/attestable/tee-agent-registry/attestation"
	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/kms"
	"github.com/attestable/tee-agent-registry/registry"
)

func testServer(t *testing.T) (*Server, *registry.FakeIdentityRegistry) {
	t.Helper()

	cfg := &interfaces.AgentConfig{
		Domain:        "test.example.com",
		Salt:          "test-salt-123",
		Role:          interfaces.RoleServer,
		ChainID:       31337,
		RawPrivateKey: "0x1111111111111111111111111111111111111111111111111111111111111111",
	}
	log := slog.New(slog.DiscardHandler)

	keys, err := kms.NewKeySource(cfg, nil)
	require.NoError(t, err)

	fake := registry.NewFakeIdentityRegistry(big.NewInt(1))
	a, err := agent.New(agent.Config{
		AgentConfig: cfg,
		Keys:        keys,
		Identity:    fake,
		Log:         log,
	})
	require.NoError(t, err)

	att := attestation.NewService(cfg, keys, nil, time.Second, log)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
		Log:                      log,
	}, NewHandler(a, att, log))
	require.NoError(t, err)
	return srv, fake
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(rec, req)
	return rec
}

func TestHandleAgentCard(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/public/agent_card", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var card agent.AgentCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "test.example.com", card.Domain)
	assert.Equal(t, "SERVER", card.Role)
	assert.NotEmpty(t, card.Address)
}

func TestHandleStatus(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/public/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, string(interfaces.StateUnregistered), status.State)
	assert.Empty(t, status.AgentID)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHandleQuote(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/attested/quote", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote attestation.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, attestation.ModeDevelopment, quote.Mode)
	assert.Equal(t, attestation.ReportDataSize, quote.ApplicationData.Size)
}

func TestHandleTask(t *testing.T) {
	srv, _ := testServer(t)

	body, err := json.Marshal(agent.Task{
		ID:      "t-1",
		Kind:    "echo",
		Payload: json.RawMessage(`{"x":1}`),
	})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result agent.TaskResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "t-1", result.TaskID)
	assert.Equal(t, agent.TaskCompleted, result.Status)
}

func TestHandleTaskRejectsBadRequests(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/tasks", []byte("not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/tasks", []byte(`{"id":"t-2"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing kind")
}

func TestReadinessAndDrain(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/drain", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/undrain", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
