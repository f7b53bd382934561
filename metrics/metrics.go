// Package metrics exposes the Prometheus instrumentation and the
// standalone metrics listener.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RegistrationsTotal counts registration attempts by outcome
	// (registered, adopted, failed).
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_registrations_total",
		Help: "Agent registration attempts by outcome",
	}, []string{"outcome"})

	// TasksTotal counts processed tasks by terminal status.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_tasks_total",
		Help: "Processed tasks by status",
	}, []string{"status"})

	// AttestationsTotal counts issued quotes by mode (tdx, development).
	AttestationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_attestations_total",
		Help: "Issued attestation quotes by mode",
	}, []string{"mode"})
)

// Server serves /metrics on its own listen address, kept separate from the
// public API listener.
type Server struct {
	srv *http.Server
}

func NewMetricsServer(listenAddr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
