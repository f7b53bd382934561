package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// MultiStorageBackend aggregates several backends. Store writes to every
// available backend; Fetch returns from the first that holds the content.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

func NewMultiStorageBackend(backends []interfaces.StorageBackend, log *slog.Logger) *MultiStorageBackend {
	if log == nil {
		log = slog.Default()
	}
	return &MultiStorageBackend{backends: backends, log: log}
}

func (m *MultiStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	var result interfaces.ContentID
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("backend unavailable", slog.String("backend", backend.LocationURI()))
			continue
		}

		id, err := backend.Store(ctx, data, contentType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.LocationURI(), err))
			continue
		}
		if !success {
			result = id
			success = true
		}
	}

	if !success {
		return result, fmt.Errorf("all backends failed to store artifact: %v", errs)
	}
	return result, nil
}

func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil {
			return data, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.LocationURI(), err))
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("no available backends for %x", id[:8])
	}
	return nil, fmt.Errorf("all backends failed to fetch %x: %v", id[:8], errs)
}

// Available reports whether any aggregated backend is reachable.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStorageBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
