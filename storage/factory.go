package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// Factory creates storage backends from location URIs.
type Factory struct {
	log *slog.Logger
}

func NewFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// StorageBackendFor creates a backend from a location URI. Supported
// schemes are file:// and s3://.
func (f *Factory) StorageBackendFor(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileBackend(u)
	case "s3":
		return f.createS3Backend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend aggregates backends for all valid URIs. URIs that fail
// to produce a backend are logged and skipped; at least one must succeed.
func (f *Factory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))
	for _, location := range locations {
		backend, err := f.StorageBackendFor(location)
		if err != nil {
			f.log.Warn("skipping storage backend",
				"err", err,
				slog.String("location", string(location)))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no valid storage backends", interfaces.ErrInvalidLocationURI)
	}
	return NewMultiStorageBackend(backends, f.log), nil
}

// createFileBackend handles file:///absolute/path and file://host/path
// forms.
func (f *Factory) createFileBackend(u *url.URL) (interfaces.StorageBackend, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidLocationURI, u.String())
	}
	return NewFileBackend(path, f.log)
}

// createS3Backend handles s3://[KEY:SECRET@]bucket/prefix?region=...&endpoint=...
func (f *Factory) createS3Backend(u *url.URL) (interfaces.StorageBackend, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidLocationURI, u.String())
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Backend(bucket, prefix, region, endpoint, accessKey, secretKey, f.log)
}
