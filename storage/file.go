package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// FileBackend stores published artifacts on the local file system, in a
// subdirectory per content type.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file backend rooted at baseDir, creating the
// content-type subdirectories if needed.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	for _, sub := range []interfaces.ContentType{interfaces.AgentCardType, interfaces.AttestationType} {
		if err := os.MkdirAll(filepath.Join(baseDir, string(sub)), 0755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", sub, err)
		}
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Store writes data under its Keccak-256 content id.
func (b *FileBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := contentID(data)
	filePath := b.filePath(id, contentType)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return id, fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return id, fmt.Errorf("writing artifact: %w", err)
	}

	b.log.Debug("stored artifact",
		slog.String("path", filePath),
		slog.String("content_id", fmt.Sprintf("%x", id)))
	return id, nil
}

// Fetch reads data by content id. Returns ErrContentNotFound if no artifact
// exists under the id.
func (b *FileBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	filePath := b.filePath(id, contentType)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	b.log.Debug("fetched artifact",
		slog.String("path", filePath),
		slog.Int("size", len(data)))
	return data, nil
}

// Available reports whether the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	if _, err := os.Stat(b.baseDir); err != nil {
		b.log.Debug("file backend unavailable", "err", err)
		return false
	}
	return true
}

// LocationURI returns the URI this backend was created from.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) filePath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return filepath.Join(b.baseDir, string(contentType), fmt.Sprintf("%x", id))
}

func contentID(data []byte) interfaces.ContentID {
	var id interfaces.ContentID
	copy(id[:], crypto.Keccak256(data))
	return id
}
