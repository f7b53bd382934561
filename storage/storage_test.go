package storage

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestable/tee-agent-registry/interfaces"
)

func discardLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir(), discardLog())
	require.NoError(t, err)
	assert.True(t, b.Available(ctx))

	data := []byte(`{"domain":"agent.example.com"}`)
	id, err := b.Store(ctx, data, interfaces.AgentCardType)
	require.NoError(t, err)

	var want interfaces.ContentID
	copy(want[:], crypto.Keccak256(data))
	assert.Equal(t, want, id, "content id is the keccak256 of the data")

	got, err := b.Fetch(ctx, id, interfaces.AgentCardType)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFileBackendMissingContent(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir(), discardLog())
	require.NoError(t, err)

	_, err = b.Fetch(ctx, interfaces.ContentID{0x01}, interfaces.AttestationType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackendSeparatesContentTypes(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir(), discardLog())
	require.NoError(t, err)

	data := []byte("artifact")
	id, err := b.Store(ctx, data, interfaces.AgentCardType)
	require.NoError(t, err)

	_, err = b.Fetch(ctx, id, interfaces.AttestationType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

type stubBackend struct {
	uri       string
	available bool
	failStore bool
	stored    map[interfaces.ContentID][]byte
}

func newStubBackend(uri string, available bool) *stubBackend {
	return &stubBackend{uri: uri, available: available, stored: make(map[interfaces.ContentID][]byte)}
}

func (s *stubBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	if s.failStore {
		return interfaces.ContentID{}, errors.New("store failed")
	}
	id := contentID(data)
	s.stored[id] = data
	return id, nil
}

func (s *stubBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	data, ok := s.stored[id]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	return data, nil
}

func (s *stubBackend) Available(ctx context.Context) bool { return s.available }
func (s *stubBackend) LocationURI() string                { return s.uri }

func TestMultiStorageStoresToAllAvailable(t *testing.T) {
	ctx := context.Background()
	up1 := newStubBackend("stub://one", true)
	down := newStubBackend("stub://down", false)
	up2 := newStubBackend("stub://two", true)

	m := NewMultiStorageBackend([]interfaces.StorageBackend{up1, down, up2}, discardLog())

	data := []byte("replicated artifact")
	id, err := m.Store(ctx, data, interfaces.AgentCardType)
	require.NoError(t, err)

	assert.Contains(t, up1.stored, id)
	assert.Contains(t, up2.stored, id)
	assert.Empty(t, down.stored)
}

func TestMultiStorageFetchFallsBack(t *testing.T) {
	ctx := context.Background()
	empty := newStubBackend("stub://empty", true)
	holder := newStubBackend("stub://holder", true)

	data := []byte("artifact")
	id, err := holder.Store(ctx, data, interfaces.AgentCardType)
	require.NoError(t, err)

	m := NewMultiStorageBackend([]interfaces.StorageBackend{empty, holder}, discardLog())
	got, err := m.Fetch(ctx, id, interfaces.AgentCardType)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMultiStorageAllFail(t *testing.T) {
	ctx := context.Background()
	failing := newStubBackend("stub://failing", true)
	failing.failStore = true

	m := NewMultiStorageBackend([]interfaces.StorageBackend{failing}, discardLog())

	_, err := m.Store(ctx, []byte("x"), interfaces.AgentCardType)
	assert.Error(t, err)

	_, err = m.Fetch(ctx, interfaces.ContentID{0x02}, interfaces.AgentCardType)
	assert.Error(t, err)
}

func TestFactorySchemes(t *testing.T) {
	f := NewFactory(discardLog())

	t.Run("file scheme", func(t *testing.T) {
		b, err := f.StorageBackendFor(interfaces.StorageBackendLocation("file://" + t.TempDir()))
		require.NoError(t, err)
		assert.IsType(t, &FileBackend{}, b)
	})

	t.Run("s3 scheme", func(t *testing.T) {
		b, err := f.StorageBackendFor("s3://bucket/cards?region=eu-west-1")
		require.NoError(t, err)
		assert.IsType(t, &S3Backend{}, b)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := f.StorageBackendFor("ftp://host/path")
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})

	t.Run("multi backend skips invalid locations", func(t *testing.T) {
		b, err := f.CreateMultiBackend([]interfaces.StorageBackendLocation{
			interfaces.StorageBackendLocation("file://" + t.TempDir()),
			"bogus://nowhere",
		})
		require.NoError(t, err)
		assert.IsType(t, &MultiStorageBackend{}, b)
	})

	t.Run("multi backend with nothing valid", func(t *testing.T) {
		_, err := f.CreateMultiBackend([]interfaces.StorageBackendLocation{"bogus://nowhere"})
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})
}
