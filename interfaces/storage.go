package interfaces

import "context"

// ContentID is a 32-byte Keccak-256 hash identifying stored content.
type ContentID [32]byte

// ContentType partitions stored artifacts by kind.
type ContentType string

const (
	// AgentCardType is a published agent card document.
	AgentCardType ContentType = "cards"

	// AttestationType is a published attestation bundle (quote, event log,
	// application data) for independent verification.
	AttestationType ContentType = "attestations"
)

// StorageBackendLocation is a backend URI, e.g. file:///var/lib/agent or
// s3://bucket/prefix?region=us-east-1.
type StorageBackendLocation string

// StorageBackend provides content-addressed storage for published agent
// artifacts. Persistence of agent identity itself is out of scope; backends
// hold published documents only.
type StorageBackend interface {
	// Store persists data and returns its content id.
	Store(ctx context.Context, data []byte, contentType ContentType) (ContentID, error)

	// Fetch retrieves data by content id. Returns ErrContentNotFound if the
	// backend does not hold the content.
	Fetch(ctx context.Context, id ContentID, contentType ContentType) ([]byte, error)

	// Available reports whether the backend is currently reachable.
	Available(ctx context.Context) bool

	// LocationURI returns the URI this backend was created from.
	LocationURI() string
}

// StorageBackendFactory creates storage backends from location URIs.
type StorageBackendFactory interface {
	StorageBackendFor(location StorageBackendLocation) (StorageBackend, error)
	CreateMultiBackend(locations []StorageBackendLocation) (StorageBackend, error)
}
