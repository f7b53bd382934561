// Package interfaces defines core interfaces and types for the TEE agent
// identity system, separating interface definitions from implementations.
//
// The package provides the contracts between the main components:
//
// # TEE Service
//
// TEEClient: Client-side view of the trusted execution environment service.
// It exposes instance information, deterministic key derivation and hardware
// quote generation. Implementations live in the teeclient package.
//
// # On-Chain Registries
//
// IdentityRegistry: Maps a (domain, address) pair to a unique agent
// identifier and collects the registration fee.
//
// ReputationRegistry: Accepts signature-based feedback authorizations
// between registered agents.
//
// ValidationRegistry: Accepts signed validation requests keyed by agent
// identifier pairs and content hashes.
//
// # Storage
//
// StorageBackend: Content-addressed artifact storage (agent cards,
// attestation bundles) across multiple backend types (file, S3).
//
// # Configuration Types
//
// AgentConfig is the immutable per-process configuration value. It is built
// once at startup and passed by reference to every component; there is no
// hidden global. RegistryAddresses carries the deployed contract addresses.
package interfaces
