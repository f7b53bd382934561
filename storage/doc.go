// Package storage provides content-addressed backends for published agent
// artifacts: agent cards and attestation bundles. Content ids are the
// Keccak-256 hash of the stored data, so identical artifacts land on the
// same id across backends.
//
// Backends are created from location URIs by the factory:
//
//	file:///var/lib/agent/artifacts
//	s3://bucket/prefix?region=us-east-1
//
// A multi-backend aggregates several locations, storing to every available
// backend and fetching from the first that holds the content.
package storage
