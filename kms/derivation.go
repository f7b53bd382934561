package kms

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyPathInfo domain-separates agent signing keys from any other keys the
// TEE service may derive for this application.
const keyPathInfo = "tee-agent-registry/signing-key/v1"

// KeyID expands a (domain, salt) pair into the stable derivation path
// identifier sent to the TEE service. The expansion is HKDF-SHA256 keyed on
// the domain with the salt as HKDF salt, so distinct salts under one domain
// map to unrelated identifiers.
func KeyID(domain, salt string) (string, error) {
	r := hkdf.New(sha256.New, []byte(domain), []byte(salt), []byte(keyPathInfo))

	id := make([]byte, 32)
	if _, err := io.ReadFull(r, id); err != nil {
		return "", fmt.Errorf("hkdf expansion failed: %w", err)
	}
	return hex.EncodeToString(id), nil
}
