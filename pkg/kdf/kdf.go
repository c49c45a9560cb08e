// Package kdf derives per-project content-encryption keys from a single
// master key using HKDF-SHA256, so that no two projects' envelopes are
// decryptable with the same derived key even if the master key leaks
// alongside one project's data.
package kdf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32

	// info is fixed per the spec's HKDF parameterization; it distinguishes
	// this derivation from any other consumer of the same master key.
	info = "file-encryption"
)

// MasterKeySize is the required master key length in bytes. A master key
// of any other length is rejected outright rather than padded or truncated.
const MasterKeySize = 32

// DeriveProjectKey derives the 32-byte AES-256-GCM key for projectID from
// masterKey, using projectID as the HKDF salt. The same (masterKey,
// projectID) pair always yields the same key.
func DeriveProjectKey(masterKey []byte, projectID string) ([]byte, error) {
	if len(masterKey) != MasterKeySize {
		return nil, fmt.Errorf("kdf: master key must be exactly %d bytes, got %d", MasterKeySize, len(masterKey))
	}
	if projectID == "" {
		return nil, fmt.Errorf("kdf: projectID must not be empty")
	}

	reader := hkdf.New(sha256.New, masterKey, []byte(projectID), []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("kdf: deriving project key: %w", err)
	}
	return key, nil
}
