// Package idhash derives stable 128-bit ids from free-form operator strings.
package idhash

import (
	"crypto/sha256"
	"strings"

	"github.com/google/uuid"
)

// Resolve returns raw parsed as a UUID if it already is one; otherwise it
// derives a deterministic UUID from the first 16 bytes of the SHA-256 digest
// of the trimmed UTF-8 string. The mapping is stable across processes.
func Resolve(raw string) uuid.UUID {
	trimmed := strings.TrimSpace(raw)
	if id, err := uuid.Parse(trimmed); err == nil {
		return id
	}
	sum := sha256.Sum256([]byte(trimmed))
	var id uuid.UUID
	copy(id[:], sum[:16])
	return id
}
