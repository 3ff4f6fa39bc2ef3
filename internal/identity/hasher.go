// Package identity provides privacy-preserving hashing of caller
// network addresses. Only the digest is ever stored, so conversation
// records and rate-limit counts never contain a raw address.
package identity

import (
	"crypto/sha256"
	"fmt"
)

// Hash returns the SHA-256 hex digest of a caller address. The hash is
// deterministic and unsalted so the same caller always maps to the same
// digest, which is what daily quota counting relies on.
func Hash(addr string) string {
	sum := sha256.Sum256([]byte(addr))
	return fmt.Sprintf("%x", sum)
}
