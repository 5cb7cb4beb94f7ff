package directory

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPassword returns the lower-case hex SHA-256 digest of plain. The
// directory service compares these digests as-is; there is no salt.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
