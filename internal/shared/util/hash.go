package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerKey maps an owner id such as "google:123" or "guest:abc" to an opaque
// path segment, so object keys never expose account identifiers.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte("owner\x00" + ownerID))
	return hex.EncodeToString(sum[:16])
}
