package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// BlobKey returns prefix + ":" + the first 32 hex chars of sha256(url).
// URLs can be long or contain characters some providers reject.
func BlobKey(prefix, url string) string {
	sum := sha256.Sum256([]byte(url))
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
