package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey maps any key to a 16-hex-character file name.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}
