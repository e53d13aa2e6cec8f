package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface shared by all cache layers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from arbitrary content (e.g. the text being
// translated plus its language pair).
func Key(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "worldbrief:v1:" + hex.EncodeToString(sum[:])
}
