package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores raw inference payloads
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// QueryKey derives a cache key from the inference endpoint and the query.
// The query is hashed verbatim: "theft" and "theft " are different keys.
func QueryKey(endpoint, query string) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return "lawai:v1:" + hex.EncodeToString(h.Sum(nil))
}
