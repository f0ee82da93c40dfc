// Package cache keeps raw snapshot bytes so unchanged input files are not
// re-read from disk on every request.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SnapshotKey derives a cache key from a file's identity. Any change to
// the file's modification time or size yields a new key.
func SnapshotKey(path string, modTime time.Time, size int64) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", path, modTime.UnixNano(), size)))
	return "aidmatch:snapshot:v1:" + hex.EncodeToString(hash[:])
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
