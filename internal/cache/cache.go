// Package cache stores computed score results keyed by the record they were computed from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/jobtrust/internal/model"
)

// KeyPrefix versions every key; bump it when rule weights or calibration change
const KeyPrefix = "jobtrust:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// RecordKey derives a cache key from the canonical JSON of a record.
// Platform and collection method are part of the record, so two collections of the
// same posting through different methods never share an entry.
func RecordKey(record model.JobRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	hash := sha256.Sum256(data)
	return KeyPrefix + hex.EncodeToString(hash[:]), nil
}

// New builds the cache described by cfg: memory only, or memory over disk when a
// directory is configured. It returns nil when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	memory := NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	if cfg.DiskDir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(cfg.DiskDir, cfg.DiskTTL))
}
