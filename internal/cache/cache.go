package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/medusecase/internal/model"
)

// Cache stores cleaned model answers keyed by the prompt that produced them
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the provider, model and prompt.
// Changing any of the three yields a different key.
func Key(provider, modelName, prompt string) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "medusecase:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory in front of disk, memory only
// when no directory is set, or a no-op cache when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
