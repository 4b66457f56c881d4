// Package cache implements the verification result cache.
//
// The cache has two layers: a go-cache memory layer holding deserialized
// verifications for hot lookups, and durable cache entries in the store that
// carry access metadata (recency, count, languages served) for external
// eviction policies. Failures in either layer are non-fatal and degrade to a
// cache miss.
package cache

import (
	"context"
	"time"

	"github.com/factchecker/veridex/internal/database"
	"github.com/factchecker/veridex/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// VerificationCache maps content fingerprints to previously computed
// verifications.
type VerificationCache struct {
	memory *gocache.Cache
	store  database.Store
}

// New creates a verification cache over the given store.
func New(store database.Store, ttl, cleanupInterval time.Duration) *VerificationCache {
	return &VerificationCache{
		memory: gocache.New(ttl, cleanupInterval),
		store:  store,
	}
}

// Lookup returns the cached verification for a fingerprint, or nil on a miss.
// A hit bumps the entry's access count and recency and records the requested
// language. Store failures are logged and treated as misses.
func (c *VerificationCache) Lookup(ctx context.Context, fingerprint, language string) *models.Verification {
	entry, err := c.store.TouchCacheEntry(ctx, fingerprint, language)
	if err != nil {
		log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Cache lookup failed, treating as miss")
		return nil
	}
	if entry == nil {
		return nil
	}

	if cached, found := c.memory.Get(fingerprint); found {
		if v, ok := cached.(*models.Verification); ok {
			return v
		}
	}

	v, err := c.store.GetVerification(ctx, entry.VerificationID)
	if err != nil {
		log.Warn().Err(err).Str("verification_id", entry.VerificationID).Msg("Cache dereference failed, treating as miss")
		return nil
	}
	if v == nil {
		// Dangling entry: the verification was deleted out-of-band.
		log.Warn().Str("fingerprint", fingerprint).Msg("Cache entry references missing verification")
		return nil
	}

	c.memory.SetDefault(fingerprint, v)
	return v
}

// Store records a freshly computed verification for a fingerprint. Upsert
// semantics: a concurrent writer for the same fingerprint updates access
// metadata instead of duplicating the entry. Failures are logged, never fatal.
func (c *VerificationCache) Store(ctx context.Context, fingerprint string, v *models.Verification, language string) {
	if err := c.store.UpsertCacheEntry(ctx, fingerprint, v.ID, language); err != nil {
		log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Cache store failed, continuing")
		return
	}
	c.memory.SetDefault(fingerprint, v)
}

// Invalidate drops the memory entry for a fingerprint. The durable entry is
// removed by the store when its verification is deleted.
func (c *VerificationCache) Invalidate(fingerprint string) {
	c.memory.Delete(fingerprint)
}
