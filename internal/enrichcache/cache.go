// Package enrichcache persists resolved merchant/category enrichments keyed
// by cache key. The in-memory map is hydrated once from the blob store and is
// the source of truth for the rest of the process lifetime; every Set writes
// the full snapshot back through the store.
package enrichcache

import (
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wachira/pesaflow/internal/blobstore"
)

const blobKey = "enrichment_cache"

// EnrichedInfo carries optional extras returned by the remote enricher.
type EnrichedInfo struct {
	OfficialName string `json:"official_name,omitempty"`
	Website      string `json:"website,omitempty"`
}

// EnrichedData is one resolved enrichment. A cache key maps to at most one
// value; the last writer wins. Entries are never expired or evicted.
type EnrichedData struct {
	Merchant string        `json:"merchant"`
	Category string        `json:"category"`
	Info     *EnrichedInfo `json:"enriched_info,omitempty"`
}

// Cache is constructed once at process start and injected wherever
// enrichment results are read or written.
type Cache struct {
	store  *blobstore.Store
	mem    *gocache.Cache
	loaded bool
}

func New(store *blobstore.Store) *Cache {
	return &Cache{
		store: store,
		mem:   gocache.New(gocache.NoExpiration, 0),
	}
}

// Load hydrates the in-memory map from durable storage. Missing or corrupted
// state is treated as an empty cache, never a fatal error. Calling Load more
// than once is a no-op; subsequent reads never re-hydrate.
func (c *Cache) Load() error {
	if c.loaded {
		return nil
	}
	c.loaded = true
	var snapshot map[string]EnrichedData
	if ok, err := c.store.Get(blobKey, &snapshot); err != nil || !ok {
		return nil
	}
	for k, v := range snapshot {
		c.mem.Set(k, v, gocache.NoExpiration)
	}
	return nil
}

// Get returns the enrichment stored for key. Absence is a normal outcome.
func (c *Cache) Get(key string) (EnrichedData, bool) {
	_ = c.Load()
	v, ok := c.mem.Get(key)
	if !ok {
		return EnrichedData{}, false
	}
	return v.(EnrichedData), true
}

// Set stores data under key and immediately persists the whole snapshot.
func (c *Cache) Set(key string, data EnrichedData) error {
	_ = c.Load()
	c.mem.Set(key, data, gocache.NoExpiration)
	return c.Flush()
}

// Flush serializes the entire map to durable storage.
func (c *Cache) Flush() error {
	items := c.mem.Items()
	snapshot := make(map[string]EnrichedData, len(items))
	for k, item := range items {
		snapshot[k] = item.Object.(EnrichedData)
	}
	if err := c.store.Set(blobKey, snapshot); err != nil {
		return fmt.Errorf("persist enrichment cache: %w", err)
	}
	return nil
}

// Len reports the number of cached enrichments.
func (c *Cache) Len() int {
	_ = c.Load()
	return c.mem.ItemCount()
}
