package cache

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"github.com/alexhholmes/blocktree/internal/base"
)

// Cache is an LRU of raw node records keyed by address. The pager writes
// through it and purges it at the end of every tree operation, so it only
// spares re-reads within one call.
type Cache struct {
	lru *freelru.LRU[base.Address, []byte] // nil when disabled

	// Stats
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache holding up to capacity records. A capacity of zero
// or less disables caching.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return &Cache{}, nil
	}
	lru, err := freelru.New[base.Address, []byte](uint32(capacity), hashAddress)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: lru}, nil
}

func hashAddress(addr base.Address) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(addr))
	return uint32(xxhash.Sum64(b[:]))
}

// Get returns the record cached for addr. Callers must not modify it.
func (c *Cache) Get(addr base.Address) ([]byte, bool) {
	if c.lru == nil {
		return nil, false
	}
	rec, ok := c.lru.Get(addr)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return rec, true
}

// Put caches rec for addr, replacing any previous record. The cache keeps
// rec, so the caller must not modify it afterwards.
func (c *Cache) Put(addr base.Address, rec []byte) {
	if c.lru == nil {
		return
	}
	if c.lru.Add(addr, rec) {
		c.evictions.Add(1)
	}
}

// Delete drops addr from the cache
func (c *Cache) Delete(addr base.Address) {
	if c.lru == nil {
		return
	}
	c.lru.Remove(addr)
}

// Purge empties the cache
func (c *Cache) Purge() {
	if c.lru == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Stats holds cache statistics
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
