package uniformity

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/banshee-data/uniformity.report/internal/ingest"
)

// DefaultCacheEntries bounds a cache when no size is configured.
const DefaultCacheEntries = 16

// Cache memoizes Score keyed by a content hash of the cohort rows and the
// target mean. Each session owns its own Cache; caches are never shared
// between callers.
type Cache struct {
	mu     sync.Mutex
	tables *lru.Cache[uint64, *Table]
	hits   uint64
	misses uint64
}

// NewCache creates a cache holding up to size tables.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	tables, err := lru.New[uint64, *Table](size)
	if err != nil {
		return nil, err
	}
	return &Cache{tables: tables}, nil
}

// Score returns the memoized table for the cohort and target mean,
// computing it on a miss. hit reports whether the table came from the cache.
func (c *Cache) Score(cohort ingest.Cohort, targetMean float64) (t *Table, hit bool) {
	key := CohortKey(cohort, targetMean)
	if t, ok := c.tables.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return t, true
	}
	t = Score(cohort, targetMean)
	c.tables.Add(key, t)
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return t, false
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of memoized tables.
func (c *Cache) Len() int {
	return c.tables.Len()
}

// Purge drops every memoized table.
func (c *Cache) Purge() {
	c.tables.Purge()
}

// CohortKey hashes the cohort condition, every row in order, and the target
// mean.
func CohortKey(cohort ingest.Cohort, targetMean float64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(s)
	}

	writeString(string(cohort.Condition))
	writeFloat(targetMean)
	for _, r := range cohort.Rows {
		writeString(r.SensorID)
		writeFloat(r.PositionMM)
		writeFloat(r.ThicknessUM)
	}
	return d.Sum64()
}
