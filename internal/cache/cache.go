// Package cache holds aggregated search results keyed by quantized
// location and filters.
package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/geo"
	"github.com/sells-group/venue-cli/internal/model"
)

// Defaults for New when Options fields are zero.
const (
	DefaultTTL      = 30 * time.Minute
	DefaultCapacity = 50
	DefaultHeadroom = 5
)

// Options configures a ResultCache.
type Options struct {
	TTL      time.Duration
	Capacity int
	// Headroom is how far below Capacity eviction drains, so a full cache
	// does not evict on every insert.
	Headroom int
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Entry is one cached search outcome: the ranked venues plus the provider
// provenance of the run that produced them.
type Entry struct {
	Venues       []model.MergedVenue `json:"venues"`
	Contributing []string            `json:"contributing,omitempty"`
	Failed       []string            `json:"failed,omitempty"`
}

type entry struct {
	data       []byte
	insertedAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// ResultCache is a TTL-expiring, size-bounded store of merged venue lists.
// Safe for concurrent use; a single mutex serializes all access so reads
// and writes on the same key are linearizable.
type ResultCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int
	headroom int
	nowFunc  func() time.Time
	stats    Stats
	log      *zap.Logger
}

// New creates a ResultCache.
func New(opts Options) *ResultCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Headroom < 0 || opts.Headroom >= opts.Capacity {
		opts.Headroom = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ResultCache{
		entries:  make(map[string]entry),
		ttl:      opts.TTL,
		capacity: opts.Capacity,
		headroom: opts.Headroom,
		nowFunc:  opts.Now,
		log:      zap.L().With(zap.String("component", "cache")),
	}
}

// Key builds the cache key for a query: quantized "lat:lng", radius in
// meters, then each filter set sorted and comma-joined, separated by "|".
func Key(q model.SearchQuery, precision int) string {
	var b strings.Builder
	b.WriteString(geo.FormatQuantized(q.Origin, precision))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.RadiusM))
	for _, set := range [][]string{q.Filters.Cuisines, q.Filters.Vibes, q.Filters.PriceTiers} {
		b.WriteByte('|')
		b.WriteString(strings.Join(model.NormalizeSet(set), ","))
	}
	return b.String()
}

// ScopedKey appends the provider scope to a Key: the strategy, then the
// sorted provider names comma-joined. The origin cell stays first so prefix
// and bounds invalidation still apply.
func ScopedKey(base, strategy string, providers []string) string {
	names := append([]string(nil), providers...)
	sort.Strings(names)
	return base + "|" + strategy + ":" + strings.Join(names, ",")
}

// Get returns the venues stored under key. See GetEntry.
func (c *ResultCache) Get(key string) ([]model.MergedVenue, bool) {
	e, ok := c.GetEntry(key)
	if !ok {
		return nil, false
	}
	return e.Venues, true
}

// GetEntry returns the entry stored under key. Expired and undecodable
// entries are removed and reported as a miss.
func (c *ResultCache) GetEntry(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		c.log.Debug("cache miss", zap.String("key", key))
		return Entry{}, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.log.Debug("cache entry expired", zap.String("key", key))
		return Entry{}, false
	}

	var out Entry
	if err := json.Unmarshal(e.data, &out); err != nil {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.log.Warn("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}

	c.stats.Hits++
	c.log.Debug("cache hit", zap.String("key", key), zap.Int("venues", len(out.Venues)))
	return out, true
}

// Put stores venues under key with no provenance. See PutEntry.
func (c *ResultCache) Put(key string, venues []model.MergedVenue) error {
	return c.PutEntry(key, Entry{Venues: venues})
}

// PutEntry stores e under key, replacing any previous entry. When the cache
// is over capacity, the oldest entries are evicted until size is at most
// capacity minus headroom.
func (c *ResultCache) PutEntry(key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "cache: encode entry")
	}
	c.putRaw(key, data)
	return nil
}

func (c *ResultCache) putRaw(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: data, insertedAt: c.nowFunc()}
	if len(c.entries) > c.capacity {
		c.evictOldestLocked(c.capacity - c.headroom)
	}
}

func (c *ResultCache) evictOldestLocked(target int) {
	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, at: e.insertedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].at.Equal(all[j].at) {
			return all[i].key < all[j].key
		}
		return all[i].at.Before(all[j].at)
	})

	evicted := 0
	for _, a := range all {
		if len(c.entries) <= target {
			break
		}
		delete(c.entries, a.key)
		evicted++
	}
	c.stats.Evictions += int64(evicted)
	c.log.Debug("evicted cache entries", zap.Int("count", evicted), zap.Int("size", len(c.entries)))
}

// Invalidate removes every entry whose key starts with prefix, typically a
// quantized "lat:lng" cell. Returns the number of entries removed.
func (c *ResultCache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	c.stats.Evictions += int64(n)
	return n
}

// InvalidateBounds removes every entry whose quantized origin lies inside b
// (XY layout, x = lng, y = lat).
func (c *ResultCache) InvalidateBounds(b *geom.Bounds) int {
	if b == nil || b.IsEmpty() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		origin, ok := parseKeyOrigin(k)
		if !ok {
			continue
		}
		if b.OverlapsPoint(geom.XY, geom.Coord{origin.Lng, origin.Lat}) {
			delete(c.entries, k)
			n++
		}
	}
	c.stats.Evictions += int64(n)
	return n
}

// Purge removes all expired entries and returns how many were dropped.
func (c *ResultCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			n++
		}
	}
	c.stats.Evictions += int64(n)
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = len(c.entries)
	return s
}

func (c *ResultCache) expired(e entry) bool {
	return c.nowFunc().Sub(e.insertedAt) >= c.ttl
}

func parseKeyOrigin(key string) (model.Coordinate, bool) {
	cell, _, _ := strings.Cut(key, "|")
	latStr, lngStr, ok := strings.Cut(cell, ":")
	if !ok {
		return model.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return model.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return model.Coordinate{}, false
	}
	return model.Coordinate{Lat: lat, Lng: lng}, true
}
