// Package validation caches detector results by document content and
// metric configuration, and composes detection with correction.
package validation

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const logModule = "VALIDATION"

// ContentHash digests every document field plus the titles the
// uniqueness check compares against.
func ContentHash(doc seo.Document, existingTitles []string) string {
	d := xxhash.New()
	for _, part := range []string{doc.Title, doc.Body, doc.MetaDescription, doc.FocusKeyword} {
		_, _ = d.WriteString(strconv.Itoa(len(part)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(part)
	}
	_, _ = d.WriteString("|secondary:")
	_, _ = d.WriteString(strings.Join(doc.SecondaryKeywords, "\x1f"))
	_, _ = d.WriteString("|titles:")
	_, _ = d.WriteString(strings.Join(existingTitles, "\x1f"))
	return strconv.FormatUint(d.Sum64(), 16)
}

type entry struct {
	ConfigHash string                `json:"config_hash"`
	Result     *seo.ValidationResult `json:"result"`
	StoredAt   time.Time             `json:"stored_at"`
}

type CacheOptions struct {
	TTL        time.Duration
	MaxEntries int
	// Redis, when set, is a second tier shared between processes.
	Redis     redis.UniversalClient
	KeyPrefix string
}

func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		TTL:        30 * time.Minute,
		MaxEntries: 1000,
		KeyPrefix:  "content-optimizer:validation:",
	}
}

// Stats are the cache counters since construction.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Entries   int     `json:"entries"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache is safe for concurrent use across sessions. A stored result is
// only returned for the configuration hash it was computed under.
type Cache struct {
	opts   CacheOptions
	l1     *gocache.Cache
	redis  redis.UniversalClient
	logger logger.ILogger

	// insert serializes size-bound eviction with inserts.
	insert sync.Mutex

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func NewCache(opts CacheOptions, log logger.ILogger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheOptions().TTL
	}
	if opts.MaxEntries < 1 {
		opts.MaxEntries = DefaultCacheOptions().MaxEntries
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultCacheOptions().KeyPrefix
	}
	return &Cache{
		opts:   opts,
		l1:     gocache.New(opts.TTL, opts.TTL/2),
		redis:  opts.Redis,
		logger: log,
	}
}

func key(contentHash, configHash string) string {
	return contentHash + ":" + configHash
}

// Get returns a copy of the cached result for the pair, counting a hit or
// a miss.
func (c *Cache) Get(ctx context.Context, contentHash, configHash string) (*seo.ValidationResult, bool) {
	k := key(contentHash, configHash)
	if x, ok := c.l1.Get(k); ok {
		if e := x.(*entry); e.ConfigHash == configHash {
			c.hits.Add(1)
			cacheRequests.WithLabelValues("hit", "memory").Inc()
			return e.Result.Clone(), true
		}
	}

	if c.redis != nil {
		if e, ok := c.getRemote(ctx, k); ok && e.ConfigHash == configHash {
			c.hits.Add(1)
			cacheRequests.WithLabelValues("hit", "redis").Inc()
			c.store(k, e)
			return e.Result.Clone(), true
		}
	}

	c.misses.Add(1)
	cacheRequests.WithLabelValues("miss", "memory").Inc()
	return nil, false
}

// Set stores a copy of r under the pair.
func (c *Cache) Set(ctx context.Context, contentHash, configHash string, r *seo.ValidationResult) {
	if r == nil {
		return
	}
	k := key(contentHash, configHash)
	e := &entry{ConfigHash: configHash, Result: r.Clone(), StoredAt: time.Now()}
	c.store(k, e)

	if c.redis != nil {
		raw, err := json.Marshal(e)
		if err != nil {
			c.logger.Warn(logModule, "Failed to encode cache entry", map[string]interface{}{"error": err.Error()})
			return
		}
		if err := c.redis.Set(ctx, c.opts.KeyPrefix+k, raw, c.opts.TTL).Err(); err != nil {
			c.logger.Warn(logModule, "Failed to write cache entry to redis", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (c *Cache) store(k string, e *entry) {
	c.insert.Lock()
	defer c.insert.Unlock()
	if _, exists := c.l1.Get(k); !exists && c.l1.ItemCount() >= c.opts.MaxEntries {
		c.evictOldest()
	}
	c.l1.Set(k, e, gocache.DefaultExpiration)
}

// evictOldest drops the entry closest to expiry, which is the oldest
// since every entry shares one TTL.
func (c *Cache) evictOldest() {
	var oldest string
	var oldestExp int64
	for k, it := range c.l1.Items() {
		if oldest == "" || it.Expiration < oldestExp {
			oldest, oldestExp = k, it.Expiration
		}
	}
	if oldest != "" {
		c.l1.Delete(oldest)
		c.evictions.Add(1)
		cacheEvictions.Inc()
	}
}

func (c *Cache) getRemote(ctx context.Context, k string) (*entry, bool) {
	raw, err := c.redis.Get(ctx, c.opts.KeyPrefix+k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(logModule, "Redis cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Result == nil {
		return nil, false
	}
	return &e, true
}

// Flush empties the in-memory tier.
func (c *Cache) Flush() {
	c.l1.Flush()
}

func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.l1.ItemCount(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}
