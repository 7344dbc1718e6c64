package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariclear/backend/report"
)

// Cache holds accepted reports by URL. Only validated reports are ever
// stored, so a hit can be returned without re-validation.
type Cache interface {
	Get(ctx context.Context, key string) (*report.AnalysisReport, bool, error)
	Set(ctx context.Context, key string, r *report.AnalysisReport) error
	Name() string
}

// generateCacheKey creates a unique key for the URL
func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

type cacheEntry struct {
	report    *report.AnalysisReport
	timestamp time.Time
}

// MemoryCache is an in-process cache bounded by age and entry count.
type MemoryCache struct {
	mutex           sync.RWMutex
	entries         map[string]cacheEntry
	ttl             time.Duration
	maxSize         int
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	c := &MemoryCache{
		entries:         make(map[string]cacheEntry),
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: 5 * time.Minute,
		done:            make(chan struct{}),
		now:             time.Now,
	}
	go c.periodicCleanup()
	return c
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) periodicCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size limit
func (c *MemoryCache) cleanup() {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			delete(c.entries, key)
		}
	}

	if len(c.entries) <= c.maxSize {
		return
	}

	type aged struct {
		key       string
		timestamp time.Time
	}
	entries := make([]aged, 0, len(c.entries))
	for key, entry := range c.entries {
		entries = append(entries, aged{key, entry.timestamp})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})

	// oldest first
	for i := 0; i < len(entries)-c.maxSize; i++ {
		delete(c.entries, entries[i].key)
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*report.AnalysisReport, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.entries[key]
	if !found || c.now().Sub(entry.timestamp) >= c.ttl {
		return nil, false, nil
	}
	return entry.report, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, r *report.AnalysisReport) error {
	c.mutex.Lock()
	c.entries[key] = cacheEntry{report: r, timestamp: c.now()}
	over := len(c.entries) > c.maxSize
	c.mutex.Unlock()

	if over {
		c.cleanup()
	}
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine and drops all entries.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mutex.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mutex.Unlock()
	return nil
}

// RedisOptions configures the shared report cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "ariclear:report:"
	TTL      time.Duration // Expiration for reports, default 30m
}

// RedisCache shares accepted reports between server instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(opts RedisOptions) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisCacheFromClient(client, opts.Prefix, opts.TTL)
}

func NewRedisCacheFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "ariclear:report:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string) (*report.AnalysisReport, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read report from redis: %w", err)
	}

	var r report.AnalysisReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	return &r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r *report.AnalysisReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save report to redis: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
