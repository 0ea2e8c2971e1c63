package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
)

// CacheHeader reports HIT or MISS on cached routes
const CacheHeader = "X-Cache"

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Cache is a size-bounded TTL cache for prediction responses
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*CacheItem
	ttl      time.Duration
	maxItems int
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache and starts its cleanup loop. maxItems <= 0
// leaves the cache unbounded.
func NewCache(ttl time.Duration, maxItems int) *Cache {
	c := &Cache{
		items:    make(map[string]*CacheItem),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl
	if interval <= 0 || interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if item.IsExpired(now) {
			delete(c.items, key)
		}
	}
}

// Close stops the cleanup loop
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Key derives a cache key from a JSON request body. Bodies that differ
// only in key order or whitespace share a key. ok is false when body is
// not a JSON object.
func Key(body []byte) (string, bool) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil || fields == nil {
		return "", false
	}

	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", false
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), true
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if item.IsExpired(c.now()) {
		c.Delete(key)
		return nil, false
	}
	return item.Data, true
}

// Set stores an item in the cache, evicting the entry closest to expiry
// when the cache is full
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// evictOldest must be called with mu held
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldest) {
			oldestKey, oldest = key, item.ExpiresAt
		}
	}
	delete(c.items, oldestKey)
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*CacheItem)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0
	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"max_items":     c.maxItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware caches successful JSON responses of the route it is attached
// to, keyed on the request body
func (c *Cache) Middleware(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || ctx.Request.Body == nil {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			// replay what was read, then the error, so the handler
			// reports it as it would without the cache
			ctx.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), failingReader{err}))
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		key, ok := Key(body)
		if !ok {
			ctx.Next()
			return
		}

		if cached, found := c.Get(key); found {
			slog.Debug("Cache hit", "key", key[:8])
			if metrics != nil {
				metrics.IncrementCacheHit()
			}
			ctx.Header(CacheHeader, "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", key[:8])
		if metrics != nil {
			metrics.IncrementCacheMiss()
		}
		ctx.Header(CacheHeader, "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		// handlers may report errors through ctx.Errors without writing
		if wrapper.Status() == http.StatusOK && len(ctx.Errors) == 0 && wrapper.body.Len() > 0 {
			c.Set(key, wrapper.body.Bytes())
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }
