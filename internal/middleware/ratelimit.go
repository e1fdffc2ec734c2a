package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/pkg/response"
)

// RateLimitStore counts requests per key within a fixed window. Incr
// returns the count including the current request; a fresh window starts
// at 1. Implementations must be safe for concurrent use.
type RateLimitStore interface {
	Incr(key string, window time.Duration) int
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimitStore keeps fixed-window counters in process memory.
// Counters reset when their window expires; stale entries are swept so
// one-off clients do not accumulate forever.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (s *MemoryRateLimitStore) Incr(key string, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		s.entries[key] = &windowEntry{count: 1, resetAt: now.Add(window)}
		return 1
	}
	e.count++
	return e.count
}

// Sweep drops expired entries. Called periodically from the cleanup
// scheduler.
func (s *MemoryRateLimitStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// RateLimiter applies per-endpoint fixed-window ceilings over a shared
// store. Keys combine the client address with the route so one endpoint
// exhausting its ceiling does not block the others.
type RateLimiter struct {
	store  RateLimitStore
	window time.Duration
}

func NewRateLimiter(store RateLimitStore, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, window: window}
}

// Limit allows up to max requests per client per window for the routes
// it wraps. The ceiling applies before authentication, so unauthenticated
// floods are rejected cheaply.
func (l *RateLimiter) Limit(max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c) + ":" + c.Request.Method + ":" + c.FullPath()
		if l.store.Incr(key, l.window) > max {
			response.AbortFail(c, response.NewRateLimited())
			return
		}
		c.Next()
	}
}

// clientKey identifies the caller by forwarded address when behind a
// proxy, falling back to the socket address, then to a shared bucket.
func clientKey(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
