package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterPruneInterval = 5 * time.Minute
)

// chatLimiter holds a token bucket per chat.
type chatLimiter struct {
	mu        sync.Mutex
	limiters  map[int64]*chatEntry
	r         rate.Limit
	b         int
	lastPrune time.Time
	now       func() time.Time
}

type chatEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newChatLimiter returns nil when perMinute is zero, which disables limiting.
func newChatLimiter(perMinute, burst int) *chatLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &chatLimiter{
		limiters:  make(map[int64]*chatEntry),
		r:         rate.Limit(float64(perMinute) / 60.0),
		b:         burst,
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether chatID may start another download now.
func (c *chatLimiter) Allow(chatID int64) bool {
	if c == nil {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastPrune) > limiterPruneInterval {
		for id, e := range c.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(c.limiters, id)
			}
		}
		c.lastPrune = now
	}

	e, ok := c.limiters[chatID]
	if !ok {
		e = &chatEntry{limiter: rate.NewLimiter(c.r, c.b)}
		c.limiters[chatID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (c *chatLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}
