package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ActorHeader carries the caller's ledger address. Every write operation
// acts on behalf of this address.
const ActorHeader = "X-Actor-Address"

// ActorKey is where the middleware stores the parsed actor in the gin context.
const ActorKey = "actor"

// RequireActor rejects requests without an actor address header.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": ActorHeader + " header required"})
			c.Abort()
			return
		}
		c.Set(ActorKey, actor)
		c.Next()
	}
}

type RateLimiter struct {
	actors map[string]time.Time
	mu     sync.Mutex
	limit  time.Duration
}

func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		actors: make(map[string]time.Time),
		limit:  limit,
	}
}

// Middleware throttles per actor address. Run it after RequireActor.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetString(ActorKey)
		r.mu.Lock()
		last, exists := r.actors[actor]
		if exists && time.Since(last) < r.limit {
			r.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		r.actors[actor] = time.Now()
		r.mu.Unlock()
		c.Next()
	}
}
