package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/models"
	"golang.org/x/time/rate"
)

const maxLimiterEntries = 10000

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	// crude bound on memory; every caller starts with a fresh bucket
	if len(lc.limiters) >= maxLimiterEntries {
		lc.limiters = make(map[K]*rate.Limiter)
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// RateLimit throttles per caller: the profile id when authenticated,
// otherwise the client IP.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	cache := newLimiterCache[string](rps, burst)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if viewer := helpers.ViewerID(c); viewer != nil {
			key = "user:" + strconv.FormatInt(*viewer, 10)
		}

		if !cache.get(key).Allow() {
			resp := models.ErrorResponse("Rate limit exceeded. Please slow down.")
			resp.Code = "rate_limit_exceeded"
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}
		c.Next()
	}
}
