package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dfryer1193/mailmanifest/api"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// RateLimiter allows limit requests per client IP in a fixed window that starts
// with the client's first request.
type RateLimiter struct {
	hits   *cache.Cache
	limit  int
	window time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   cache.New(window, 2*window),
		limit:  limit,
		window: window,
	}
}

// Allow records one hit for key and reports whether it is within the limit.
func (r *RateLimiter) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}
	if err := r.hits.Add(key, 1, r.window); err == nil {
		return true
	}
	n, err := r.hits.IncrementInt(key, 1)
	if err != nil {
		// the window expired between Add and IncrementInt
		r.hits.Set(key, 1, r.window)
		return true
	}
	return n <= r.limit
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		log.Warn().Str("client_ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
		c.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "too many requests"})
	}
}
