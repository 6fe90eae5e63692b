package middleware

import (
	"context"
	"strconv"
	"time"

	redisStore "arc-exchange/internal/adapter/storage/redis"
	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the sliding-window limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_login":    {Limit: 10, Window: time.Minute},
		"auth_register": {Limit: 5, Window: time.Hour},
		"market":        {Limit: 120, Window: time.Minute},
		"orders":        {Limit: 60, Window: time.Minute},
		"transfers":     {Limit: 30, Window: time.Minute},
		"payments":      {Limit: 60, Window: time.Minute},
		"face":          {Limit: 20, Window: time.Minute},
		"account":       {Limit: 120, Window: time.Minute},
	}
}

// RateCounter counts a request against a key and reports the window state.
type RateCounter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*redisStore.RateLimitResult, error)
}

// RateLimiter limits one endpoint group per caller. When the counter is
// unreachable the request is let through and a warning is logged.
func RateLimiter(counter RateCounter, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractIdentifier(c) + ":" + group

		result, err := counter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit unavailable, request allowed")
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if result.Allowed {
			c.Next()
			return
		}

		h.Set("Retry-After", strconv.FormatInt(max(result.ResetAt-time.Now().Unix(), 1), 10))
		log.Debug().Str("group", group).Str("key", key).Msg("rate limit exceeded")
		response.Error(c, apperror.ErrRateLimitExceeded())
		c.Abort()
	}
}

// extractIdentifier keys authenticated callers by user and the rest by IP.
func extractIdentifier(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
