package middleware

import (
	"context"
	"strconv"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// BurstLimiter is satisfied by *redis_rate.Limiter
type BurstLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// BurstLimit caps requests per user per minute on an expensive route. It guards
// the AI provider against rapid retries; the daily quota is enforced separately.
// When the limiter errors the request is let through.
func BurstLimit(limiter BurstLimiter, routeName string, perMinute int) fiber.Handler {
	limit := redis_rate.PerMinute(perMinute)

	return func(c *fiber.Ctx) error {
		if perMinute <= 0 {
			return c.Next()
		}

		key := routeName + ":" + GetUserID(c)
		res, err := limiter.Allow(c.UserContext(), key, limit)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("burst limiter unavailable, allowing request")
			return c.Next()
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests. Please wait before generating another workout.",
			})
		}
		return c.Next()
	}
}
