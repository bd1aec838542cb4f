package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const idempotencyWriteTimeout = 2 * time.Second

// IdempotencyMiddleware replays the stored response for a repeated X-Correlation-ID.
// Keys are scoped per user, so it must run after an auth middleware. Only 2xx
// responses are stored; a failed generation can be retried with the same ID.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get("X-Correlation-ID")
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s", GetUserID(c), correlationID)

		cached, err := redisClient.Get(c.UserContext(), key).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cached)
		}
		if err != nil && err != redis.Nil {
			logrus.WithError(err).Warn("idempotency lookup failed")
		}

		if err := c.Next(); err != nil {
			return err
		}

		statusCode := c.Response().StatusCode()
		if statusCode < 200 || statusCode >= 300 {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		// The request context may already be cancelled once the handler returns
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.UserContext()), idempotencyWriteTimeout)
		defer cancel()
		if err := redisClient.Set(ctx, key, append([]byte(nil), body...), ttl).Err(); err != nil {
			logrus.WithError(err).Warn("failed to store idempotent response")
		}
		return nil
	}
}
