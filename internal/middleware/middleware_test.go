package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/workoutgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoAmI(c *fiber.Ctx) error {
	return c.SendString(GetUserID(c))
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, headers map[string]string) (int, string, http.Header) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestFirebaseAuth(t *testing.T) {
	mockAuth := testutil.NewMockAuthClient()
	mockAuth.AddMockUser("good-token", "uid-1", "one@example.com")

	app := fiber.New()
	app.Get("/me", FirebaseAuth(mockAuth), whoAmI)

	status, body, _ := doRequest(t, app, http.MethodGet, "/me", "good-token", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "uid-1", body)

	status, body, _ = doRequest(t, app, http.MethodGet, "/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, `"success":false`)

	status, _, _ = doRequest(t, app, http.MethodGet, "/me", "bad-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _, _ = doRequest(t, app, http.MethodGet, "/me", "", map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyAccessToken(t *testing.T) {
	const secret = "test-secret"
	app := fiber.New()
	app.Get("/me", VerifyAccessToken(secret), whoAmI)

	valid := signToken(t, secret, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	status, body, _ := doRequest(t, app, http.MethodGet, "/me", valid, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "user-42", body)

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other", jwt.RegisteredClaims{Subject: "user-42"})
		status, _, _ := doRequest(t, app, http.MethodGet, "/me", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, secret, jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})
		status, _, _ := doRequest(t, app, http.MethodGet, "/me", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, secret, jwt.RegisteredClaims{})
		status, _, _ := doRequest(t, app, http.MethodGet, "/me", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestIdempotencyMiddleware(t *testing.T) {
	rdb, _ := testutil.SetupRedis(t)

	calls := 0
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(userIDKey, c.Get("X-User"))
		return c.Next()
	})
	app.Use(IdempotencyMiddleware(rdb, time.Minute))
	app.Post("/generate", func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"call": calls})
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"call": calls})
	})

	alice := map[string]string{"X-User": "alice", "X-Correlation-ID": "abc"}

	status, first, _ := doRequest(t, app, http.MethodPost, "/generate", "", alice)
	require.Equal(t, fiber.StatusOK, status)

	status, replay, header := doRequest(t, app, http.MethodPost, "/generate", "", alice)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, first, replay)
	assert.Equal(t, "true", header.Get("X-Idempotent-Replay"))
	assert.Equal(t, 1, calls)

	// same correlation ID from another user is not replayed
	_, _, header = doRequest(t, app, http.MethodPost, "/generate", "", map[string]string{"X-User": "bob", "X-Correlation-ID": "abc"})
	assert.Empty(t, header.Get("X-Idempotent-Replay"))
	assert.Equal(t, 2, calls)

	// without a correlation ID every request runs
	doRequest(t, app, http.MethodPost, "/generate", "", map[string]string{"X-User": "alice"})
	assert.Equal(t, 3, calls)

	// failures are not stored
	failing := map[string]string{"X-User": "alice", "X-Correlation-ID": "fail-1"}
	doRequest(t, app, http.MethodPost, "/fail", "", failing)
	doRequest(t, app, http.MethodPost, "/fail", "", failing)
	assert.Equal(t, 5, calls)
}

type fakeBurstLimiter struct {
	remaining map[string]int
	err       error
	keys      []string
}

func (l *fakeBurstLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	res := &redis_rate.Result{Limit: limit, RetryAfter: 30 * time.Second}
	if l.remaining[key] > 0 {
		l.remaining[key]--
		res.Allowed = 1
		res.Remaining = l.remaining[key]
		res.RetryAfter = -1
	}
	return res, nil
}

func TestBurstLimit(t *testing.T) {
	limiter := &fakeBurstLimiter{remaining: map[string]int{"generate:alice": 2}}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(userIDKey, "alice")
		return c.Next()
	})
	app.Post("/generate", BurstLimit(limiter, "generate", 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		status, _, _ := doRequest(t, app, http.MethodPost, "/generate", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
	}

	status, body, header := doRequest(t, app, http.MethodPost, "/generate", "", nil)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Contains(t, body, "Too many requests")
	assert.Equal(t, "31", header.Get("Retry-After"))
	assert.Equal(t, []string{"generate:alice", "generate:alice", "generate:alice"}, limiter.keys)
}

func TestBurstLimit_FailsOpen(t *testing.T) {
	limiter := &fakeBurstLimiter{err: errors.New("redis down")}

	app := fiber.New()
	app.Post("/generate", BurstLimit(limiter, "generate", 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	status, _, _ := doRequest(t, app, http.MethodPost, "/generate", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}
