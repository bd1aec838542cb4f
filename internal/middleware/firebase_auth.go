package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/api/option"
)

const (
	userIDKey = "userID"
)

// FirebaseAuthClient is the part of the Firebase Auth client the middleware needs.
// Tests substitute a mock.
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuth creates a Fiber middleware that validates Firebase ID tokens
func FirebaseAuth(authClient FirebaseAuthClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, "missing or malformed authorization header")
		}

		decodedToken, err := authClient.VerifyIDToken(c.UserContext(), token)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				return unauthorized(c, "token expired")
			}
			return unauthorized(c, "invalid token")
		}

		c.Locals(userIDKey, decodedToken.UID)
		return c.Next()
	}
}

// InitFirebase initializes the Firebase Admin SDK and returns its Auth client
func InitFirebase(ctx context.Context, projectID, privateKeyB64, clientEmail string) (*auth.Client, error) {
	privateKey, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, err
	}

	credentialsJSON, err := json.Marshal(map[string]interface{}{
		"type":         "service_account",
		"project_id":   projectID,
		"private_key":  string(privateKey),
		"client_email": clientEmail,
	})
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// GetUserID extracts the user ID from Fiber context.
// Returns "" when no auth middleware ran.
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header
func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
