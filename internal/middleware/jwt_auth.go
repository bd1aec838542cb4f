package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// VerifyAccessToken validates HS256 bearer tokens signed with jwtSecret and
// stores the "sub" claim as the user ID. It is the alternative to FirebaseAuth
// for deployments whose identity provider issues shared-secret JWTs.
func VerifyAccessToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, "missing or malformed authorization header")
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return unauthorized(c, "invalid or expired token")
		}

		if claims.Subject == "" {
			return unauthorized(c, "token has no subject")
		}

		c.Locals(userIDKey, claims.Subject)
		return c.Next()
	}
}
