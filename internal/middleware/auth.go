package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/transdoc/api/internal/auth"
	"github.com/transdoc/api/pkg/response"
)

// AuthMiddleware reads optional bearer tokens
type AuthMiddleware struct {
	enabled bool
	secret  string
}

func NewAuthMiddleware(enabled bool, secret string) *AuthMiddleware {
	return &AuthMiddleware{enabled: enabled, secret: secret}
}

// Optional lets anonymous requests through and rejects only tokens that
// are present but invalid.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.enabled {
			return c.Next()
		}
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		claims, err := auth.ValidateToken(parts[1], m.secret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		c.Locals("userId", claims.UserID)
		c.Locals("premium", claims.Premium)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// IsPremium reports whether the caller's token carries the premium claim.
func IsPremium(c *fiber.Ctx) bool {
	premium, _ := c.Locals("premium").(bool)
	return premium
}
