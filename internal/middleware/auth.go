// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization, and other request processing
// middleware for the fiber web framework.
package middleware

import (
	"log"
	"strings"

	"strategiz/internal/models"
	"strategiz/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware handles JWT token validation. It extracts the JWT from the
// Authorization header, validates it, and adds the user claims to the request
// context. Tokens are issued by the identity service; this service only
// verifies them.
func AuthMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		log.Printf("token validation error: %v", err)
		return utils.Unauthorized(c, "invalid token")
	}
	if claims.UserID == "" {
		return utils.Unauthorized(c, "invalid claims")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok || claims == nil {
			return utils.Unauthorized(c, "unauthorized")
		}

		if claims.Role == "admin" {
			return c.Next()
		}
		if claims.HasPermission(permission) {
			return c.Next()
		}

		return utils.Forbidden(c, "insufficient permissions")
	}
}

// AdminKeyMiddleware guards operational endpoints with a pre-shared admin
// key, checked against its bcrypt hash from configuration. Used for the
// back-office surface where no end-user token exists.
func AdminKeyMiddleware(keyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if keyHash == "" {
			return utils.Forbidden(c, "admin surface disabled")
		}
		key := c.Get("X-Admin-Key")
		if key == "" || !utils.CheckAdminKey(keyHash, key) {
			log.Printf("admin key rejected from %s", c.IP())
			return utils.Unauthorized(c, "invalid admin key")
		}
		return c.Next()
	}
}
