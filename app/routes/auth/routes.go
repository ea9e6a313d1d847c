package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT and sets client context
func AuthMiddleware(c *fiber.Ctx) error {
	// Get JWT token from cookie or Authorization header
	tokenString := c.Cookies("jwt_token")
	if tokenString == "" {
		auth := c.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "No token found"})
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid token"})
	}

	c.Locals("client_id", claims.ClientID)
	c.Locals("claims", claims)

	return c.Next()
}

// RoleMiddleware allows the request through when the token carries any of allowedRoles.
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*JWTClaims)
		if ok {
			for _, role := range allowedRoles {
				if claims.HasRole(role) {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": "Insufficient permissions"})
	}
}
