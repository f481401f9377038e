package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/config"
	"bookclub-lms/internal/pkg/jwt"
	"bookclub-lms/internal/pkg/response"
)

// AuthMiddleware validates the bearer token and loads the claims
// into the request context
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		authHeader := c.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RoleMiddleware restricts a route to the given roles
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly allows only ADMIN
func AdminOnly() fiber.Handler {
	return RoleMiddleware(models.RoleAdmin)
}

// LibrarianOrAdmin allows LIBRARIAN or ADMIN
func LibrarianOrAdmin() fiber.Handler {
	return RoleMiddleware(models.RoleLibrarian, models.RoleAdmin)
}
