package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"bookclub-lms/internal/config"
	"bookclub-lms/internal/core/services"
	"bookclub-lms/internal/pkg/password"
	"bookclub-lms/internal/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new staff account. Only admins reach this route.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "username, email and password are required")
	}
	if !password.Validate(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	result, err := h.authService.Register(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			return response.Conflict(c, "Username or email already in use")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Invalid role")
		default:
			log.Printf("❌ Register failed: %v", err)
			return response.InternalServerError(c, "Registration failed")
		}
	}

	return response.Created(c, "Registered successfully", result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "username and password are required")
	}

	result, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid username or password")
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "Account is disabled")
		default:
			log.Printf("❌ Login failed: %v", err)
			return response.InternalServerError(c, "Login failed")
		}
	}

	return response.Success(c, "Login successful", result)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return response.BadRequest(c, "refresh_token is required")
	}

	result, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			return response.Unauthorized(c, "Refresh token expired")
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrTokenRevoked):
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrUserInactive):
			return response.Unauthorized(c, "Account is no longer valid")
		default:
			log.Printf("❌ Token refresh failed: %v", err)
			return response.InternalServerError(c, "Token refresh failed")
		}
	}

	return response.Success(c, "Token refreshed", result)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return response.BadRequest(c, "refresh_token is required")
	}

	if err := h.authService.Logout(c.Context(), req.RefreshToken); err != nil {
		log.Printf("⚠️ Logout failed: %v", err)
	}

	return response.Success(c, "Logged out", nil)
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load profile")
	}

	return response.Success(c, "OK", user.ToResponse())
}
