package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles the dashboard password gate
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest represents a dashboard login request
type LoginRequest struct {
	Password string `json:"password" binding:"required,max=256"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionResponse describes the caller's session
type SessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required,max=256"`
	NewPassword     string `json:"newPassword" binding:"required,max=256"`
}

// ChangePasswordResponse carries the replacement session
type ChangePasswordResponse struct {
	Success   bool      `json:"success"`
	ChangedAt time.Time `json:"changedAt"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /auth/login
// Exchange the dashboard password for a session token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Logout handles POST /auth/logout
// Revoke the current session token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}

// Session handles GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	info := h.authService.Session(middleware.GetJWTClaims(c))
	if !info.Authenticated {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.Success(c, SessionResponse{
		Authenticated: true,
		ExpiresAt:     info.ExpiresAt,
	})
}

// ChangePassword handles PUT /auth/password
// Every existing session is revoked; the response carries a fresh token
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ChangePasswordResponse{
		Success:   true,
		ChangedAt: result.ChangedAt,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}
