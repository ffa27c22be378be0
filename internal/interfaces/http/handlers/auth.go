// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users   *user.Service
	carts   *cart.Service
	session guestSession
	logger  *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *user.Service, carts *cart.Service, cfg *config.Config, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		users:   users,
		carts:   carts,
		session: newGuestSession(cfg),
		logger:  log,
	}
}

// RefreshRequest carries the refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// EmailRequest carries an address for confirmation and reset mails
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	u, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Registration successful, check your email to confirm your account", u)
}

// ConfirmEmail handles GET /auth/confirm?token=
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, apperror.Validation("Confirmation token is required"))
		return
	}

	u, err := h.users.ConfirmEmail(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Email confirmed successfully", u)
}

// ResendConfirmation handles POST /auth/resend-confirmation
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "If the account exists and is unconfirmed, a new link has been sent", nil)
}

// Login handles POST /auth/login. A guest cart held by the session cookie is
// folded into the user's cart.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if sessionID := h.session.id(c, false); sessionID != "" {
		merged, err := h.carts.MergeGuestCart(c.Request.Context(), resp.User.ID, sessionID)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"user_id":    resp.User.ID,
				"request_id": c.GetString(middleware.RequestIDKey),
			}).WithError(err).Warn("Failed to merge guest cart at login")
		} else if merged > 0 {
			h.session.clear(c)
		}
	}

	respondOK(c, "Login successful", resp)
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Token refreshed successfully", resp)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.users.Logout(c.Request.Context(), middleware.ClaimsFrom(c), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Logged out successfully", nil)
}

// ForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "If the account exists, a password reset link has been sent", nil)
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Password reset successfully", nil)
}
