// internal/interfaces/http/handlers/user_profile.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

const avatarField = "avatar"

// ProfileHandler handles the signed-in user's profile
type ProfileHandler struct {
	profiles *profile.Service
	users    *user.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *profile.Service, users *user.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, users: users}
}

// GetProfile handles GET /profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	p, err := h.profiles.GetOrCreate(c.Request.Context(), principal.UserID, principal.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Profile retrieved successfully", p)
}

// UpdateProfile handles PUT /profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req profile.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), middleware.PrincipalFrom(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Profile updated successfully", p)
}

// UploadAvatar handles POST /profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	header, err := c.FormFile(avatarField)
	if err != nil {
		respondError(c, apperror.Validation("No avatar file provided"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, apperror.Validation("Could not read the uploaded file"))
		return
	}
	defer file.Close()

	p, err := h.profiles.UploadAvatar(c.Request.Context(), middleware.PrincipalFrom(c).UserID, profile.Avatar{
		File: file,
		Size: header.Size,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Avatar uploaded successfully", p)
}

// ChangePassword handles PUT /profile/password
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req user.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), middleware.PrincipalFrom(c).UserID, req); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Password changed successfully", nil)
}
