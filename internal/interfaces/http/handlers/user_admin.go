// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

// UserAdminHandler handles back-office user management
type UserAdminHandler struct {
	profiles *profile.Service
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(profiles *profile.Service) *UserAdminHandler {
	return &UserAdminHandler{profiles: profiles}
}

// ListUsers handles GET /admin/users
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	var req profile.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.profiles.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Users retrieved successfully", resp)
}

// UpdateUserRole handles PUT /admin/users/:id/role
func (h *UserAdminHandler) UpdateUserRole(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req profile.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if admin := middleware.PrincipalFrom(c); admin.UserID == userID && req.Role != profile.RoleAdmin {
		respondError(c, apperror.ErrConflict.WithMessage("You cannot remove your own admin role"))
		return
	}

	p, err := h.profiles.SetRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User role updated successfully", p)
}
