// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cafe-storefront/internal/domain/analytics"
)

// AnalyticsHandler handles the back-office dashboard
type AnalyticsHandler struct {
	analytics *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc}
}

// GetDashboard handles GET /admin/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Dashboard statistics retrieved successfully", stats)
}
