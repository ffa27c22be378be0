// internal/interfaces/http/handlers/order.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints for customers and the back-office
type OrderHandler struct {
	orders   *order.Service
	profiles *profile.Service
	logger   *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service, profiles *profile.Service, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, profiles: profiles, logger: log}
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  order.Status `json:"status" binding:"required"`
	Comment string       `json:"comment"`
}

// UpdatePaymentStatusRequest represents an admin payment status change
type UpdatePaymentStatusRequest struct {
	PaymentStatus order.PaymentStatus `json:"payment_status" binding:"required"`
}

// GetUserOrders handles GET /orders
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	orders, err := h.orders.ListUserOrders(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Orders retrieved successfully", orders)
}

// GetUserOrder handles GET /orders/:id
func (h *OrderHandler) GetUserOrder(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetUserOrder(c.Request.Context(), orderID, middleware.PrincipalFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order retrieved successfully", o)
}

// DownloadReceipt handles GET /orders/:id/receipt
func (h *OrderHandler) DownloadReceipt(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	buyer := buyerFor(c, middleware.PrincipalFrom(c), h.profiles, h.logger)
	pdf, err := h.orders.Receipt(c.Request.Context(), orderID, buyer)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("receipt-%s.pdf", orderID.String()[:8])
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.orders.ListOrders(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Orders retrieved successfully", resp)
}

// GetOrder handles GET /admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order retrieved successfully", o)
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin := middleware.PrincipalFrom(c)
	o, err := h.orders.UpdateStatus(c.Request.Context(), orderID, req.Status, admin.UserID, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order status updated successfully", o)
}

// UpdatePaymentStatus handles PUT /admin/orders/:id/payment-status
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin := middleware.PrincipalFrom(c)
	o, err := h.orders.UpdatePaymentStatus(c.Request.Context(), orderID, req.PaymentStatus, admin.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment status updated successfully", o)
}
