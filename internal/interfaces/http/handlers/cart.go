// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	carts   *cart.Service
	session guestSession
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service, cfg *config.Config) *CartHandler {
	return &CartHandler{
		carts:   carts,
		session: newGuestSession(cfg),
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.carts.GetCart(c.Request.Context(), h.session.owner(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart retrieved successfully", view)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cart.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.carts.AddLine(c.Request.Context(), h.session.owner(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Item added to cart successfully", view)
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	lineID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req cart.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.carts.SetQuantity(c.Request.Context(), h.session.owner(c), lineID, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart item updated successfully", view)
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	lineID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.carts.RemoveLine(c.Request.Context(), h.session.owner(c), lineID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Item removed from cart successfully", view)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), h.session.owner(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart cleared successfully", nil)
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	count, err := h.carts.Count(c.Request.Context(), h.session.owner(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart count retrieved successfully", gin.H{"count": count})
}

// MergeGuestCart handles POST /cart/merge
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	merged, err := h.carts.MergeGuestCart(c.Request.Context(), principal.UserID, h.session.id(c, false))
	if err != nil {
		respondError(c, err)
		return
	}
	if merged > 0 {
		h.session.clear(c)
	}

	view, err := h.carts.GetCart(c.Request.Context(), cart.UserCart{UserID: principal.UserID})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Guest cart merged successfully", gin.H{
		"merged": merged,
		"cart":   view,
	})
}
