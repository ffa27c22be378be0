// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/session"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

const idempotencyHeader = "Idempotency-Key"

// CheckoutHandler handles the checkout page and order placement
type CheckoutHandler struct {
	carts    *cart.Service
	orders   *order.Service
	profiles *profile.Service
	session  guestSession
	logger   *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(carts *cart.Service, orders *order.Service, profiles *profile.Service, cfg *config.Config, log *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		orders:   orders,
		profiles: profiles,
		session:  newGuestSession(cfg),
		logger:   log,
	}
}

// CheckoutSummary is what the checkout page shows before the order is placed
type CheckoutSummary struct {
	Lines         []cart.Line `json:"lines"`
	order.Quote
	RequiresLogin bool `json:"requires_login"`
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	lines, err := h.carts.ListLines(c.Request.Context(), h.session.owner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(lines) == 0 {
		respondError(c, apperror.ErrEmptyCart)
		return
	}

	respondOK(c, "Checkout summary retrieved successfully", CheckoutSummary{
		Lines:         lines,
		Quote:         h.orders.Quote(lines),
		RequiresLogin: middleware.PrincipalFrom(c).IsAnonymous(),
	})
}

// CreateOrder handles POST /checkout
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(idempotencyHeader))

	result, err := h.orders.CreateOrder(c.Request.Context(), h.buyer(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Replayed {
		respondOK(c, "Order already placed", result)
		return
	}
	respondCreated(c, "Order placed successfully", result)
}

// buyer describes the signed-in caller. The profile name is only used to
// address the confirmation email.
func (h *CheckoutHandler) buyer(c *gin.Context) order.Buyer {
	return buyerFor(c, middleware.PrincipalFrom(c), h.profiles, h.logger)
}

func buyerFor(c *gin.Context, principal session.Principal, profiles *profile.Service, log *logrus.Logger) order.Buyer {
	buyer := order.Buyer{UserID: principal.UserID, Email: principal.Email}
	if profiles == nil || principal.IsAnonymous() {
		return buyer
	}
	p, err := profiles.Get(c.Request.Context(), principal.UserID)
	if err != nil {
		log.WithField("user_id", principal.UserID).WithError(err).Debug("Profile unavailable for buyer name")
		return buyer
	}
	buyer.FullName = p.FullName
	return buyer
}
