// internal/interfaces/http/handlers/session_cookie.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

const sessionCookie = "session_id"

// guestSession reads the guest cart cookie, issuing one when create is set
type guestSession struct {
	ttl    time.Duration
	secure bool
}

func newGuestSession(cfg *config.Config) guestSession {
	return guestSession{ttl: cfg.Store.GuestCartTTL, secure: cfg.Security.CookieSecure}
}

func (g guestSession) id(c *gin.Context, create bool) string {
	if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
		return id
	}
	if !create {
		return ""
	}

	id := uuid.NewString()
	g.set(c, id, int(g.ttl.Seconds()))
	return id
}

func (g guestSession) clear(c *gin.Context) {
	g.set(c, "", -1)
}

func (g guestSession) set(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", g.secure, true)
}

// owner picks the signed-in user's cart, or the guest cart of the session cookie
func (g guestSession) owner(c *gin.Context) cart.Owner {
	if principal := middleware.PrincipalFrom(c); !principal.IsAnonymous() {
		return cart.UserCart{UserID: principal.UserID}
	}
	return cart.GuestCart{SessionID: g.id(c, true)}
}
