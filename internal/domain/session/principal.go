// Package session resolves who is making a request and decides whether they
// may reach a route.
package session

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
)

// Principal is the per-request identity. The zero value is the anonymous
// principal.
type Principal struct {
	UserID         uuid.UUID    `json:"user_id"`
	Email          string       `json:"email"`
	EmailConfirmed bool         `json:"email_confirmed"`
	Role           profile.Role `json:"role"`
	TokenID        string       `json:"-"`
}

// Anonymous is the principal of a request without a valid session
var Anonymous = Principal{}

// IsAnonymous reports whether there is no signed-in user
func (p Principal) IsAnonymous() bool {
	return p.UserID == uuid.Nil
}

// IsAdmin reports whether the principal carries the admin role
func (p Principal) IsAdmin() bool {
	return !p.IsAnonymous() && p.Role == profile.RoleAdmin
}

// Capability names the coarse access level: anonymous, user or admin
func (p Principal) Capability() string {
	switch {
	case p.IsAnonymous():
		return "anonymous"
	case p.IsAdmin():
		return "admin"
	default:
		return "user"
	}
}

// RequireUser fails for anonymous principals and for accounts whose email
// address is not confirmed yet
func RequireUser(p Principal) error {
	if p.IsAnonymous() {
		return apperror.ErrUnauthenticated
	}
	if !p.EmailConfirmed {
		return apperror.ErrEmailNotConfirmed
	}
	return nil
}

// RequireAdmin is RequireUser plus the admin role
func RequireAdmin(p Principal) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if p.Role != profile.RoleAdmin {
		return apperror.ErrForbidden
	}
	return nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying p
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(contextKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}

// Redirect targets for error kinds the frontend resolves by navigating
const (
	LoginPath        = "/login"
	HomePath         = "/"
	CartPath         = "/cart"
	ConfirmEmailPath = "/login?error=confirm-email"
)

// RedirectHint returns where a client should navigate after err, or "" when
// the error is shown inline. next is the page the user was trying to reach.
func RedirectHint(err error, next string) string {
	switch apperror.KindOf(err) {
	case apperror.KindUnauthenticated:
		if next == "" || next == LoginPath {
			return LoginPath
		}
		return LoginPath + "?next=" + url.QueryEscape(next)
	case apperror.KindEmailNotConfirmed:
		return ConfirmEmailPath
	case apperror.KindForbidden:
		return HomePath
	case apperror.KindEmptyCart:
		return CartPath
	default:
		return ""
	}
}
