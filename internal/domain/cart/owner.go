package cart

import "github.com/google/uuid"

// Owner identifies whose cart a request addresses. It is either a UserCart
// (server-side rows) or a GuestCart (session document with no server identity
// per line until merged at login).
type Owner interface {
	kind() string
}

// UserCart addresses the persisted cart of a signed-in user
type UserCart struct {
	UserID uuid.UUID
}

// GuestCart addresses an anonymous cart keyed by the session cookie
type GuestCart struct {
	SessionID string
}

func (UserCart) kind() string  { return "user" }
func (GuestCart) kind() string { return "guest" }
