package session

import (
	"net/http"
	"strings"
)

// RouteClass is the access rule a path falls under
type RouteClass int

const (
	// RoutePublic is open to everyone
	RoutePublic RouteClass = iota
	// RouteGuestOnly serves anonymous visitors; signed-in users are sent home
	RouteGuestOnly
	// RouteProtected needs RequireUser
	RouteProtected
	// RouteAdmin needs RequireAdmin
	RouteAdmin
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteGuestOnly:
		return "guest_only"
	case RouteProtected:
		return "protected"
	case RouteAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

var publicExact = map[string]bool{
	"/":                     true,
	"/about-us":             true,
	"/shop":                 true,
	"/categories":           true,
	"/auth/confirm":         true,
	"/auth/error":           true,
	"/auth/refresh":         true,
	"/registration-success": true,
	"/email-confirmation":   true,
	"/health":               true,
	"/ready":                true,
}

var publicPrefixes = []string{
	"/products",
	"/product",
	"/cart",
}

var guestOnly = map[string]bool{
	"/login":                    true,
	"/register":                 true,
	"/forgot-password":          true,
	"/reset-password":           true,
	"/auth/login":               true,
	"/auth/register":            true,
	"/auth/forgot-password":     true,
	"/auth/reset-password":      true,
	"/auth/resend-confirmation": true,
}

// Classify maps a request to its access rule. path is relative to the API
// prefix. The checkout entry page is public, placing the order is not.
func Classify(method, path string) RouteClass {
	path = normalize(path)

	if path == "/admin" || strings.HasPrefix(path, "/admin/") {
		return RouteAdmin
	}
	if guestOnly[path] {
		return RouteGuestOnly
	}
	if publicExact[path] {
		return RoutePublic
	}
	if path == "/checkout" && (method == http.MethodGet || method == http.MethodHead) {
		return RoutePublic
	}
	// cart/merge folds the guest cart into the signed-in user's cart
	if path == "/cart/merge" {
		return RouteProtected
	}
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return RoutePublic
		}
	}
	return RouteProtected
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
