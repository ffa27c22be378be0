// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/session"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
)

const (
	principalKey = "principal"
	claimsKey    = "token_claims"
)

// Gate resolves the caller's session once per request and enforces the access
// rule of the requested route. apiPrefix is stripped before classification.
func Gate(resolver *session.Resolver, jwtManager *auth.JWTManager, apiPrefix string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, apiPrefix)
		class := session.Classify(c.Request.Method, path)

		principal := session.Anonymous
		if claims := bearerClaims(c, jwtManager); claims != nil {
			resolved, err := resolver.Resolve(c.Request.Context(), claims)
			if err != nil {
				log.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey),
					"path":       path,
				}).WithError(err).Warn("Session resolution failed")
				if class != session.RoutePublic {
					AbortWithError(c, apperror.Internal(err))
					return
				}
			} else {
				principal = resolved
				if !principal.IsAnonymous() {
					c.Set(claimsKey, claims)
				}
			}
		}

		c.Set(principalKey, principal)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), principal))

		switch class {
		case session.RouteGuestOnly:
			if !principal.IsAnonymous() {
				c.Header("Location", session.HomePath)
				c.AbortWithStatusJSON(http.StatusSeeOther, gin.H{
					"error":    "You are already signed in",
					"redirect": session.HomePath,
				})
				return
			}
		case session.RouteProtected:
			if err := session.RequireUser(principal); err != nil {
				AbortWithError(c, err)
				return
			}
		case session.RouteAdmin:
			if err := session.RequireAdmin(principal); err != nil {
				AbortWithError(c, err)
				return
			}
		}

		c.Next()
	}
}

// bearerClaims validates the access token of the Authorization header. Missing
// or invalid tokens yield nil, which resolves to the anonymous principal.
func bearerClaims(c *gin.Context, jwtManager *auth.JWTManager) *auth.Claims {
	tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if tokenString == "" {
		return nil
	}
	claims, err := jwtManager.ValidateAccessToken(tokenString)
	if err != nil {
		return nil
	}
	return claims
}

// PrincipalFrom returns the principal the gate attached to c
func PrincipalFrom(c *gin.Context) session.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(session.Principal); ok {
			return p
		}
	}
	return session.Anonymous
}

// ClaimsFrom returns the validated access token claims of a signed-in caller
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
