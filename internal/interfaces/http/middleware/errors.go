// internal/interfaces/http/middleware/errors.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/session"
)

// AbortWithError writes err as the standard error envelope and aborts the chain.
// Foreign errors are reported as internal errors without leaking their text.
func AbortWithError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(err)
	}

	status := appErr.HTTPStatus()
	if status >= 500 {
		_ = c.Error(err)
	}

	body := gin.H{
		"error": appErr.Message(),
		"code":  appErr.Code(),
		"kind":  appErr.Kind(),
	}
	if details := appErr.Details(); details != "" {
		body["details"] = details
	}
	if hint := session.RedirectHint(err, c.Request.URL.Path); hint != "" {
		body["redirect"] = hint
	}

	c.AbortWithStatusJSON(status, body)
}
