// internal/interfaces/http/handlers/response.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/middleware"
)

// respondError writes err as the standard error envelope
func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// respondBindError reports a request that failed binding or validation tags
func respondBindError(c *gin.Context, err error) {
	respondError(c, apperror.Validation("Invalid request data").WithDetails(err.Error()))
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"data":    data,
	})
}

// uuidParam parses the named path parameter
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperror.Validation("Invalid "+name).WithDetails(c.Param(name)))
		return uuid.Nil, false
	}
	return id, true
}
