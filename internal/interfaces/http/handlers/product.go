// internal/interfaces/http/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cafe-storefront/internal/domain/product"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	products *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.products.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Products retrieved successfully", resp)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product retrieved successfully", p)
}

// GetRelatedProducts handles GET /products/:id/related
func (h *ProductHandler) GetRelatedProducts(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	related, err := h.products.Related(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Related products retrieved successfully", related)
}

// GetFeaturedProducts handles GET /products/featured
func (h *ProductHandler) GetFeaturedProducts(c *gin.Context) {
	featured, err := h.products.Featured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Featured products retrieved successfully", featured)
}

// GetCategories handles GET /products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Categories retrieved successfully", categories)
}
