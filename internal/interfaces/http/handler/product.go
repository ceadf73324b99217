package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ProductHandler handles the catalog endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// ProductRequest carries the editable product fields. Absent fields are left
// untouched on update. Price accepts a number or a numeric string.
type ProductRequest struct {
	ID          string                  `json:"id" binding:"max=128"`
	Name        *string                 `json:"name" binding:"omitempty,max=200"`
	Description *string                 `json:"description"`
	Price       *catalog.Price          `json:"price"`
	Category    *string                 `json:"category"`
	Image       *string                 `json:"image"`
	Images      *[]catalog.ProductImage `json:"images"`
	Video       *string                 `json:"video"`
	Whatsapp    *string                 `json:"whatsapp"`
	Facebook    *string                 `json:"facebook"`
	Instagram   *string                 `json:"instagram"`
	Snapchat    *string                 `json:"snapchat"`
	DataAIHint  *string                 `json:"dataAiHint"`
}

// toPatch converts the request to a domain patch, resolving the category
// case-insensitively
func (r ProductRequest) toPatch() (catalog.ProductPatch, []dto.ValidationDetail) {
	patch := catalog.ProductPatch{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Image:       r.Image,
		Images:      r.Images,
		Video:       r.Video,
		Whatsapp:    r.Whatsapp,
		Facebook:    r.Facebook,
		Instagram:   r.Instagram,
		Snapchat:    r.Snapchat,
		DataAIHint:  r.DataAIHint,
	}
	if r.Category != nil {
		category, err := catalog.ParseCategory(*r.Category)
		if err != nil {
			return patch, []dto.ValidationDetail{{Field: "category", Message: err.Error()}}
		}
		patch.Category = &category
	}
	return patch, nil
}

// toProduct builds a new product from the request
func (r ProductRequest) toProduct() (catalog.Product, []dto.ValidationDetail) {
	patch, details := r.toPatch()
	if details != nil {
		return catalog.Product{}, details
	}
	p := catalog.Product{ID: r.ID}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		price := *patch.Price
		p.Price = &price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Video != nil {
		p.Video = *patch.Video
	}
	if patch.Whatsapp != nil {
		p.Whatsapp = *patch.Whatsapp
	}
	if patch.Facebook != nil {
		p.Facebook = *patch.Facebook
	}
	if patch.Instagram != nil {
		p.Instagram = *patch.Instagram
	}
	if patch.Snapchat != nil {
		p.Snapchat = *patch.Snapchat
	}
	if patch.DataAIHint != nil {
		p.DataAIHint = *patch.DataAIHint
	}
	return p, nil
}

// ProductWriteResponse is returned by single-product writes
type ProductWriteResponse struct {
	Success bool            `json:"success"`
	Product catalog.Product `json:"product"`
}

// SaveCatalogResponse is returned by a full catalog replace
type SaveCatalogResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// InitResponse reports whether the products document had to be created
type InitResponse struct {
	Success bool   `json:"success"`
	Created bool   `json:"created"`
	URL     string `json:"url,omitempty"`
}

// List handles GET /products
// Public product list. Any failure degrades to an empty array.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context(), catalogapp.ListQuery{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	})
	if err != nil {
		logger.GetGinLogger(c).Error("Product list degraded to empty", zap.Error(err))
		products = []catalog.Product{}
	}
	h.Success(c, products)
}

// GetByID handles GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Categories handles GET /categories
// The closed category set with product counts
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, details := req.toProduct()
	if details != nil {
		h.ValidationError(c, "Invalid product", details)
		return
	}

	result, err := h.productService.Create(c.Request.Context(), product)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("ETag", result.Version)
	h.Created(c, ProductWriteResponse{Success: true, Product: result.Product})
}

// Update handles PUT /products/:id
// Partial update; the merged product must carry name, description, price and category
func (h *ProductHandler) Update(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	patch, details := req.toPatch()
	if details != nil {
		h.ValidationError(c, "Invalid product", details)
		return
	}

	result, err := h.productService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("ETag", result.Version)
	h.Success(c, ProductWriteResponse{Success: true, Product: result.Product})
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}

// ReplaceAll handles POST /products/update
// Overwrites products.json. With If-Match the write only succeeds against that version.
func (h *ProductHandler) ReplaceAll(c *gin.Context) {
	var products []catalog.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.productService.ReplaceAll(c.Request.Context(), products, strings.TrimSpace(c.GetHeader("If-Match")))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("ETag", result.Version)
	h.Success(c, SaveCatalogResponse{Success: true, URL: result.URL})
}

// Init handles POST /init
func (h *ProductHandler) Init(c *gin.Context) {
	created, result, err := h.productService.Init(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := InitResponse{Success: true, Created: created}
	if result != nil {
		resp.URL = result.URL
	}
	h.Success(c, resp)
}
