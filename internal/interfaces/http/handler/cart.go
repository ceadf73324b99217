package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler serves the session-scoped cart
type CartHandler struct {
	BaseHandler
	cartService *cartapp.CartService
	session     middleware.CartSessionConfig
}

// NewCartHandler creates a new CartHandler. session must match the
// configuration given to middleware.CartSession.
func NewCartHandler(cartService *cartapp.CartService, session middleware.CartSessionConfig) *CartHandler {
	return &CartHandler{cartService: cartService, session: session}
}

// AddItemRequest adds a catalog product to the cart. A missing or
// non-positive quantity adds one unit.
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required,max=128"`
	Quantity  int    `json:"quantity" binding:"omitempty,max=999"`
}

// SetQuantityRequest replaces a line's quantity; zero removes the line
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=999"`
}

// CheckoutResponse carries the wa.me link
type CheckoutResponse struct {
	Success   bool          `json:"success"`
	URL       string        `json:"url"`
	ItemCount int           `json:"itemCount"`
	Total     catalog.Price `json:"total"`
}

// Get handles GET /cart
// An unknown or expired cart id yields an empty cart
func (h *CartHandler) Get(c *gin.Context) {
	id := middleware.GetCartID(c)
	crt, err := h.cartService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if crt.ID == id {
		// Refresh the cookie only for a cart that is actually stored
		middleware.SetCartID(c, h.session, crt.ID)
	}
	h.Success(c, cartapp.ToCartResponse(crt))
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	crt, err := h.cartService.AddItem(c.Request.Context(), middleware.GetCartID(c), req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	middleware.SetCartID(c, h.session, crt.ID)
	h.Success(c, cartapp.ToCartResponse(crt))
}

// SetQuantity handles PUT /cart/items/:productId
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	crt, err := h.cartService.SetQuantity(c.Request.Context(), middleware.GetCartID(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	middleware.SetCartID(c, h.session, crt.ID)
	h.Success(c, cartapp.ToCartResponse(crt))
}

// RemoveItem handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	crt, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetCartID(c), c.Param("productId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	middleware.SetCartID(c, h.session, crt.ID)
	h.Success(c, cartapp.ToCartResponse(crt))
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), middleware.GetCartID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}

// Checkout handles POST /cart/checkout
// Nothing is recorded; the cart is kept
func (h *CartHandler) Checkout(c *gin.Context) {
	result, err := h.cartService.Checkout(c.Request.Context(), middleware.GetCartID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CheckoutResponse{
		Success:   true,
		URL:       result.URL,
		ItemCount: result.ItemCount,
		Total:     result.Total,
	})
}
