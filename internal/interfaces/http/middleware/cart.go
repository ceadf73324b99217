package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Cart session transport
const (
	CartIDHeader       = "X-Cart-ID"
	CartIDCookie       = "cart_id"
	CartIDContextKey   = "cart_id"
	defaultCartMaxAge  = 7 * 24 * time.Hour
	cartCookieSameSite = http.SameSiteLaxMode
)

// CartSessionConfig configures how the shopper's cart id travels
type CartSessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// CartSession resolves the shopper's cart id from the X-Cart-ID header or
// the cart cookie and tags the request logger with it. Ids that are not
// UUIDs are ignored so the handler starts a fresh cart.
func CartSession(cfg CartSessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = CartIDCookie
	}
	return func(c *gin.Context) {
		id := c.GetHeader(CartIDHeader)
		if id == "" {
			id, _ = c.Cookie(cfg.CookieName)
		}
		if _, err := uuid.Parse(id); err == nil && len(id) == 36 {
			c.Set(CartIDContextKey, id)
			ctx, reqLogger := logger.WithCartID(c.Request.Context(), logger.FromContext(c.Request.Context()), id)
			c.Set(logger.GinLoggerKey, reqLogger)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// GetCartID returns the cart id resolved by CartSession, or ""
func GetCartID(c *gin.Context) string {
	return c.GetString(CartIDContextKey)
}

// SetCartID hands the cart id back to the client as both cookie and header
func SetCartID(c *gin.Context, cfg CartSessionConfig, id string) {
	if cfg.CookieName == "" {
		cfg.CookieName = CartIDCookie
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCartMaxAge
	}
	c.SetSameSite(cartCookieSameSite)
	c.SetCookie(cfg.CookieName, id, int(maxAge.Seconds()), "/", "", cfg.Secure, true)
	c.Header(CartIDHeader, id)
	c.Set(CartIDContextKey, id)
}
