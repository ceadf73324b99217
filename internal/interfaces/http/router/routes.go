package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// multipartOverhead is headroom for boundaries and form fields around an upload
const multipartOverhead int64 = 1 << 20

// Handlers bundles the storefront HTTP handlers
type Handlers struct {
	Product  *handler.ProductHandler
	Settings *handler.SettingsHandler
	Cart     *handler.CartHandler
	Auth     *handler.AuthHandler
	Media    *handler.MediaHandler
	System   *handler.SystemHandler
}

// RoutesConfig controls the per-group middleware
type RoutesConfig struct {
	Authenticator middleware.Authenticator
	Logger        *zap.Logger
	CartSession   middleware.CartSessionConfig
	// MaxBodySize caps JSON bodies
	MaxBodySize int64
	// MaxUploadSize caps a single media file
	MaxUploadSize int64
	// AuthLimiter throttles login attempts. Nil disables it.
	AuthLimiter *middleware.RateLimiter
}

// StorefrontRoutes builds the route groups mounted under the API base path
func StorefrontRoutes(h Handlers, cfg RoutesConfig) []*DomainGroup {
	admin := []gin.HandlerFunc{
		middleware.JWTAuthMiddleware(cfg.Authenticator, cfg.Logger),
		middleware.TracingAttributeInjector(),
	}
	jsonLimit := middleware.BodyLimit(cfg.MaxBodySize)

	catalog := NewDomainGroup("catalog", "").Use(jsonLimit)
	catalog.GET("/products", h.Product.List).
		GET("/products/:id", h.Product.GetByID).
		GET("/categories", h.Product.Categories)
	catalog.Group("catalog-admin", "").Use(admin...).
		POST("/products", h.Product.Create).
		POST("/products/update", h.Product.ReplaceAll).
		PUT("/products/:id", h.Product.Update).
		DELETE("/products/:id", h.Product.Delete).
		POST("/init", h.Product.Init)

	settings := NewDomainGroup("settings", "/settings").Use(jsonLimit)
	settings.GET("", h.Settings.Get).
		GET("/links", h.Settings.Links)
	settings.Group("settings-admin", "").Use(admin...).
		POST("", h.Settings.Save)

	cart := NewDomainGroup("cart", "/cart").Use(jsonLimit, middleware.CartSession(cfg.CartSession))
	cart.GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PUT("/items/:productId", h.Cart.SetQuantity).
		DELETE("/items/:productId", h.Cart.RemoveItem).
		POST("/checkout", h.Cart.Checkout)

	authGroup := NewDomainGroup("auth", "/auth").Use(jsonLimit, middleware.NoCache())
	login := []gin.HandlerFunc{h.Auth.Login}
	if cfg.AuthLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.AuthRateLimit(cfg.AuthLimiter)}, login...)
	}
	authGroup.POST("/login", login...)
	authGroup.Group("auth-admin", "").Use(admin...).
		POST("/logout", h.Auth.Logout).
		GET("/session", h.Auth.Session).
		PUT("/password", h.Auth.ChangePassword)

	media := NewDomainGroup("media", "").Use(admin...)
	media.Group("media-upload", "").Use(middleware.BodyLimit(cfg.MaxUploadSize+multipartOverhead)).
		POST("/upload", h.Media.Upload)
	media.Group("media-manage", "").Use(jsonLimit).
		DELETE("/delete-file", h.Media.Delete).
		GET("/files", h.Media.List)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{catalog, settings, cart, authGroup, media, system}
}

// RegisterHealth mounts the health probe on the engine root, outside the API
// middleware so rate limits never fail a liveness check
func RegisterHealth(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
}
