package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/media"
	"github.com/storefront/backend/internal/application/settings"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testPassword    = "admin123"
	productsKey     = "products.json"
	settingsKey     = "social-links.json"
	passwordKey     = "dashboard-password.json"
	testBlobBaseURL = "https://blob.test"
)

var catalogQueryAll = catalogapp.ListQuery{}

// testStore is a full storefront wired over in-memory stores
type testStore struct {
	engine   *gin.Engine
	blobs    *storage.MemoryBlobStore
	carts    *cache.InMemoryCartStore
	products *catalogapp.ProductService
	settings *settings.SettingsService
	auth     *identityapp.AuthService
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	blobs := storage.NewMemoryBlobStore(testBlobBaseURL)
	productDocs := storage.NewJSONDocumentStore(blobs, productsKey,
		storage.Codec[[]catalog.Product]{Decode: catalog.DecodeCatalog, Encode: catalog.EncodeCatalog},
		storage.DocumentOptions{LegacyKeys: []string{"products/products.json"}})
	settingsDocs := storage.NewJSONDocumentStore(blobs, settingsKey,
		storage.JSONCodec[social.Links](),
		storage.DocumentOptions{LegacyKeys: []string{"site-settings.json"}})
	passwordDocs := storage.NewJSONDocumentStore(blobs, passwordKey,
		storage.JSONCodec[identity.PasswordDocument](),
		storage.DocumentOptions{})

	authCfg := config.AuthConfig{
		JWTSecret:       "handler-test-secret-at-least-32-chars",
		Issuer:          "storefront-test",
		SessionTTL:      time.Hour,
		DefaultPassword: testPassword,
		BcryptCost:      4,
	}

	carts := cache.NewInMemoryCartStore(time.Hour)
	t.Cleanup(func() { _ = carts.Close() })

	productService := catalogapp.NewProductService(productDocs)
	settingsService := settings.NewSettingsService(settingsDocs, nil)
	cartService := cartapp.NewCartService(carts, productService, settingsService, nil, nil)
	authService := identityapp.NewAuthService(
		auth.NewBcryptCredentialStore(passwordDocs, authCfg, nil),
		auth.NewJWTService(authCfg),
		auth.NewInMemoryTokenBlacklist(),
		nil, nil,
	)
	mediaService := media.NewMediaService(blobs, media.Config{
		MaxSize:      1 << 20,
		ReservedKeys: []string{productsKey, settingsKey, passwordKey, "products/products.json", "site-settings.json"},
	}, nil, nil)

	productHandler := NewProductHandler(productService)
	settingsHandler := NewSettingsHandler(settingsService)
	session := middleware.CartSessionConfig{MaxAge: time.Hour}
	cartHandler := NewCartHandler(cartService, session)
	authHandler := NewAuthHandler(authService)
	mediaHandler := NewMediaHandler(mediaService)
	systemHandler := NewSystemHandler("test",
		HealthProbe{Name: "blob_store", Pinger: blobs},
		HealthProbe{Name: "cart_store", Pinger: carts},
	)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", systemHandler.Health)

	api := engine.Group("/api")
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.GetByID)
	api.GET("/categories", productHandler.Categories)
	api.GET("/settings", settingsHandler.Get)
	api.GET("/settings/links", settingsHandler.Links)
	api.POST("/auth/login", authHandler.Login)

	cartGroup := api.Group("/cart", middleware.CartSession(session))
	cartGroup.GET("", cartHandler.Get)
	cartGroup.DELETE("", cartHandler.Clear)
	cartGroup.POST("/items", cartHandler.AddItem)
	cartGroup.PUT("/items/:productId", cartHandler.SetQuantity)
	cartGroup.DELETE("/items/:productId", cartHandler.RemoveItem)
	cartGroup.POST("/checkout", cartHandler.Checkout)

	admin := api.Group("", middleware.JWTAuthMiddleware(authService, nil))
	admin.POST("/products", productHandler.Create)
	admin.POST("/products/update", productHandler.ReplaceAll)
	admin.PUT("/products/:id", productHandler.Update)
	admin.DELETE("/products/:id", productHandler.Delete)
	admin.POST("/init", productHandler.Init)
	admin.POST("/settings", settingsHandler.Save)
	admin.POST("/upload", mediaHandler.Upload)
	admin.DELETE("/delete-file", mediaHandler.Delete)
	admin.GET("/files", mediaHandler.List)
	admin.POST("/auth/logout", authHandler.Logout)
	admin.GET("/auth/session", authHandler.Session)
	admin.PUT("/auth/password", authHandler.ChangePassword)

	return &testStore{
		engine:   engine,
		blobs:    blobs,
		carts:    carts,
		products: productService,
		settings: settingsService,
		auth:     authService,
	}
}

// login returns a bearer header for a fresh dashboard session
func (s *testStore) login(t *testing.T) string {
	t.Helper()
	result, err := s.auth.Login(context.Background(), identityapp.LoginInput{Password: testPassword})
	require.NoError(t, err)
	return "Bearer " + result.Token
}

// seed stores products as the catalog
func (s *testStore) seed(t *testing.T, products ...catalog.Product) {
	t.Helper()
	_, err := s.products.ReplaceAll(context.Background(), products, "")
	require.NoError(t, err)
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func (s *testStore) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	switch b := r.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	return decode[dto.ErrorResponse](t, w)
}

func perfume(id, name string, price float64) catalog.Product {
	p := catalog.PriceFromFloat(price)
	return catalog.Product{
		ID:          id,
		Name:        name,
		Description: name + " eau de parfum",
		Price:       &p,
		Category:    catalog.CategoryPerfumes,
	}
}
