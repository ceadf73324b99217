package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
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
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Catalog, cart, WhatsApp checkout and dashboard API for a small storefront

//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// documentCacheControl keeps CDNs from serving a stale catalog after a write
const documentCacheControl = "no-cache, max-age=0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	telCfg := telemetry.FromConfig(cfg.Telemetry)

	// OTLP log export wraps the base logger, so it is set up first
	logProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		// Profiling is optional; the server runs without it
		log.Warn("Failed to start profiler", zap.Error(err))
	} else if cfg.Telemetry.ProfilingEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	metrics, err := telemetry.NewStoreMetrics(meterProvider.Meter("storefront"), log)
	if err != nil {
		log.Warn("Store metrics disabled", zap.Error(err))
		metrics = nil
	}

	// Blob storage and the singleton documents
	blobs, err := storage.NewBlobStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize blob store", zap.Error(err))
	}
	if err := blobs.Ping(ctx); err != nil {
		log.Warn("Blob store is not reachable yet", zap.Error(err))
	}

	docs := cfg.Documents
	productDocs := storage.NewJSONDocumentStore(blobs, docs.ProductsKey,
		storage.Codec[[]catalog.Product]{Decode: catalog.DecodeCatalog, Encode: catalog.EncodeCatalog},
		storage.DocumentOptions{LegacyKeys: nonEmpty(docs.LegacyProductsKey), CacheControl: documentCacheControl, Logger: log})
	settingsDocs := storage.NewJSONDocumentStore(blobs, docs.SettingsKey,
		storage.JSONCodec[social.Links](),
		storage.DocumentOptions{LegacyKeys: nonEmpty(docs.LegacySettingsKey), CacheControl: documentCacheControl, Logger: log})
	passwordDocs := storage.NewJSONDocumentStore(blobs, docs.PasswordKey,
		storage.JSONCodec[identity.PasswordDocument](),
		storage.DocumentOptions{CacheControl: "private, no-store", Logger: log})

	// Carts live in Redis when it is reachable; the session blacklist shares
	// the same client
	cartStore, redisClient, err := cache.NewCartStoreFactory(cfg.Redis, cfg.Cart,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cart store", zap.Error(err))
	}
	defer func() {
		// The Redis cart store owns the shared client
		if closer, ok := cartStore.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Error("Error closing cart store", zap.Error(err))
			}
		}
	}()

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklistWithClient(redisClient)
	} else {
		log.Warn("Session revocation is process-local; logouts are not shared between instances")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Application services
	productService := catalogapp.NewProductService(productDocs,
		catalogapp.WithLogger(log),
		catalogapp.WithMetrics(metrics),
		catalogapp.WithMaxRetries(docs.MaxCASRetries),
	)
	settingsService := settings.NewSettingsService(settingsDocs, log)
	cartService := cartapp.NewCartService(cartStore, productService, settingsService, metrics, log)
	authService := identityapp.NewAuthService(
		auth.NewBcryptCredentialStore(passwordDocs, cfg.Auth, log),
		auth.NewJWTService(cfg.Auth),
		blacklist,
		metrics,
		log,
	)
	mediaService := media.NewMediaService(blobs, media.Config{
		MaxSize:       cfg.Upload.MaxSize,
		DefaultPrefix: cfg.Upload.DefaultPrefix,
		ReservedKeys:  nonEmpty(docs.ProductsKey, docs.LegacyProductsKey, docs.SettingsKey, docs.LegacySettingsKey, docs.PasswordKey),
	}, metrics, log)

	session := middleware.CartSessionConfig{
		CookieName: cfg.Cart.CookieName,
		MaxAge:     cfg.Cart.TTL,
		Secure:     cfg.App.IsProduction(),
	}
	handlers := router.Handlers{
		Product:  handler.NewProductHandler(productService),
		Settings: handler.NewSettingsHandler(settingsService),
		Cart:     handler.NewCartHandler(cartService, session),
		Auth:     handler.NewAuthHandler(authService),
		Media:    handler.NewMediaHandler(mediaService),
		System: handler.NewSystemHandler(version,
			handler.HealthProbe{Name: "blob_store", Pinger: blobs},
			handler.HealthProbe{Name: "cart_store", Pinger: cartStore},
		),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine, err := router.NewEngine(cfg.HTTP.TrustedProxies)
	if err != nil {
		log.Fatal("Failed to initialize HTTP engine", zap.Error(err))
	}

	// Middleware order:
	// 1. RequestID - generate or propagate the request id
	// 2. Logger - request-scoped logger and access log
	// 3. Recovery - catch panics
	// 4. Tracing - server span, error status from the response
	// 5. Metrics and profiling labels
	// 6. Security headers and CORS
	// Body limits and rate limits are applied per route group.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   cfg.Telemetry.ProfilingEnabled,
		SkipPaths: []string{"/health"},
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))

	router.RegisterHealth(engine, handlers.System)

	var apiMiddleware []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(
			middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	r := router.NewRouter(engine, router.WithMiddleware(apiMiddleware...))
	for _, group := range router.StorefrontRoutes(handlers, router.RoutesConfig{
		Authenticator: authService,
		Logger:        log,
		CartSession:   session,
		MaxBodySize:   cfg.HTTP.MaxBodySize,
		MaxUploadSize: mediaService.MaxSize(),
		AuthLimiter:   authLimiter,
	}) {
		r.Register(group)
		log.Debug("Registered route group",
			zap.String("group", group.Name()),
			zap.String("prefix", r.BasePath()+group.Prefix()),
			zap.Int("routes", group.RouteCount()),
		)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down log provider", zap.Error(err))
	}
}

// nonEmpty drops blank keys
func nonEmpty(keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
