package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quanlytn/resource-portal/internal/api/handler"
	"github.com/quanlytn/resource-portal/internal/api/middleware"
	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/service"
	"github.com/quanlytn/resource-portal/internal/infrastructure/db/firebase"
	redisdb "github.com/quanlytn/resource-portal/internal/infrastructure/db/redis"
	"github.com/quanlytn/resource-portal/internal/infrastructure/identity"
	"github.com/quanlytn/resource-portal/internal/infrastructure/queue"
	"github.com/quanlytn/resource-portal/internal/infrastructure/storage"
	"github.com/quanlytn/resource-portal/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("portal"))

	// --- Backend adapters ---
	dbClient := firebase.NewClient(cfg.Firebase.DatabaseURL)
	resourceRepo := firebase.NewResourceRepository(dbClient)
	userRepo := firebase.NewUserRepository(dbClient)
	blobs := storage.NewClient(cfg.Firebase.StorageBucket, cfg.Firebase.StorageURL)
	idp := identity.NewClient(cfg.Firebase.APIKey, cfg.Firebase.IdentitySignInURL, cfg.Firebase.IdentityTokenURL)
	sessions := redisdb.NewSessionStore(rdb, cfg.SessionTTL)
	cleaner := queue.NewCleaner(0, blobs, log)

	// --- Services ---
	authService := service.NewAuthService(
		idp, userRepo, userRepo, sessions,
		cfg.JWTSecret, cfg.Firebase.UsernameEmailDomain, cfg.SessionTTL, log,
	)
	resourceService := service.NewResourceService(resourceRepo, blobs, cleaner, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService, cfg.JWTSecret)
	adminHandler := handler.NewAdminHandler(resourceService)
	downloadHandler := handler.NewDownloadHandler(resourceService)
	themeHandler := handler.NewThemeHandler()

	authMiddleware := middleware.Auth(cfg.JWTSecret, sessions, idp, log)

	// --- Entry surface (no auth required) ---
	e.POST("/v1/auth/login", authHandler.Login)
	e.POST("/v1/auth/logout", authHandler.Logout)
	e.GET("/v1/theme", themeHandler.Get)
	e.PUT("/v1/theme", themeHandler.Put)

	// --- Admin view (role-gated, checked per request) ---
	admin := e.Group("/v1/admin", authMiddleware, middleware.RequireRole(authService, domain.RoleAdmin))
	admin.GET("/resources", adminHandler.List)
	admin.POST("/resources", adminHandler.Create)
	admin.PUT("/resources/:id", adminHandler.Update)
	admin.DELETE("/resources/:id", adminHandler.Delete)

	// --- Download view (role-gated, checked per request) ---
	downloads := e.Group("/v1/downloads", authMiddleware, middleware.RequireRole(authService, domain.RoleDownload))
	downloads.GET("", downloadHandler.List)
	downloads.GET("/:id/file", downloadHandler.Fetch)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(rdb, dbClient)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
