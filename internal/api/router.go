package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/userhub/user-management/internal/api/handler"
	"github.com/userhub/user-management/internal/api/middleware"
	"github.com/userhub/user-management/internal/core/domain"
	"github.com/userhub/user-management/internal/core/ports"
	"github.com/userhub/user-management/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router needs; the composition root in
// cmd/server builds them.
type Dependencies struct {
	Users ports.UserService
	Codec ports.TokenCodec
	Mongo *mongo.Database
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("usermgmt_http"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Users)
	userHandler := handler.NewUserHandler(deps.Users)
	authRequired := middleware.Auth(deps.Codec)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/verify", authHandler.Verify)

	// --- User routes ---
	users := e.Group("/users", authRequired)
	users.GET("/me", userHandler.Me)
	users.GET("", userHandler.List, middleware.RBAC(domain.RoleManager))
	users.PUT("/:id", userHandler.Update)
	users.POST("/:id/unlock", userHandler.Unlock, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
