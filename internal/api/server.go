package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/handlers"
	"github.com/eshaffer321/coolingoff/internal/api/middleware"
	"github.com/eshaffer321/coolingoff/internal/application/profile"
	"github.com/eshaffer321/coolingoff/internal/application/purchase"
	"github.com/eshaffer321/coolingoff/internal/application/sweep"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

// Services are the application services the API exposes.
// A nil Sweeper disables the sweep endpoints.
type Services struct {
	Purchases *purchase.Service
	Profiles  *profile.Service
	Sweeper   *sweep.Sweeper
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	services   Services
}

// NewServer creates a new API server.
func NewServer(cfg Config, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   gin.New(),
		logger:   logger,
		services: services,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	// CORS
	s.router.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Check)

	api := s.router.Group("/api")
	api.Use(middleware.RateLimit(middleware.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)))

	// Stateless core operations
	categoriesHandler := handlers.NewCategoriesHandler(s.logger)
	api.POST("/categories/match", categoriesHandler.Match)
	api.GET("/categories/synonyms", categoriesHandler.Synonyms)

	coolingHandler := handlers.NewCoolingHandler(s.logger, nil)
	api.POST("/cooling/resolve", coolingHandler.Resolve)

	// Sweeps
	if s.services.Sweeper != nil {
		sweepHandler := handlers.NewSweepHandler(s.services.Sweeper, s.logger)
		api.POST("/notifications/sweep", sweepHandler.Run)
		api.GET("/sweeps", sweepHandler.List)
		api.GET("/sweeps/:id", sweepHandler.Get)
	}

	// Accounts and settings
	if s.services.Profiles != nil {
		usersHandler := handlers.NewUsersHandler(s.services.Profiles, s.logger)
		api.POST("/login", usersHandler.Login)

		user := api.Group("/users/:userID")
		user.GET("/profile", usersHandler.GetProfile)
		user.PUT("/profile", usersHandler.UpdateProfile)
		user.GET("/ranges", usersHandler.ListRanges)
		user.POST("/ranges", usersHandler.AddRange)
		user.DELETE("/ranges/:id", usersHandler.DeleteRange)
		user.GET("/blacklist", usersHandler.ListBlacklist)
		user.POST("/blacklist", usersHandler.AddBlacklistEntry)
		user.DELETE("/blacklist/:id", usersHandler.DeleteBlacklistEntry)
		user.GET("/notifications", usersHandler.GetNotifications)
		user.PUT("/notifications", usersHandler.UpdateNotifications)
	}

	// Purchases
	if s.services.Purchases != nil {
		purchasesHandler := handlers.NewPurchasesHandler(s.services.Purchases, s.logger)

		user := api.Group("/users/:userID")
		user.GET("/purchases", purchasesHandler.List)
		user.POST("/purchases", purchasesHandler.Create)
		user.POST("/purchases/preview", purchasesHandler.Preview)
		user.POST("/purchases/:id/complete", purchasesHandler.Complete)
		user.DELETE("/purchases/:id", purchasesHandler.Delete)
		user.GET("/history", purchasesHandler.History)
		user.GET("/stats", purchasesHandler.Stats)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
