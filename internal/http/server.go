package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	dynamicSecretsHTTP "github.com/allisson/dynamic-secrets/internal/dynamicsecrets/http"
	"github.com/allisson/dynamic-secrets/internal/metrics"
)

// Config carries the API server settings.
type Config struct {
	Host               string
	Port               int
	CORSEnabled        bool
	CORSAllowOrigins   string
	RateLimitPerSecond float64
	RateLimitBurst     int
	MetricsNamespace   string
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg Config,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
	dynamicSecretHandler *dynamicSecretsHTTP.DynamicSecretHandler,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))
	router.Use(RateLimitMiddleware(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", readinessHandler)

	registerV1Routes(router, logger, dynamicSecretHandler)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// registerV1Routes mounts the dynamic secret API. Count and by-folders
// operations live on their own prefixes so they never collide with the
// :name wildcard.
func registerV1Routes(router *gin.Engine, logger *slog.Logger, handler *dynamicSecretsHTTP.DynamicSecretHandler) {
	v1 := router.Group("/v1")
	v1.Use(dynamicSecretsHTTP.ActorMiddleware(logger))

	v1.POST("/dynamic-secrets", handler.CreateHandler)
	v1.GET("/dynamic-secrets", handler.ListHandler)
	v1.GET("/dynamic-secrets/:name", handler.GetDetailsHandler)
	v1.PATCH("/dynamic-secrets/:name", handler.UpdateHandler)
	v1.DELETE("/dynamic-secrets/:name", handler.DeleteHandler)
	v1.GET("/dynamic-secrets-count", handler.CountHandler)
	v1.POST("/dynamic-secrets-by-folders", handler.ListByFoldersHandler)
	v1.POST("/dynamic-secrets-providers/azure-entra-id/users", handler.FetchEntraIDUsersHandler)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func readinessHandler(c *gin.Context) {
	select {
	case <-c.Request.Context().Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
