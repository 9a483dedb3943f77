// Package app provides the dependency injection container assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/dynamic-secrets/internal/config"
	"github.com/allisson/dynamic-secrets/internal/database"
	"github.com/allisson/dynamic-secrets/internal/http"
	leasesUsecase "github.com/allisson/dynamic-secrets/internal/leases/usecase"
	"github.com/allisson/dynamic-secrets/internal/metrics"
)

// Container holds all application dependencies and provides methods to access
// them. Components are created lazily on first access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	replicaDB       *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Dynamic secrets context, assembled in di_dynamicsecrets.go.
	dynamicSecretsDeps

	// Servers and workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	pruneWorker   *leasesUsecase.PruneWorker

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	replicaDBInit       sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	pruneWorkerInit     sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the primary database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(c.dbConfig())
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// ReplicaDB returns the read replica connection, or nil when no replica is
// configured. Finders fall back to the primary in that case.
func (c *Container) ReplicaDB() (*sql.DB, error) {
	c.replicaDBInit.Do(func() {
		db, err := database.ConnectReplica(c.dbConfig())
		if err != nil {
			c.initErrors["replicaDB"] = fmt.Errorf("failed to connect to replica database: %w", err)
			return
		}
		c.replicaDB = db
	})
	if storedErr, exists := c.initErrors["replicaDB"]; exists {
		return nil, storedErr
	}
	return c.replicaDB, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// used when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// PruneWorker returns the background worker that removes definitions marked
// deleting once their leases drain.
func (c *Container) PruneWorker() (*leasesUsecase.PruneWorker, error) {
	c.pruneWorkerInit.Do(func() {
		worker, err := c.initPruneWorker()
		if err != nil {
			c.initErrors["pruneWorker"] = err
			return
		}
		c.pruneWorker = worker
	})
	if storedErr, exists := c.initErrors["pruneWorker"]; exists {
		return nil, storedErr
	}
	return c.pruneWorker, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.replicaDB != nil {
		if err := c.replicaDB.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("replica database close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates a structured JSON logger based on the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// dbConfig maps the application config onto the database settings shared by
// the primary and replica connections.
func (c *Container) dbConfig() database.Config {
	return database.Config{
		Driver:                  c.config.DBDriver,
		ConnectionString:        c.config.DBConnectionString,
		ReplicaConnectionString: c.config.DBReadReplicaConnectionString,
		MaxOpenConnections:      c.config.DBMaxOpenConnections,
		MaxIdleConnections:      c.config.DBMaxIdleConnections,
		ConnMaxLifetime:         c.config.DBConnMaxLifetime,
	}
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	handler, err := c.DynamicSecretHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic secret handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	serverConfig := http.Config{
		Host:             c.config.ServerHost,
		Port:             c.config.ServerPort,
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
		MetricsNamespace: c.config.MetricsNamespace,
	}
	if c.config.RateLimitEnabled {
		serverConfig.RateLimitPerSecond = c.config.RateLimitRequestsPerSec
		serverConfig.RateLimitBurst = c.config.RateLimitBurst
	}

	return http.NewServer(serverConfig, c.Logger(), provider, handler), nil
}

// initPruneWorker creates the prune worker with all its dependencies.
func (c *Container) initPruneWorker() (*leasesUsecase.PruneWorker, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for prune worker: %w", err)
	}

	jobRepo, err := c.RevocationJobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation job repository for prune worker: %w", err)
	}

	leaseRepo, err := c.LeaseRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get lease repository for prune worker: %w", err)
	}

	secretRepo, err := c.DynamicSecretRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic secret repository for prune worker: %w", err)
	}

	workerConfig := leasesUsecase.WorkerConfig{
		Interval:   c.config.WorkerInterval,
		BatchSize:  c.config.WorkerBatchSize,
		MaxRetries: c.config.WorkerMaxRetries,
	}

	return leasesUsecase.NewPruneWorker(workerConfig, txManager, jobRepo, leaseRepo, secretRepo, c.Logger()), nil
}
