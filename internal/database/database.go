// Package database provides database connection management and utilities.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Config holds database configuration settings. ReplicaConnectionString
// optionally points finders at a read replica; empty means no replica and
// readers fall back to the primary connection.
type Config struct {
	Driver                  string
	ConnectionString        string
	ReplicaConnectionString string
	MaxOpenConnections      int
	MaxIdleConnections      int
	ConnMaxLifetime         time.Duration
}

// Connect establishes the primary database connection with the given
// configuration.
func Connect(cfg Config) (*sql.DB, error) {
	return open(cfg, cfg.ConnectionString)
}

// ConnectReplica establishes the read replica connection described by cfg,
// sharing the primary's pool settings. It returns (nil, nil) when no replica
// is configured so callers can pass the result straight to Reader.
func ConnectReplica(cfg Config) (*sql.DB, error) {
	if cfg.ReplicaConnectionString == "" {
		return nil, nil
	}
	return open(cfg, cfg.ReplicaConnectionString)
}

func open(cfg Config, connectionString string) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
