// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"

	"golang.org/x/sync/semaphore"
)

// Store wraps the PostgreSQL connection pool and provides data access
// methods for articles and sources.
type Store struct {
	db  *sqlx.DB
	cfg *config.DatabaseConfig

	// writeSem bounds concurrent write operations during collection
	// fan-out. Reads go straight to the pool.
	writeSem *semaphore.Weighted
}

// New opens a connection pool, verifies connectivity, initializes the
// schema and optionally seeds the source catalog.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	s := &Store{
		db:       db,
		cfg:      cfg,
		writeSem: semaphore.NewWeighted(maxConcurrent),
	}

	if err := s.createTables(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := s.createIndexes(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	if cfg.SeedSources {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		seeded, err := s.SeedCatalog(ctx)
		cancel()
		if err != nil {
			logging.Warn().Err(err).Msg("Source catalog seeding had issues")
		} else if seeded > 0 {
			logging.Info().Int("sources", seeded).Msg("Seeded source catalog")
		}
	}

	return s, nil
}

// NewWithDB wraps an existing connection without touching the schema.
// Used by tests to run the store against a mock driver.
func NewWithDB(db *sqlx.DB, cfg *config.DatabaseConfig) *Store {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Store{
		db:       db,
		cfg:      cfg,
		writeSem: semaphore.NewWeighted(maxConcurrent),
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// acquireWrite takes a write slot, blocking until one frees up or the
// context is done. The returned func releases the slot.
func (s *Store) acquireWrite(ctx context.Context) (func(), error) {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire write slot: %w", err)
	}
	return func() { s.writeSem.Release(1) }, nil
}

// observe records query timing metrics and keeps the connection gauge
// fresh.
func (s *Store) observe(operation, table string, start time.Time, err error) {
	metrics.RecordStoreQuery(operation, table, time.Since(start), err)
	metrics.StoreConnectionsActive.Set(float64(s.db.Stats().InUse))
}
