// Package runstore provides Postgres-backed persistence of run history.
package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmetrics/profscraper/internal/output"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for run rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RunRecord is one completed (or aborted) scraping run.
type RunRecord struct {
	ID                string
	ListingURL        string
	StartedAt         time.Time
	FinishedAt        time.Time
	ProfessorsScraped int
	ProfessorsSkipped int
	ReviewsCollected  int
	OutputFile        string
	Summary           output.Summary
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store writes run rows into Postgres. A nil *Store is a no-op, so callers
// can leave run history unconfigured.
type Store struct {
	pool  execCloser
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "scrape_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "scrape_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveRun inserts one run row. The full summary report lands in a JSONB
// column so ad-hoc queries do not need the JSON artifact on disk.
func (s *Store) SaveRun(ctx context.Context, record RunRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	if record.ID == "" {
		return fmt.Errorf("run id is required")
	}
	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	listing_url,
	started_at,
	finished_at,
	professors_scraped,
	professors_skipped,
	reviews_collected,
	output_file,
	summary
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)

	_, err = s.pool.Exec(ctx, query,
		record.ID,
		record.ListingURL,
		record.StartedAt,
		record.FinishedAt,
		record.ProfessorsScraped,
		record.ProfessorsSkipped,
		record.ReviewsCollected,
		record.OutputFile,
		summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("insert run row: %w", err)
	}
	return nil
}
