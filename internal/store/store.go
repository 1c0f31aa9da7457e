// Package store provides Postgres-backed persistence for retrieval runs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RunRecord is one retrieval run persisted to the runs table.
type RunRecord struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Query           map[string]string
	CasesFound      int
	Downloaded      int
	DownloadFailed  int
	Analyzed        int
	AnalysisFailed  int
	AnalysisSkipped int
	TokensUsed      int
	ArchivePath     string
}

// JudgmentRecord is one downloaded judgment persisted to the judgments table.
type JudgmentRecord struct {
	RunID       string
	Signature   string
	CaseURL     string
	Filename    string
	Format      string
	Summary     string
	RetrievedAt time.Time
}

// Store writes run and judgment rows into Postgres.
type Store struct {
	pool execCloser
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveRun inserts a run row.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store is not configured")
	}
	if rec.ID == "" {
		return fmt.Errorf("run id is required")
	}
	queryJSON, err := json.Marshal(normalizeQuery(rec.Query))
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}
	const query = `
INSERT INTO runs (
	id,
	started_at,
	finished_at,
	search_query,
	cases_found,
	downloaded,
	download_failed,
	analyzed,
	analysis_failed,
	analysis_skipped,
	tokens_used,
	archive_path
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`

	args := []any{
		rec.ID,
		rec.StartedAt,
		rec.FinishedAt,
		queryJSON,
		rec.CasesFound,
		rec.Downloaded,
		rec.DownloadFailed,
		rec.Analyzed,
		rec.AnalysisFailed,
		rec.AnalysisSkipped,
		rec.TokensUsed,
		rec.ArchivePath,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// SaveJudgment inserts a judgment row.
func (s *Store) SaveJudgment(ctx context.Context, rec JudgmentRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store is not configured")
	}
	if rec.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	const query = `
INSERT INTO judgments (
	run_id,
	signature,
	case_url,
	filename,
	format,
	summary,
	retrieved_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`

	args := []any{
		rec.RunID,
		rec.Signature,
		rec.CaseURL,
		rec.Filename,
		rec.Format,
		rec.Summary,
		rec.RetrievedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert judgment: %w", err)
	}
	return nil
}

func normalizeQuery(q map[string]string) map[string]string {
	if len(q) == 0 {
		return map[string]string{}
	}
	return q
}
