package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the table PostgresSink writes to
const Schema = `CREATE TABLE IF NOT EXISTS posting_scores (
	posting_id         TEXT PRIMARY KEY,
	external_id        TEXT,
	platform           TEXT NOT NULL,
	authenticity_score DOUBLE PRECISION NOT NULL,
	authenticity_level TEXT NOT NULL,
	confidence         TEXT NOT NULL,
	summary            TEXT NOT NULL,
	red_flags          JSONB NOT NULL,
	positive_signals   JSONB NOT NULL,
	activated_rules    JSONB NOT NULL,
	computed_at        TIMESTAMPTZ NOT NULL
)`

const upsertScore = `INSERT INTO posting_scores (
	posting_id, external_id, platform, authenticity_score, authenticity_level,
	confidence, summary, red_flags, positive_signals, activated_rules, computed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, $11)
ON CONFLICT (posting_id) DO UPDATE SET
	external_id        = EXCLUDED.external_id,
	platform           = EXCLUDED.platform,
	authenticity_score = EXCLUDED.authenticity_score,
	authenticity_level = EXCLUDED.authenticity_level,
	confidence         = EXCLUDED.confidence,
	summary            = EXCLUDED.summary,
	red_flags          = EXCLUDED.red_flags,
	positive_signals   = EXCLUDED.positive_signals,
	activated_rules    = EXCLUDED.activated_rules,
	computed_at        = EXCLUDED.computed_at`

// execer is the subset of pgxpool.Pool the sink needs
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresSink upserts scores into posting_scores, one row per posting
type PostgresSink struct {
	db execer
}

// NewPostgresSink connects, verifies the connection and ensures the table exists
func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	s := &PostgresSink{db: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates posting_scores when missing
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create posting_scores: %w", err)
	}
	return nil
}

// Name returns the sink name
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Write upserts one score. Records without an id cannot be keyed and are rejected.
func (s *PostgresSink) Write(ctx context.Context, scored Scored) error {
	if scored.PostingID == "" {
		return fmt.Errorf("postgres sink: posting id is required")
	}

	r := scored.Result
	redFlags, err := json.Marshal(r.RedFlags)
	if err != nil {
		return fmt.Errorf("marshal red_flags: %w", err)
	}
	positives, err := json.Marshal(r.PositiveSignals)
	if err != nil {
		return fmt.Errorf("marshal positive_signals: %w", err)
	}
	activated, err := json.Marshal(r.ActivatedRules)
	if err != nil {
		return fmt.Errorf("marshal activated_rules: %w", err)
	}

	_, err = s.db.Exec(ctx, upsertScore,
		scored.PostingID, scored.ExternalID, scored.Platform,
		r.Score, string(r.Level), string(r.Confidence), r.Summary,
		string(redFlags), string(positives), string(activated), r.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert posting score %s: %w", scored.PostingID, err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
