// Package sink persists or publishes scored postings.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/jobtrust/internal/model"
)

// ErrUnknownKind is returned by Open for unsupported sink kinds
var ErrUnknownKind = errors.New("unknown sink kind")

// Scored is one scored posting as handed to a sink
type Scored struct {
	PostingID  string            `json:"posting_id"`
	ExternalID string            `json:"external_id,omitempty"`
	Platform   string            `json:"platform"`
	Result     model.ScoreResult `json:"result"`
}

// FromResult pairs a record's identity with its score
func FromResult(record model.JobRecord, result model.ScoreResult) Scored {
	return Scored{
		PostingID:  record.ID,
		ExternalID: record.ExternalID,
		Platform:   record.Platform,
		Result:     result,
	}
}

// Sink receives scored postings. Implementations are safe for concurrent use.
type Sink interface {
	// Name identifies the sink in logs and rate limits
	Name() string

	Write(ctx context.Context, s Scored) error

	Close() error
}

// Open creates the sink described by cfg
func Open(ctx context.Context, cfg model.SinkConfig) (Sink, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "none":
		return Discard{}, nil

	case "jsonl":
		return NewJSONLSink(cfg.Path)

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres sink requires database_url")
		}
		return NewPostgresSink(ctx, cfg.DatabaseURL)

	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis sink requires redis_url")
		}
		return NewRedisSink(ctx, cfg.RedisURL, cfg.RedisChannel)

	default:
		return nil, fmt.Errorf("%w: %s (supported: none, jsonl, postgres, redis)", ErrUnknownKind, cfg.Kind)
	}
}

// Discard drops everything
type Discard struct{}

// Name returns the sink name
func (Discard) Name() string { return "none" }

// Write drops the score
func (Discard) Write(ctx context.Context, s Scored) error { return nil }

// Close does nothing
func (Discard) Close() error { return nil }
