package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel scored postings are announced on
const DefaultChannel = "EVENT_POSTING_SCORED"

// publisher is the subset of redis.Client the sink needs
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Event is the payload published for every scored posting
type Event struct {
	Type              string    `json:"type"`
	PostingID         string    `json:"postingId"`
	ExternalID        string    `json:"externalId,omitempty"`
	Platform          string    `json:"platform"`
	AuthenticityScore float64   `json:"authenticityScore"`
	Level             string    `json:"level"`
	Confidence        string    `json:"confidence"`
	RedFlags          []string  `json:"redFlags"`
	ComputedAt        time.Time `json:"computedAt"`
}

// RedisSink publishes an event per scored posting
type RedisSink struct {
	rdb     publisher
	channel string
}

// NewRedisSink connects and verifies a Redis client
func NewRedisSink(ctx context.Context, redisURL, channel string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisSink(rdb, channel), nil
}

func newRedisSink(rdb publisher, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{rdb: rdb, channel: channel}
}

// Name returns the sink name
func (s *RedisSink) Name() string {
	return "redis"
}

// Write publishes one event
func (s *RedisSink) Write(ctx context.Context, scored Scored) error {
	r := scored.Result
	event, err := json.Marshal(Event{
		Type:              s.channel,
		PostingID:         scored.PostingID,
		ExternalID:        scored.ExternalID,
		Platform:          scored.Platform,
		AuthenticityScore: r.Score,
		Level:             string(r.Level),
		Confidence:        string(r.Confidence),
		RedFlags:          r.RedFlags,
		ComputedAt:        r.ComputedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.rdb.Publish(ctx, s.channel, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", s.channel, err)
	}
	return nil
}

// Close closes the client
func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
