package model

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete jobtrust configuration
type Config struct {
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Sink        SinkConfig        `yaml:"sink" mapstructure:"sink"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ScoringConfig holds the calibration constants of score fusion and weight modulation.
// They are tuned against the reference fixtures and kept out of the code so they can be recalibrated.
type ScoringConfig struct {
	Normalization       float64 `yaml:"normalization" mapstructure:"normalization"`                 // Points removed per unit of red-flag weight
	PositiveBonus       float64 `yaml:"positive_bonus" mapstructure:"positive_bonus"`               // Points added per unit of positive weight
	LikelyRealThreshold float64 `yaml:"likely_real_threshold" mapstructure:"likely_real_threshold"` // score >= this is likely_real
	LikelyFakeThreshold float64 `yaml:"likely_fake_threshold" mapstructure:"likely_fake_threshold"` // score <= this is likely_fake

	StrongWeight      float64 `yaml:"strong_weight" mapstructure:"strong_weight"`           // Adjusted weight above this is a strong signal
	MediumWeight      float64 `yaml:"medium_weight" mapstructure:"medium_weight"`           // Per-rule confidence tag boundary
	MediumCoverage    float64 `yaml:"medium_coverage" mapstructure:"medium_coverage"`       // Coverage needed for Medium base confidence
	ConfidentCoverage float64 `yaml:"confident_coverage" mapstructure:"confident_coverage"` // Coverage at which a strong signal yields High
	HighCoverage      float64 `yaml:"high_coverage" mapstructure:"high_coverage"`           // Coverage that elevates a clean record to High
	WeakClusterSize   int     `yaml:"weak_cluster_size" mapstructure:"weak_cluster_size"`   // Weak red flags needed to elevate to High

	CorrelationThreshold int     `yaml:"correlation_threshold" mapstructure:"correlation_threshold"` // Recruiter activations that trigger the discount
	CorrelationRetain    float64 `yaml:"correlation_retain" mapstructure:"correlation_retain"`       // Fraction of weight kept after the discount

	PayTransparencyJurisdictions []string `yaml:"pay_transparency_jurisdictions" mapstructure:"pay_transparency_jurisdictions"`
}

// CacheConfig configures the result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles writes to result sinks
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// ServerConfig configures the HTTP scoring endpoint
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxBatchSize int           `yaml:"max_batch_size" mapstructure:"max_batch_size"`
}

// SinkConfig selects where scored postings are written
type SinkConfig struct {
	Kind         string `yaml:"kind" mapstructure:"kind"` // none, jsonl, postgres, redis
	Path         string `yaml:"path,omitempty" mapstructure:"path"`
	DatabaseURL  string `yaml:"database_url,omitempty" mapstructure:"database_url"`
	RedisURL     string `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
	RedisChannel string `yaml:"redis_channel,omitempty" mapstructure:"redis_channel"`
}

// LLMConfig configures the optional narrative summary (never affects the score)
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "" (disabled), openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json, logfmt
}

// DefaultScoringConfig returns the calibrated scoring constants
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Normalization:       100,
		PositiveBonus:       10,
		LikelyRealThreshold: 70,
		LikelyFakeThreshold: 40,

		StrongWeight:      0.20,
		MediumWeight:      0.10,
		MediumCoverage:    0.50,
		ConfidentCoverage: 0.75,
		HighCoverage:      0.85,
		WeakClusterSize:   5,

		CorrelationThreshold: 5,
		CorrelationRetain:    0.20,

		PayTransparencyJurisdictions: []string{
			"US-CA", "US-CO", "US-NY", "US-WA", "US-IL", "US-MD", "US-MN",
			"US-HI", "US-DC", "US-VT", "US-MA", "US-NJ", "CA-BC", "CA-ON",
		},
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scoring: DefaultScoringConfig(),
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskDir:   "",
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 8,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			BurstSize:         10,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8088",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 1 << 20,
			MaxBatchSize: 500,
		},
		Sink: SinkConfig{
			Kind:         "none",
			RedisChannel: "EVENT_POSTING_SCORED",
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 400,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the scoring constants are internally consistent
func (s ScoringConfig) Validate() error {
	var errs []error

	if s.Normalization <= 0 {
		errs = append(errs, fmt.Errorf("normalization must be positive, got %v", s.Normalization))
	}
	if s.PositiveBonus < 0 {
		errs = append(errs, fmt.Errorf("positive_bonus must not be negative, got %v", s.PositiveBonus))
	}
	if s.LikelyFakeThreshold < 0 || s.LikelyRealThreshold > 100 {
		errs = append(errs, fmt.Errorf("level thresholds must lie in [0,100], got fake=%v real=%v", s.LikelyFakeThreshold, s.LikelyRealThreshold))
	}
	if s.LikelyFakeThreshold >= s.LikelyRealThreshold {
		errs = append(errs, fmt.Errorf("likely_fake_threshold (%v) must be below likely_real_threshold (%v)", s.LikelyFakeThreshold, s.LikelyRealThreshold))
	}
	if s.StrongWeight <= 0 || s.StrongWeight > 1 {
		errs = append(errs, fmt.Errorf("strong_weight must lie in (0,1], got %v", s.StrongWeight))
	}
	if s.MediumWeight <= 0 || s.MediumWeight > s.StrongWeight {
		errs = append(errs, fmt.Errorf("medium_weight must lie in (0,strong_weight], got %v", s.MediumWeight))
	}
	if !(s.MediumCoverage <= s.ConfidentCoverage && s.ConfidentCoverage <= s.HighCoverage && s.HighCoverage <= 1) {
		errs = append(errs, fmt.Errorf("coverage thresholds must be ordered medium <= confident <= high <= 1, got %v/%v/%v",
			s.MediumCoverage, s.ConfidentCoverage, s.HighCoverage))
	}
	if s.WeakClusterSize < 1 {
		errs = append(errs, fmt.Errorf("weak_cluster_size must be at least 1, got %d", s.WeakClusterSize))
	}
	if s.CorrelationThreshold < 2 {
		errs = append(errs, fmt.Errorf("correlation_threshold must be at least 2, got %d", s.CorrelationThreshold))
	}
	if s.CorrelationRetain < 0 || s.CorrelationRetain > 1 {
		errs = append(errs, fmt.Errorf("correlation_retain must lie in [0,1], got %v", s.CorrelationRetain))
	}

	return errors.Join(errs...)
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("concurrency: workers must not be negative, got %d", c.Concurrency.Workers)
	}
	return nil
}
