// Package pipeline wires the scoring engine into a single call: resolve the
// platform profile, evaluate rules, modulate weights, fuse the score.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/jobtrust/internal/cache"
	"github.com/ppiankov/jobtrust/internal/capability"
	"github.com/ppiankov/jobtrust/internal/evaluate"
	"github.com/ppiankov/jobtrust/internal/llm"
	"github.com/ppiankov/jobtrust/internal/logging"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/modulate"
	"github.com/ppiankov/jobtrust/internal/rules"
	"github.com/ppiankov/jobtrust/internal/score"
)

// ErrInvalidRecord is returned for records that cannot be scored at all
var ErrInvalidRecord = errors.New("invalid job record")

// Pipeline orchestrates the complete scoring process.
// Everything it holds is read-only after New, so Score may be called concurrently.
type Pipeline struct {
	registry   *rules.Registry
	resolver   *capability.Resolver
	evaluator  *evaluate.Evaluator
	modulator  *modulate.Modulator
	scorer     *score.Scorer
	cache      cache.Cache
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	renderer   *Renderer
	config     *model.Config
	now        func() time.Time
	logger     *log.Logger
}

// Option customizes a pipeline
type Option func(*Pipeline)

// WithRegistry replaces the built-in rule catalog
func WithRegistry(r *rules.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithResolver replaces the built-in capability table
func WithResolver(r *capability.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithCache sets the result cache; nil disables caching
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithSummarizer attaches an LLM narrator
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithClock fixes the timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline from configuration. The cache and the LLM summarizer are built
// from cfg unless overridden by options.
func New(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	p := &Pipeline{
		registry: rules.Default(),
		resolver: capability.DefaultResolver(),
		cache:    cache.New(cfg.Cache),
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logging.WithPrefix("pipeline"),
	}

	// Create LLM summarizer if configured
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		p.summarizer = s
	}

	for _, opt := range opts {
		opt(p)
	}

	p.evaluator = evaluate.New(p.registry, cfg.Scoring.PayTransparencyJurisdictions)
	p.modulator = modulate.New(cfg.Scoring)
	p.scorer = score.NewScorer(cfg.Scoring, p.now)

	return p, nil
}

// Result is the outcome of scoring one record
type Result struct {
	Record    model.JobRecord         `json:"record"`
	Profile   model.CapabilityProfile `json:"capability_profile"`
	Score     model.ScoreResult       `json:"result"`
	Narrative *model.Narrative        `json:"narrative,omitempty"`
	Cached    bool                    `json:"cached"`
}

// cacheEntry keeps the modulation trail, which ScoreResult does not serialize
type cacheEntry struct {
	Result      model.ScoreResult      `json:"result"`
	Activations []model.RuleActivation `json:"activations"`
}

// Score scores a single record. Unknown platforms are scored with the
// least-permissive profile; only a record without any platform is rejected.
func (p *Pipeline) Score(ctx context.Context, record model.JobRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(record.Platform) == "" {
		return nil, fmt.Errorf("%w: platform is required", ErrInvalidRecord)
	}

	// 1. Resolve what this platform and method can supply
	profile := p.resolver.Resolve(record.Platform, record.CollectionMethod)
	if !p.resolver.Known(record.Platform) {
		p.logger.Debug("unknown platform, using least-permissive profile", "platform", record.Platform)
	}

	res := &Result{Record: record, Profile: profile}

	// 2. Cache lookup
	key := p.cacheKey(record)
	if entry, ok := p.lookup(key); ok {
		res.Score = entry.Result
		res.Score.Activations = entry.Activations
		// computed_at is the time this verdict was served; Cached marks the reuse
		res.Score.ComputedAt = p.now()
		res.Cached = true
		p.logger.Debug("cache hit", "id", record.ID, "key", key)
	} else {
		// 3. Evaluate, modulate, fuse
		evals := p.evaluator.Evaluate(record, profile)
		activations := p.modulator.Modulate(record, profile, evals)
		res.Score = p.scorer.Fuse(record, activations)

		p.store(key, res.Score)
		p.logger.Debug("scored posting",
			"id", record.ID,
			"platform", record.Platform,
			"score", res.Score.Score,
			"level", res.Score.Level,
			"confidence", res.Score.Confidence,
			"matched", evaluate.Count(evals, rules.Matched))
	}

	// 4. Generate LLM narrative if enabled (AFTER scoring, never affects score)
	if p.summarizer.IsEnabled() {
		narrative, err := p.summarizer.GenerateSummary(ctx, record, res.Score)
		if err != nil {
			// Don't fail the scoring call, just warn
			p.logger.Warn("narrative generation failed", "id", record.ID, "err", err)
		} else {
			res.Narrative = narrative
		}
	}

	return res, nil
}

// Registry returns the rule catalog in use
func (p *Pipeline) Registry() *rules.Registry {
	return p.registry
}

// Resolver returns the capability table in use
func (p *Pipeline) Resolver() *capability.Resolver {
	return p.resolver
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

func (p *Pipeline) cacheKey(record model.JobRecord) string {
	if p.cache == nil {
		return ""
	}
	key, err := cache.RecordKey(record)
	if err != nil {
		p.logger.Warn("cannot derive cache key", "id", record.ID, "err", err)
		return ""
	}
	return key
}

func (p *Pipeline) lookup(key string) (cacheEntry, bool) {
	if key == "" {
		return cacheEntry{}, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		p.logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		_ = p.cache.Delete(key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (p *Pipeline) store(key string, result model.ScoreResult) {
	if key == "" {
		return
	}
	data, err := json.Marshal(cacheEntry{Result: result, Activations: result.Activations})
	if err != nil {
		p.logger.Warn("cannot encode cache entry", "err", err)
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		p.logger.Warn("cache write failed", "key", key, "err", err)
	}
}
