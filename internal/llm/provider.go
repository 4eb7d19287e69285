package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/jobtrust/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize explains a score result in plain language, citing only fired rules
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Record is the posting that was scored
	Record model.JobRecord

	// Result is the engine output to explain
	Result model.ScoreResult

	// AllowedRules is the STRICT allowlist of rule ids the LLM can cite.
	// The narrative may not mention a rule that did not fire.
	AllowedRules []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's narrative output
type SummarizeResponse struct {
	// Summary is the generated narrative text
	Summary string

	// CitedRules are the rule ids the LLM actually referenced (for verification)
	CitedRules []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence enforces the rule allowlist (should always be true)
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Model:          "",
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      400,
	}
}

const systemPrompt = "You explain job posting trust scores to job seekers. You only restate the evidence you are given."

// BuildPrompt constructs the default prompt with the rule allowlist
func BuildPrompt(record model.JobRecord, result model.ScoreResult, allowedRules []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are explaining a jobtrust score. jobtrust rates how trustworthy a job posting looks from rule-based signals. It NEVER proves a posting is a scam or legitimate.

CRITICAL RULES:
1. You may ONLY reference these rule ids, and only by their exact id:
%s

2. DO NOT infer, speculate, or bring in facts about the company that are not listed below.
3. Describe signals, not verdicts. Use phrases like:
   - "The posting shows ..."
   - "No information was available about ..."
4. Never say "this is a scam" or "this is safe".

Posting:
- Title: %s
- Platform: %s
- Score: %.1f/100 (%s, %s confidence)
- Data coverage: %.0f%%
`, joinRules(allowedRules), orUnknown(record.Title), orUnknown(record.Platform),
		result.Score, result.Level, result.Confidence, result.Coverage*100)

	if len(result.RedFlags) > 0 {
		b.WriteString("\nRed flags:\n")
		for _, f := range limit(result.RedFlags, 8) {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(result.PositiveSignals) > 0 {
		b.WriteString("\nPositive signals:\n")
		for _, s := range limit(result.PositiveSignals, 8) {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	b.WriteString("\nWrite a 3-4 sentence explanation a job seeker can act on.")
	return b.String()
}

// Helper functions

func joinRules(ids []string) string {
	if len(ids) == 0 {
		return "(No rules fired)"
	}
	var b strings.Builder
	for i, id := range ids {
		if i >= 20 { // Limit to avoid token bloat
			fmt.Fprintf(&b, "\n... and %d more rules", len(ids)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", id)
	}
	return b.String()
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

var ruleIDPattern = regexp.MustCompile(`\b[a-z]+(?:_[a-z]+)+\b`)

// extractRuleIDs finds snake_case tokens in text, deduplicated in order of appearance.
// Level names are snake_case too and are not rule references.
func extractRuleIDs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, id := range ruleIDPattern.FindAllString(text, -1) {
		if _, isLevel := model.ParseLevel(id); isLevel {
			continue
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

// verifyCitations returns the cited rule ids and fails on any id outside the allowlist
func verifyCitations(text string, allowed []string, strict bool) ([]string, error) {
	cited := extractRuleIDs(text)
	if !strict {
		return cited, nil
	}
	for _, id := range cited {
		if !contains(allowed, id) {
			return nil, fmt.Errorf("CITATION LEAK: LLM referenced rule that did not fire: %s", id)
		}
	}
	return cited, nil
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
