package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/jobtrust/internal/model"
)

// Summarizer wraps a provider and turns its output into a model.Narrative.
// A failing provider degrades to warnings; it never fails the scoring call.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer. An empty provider yields a disabled summarizer.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary explains a score result. It returns nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, record model.JobRecord, result model.ScoreResult) (*model.Narrative, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	narrative := &model.Narrative{
		Enabled:        true,
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		StrictEvidence: s.config.StrictEvidence,
	}

	if !s.provider.IsAvailable(ctx) {
		narrative.Enabled = false
		narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return narrative, nil
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Record:       record,
		Result:       result,
		AllowedRules: AllowedRules(result),
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	})
	if err != nil {
		narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Narrative generation failed: %v", err))
		return narrative, nil
	}

	narrative.Text = resp.Summary
	narrative.CitedRules = resp.CitedRules
	if resp.Model != "" {
		narrative.Model = resp.Model
	}
	narrative.Warnings = append(narrative.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d rule citations", len(resp.CitedRules)),
	)

	return narrative, nil
}

// AllowedRules lists the ids of rules that fired with non-zero weight
func AllowedRules(result model.ScoreResult) []string {
	ids := make([]string, 0, len(result.ActivatedRules))
	for _, r := range result.ActivatedRules {
		if r.Weight > 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// RenderSeparateMarkdown renders the narrative as a standalone Markdown document
func RenderSeparateMarkdown(n *model.Narrative) string {
	if n == nil || !n.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Narrative\n\n")
	b.WriteString("> **GENERATED CONTENT.** The score was determined independently by jobtrust rules; ")
	b.WriteString("this text only restates it.\n\n")
	fmt.Fprintf(&b, "- **Provider:** %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", n.Model)
	}
	fmt.Fprintf(&b, "- **Strict Evidence Mode:** %t\n\n", n.StrictEvidence)

	if n.Text == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
