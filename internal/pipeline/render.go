package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/jobtrust/internal/llm"
	"github.com/ppiankov/jobtrust/internal/model"
)

// Renderer writes score results as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteJSON encodes the output contract of a result
func (r *Renderer) WriteJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Score)
}

// RenderJSON writes the output contract to a file
func (r *Renderer) RenderJSON(res *Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, res) })
}

// RenderMarkdown writes a human-readable report to a file
func (r *Renderer) RenderMarkdown(res *Result, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(res))
		return err
	})
}

// RenderLLMMarkdown writes the narrative to its own file, next to the report
func (r *Renderer) RenderLLMMarkdown(res *Result, path string) error {
	md := llm.RenderSeparateMarkdown(res.Narrative)
	if md == "" {
		return nil
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	})
}

// Markdown renders the report body
func (r *Renderer) Markdown(res *Result) string {
	s := res.Score
	var b strings.Builder

	title := res.Record.Title
	if title == "" {
		title = "Untitled posting"
	}
	fmt.Fprintf(&b, "# Trust Report: %s\n\n", title)

	fmt.Fprintf(&b, "- **Platform:** %s", res.Record.Platform)
	if res.Record.CollectionMethod != "" {
		fmt.Fprintf(&b, " (%s)", res.Record.CollectionMethod)
	}
	b.WriteString("\n")
	if res.Record.ID != "" {
		fmt.Fprintf(&b, "- **Posting ID:** %s\n", res.Record.ID)
	}
	fmt.Fprintf(&b, "- **Score:** %.1f/100\n", s.Score)
	fmt.Fprintf(&b, "- **Level:** %s\n", s.Level)
	fmt.Fprintf(&b, "- **Confidence:** %s\n", s.Confidence)
	fmt.Fprintf(&b, "- **Data coverage:** %.0f%%\n", s.Coverage*100)
	fmt.Fprintf(&b, "- **Computed:** %s\n\n", s.ComputedAt.Format("2006-01-02 15:04:05 UTC"))

	fmt.Fprintf(&b, "> %s\n\n", s.Summary)

	b.WriteString("## Red Flags\n\n")
	writeList(&b, s.RedFlags, "_None._")

	b.WriteString("\n## Positive Signals\n\n")
	writeList(&b, s.PositiveSignals, "_None._")

	if len(s.Activations) > 0 {
		b.WriteString("\n## Rule Audit\n\n")
		b.WriteString("| Rule | Polarity | Base | Adjusted | Confidence | Adjustments |\n")
		b.WriteString("|------|----------|------|----------|------------|-------------|\n")
		for i, a := range s.Activations {
			conf := model.Confidence("")
			if i < len(s.ActivatedRules) {
				conf = s.ActivatedRules[i].Confidence
			}
			fmt.Fprintf(&b, "| `%s` | %s | %.2f | %.2f | %s | %s |\n",
				a.RuleID, a.Polarity, a.BaseWeight, a.AdjustedWeight, conf, strings.Join(a.Reasons, "; "))
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_jobtrust rates how trustworthy a posting looks from the signals available. ")
		b.WriteString("It does not prove that a posting is a scam or that it is legitimate._\n")
	}

	return b.String()
}

// RenderSummary prints a short summary to w
func (r *Renderer) RenderSummary(w io.Writer, res *Result) {
	s := res.Score
	label := res.Record.ID
	if label == "" {
		label = res.Record.Title
	}
	if label == "" {
		label = "(posting)"
	}

	fmt.Fprintf(w, "\n%s [%s]\n", label, res.Record.Platform)
	fmt.Fprintf(w, "  Score:      %.1f/100\n", s.Score)
	fmt.Fprintf(w, "  Level:      %s\n", s.Level)
	fmt.Fprintf(w, "  Confidence: %s\n", s.Confidence)
	fmt.Fprintf(w, "  Coverage:   %.0f%%\n", s.Coverage*100)
	if res.Cached {
		fmt.Fprintf(w, "  (cached)\n")
	}

	if len(s.RedFlags) > 0 {
		fmt.Fprintf(w, "\n  Red flags:\n")
		for _, f := range s.RedFlags {
			fmt.Fprintf(w, "    ✗ %s\n", f)
		}
	}
	if len(s.PositiveSignals) > 0 {
		fmt.Fprintf(w, "\n  Positive signals:\n")
		for _, p := range s.PositiveSignals {
			fmt.Fprintf(w, "    ✓ %s\n", p)
		}
	}
	fmt.Fprintln(w)
}

func writeList(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		b.WriteString(empty + "\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
