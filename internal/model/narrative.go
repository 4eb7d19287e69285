package model

// Narrative is the optional LLM-written explanation of a score.
// It is produced after scoring and never feeds back into it.
type Narrative struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`    // openai, anthropic, ollama
	Model          string   `json:"model,omitempty"`       // Model name
	StrictEvidence bool     `json:"strict_evidence"`       // Whether rule-citation enforcement was enabled
	Text           string   `json:"text,omitempty"`        // Markdown narrative
	CitedRules     []string `json:"cited_rules,omitempty"` // Rule ids the narrative referenced
	Warnings       []string `json:"warnings,omitempty"`    // Any issues (e.g., citation leaks detected)
}
