package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	outJSON     string
	outMD       string
	outLLMMD    string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	platform    string
	method      string
	llmProvider string
	llmModel    string
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <file|->",
	Short: "Score a single job posting",
	Long: `Score evaluates one job posting record (JSON or YAML) and reports:
- An authenticity score from 0 to 100
- A level: likely real, uncertain or likely fake
- How confident the engine is given the data available
- The red flags and positive signals that produced the score

Example:
  jobtrust score posting.json
  jobtrust score posting.yaml --json result.json --md report.md
  cat posting.json | jobtrust score - --platform indeed --method feed
  jobtrust score posting.json --llm ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	// Output flags
	scoreCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	scoreCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scoreCmd.Flags().StringVar(&outLLMMD, "llm-md", "", "output narrative Markdown path (optional, requires --llm)")
	scoreCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Record flags
	scoreCmd.Flags().StringVar(&platform, "platform", "", "override the record's platform")
	scoreCmd.Flags().StringVar(&method, "method", "", "override the record's collection method")

	// Engine flags
	scoreCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "scoring timeout (narrative included)")
	scoreCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	// LLM flags
	scoreCmd.Flags().StringVar(&llmProvider, "llm", "", "narrative provider (openai, anthropic, ollama); empty disables")
	scoreCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	record, err := readRecord(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	if platform != "" {
		record.Platform = platform
	}
	if method != "" {
		record.CollectionMethod = method
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyEngineFlags(cfg, noCache, noFooter, llmProvider, llmModel)

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scoring: %s [%s/%s]\n", orDefault(record.Title, record.ID), record.Platform, orDefault(record.CollectionMethod, "-"))
	}

	res, err := p.Score(ctx, record)
	if err != nil {
		return fmt.Errorf("score failed: %w", err)
	}

	// Render outputs
	renderer := p.Renderer()
	renderer.RenderSummary(cmd.OutOrStdout(), res)

	if outJSON != "" {
		if err := renderer.RenderJSON(res, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(res, outMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
	}
	if outLLMMD != "" {
		if err := renderer.RenderLLMMarkdown(res, outLLMMD); err != nil {
			return fmt.Errorf("render narrative: %w", err)
		}
	}

	return nil
}

// readRecord loads one record from a file or, for "-", from stdin.
// YAML files are recognized by extension; stdin may hold either format.
func readRecord(path string, stdin io.Reader) (model.JobRecord, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("read record: %w", err)
	}

	var record model.JobRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &record)
	default:
		if jsonErr := json.Unmarshal(data, &record); jsonErr != nil {
			if path != "-" || yaml.Unmarshal(data, &record) != nil {
				err = jsonErr
			}
		}
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("decode record %s: %w", path, err)
	}
	return record, nil
}

// applyEngineFlags layers command flags over the loaded configuration
func applyEngineFlags(cfg *model.Config, noCache, noFooter bool, provider, modelName string) {
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if provider != "" {
		cfg.LLM.Provider = provider
		if cfg.LLM.APIKey == "" {
			switch provider {
			case "openai":
				cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			case "anthropic":
				cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			}
		}
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
