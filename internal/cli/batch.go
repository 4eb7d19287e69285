package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/ppiankov/jobtrust/internal/sink"
	"github.com/ppiankov/jobtrust/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency  int
	batchTimeout time.Duration
	batchOut     string
	sinkKind     string
	// noCache, noFooter, llmProvider and llmModel are shared with score.go
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file.jsonl|->",
	Short: "Score many postings from a JSON Lines file in parallel",
	Long: `Batch scores postings concurrently:
- Read one JSON record per line (blank lines and # comments are skipped)
- Score records in parallel with a configurable worker count
- Write every scored posting to the configured sink
  (JSON Lines, PostgreSQL or a Redis channel)

Without a sink configured, results go to stdout as JSON Lines.

Example:
  jobtrust batch postings.jsonl
  jobtrust batch postings.jsonl --concurrency 16 --out scores.jsonl
  jobtrust batch postings.jsonl --sink postgres   # uses DATABASE_URL`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Output flags
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write results as JSON Lines to this path (\"-\" for stdout)")
	batchCmd.Flags().StringVar(&sinkKind, "sink", "", "sink kind override (none, jsonl, postgres, redis)")

	// Engine flags
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	batchCmd.Flags().StringVar(&llmProvider, "llm", "", "narrative provider (openai, anthropic, ollama); empty disables")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyEngineFlags(cfg, noCache, false, llmProvider, llmModel)
	cfg.Concurrency.Workers = concurrency

	if sinkKind != "" {
		cfg.Sink.Kind = sinkKind
	}
	if batchOut != "" {
		cfg.Sink.Kind = "jsonl"
		cfg.Sink.Path = batchOut
	}
	if cfg.Sink.Kind == "" || cfg.Sink.Kind == "none" {
		cfg.Sink.Kind = "jsonl"
		cfg.Sink.Path = "-"
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  jobtrust Batch Scoring\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Sink:         %s\n", cfg.Sink.Kind)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, orDefault(cfg.LLM.Model, "default"))
	}
	fmt.Fprintf(os.Stderr, "\n")

	out, err := sink.Open(ctx, cfg.Sink)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() { _ = out.Close() }()

	// Create pipeline
	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	// Create batch processor
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	processor := worker.NewBatchProcessor(p, concurrency, worker.WithSink(out), worker.WithLimiter(limiter))

	start := time.Now()
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	// Process results
	var failures, sinkFailures int
	levels := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Record.ID, result.Error)
			continue
		}
		if result.SinkError != nil {
			sinkFailures++
		}
		levels[result.Result.Score.Level.String()]++

		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s (score: %.1f/100, %s)\n",
				orDefault(result.Record.Title, result.Record.ID), result.Result.Score.Score, result.Result.Score.Level)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:         %d postings\n", len(results))
	fmt.Fprintf(os.Stderr, "  Scored:        %d\n", len(results)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:      %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Sink failures: %d\n", sinkFailures)
	fmt.Fprintf(os.Stderr, "  Likely real:   %d\n", levels["likely real"])
	fmt.Fprintf(os.Stderr, "  Uncertain:     %d\n", levels["uncertain"])
	fmt.Fprintf(os.Stderr, "  Likely fake:   %d\n", levels["likely fake"])
	fmt.Fprintf(os.Stderr, "  Duration:      %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")

	if ctx.Err() != nil {
		return fmt.Errorf("batch interrupted: %w", ctx.Err())
	}
	return nil
}
