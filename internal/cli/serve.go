package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/jobtrust/internal/logging"
	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/ppiankov/jobtrust/internal/server"
	"github.com/ppiankov/jobtrust/internal/sink"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scoring API over HTTP",
	Long: `Serve exposes the engine as a JSON API:

  GET  /api/v1/health
  POST /api/v1/score          one posting
  POST /api/v1/score/batch    {"records": [...]}
  GET  /api/v1/rules
  GET  /api/v1/capabilities?platform=linkedin&method=api
  GET  /metrics               Prometheus

Example:
  jobtrust serve --addr :8088
  JOBTRUST_SINK_KIND=redis REDIS_URL=redis://localhost:6379 jobtrust serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	out, err := sink.Open(ctx, cfg.Sink)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() { _ = out.Close() }()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	logging.Info("starting jobtrust API",
		"version", Version,
		"rules", p.Registry().Len(),
		"sink", out.Name(),
		"llm", orDefault(cfg.LLM.Provider, "disabled"))

	srv := server.New(p, cfg, server.WithSink(out))
	return srv.ListenAndServe(ctx)
}
