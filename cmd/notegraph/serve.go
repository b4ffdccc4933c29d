package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/notegraph/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the notes form and the graph endpoint",
	Long: `Serve starts an HTTP server. GET / renders a form; POST / with a form
field "notes" returns the knowledge graph as JSON. Model output that cannot be
parsed yields an empty graph with status 200. /health and /metrics are served
alongside.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(viper.GetViper(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	extractor, err := newExtractor(cfg, logger, reg)
	if err != nil {
		return err
	}

	logger.Info("starting notegraph",
		zap.String("version", version),
		zap.String("model", cfg.AI.Model),
		zap.String("base_url", cfg.AI.BaseURL),
	)
	return server.New(extractor, cfg.Server, logger.Named("http"), reg).ListenAndServe(cmd.Context())
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
