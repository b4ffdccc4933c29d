package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/notegraph/internal/graph"
	"github.com/pdiddy/notegraph/internal/httputil"
	"github.com/pdiddy/notegraph/internal/logging"
	"github.com/pdiddy/notegraph/internal/secrets"
	"github.com/pdiddy/notegraph/pkg/types"
)

const (
	secretsDir = ".secrets/"
	dotenvFile = ".env"
)

// apiKeyEnv names the completion service key in the environment, in .env
// and (as together-api-key) in .secrets/.
const apiKeyEnv = "TOGETHER_API_KEY"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.model", graph.DefaultModel)
	v.SetDefault("ai.base_url", graph.DefaultBaseURL)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.repair_json", false)

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// bindEnv maps nested keys to NOTEGRAPH_ variables, e.g. server.addr to
// NOTEGRAPH_SERVER_ADDR.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("NOTEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// resolveAPIKey fills cfg.AI.APIKey from store when configuration did not
// set it. A missing key is fatal: nothing can be extracted without it.
func resolveAPIKey(cfg *types.Config, store *secrets.Store) error {
	if cfg.AI.APIKey != "" {
		return nil
	}
	if store == nil {
		var err error
		if store, err = secrets.Load(secretsDir, dotenvFile); err != nil {
			return err
		}
	}
	key, err := store.Require(apiKeyEnv)
	if err != nil {
		return fmt.Errorf("no API key for the completion service: %w", err)
	}
	cfg.AI.APIKey = key
	return nil
}

// loadSecrets reads .env and .secrets/ from the working directory and notes
// on stderr which keys were found.
func loadSecrets(stderr io.Writer) (*secrets.Store, error) {
	store, err := secrets.Load(secretsDir, dotenvFile)
	if err != nil {
		return nil, err
	}
	if sources := store.Sources(); len(sources) > 0 {
		fmt.Fprintf(stderr, "Loaded secrets: %v\n", sources)
	}
	return store, nil
}

// setup loads configuration, resolves the API key and builds the logger.
// Only commands that talk to the completion service call it.
func setup(v *viper.Viper, stderr io.Writer) (types.Config, *zap.Logger, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return types.Config{}, nil, err
	}
	store, err := loadSecrets(stderr)
	if err != nil {
		return types.Config{}, nil, err
	}
	if err := resolveAPIKey(&cfg, store); err != nil {
		return types.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return types.Config{}, nil, err
	}
	return cfg, logger, nil
}

// newExtractor wires the completion backend and the extractor. reg may be
// nil when nothing will scrape metrics.
func newExtractor(cfg types.Config, logger *zap.Logger, reg prometheus.Registerer) (*graph.Extractor, error) {
	backend := graph.NewOpenAIBackend(cfg.AI, httputil.NewClient(logger.Named("upstream"), 0))

	opts := []graph.Option{graph.WithLogger(logger.Named("graph"))}
	if reg != nil {
		opts = append(opts, graph.WithMetrics(graph.NewMetrics(reg)))
	}
	return graph.NewExtractor(backend, cfg.AI, opts...)
}
