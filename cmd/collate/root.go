package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/archivist-ml/collate/internal/classifier"
	"github.com/archivist-ml/collate/internal/config"
	"github.com/archivist-ml/collate/internal/corpus"
	"github.com/archivist-ml/collate/internal/home"
	"github.com/archivist-ml/collate/internal/svcctx"
	"github.com/archivist-ml/collate/version"
)

var (
	cfgFile  string
	homeDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "collate",
	Short: "Reconcile OCR streams and label blocks for training corpus generation",
	Long: `Collate merges a raw OCR stream and a layout-classified stream into a
canonical per-page block set, then labels each block by fuzzy-matching it
against a ground-truth reference with a classifier fallback.

The pipeline includes:
  - Page-level reconciliation with bbox-corroborated deduplication
  - Moving-window fuzzy matching against reference spans
  - Three-tier label resolution (ground truth, classifier, unresolved)
  - An append-only versioned training corpus with human corrections`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.collate/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "collate home directory (default: ~/.collate)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn, error",
	)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// setupServices builds the shared services for a command run and attaches
// them to the context. The returned cleanup closes the corpus store.
func setupServices(cmd *cobra.Command) (func(), error) {
	logger := newLogger()

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	if cfgFile == "" && h.ConfigExists() {
		cfgFile = h.ConfigPath()
	}

	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cm.WatchConfig()
	cfg := cm.Get()

	corpusPath := cfg.Corpus.Path
	if corpusPath == "" {
		corpusPath = h.CorpusPath()
	}
	store, err := corpus.Open(corpusPath, logger)
	if err != nil {
		return nil, err
	}

	svcs := &svcctx.Services{
		ConfigManager: cm,
		Store:         store,
		Fallback:      newFallback(cfg, logger),
		Logger:        logger,
	}
	cmd.SetContext(svcctx.WithServices(cmd.Context(), svcs))

	return func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing corpus store", "error", err)
		}
	}, nil
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// newFallback builds the configured fallback classifier, or nil when
// disabled. Unknown types fall back to the deterministic mock so offline
// runs never need network access.
func newFallback(cfg *config.Config, logger *slog.Logger) classifier.Classifier {
	if !cfg.Classifier.Enabled {
		return nil
	}
	switch cfg.Classifier.Type {
	case "openai":
		return classifier.NewOpenAI(classifier.OpenAIConfig{
			Model:   cfg.Classifier.Model,
			APIKey:  config.ResolveEnvVars(cfg.Classifier.APIKey),
			BaseURL: cfg.Classifier.BaseURL,
			Timeout: cfg.Classifier.Timeout,
			Logger:  logger,
		})
	case "mock":
		return &classifier.Mock{}
	default:
		logger.Warn("unknown classifier type, using mock", "type", cfg.Classifier.Type)
		return &classifier.Mock{}
	}
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}
