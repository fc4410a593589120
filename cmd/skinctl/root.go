package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anime-shed/skin-advisor-go/internal/config"
	"github.com/anime-shed/skin-advisor-go/internal/container"
	"github.com/anime-shed/skin-advisor-go/internal/factory"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/internal/service"
)

// Version is the application version.
const Version = "1.0.0"

var (
	cfg      *config.Config
	logLevel string
	compact  bool
)

var rootCmd = &cobra.Command{
	Use:           "skinctl",
	Short:         "Skin attribute analysis and product matching",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.Configure(level)
		// Keep stdout for results.
		logger.Logger.SetOutput(os.Stderr)
		return nil
	},
}

// Execute runs the root command with a context cancelled by SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&compact, "compact", false, "Print single-line JSON")
}

// openContainer builds the full pipeline: detector, model and catalog.
func openContainer(ctx context.Context) (*container.Container, error) {
	return container.NewContainer(ctx, cfg)
}

// openCatalog builds a service that can only answer catalog queries.
func openCatalog(ctx context.Context) (service.SkinAnalysisService, func() error, error) {
	store, err := factory.NewCatalogFactory(cfg.Catalog).CreateCatalog(ctx, factory.CatalogBackend(cfg.Catalog.Backend))
	if err != nil {
		return nil, nil, err
	}
	matcher := recommender.NewMatcher(store,
		recommender.WithQueryTimeout(cfg.Catalog.QueryTimeout),
		recommender.WithGalleryLimit(cfg.Catalog.GalleryLimit),
	)
	return service.NewSkinAnalysisService(service.Dependencies{Matcher: matcher}), store.Close, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
