package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/coursekit/internal/adapters/secondary/config"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/filestore"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/logging"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/markdown"
	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
	"github.com/fredcamaral/coursekit/internal/domain/services"
)

// loadConfig resolves the configuration for the working directory and
// applies the persistent flags on top
func loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*services.ResolvedConfig, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	flags := map[string]interface{}{}
	for k, v := range extra {
		flags[k] = v
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		flags["content-root"] = root
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		flags["log-level"] = level
	}

	configService := services.NewConfigService(config.NewTOMLLoader(), config.NewConfigMerger())
	resolved, err := configService.LoadConfig(cmd.Context(), workingDir, flags)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		resolved.Config.Logging.Verbose = true
	}
	return resolved, nil
}

// newLogger builds the root logger. Commands that print results to stdout
// keep logs on stderr.
func newLogger(cfg *entities.Config) (*logging.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, closer, nil
}

// newDependencies wires the content store and markdown pipeline shared by
// every service
func newDependencies(cfg *entities.Config, logger *logging.Logger, metrics ports.MetricsRecorder) (services.Dependencies, error) {
	store, err := filestore.New(cfg.Content.GetRoot())
	if err != nil {
		return services.Dependencies{}, err
	}

	renderer := markdown.NewGoldmarkRenderer(markdown.Options{
		HighlightStyle: cfg.Content.GetHighlightStyle(),
		Sanitize:       cfg.Content.SanitizeHTML,
	})

	return services.Dependencies{
		Store:    store,
		Renderer: renderer,
		Splitter: markdown.NewFrontMatterSplitter(),
		Parser:   services.NewSegmenter(renderer, metrics, logger.With("segmenter")),
		Logger:   logger.With("content"),
		Metrics:  metrics,
		Clock:    ports.NewRealTimeProvider(),
	}, nil
}
