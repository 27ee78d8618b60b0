package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpadapter "github.com/fredcamaral/coursekit/internal/adapters/primary/http"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/logging"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/scheduler"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/watcher"
	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
	"github.com/fredcamaral/coursekit/internal/domain/services"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the content tree over HTTP",
		Long: `Start the HTTP API for the content root. Changes to the tree are
pushed to WebSocket clients on /ws and expired edit sessions are purged
in the background.

Example:
  coursekit serve --root ./content
  coursekit serve --port 9000 --no-watch`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "Port to serve on (overrides config)")
	cmd.Flags().String("host", "", "Host to bind to (overrides config)")
	cmd.Flags().Bool("no-watch", false, "Do not watch the content tree for changes")
	return cmd
}

// validateServeConfig validates configuration after it's loaded
func validateServeConfig(config *entities.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Server.Port)
	}

	if config.Server.Host == "" || strings.ContainsAny(config.Server.Host, " !/") {
		return fmt.Errorf("invalid host: %q", config.Server.Host)
	}

	return nil
}

func serveFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		flags["port"] = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		flags["host"] = host
	}
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		flags["no-watch"] = true
	}
	return flags
}

func runServe(cmd *cobra.Command, args []string) error {
	resolved, err := loadConfig(cmd, serveFlags(cmd))
	if err != nil {
		return err
	}
	cfg := resolved.Config
	if err := validateServeConfig(cfg); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	if len(resolved.Files) > 0 {
		logger.Debug("configuration files: %s", strings.Join(resolved.Files, ", "))
	}

	recorder := monitoring.NewRecorder(prometheus.NewRegistry())
	var metrics ports.MetricsRecorder = ports.NopMetrics{}
	if cfg.Metrics.Enabled {
		metrics = recorder
	}

	deps, err := newDependencies(cfg, logger, metrics)
	if err != nil {
		return err
	}

	slideSessions := services.NewEditSessionService(deps, entities.SessionSlides, cfg.Sessions.GetTTL())
	labSessions := services.NewEditSessionService(deps, entities.SessionLabs, cfg.Sessions.GetTTL())

	server := httpadapter.NewServer(httpadapter.Services{
		Courses:       services.NewCourseService(deps),
		Labs:          services.NewLabService(deps),
		Blogs:         services.NewBlogService(deps),
		Assets:        services.NewAssetService(deps),
		SlideSessions: slideSessions,
		LabSessions:   labSessions,
	}, &cfg.Server, logger.With("http"))
	if cfg.Metrics.Enabled {
		server.SetMetrics(recorder, cfg.Metrics.GetPath(), recorder.Handler())
	}
	server.SetHealth(monitoring.NewHealth(deps.Clock))

	ctx := cmd.Context()
	if err := server.Start(ctx, cfg.Server.Port, cfg.Server.Host); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	sched, err := newPurgeScheduler(cfg, deps.Clock, logger, map[string]scheduler.Purger{
		string(entities.SessionSlides): slideSessions,
		string(entities.SessionLabs):   labSessions,
	})
	if err != nil {
		_ = server.Stop(context.Background())
		return err
	}
	sched.Start()

	var watch *services.ContentWatchService
	if cfg.Content.Watch {
		watch = services.NewContentWatchService(
			watcher.NewTreeWatcher(cfg.Content.GetDebounce(), logger.With("watcher")),
			server,
			logger.With("watch"),
		)
		if err := watch.Start(ctx, cfg.Content.GetRoot()); err != nil {
			logger.Warn("content watching disabled: %v", err)
			watch = nil
		}
	}

	logger.Success("serving %s on http://%s:%d", cfg.Content.GetRoot(), cfg.Server.Host, cfg.Server.Port)

	<-ctx.Done()
	logger.Info("shutting down")

	if watch != nil {
		if err := watch.Stop(); err != nil {
			logger.Warn("stopping watcher: %v", err)
		}
	}
	if err := sched.Stop(); err != nil {
		logger.Warn("stopping scheduler: %v", err)
	}
	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}

	logger.Success("server stopped")
	return nil
}

func newPurgeScheduler(cfg *entities.Config, clock ports.TimeProvider, logger *logging.Logger, purgers map[string]scheduler.Purger) (*scheduler.Scheduler, error) {
	sched, err := scheduler.New(clock, logger.With("scheduler"))
	if err != nil {
		return nil, err
	}
	for name, purger := range purgers {
		if _, err := sched.SchedulePurge(name, cfg.Sessions.GetPurgeInterval(), purger); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
