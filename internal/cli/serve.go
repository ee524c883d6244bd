package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/delivery/http/handler"
	"github.com/user/tariffs-service/internal/delivery/http/router"
	"github.com/user/tariffs-service/internal/scheduler"
	"github.com/user/tariffs-service/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the long-running service command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var skipInitialRun bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the ops HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, skipInitialRun)
		},
	}

	cmd.Flags().BoolVar(&skipInitialRun, "skip-initial-run", false, "do not run the pipeline immediately on startup")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, skipInitialRun bool) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger

	if err := a.Migrate(ctx); err != nil {
		return err
	}

	sched := scheduler.New(a.metrics, log)
	if err := registerTasks(sched, a.Pipeline(ctx), a.Retention(), a.cfg.PipelineRunTimeout(), a.cfg.RefreshInterval(), a.cfg.RetentionInterval(), a.cfg.RawFileRetentionDays, a.cfg.RawSnapshotRetentionDays); err != nil {
		return err
	}
	sched.Start(ctx)

	if !skipInitialRun {
		if err := sched.Trigger(scheduler.TaskRefreshPipeline); err != nil {
			log.Warn("initial pipeline run not started", zap.Error(err))
		}
	}

	checks := map[string]handler.Pinger{
		"storage":    a.pingStorage,
		"run_status": a.runStatus.Ping,
	}
	h := handler.NewHandler(sched, a.runStatus, checks, log)

	server := &http.Server{
		Addr:         ":" + a.cfg.AppPort,
		Handler:      router.New(h, a.metrics, a.registry, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", a.cfg.AppPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("could not listen on port %s: %w", a.cfg.AppPort, err)
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop in time", zap.Error(err))
	}
	log.Info("Server exiting")
	return runErr
}

// registerTasks wires the pipeline and the three retention phases into the scheduler.
func registerTasks(
	sched *scheduler.Scheduler,
	pipeline usecase.Pipeline,
	retention usecase.Retention,
	runTimeout, refreshEvery, retentionEvery time.Duration,
	rawFileDays, rawSnapshotDays int,
) error {
	refresh := func(ctx context.Context) error {
		if runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runTimeout)
			defer cancel()
		}
		_, err := pipeline.Run(ctx)
		return err
	}

	tasks := []struct {
		name     string
		interval time.Duration
		fn       scheduler.TaskFunc
	}{
		{scheduler.TaskRefreshPipeline, refreshEvery, refresh},
		{scheduler.TaskCleanupRawFiles, retentionEvery, func(ctx context.Context) error {
			_, err := retention.PurgeRawFiles(ctx, rawFileDays)
			return err
		}},
		{scheduler.TaskCleanupRawSnapshots, retentionEvery, func(ctx context.Context) error {
			_, err := retention.PurgeRawSnapshots(ctx, rawSnapshotDays)
			return err
		}},
		{scheduler.TaskPruneTariffsBox, retentionEvery, func(ctx context.Context) error {
			_, err := retention.PruneTariffsBox(ctx)
			return err
		}},
	}
	for _, t := range tasks {
		if err := sched.Register(t.name, t.interval, t.fn); err != nil {
			return err
		}
	}
	return nil
}
