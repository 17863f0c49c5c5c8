package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	constants "taskly/config"
	"taskly/internal/api"
	"taskly/internal/config"
	"taskly/internal/logger"
	"taskly/internal/monitor"
	"taskly/internal/process"
	"taskly/internal/service"
	"taskly/internal/storage"
	"taskly/internal/telemetry"
	"taskly/internal/ui"
)

const (
	healthInterval = time.Minute
	stopTimeout    = 10 * time.Second
)

// NewDaemonCmd creates the background daemon command. Run without a
// subcommand it monitors in the foreground until SIGTERM or SIGINT.
func NewDaemonCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the monitor in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if cfg.LogFile == "" {
				cfg.LogFile = constants.LOG_FILE
			}
			log, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			return runDaemon(cmd.Context(), app, cfg, log)
		},
	}

	cmd.Flags().String("listen", "", "serve the HTTP API and /metrics on this address")
	cmd.Flags().String("otlp-endpoint", "", "push metrics to this OTLP/HTTP endpoint")
	app.bindFlag(cmd, "http_listen", "listen")
	app.bindFlag(cmd, "otlp_endpoint", "otlp-endpoint")

	cmd.AddCommand(newDaemonStopCmd(app))
	return cmd
}

func newDaemonStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pid, err := process.Terminate(ctx, constants.PID_FILE, stopTimeout)
			if errors.Is(err, process.ErrNotRunning) {
				fmt.Fprintln(app.Out, ui.RenderStatus("info", "Daemon is not running"))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, ui.RenderStatus("success", fmt.Sprintf("Daemon stopped (PID %d)", pid)))
			return nil
		},
	}
}

func runDaemon(parent context.Context, app *App, cfg *config.Config, log *logger.Logger) (err error) {
	if parent == nil {
		parent = context.Background()
	}

	log.Info("=== DAEMON STARTING - PID: %d ===", os.Getpid())
	defer log.Info("=== DAEMON EXITING - PID: %d ===", os.Getpid())

	notifier := service.NewNotifier(log)
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			log.Error("Daemon panicked: %v\n%s", r, string(buf[:n]))
			notifier.Stopping()
			err = fmt.Errorf("daemon panicked: %v", r)
		}
	}()

	if err := process.CleanupStale(parent, constants.PID_FILE, log); err != nil {
		log.Warning("Stale lock cleanup failed: %v", err)
	}
	lock, err := process.Acquire(constants.PID_FILE, log)
	if err != nil {
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	s := buildStack(ctx, cfg, log)

	var history *storage.AlertRepository
	if cfg.AlertDB != "" {
		db, err := storage.Open(cfg.AlertDB)
		if err != nil {
			return err
		}
		defer storage.Close(db)

		history = storage.NewAlertRepository(db)
		recorder := storage.NewRecorder(history, cfg.AlertRetention, log)
		s.loop.OnTick(recorder.Observe)

		recorderDone := make(chan struct{})
		go func() {
			defer close(recorderDone)
			recorder.Run(ctx)
		}()
		// the recorder flushes before the database closes
		defer func() {
			stop()
			<-recorderDone
		}()
	}

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- s.loop.Run(ctx)
	}()

	serveDone := make(chan error, 1)
	if cfg.HTTPListen != "" {
		registry, err := telemetry.NewRegistry(s.loop, s.evaluator)
		if err != nil {
			return fmt.Errorf("build metrics registry: %w", err)
		}
		deps := api.Dependencies{
			State:   s.loop,
			Alerts:  s.evaluator,
			Metrics: telemetry.Handler(registry),
			Log:     log,
		}
		if history != nil {
			deps.History = history
		}
		router := api.NewRouter(deps)
		go func() {
			serveDone <- api.Serve(ctx, cfg.HTTPListen, router, log)
		}()
	}

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.StartOTLP(ctx, telemetry.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Token:    cfg.OTLPToken,
			Version:  app.Version,
		}, s.loop)
		if err != nil {
			log.Warning("OTLP export disabled: %v", err)
		} else {
			log.Info("Pushing metrics via OTLP to %s", cfg.OTLPEndpoint)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warning("OTLP shutdown: %v", err)
				}
			}()
		}
	}

	log.Info("Daemon initialized:")
	log.Info("  Poll interval: %s", cfg.PollInterval)
	log.Info("  Disk: %s", cfg.DiskPath)
	if history != nil {
		log.Info("  Alert history: %s (retention %s)", cfg.AlertDB, cfg.AlertRetention)
	}
	if cfg.HTTPListen != "" {
		log.Info("  API: http://%s/api/v1", cfg.HTTPListen)
	}

	notifier.Ready()
	notifier.Status("Monitoring active")

	healthTicker := time.NewTicker(healthInterval)
	defer healthTicker.Stop()

	for {
		select {
		case <-healthTicker.C:
			logHealth(log, s.loop)
			notifier.Watchdog()

		case err := <-serveDone:
			if err != nil {
				log.Error("API server stopped: %v", err)
				notifier.Stopping()
				stop()
				<-loopDone
				return err
			}

		case err := <-loopDone:
			notifier.Stopping()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("Signal received, shutting down")
			return nil
		}
	}
}

func logHealth(log *logger.Logger, loop *monitor.Loop) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	completed, failed := loop.Ticks()
	log.Debug("Health check - ticks: %d (failed %d), goroutines: %d, memory: %.1f MB",
		completed, failed,
		runtime.NumGoroutine(),
		float64(memStats.Alloc)/1024/1024)
}
