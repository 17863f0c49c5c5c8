package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"taskly/internal/alerts"
	"taskly/internal/config"
	"taskly/internal/logger"
	"taskly/internal/metrics"
	"taskly/internal/monitor"
	"taskly/internal/preferences"
)

// App carries what every command needs: the config loader, the path given by
// --config, the build version and where to print.
type App struct {
	Loader     *config.Loader
	ConfigFile string
	Version    string
	Out        io.Writer
}

// NewApp creates an App writing to out
func NewApp(version string, out io.Writer) *App {
	if version == "" {
		version = "dev"
	}
	return &App{Loader: config.NewLoader(), Version: version, Out: out}
}

// Config loads the validated configuration
func (a *App) Config() (*config.Config, error) {
	return a.Loader.Load(a.ConfigFile)
}

// bindFlag binds a command flag to a config key, panicking on programmer error
func (a *App) bindFlag(cmd *cobra.Command, key, flag string) {
	if err := a.Loader.BindFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// openLogger opens the configured log file; an empty path logs to stderr
func openLogger(cfg *config.Config) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFile != "" {
		if err := config.EnsureDir(cfg.LogFile); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	return logger.New(cfg.LogFile, level)
}

// stack is the sampling pipeline shared by status, watch, export and daemon
type stack struct {
	cfg        *config.Config
	log        *logger.Logger
	sampler    *metrics.SystemSampler
	aggregator *metrics.Aggregator
	ranker     *metrics.ProcessRanker
	evaluator  *alerts.Evaluator
	loop       *monitor.Loop
}

func buildStack(ctx context.Context, cfg *config.Config, log *logger.Logger) *stack {
	sampler := metrics.NewSystemSampler()

	logicalCores := goruntime.NumCPU()
	if info, err := sampler.CPUInfo(ctx); err == nil && info.LogicalCores > 0 {
		logicalCores = info.LogicalCores
	} else if err != nil {
		log.Warning("CPU info unavailable, using %d cores: %v", logicalCores, err)
	}

	aggregator := metrics.NewAggregator(ctx, sampler, metrics.AggregatorOptions{
		HistorySize: cfg.HistorySize,
		CacheTTL:    cfg.CacheTTL,
		DiskPath:    cfg.DiskPath,
	}, log)
	ranker := metrics.NewProcessRanker(sampler, logicalCores, log)
	evaluator := alerts.NewEvaluator(alerts.Options{
		Rules:    alertRules(cfg),
		Cooldown: cfg.AlertCooldown,
		Capacity: cfg.AlertCapacity,
	})

	loop := monitor.New(aggregator, ranker, evaluator, monitor.Options{
		Interval:     cfg.PollInterval,
		TopProcesses: cfg.TopProcesses,
		SortBy:       metrics.ParseSortKey(cfg.SortBy),
		NormalizeCPU: cfg.NormalizeCPU,
		RecentAlerts: cfg.AlertCapacity,
	}, log)

	return &stack{
		cfg:        cfg,
		log:        log,
		sampler:    sampler,
		aggregator: aggregator,
		ranker:     ranker,
		evaluator:  evaluator,
		loop:       loop,
	}
}

func alertRules(cfg *config.Config) []alerts.Rule {
	return []alerts.Rule{
		{Type: alerts.AlertTypeCPU, Threshold: cfg.CPUThreshold, Critical: cfg.CPUCritical},
		{Type: alerts.AlertTypeRAM, Threshold: cfg.RAMThreshold, Critical: cfg.RAMCritical},
		{Type: alerts.AlertTypeTemperature, Threshold: cfg.TempThreshold, Critical: cfg.TempCritical},
	}
}

// warmUp runs ticks until rates and CPU deltas have a real interval behind
// them. One-shot commands need this; the first raw tick reads near zero.
func (s *stack) warmUp(ctx context.Context, ticks int) (*monitor.State, error) {
	wait := s.cfg.PollInterval
	if wait > time.Second {
		wait = time.Second
	}

	var state *monitor.State
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		st, err := s.loop.Tick(ctx)
		if err != nil {
			s.log.Warning("Warm-up tick %d: %v", i+1, err)
		}
		state = st
	}
	return state, nil
}

func newPreferences(cfg *config.Config, log *logger.Logger) *preferences.Store {
	return preferences.NewStore(cfg.PreferencesFile, cfg.DefaultLanguage, log)
}

// isTerminal reports whether out is an interactive terminal
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
