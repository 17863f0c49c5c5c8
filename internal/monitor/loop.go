// Package monitor drives the per-tick sample, rank, alert cycle and publishes
// the newest result to readers.
package monitor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/logger"
	"taskly/internal/metrics"
)

// Collector produces one snapshot per call
type Collector interface {
	Collect(ctx context.Context) metrics.Snapshot
}

// Ranker produces the process ranking
type Ranker interface {
	Top(ctx context.Context, limit int, key metrics.SortKey, normalize bool) ([]metrics.ProcessSample, error)
}

// AlertEvaluator checks a snapshot against thresholds
type AlertEvaluator interface {
	Evaluate(snap metrics.Snapshot) []alerts.Alert
	Recent(limit int) []alerts.Alert
}

// State is what one tick publishes. Readers must treat it as read-only.
type State struct {
	Tick         uint64                  `json:"tick"`
	Snapshot     metrics.Snapshot        `json:"snapshot"`
	Processes    []metrics.ProcessSample `json:"processes"`
	SortBy       metrics.SortKey         `json:"sort_by"`
	NewAlerts    []alerts.Alert          `json:"new_alerts"`
	RecentAlerts []alerts.Alert          `json:"recent_alerts"`
	Duration     time.Duration           `json:"duration"`
}

// Options configures a Loop
type Options struct {
	Interval     time.Duration
	TopProcesses int
	SortBy       metrics.SortKey
	NormalizeCPU bool
	RecentAlerts int
}

// Loop runs the fixed-interval tick. One goroutine calls Run; any number of
// readers call Latest.
type Loop struct {
	collector Collector
	ranker    Ranker
	evaluator AlertEvaluator
	opts      Options
	log       *logger.Logger

	latest atomic.Pointer[State]
	ticks  atomic.Uint64
	failed atomic.Uint64
	sortBy atomic.Value // metrics.SortKey

	hooksMutex sync.RWMutex
	hooks      []func(*State)
}

// New creates a loop
func New(collector Collector, ranker Ranker, evaluator AlertEvaluator, opts Options, log *logger.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.SortBy == "" {
		opts.SortBy = metrics.SortByCPU
	}
	if log == nil {
		log = logger.Discard()
	}
	l := &Loop{
		collector: collector,
		ranker:    ranker,
		evaluator: evaluator,
		opts:      opts,
		log:       log,
	}
	l.sortBy.Store(opts.SortBy)
	return l
}

// SetSortBy changes the ranking key from the next tick on
func (l *Loop) SetSortBy(key metrics.SortKey) {
	l.sortBy.Store(key)
}

// SortBy returns the current ranking key
func (l *Loop) SortBy() metrics.SortKey {
	return l.sortBy.Load().(metrics.SortKey)
}

// OnTick registers a callback run synchronously after each publication.
// Callbacks must return quickly.
func (l *Loop) OnTick(fn func(*State)) {
	l.hooksMutex.Lock()
	defer l.hooksMutex.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Latest returns the most recently published state, or nil before the first
// tick completes.
func (l *Loop) Latest() *State {
	return l.latest.Load()
}

// Ticks returns how many ticks completed and how many failed
func (l *Loop) Ticks() (completed, failed uint64) {
	return l.ticks.Load(), l.failed.Load()
}

// Run ticks immediately, then every Interval, until ctx is cancelled. A tick
// that panics is logged and the loop carries on.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("Poll loop started (interval %s)", l.opts.Interval)
	defer l.log.Info("Poll loop stopped after %d ticks", l.ticks.Load())

	l.safeTick(ctx)

	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.safeTick(ctx)
		}
	}
}

func (l *Loop) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.failed.Add(1)
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			l.log.Error("Tick panicked: %v\n%s", r, string(buf[:n]))
		}
	}()

	if _, err := l.Tick(ctx); err != nil {
		l.failed.Add(1)
		l.log.Warning("Tick failed: %v", err)
	}
}

// Tick runs one aggregate, rank, evaluate cycle and publishes the result.
// A ranking failure still publishes the snapshot with an empty process list
// and is returned as an error.
func (l *Loop) Tick(ctx context.Context) (*State, error) {
	start := time.Now()

	snap := l.collector.Collect(ctx)

	sortBy := l.SortBy()
	procs, rankErr := l.ranker.Top(ctx, l.opts.TopProcesses, sortBy, l.opts.NormalizeCPU)
	if rankErr != nil {
		procs = nil
		rankErr = fmt.Errorf("rank processes: %w", rankErr)
	}

	fired := l.evaluator.Evaluate(snap)
	for _, a := range fired {
		l.log.Warning("Alert: %s", alerts.FormatAlert(a))
	}

	state := &State{
		Tick:         l.ticks.Add(1),
		Snapshot:     snap,
		Processes:    procs,
		SortBy:       sortBy,
		NewAlerts:    fired,
		RecentAlerts: l.evaluator.Recent(l.opts.RecentAlerts),
		Duration:     time.Since(start),
	}
	l.latest.Store(state)
	l.log.Debug("Tick %d: %s (%s)", state.Tick, snap, state.Duration)

	l.hooksMutex.RLock()
	hooks := l.hooks
	l.hooksMutex.RUnlock()
	for _, fn := range hooks {
		fn(state)
	}

	return state, rankErr
}
