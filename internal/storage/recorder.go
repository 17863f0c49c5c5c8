package storage

import (
	"context"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/logger"
	"taskly/internal/monitor"
)

const (
	recorderQueue = 64
	pruneInterval = time.Hour
)

// Recorder persists alerts fired by the poll loop on its own goroutine so a
// slow disk never delays a tick
type Recorder struct {
	repo      *AlertRepository
	log       *logger.Logger
	retention time.Duration
	queue     chan []alerts.Alert
	now       func() time.Time
}

// NewRecorder creates a recorder. retention <= 0 keeps alerts forever.
func NewRecorder(repo *AlertRepository, retention time.Duration, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{
		repo:      repo,
		log:       log,
		retention: retention,
		queue:     make(chan []alerts.Alert, recorderQueue),
		now:       time.Now,
	}
}

// Observe is a monitor.Loop tick hook. It never blocks; when the queue is
// full the batch is dropped and logged.
func (r *Recorder) Observe(state *monitor.State) {
	if len(state.NewAlerts) == 0 {
		return
	}
	select {
	case r.queue <- state.NewAlerts:
	default:
		r.log.Warning("Alert history queue full, dropped %d alerts", len(state.NewAlerts))
	}
}

// Run writes queued alerts until ctx is cancelled, then flushes what is left
func (r *Recorder) Run(ctx context.Context) error {
	r.prune()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		case batch := <-r.queue:
			r.save(batch)
		case <-ticker.C:
			r.prune()
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case batch := <-r.queue:
			r.save(batch)
		default:
			return
		}
	}
}

func (r *Recorder) save(batch []alerts.Alert) {
	if err := r.repo.Save(batch); err != nil {
		r.log.Error("Failed to store %d alerts: %v", len(batch), err)
		return
	}
	r.log.Debug("Stored %d alerts", len(batch))
}

func (r *Recorder) prune() {
	if r.retention <= 0 {
		return
	}
	removed, err := r.repo.Prune(r.now().Add(-r.retention))
	if err != nil {
		r.log.Warning("Alert history prune failed: %v", err)
		return
	}
	if removed > 0 {
		r.log.Info("Pruned %d alerts older than %s", removed, r.retention)
	}
}
