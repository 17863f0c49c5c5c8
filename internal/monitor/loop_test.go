package monitor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/logger"
	"taskly/internal/metrics"
)

type stubCollector struct {
	calls   atomic.Int32
	panicAt int32
	cpu     float64
	order   *[]string
	mu      *sync.Mutex
}

func (c *stubCollector) Collect(ctx context.Context) metrics.Snapshot {
	n := c.calls.Add(1)
	c.record("collect")
	if n == c.panicAt {
		panic("sensor driver crashed")
	}
	snap := metrics.DefaultSnapshot(3)
	snap.Timestamp = time.Unix(int64(n)*60, 0)
	snap.CPU.Percent = c.cpu
	snap.History.CPU = []float64{0, 0, float64(n)}
	return snap
}

func (c *stubCollector) record(step string) {
	if c.order == nil {
		return
	}
	c.mu.Lock()
	*c.order = append(*c.order, step)
	c.mu.Unlock()
}

type stubRanker struct {
	err   error
	procs []metrics.ProcessSample
	col   *stubCollector
}

func (r *stubRanker) Top(ctx context.Context, limit int, key metrics.SortKey, normalize bool) ([]metrics.ProcessSample, error) {
	if r.col != nil {
		r.col.record("rank")
	}
	return r.procs, r.err
}

type recordingEvaluator struct {
	*alerts.Evaluator
	col *stubCollector
}

func (e recordingEvaluator) Evaluate(snap metrics.Snapshot) []alerts.Alert {
	if e.col != nil {
		e.col.record("evaluate")
	}
	return e.Evaluator.Evaluate(snap)
}

func newEvaluator() *alerts.Evaluator {
	return alerts.NewEvaluator(alerts.Options{
		Rules:    []alerts.Rule{{Type: alerts.AlertTypeCPU, Threshold: 90, Critical: 95}},
		Cooldown: 30 * time.Second,
		Capacity: 10,
	})
}

func TestLoop_TickOrderAndPublish(t *testing.T) {
	var order []string
	col := &stubCollector{cpu: 92, order: &order, mu: &sync.Mutex{}}
	ranker := &stubRanker{procs: []metrics.ProcessSample{{PID: 1, Name: "init"}}, col: col}
	loop := New(col, ranker, recordingEvaluator{newEvaluator(), col}, Options{TopProcesses: 7}, nil)

	if loop.Latest() != nil {
		t.Fatal("Latest should be nil before the first tick")
	}

	var hooked *State
	loop.OnTick(func(s *State) { hooked = s })

	state, err := loop.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if strings.Join(order, ",") != "collect,rank,evaluate" {
		t.Errorf("Expected collect,rank,evaluate got %v", order)
	}
	if loop.Latest() != state || hooked != state {
		t.Error("Tick result should be published and passed to hooks")
	}
	if len(state.NewAlerts) != 1 || len(state.RecentAlerts) != 1 {
		t.Errorf("Expected one new and one recent alert, got %d/%d", len(state.NewAlerts), len(state.RecentAlerts))
	}
	if state.Tick != 1 || len(state.Processes) != 1 {
		t.Errorf("Unexpected state %+v", state)
	}
}

func TestLoop_RankFailurePublishesEmptyRanking(t *testing.T) {
	col := &stubCollector{}
	loop := New(col, &stubRanker{err: errors.New("proc fs unavailable")}, newEvaluator(), Options{}, nil)

	state, err := loop.Tick(context.Background())
	if err == nil {
		t.Fatal("Expected rank error")
	}
	if state == nil || loop.Latest() == nil || len(state.Processes) != 0 {
		t.Error("Snapshot should still be published with no processes")
	}
}

func TestLoop_RunSurvivesPanickingTick(t *testing.T) {
	var buf bytes.Buffer
	col := &stubCollector{panicAt: 2}
	loop := New(col, &stubRanker{}, newEvaluator(), Options{Interval: 10 * time.Millisecond},
		logger.NewWriter(&buf, logger.LevelInfo))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if completed, _ := loop.Ticks(); completed >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	completed, failed := loop.Ticks()
	if completed < 3 {
		t.Errorf("Loop should keep ticking after a panic, completed %d", completed)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed tick, got %d", failed)
	}
	if !strings.Contains(buf.String(), "Tick panicked") {
		t.Errorf("Expected panic in log, got %q", buf.String())
	}
}

func TestLoop_RunTicksImmediately(t *testing.T) {
	col := &stubCollector{}
	loop := New(col, &stubRanker{}, newEvaluator(), Options{Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for loop.Latest() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if loop.Latest() == nil {
		t.Error("First tick should run without waiting for the interval")
	}
}
