package alerts

import (
	"strings"
	"testing"
	"time"

	"taskly/internal/metrics"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(Options{
		Rules: []Rule{
			{Type: AlertTypeCPU, Threshold: 90, Critical: 95},
			{Type: AlertTypeRAM, Threshold: 85, Critical: 95},
			{Type: AlertTypeTemperature, Threshold: 80, Critical: 95},
		},
		Cooldown: 30 * time.Second,
		Capacity: 10,
	})
}

func snapshotAt(ts time.Time, cpu, ram float64, temp *float64) metrics.Snapshot {
	snap := metrics.DefaultSnapshot(1)
	snap.Timestamp = ts
	snap.CPU.Percent = cpu
	snap.Memory.Percent = ram
	snap.CPU.TemperatureC = temp
	return snap
}

func TestEvaluator_Cooldown(t *testing.T) {
	e := newTestEvaluator()
	t0 := time.Unix(10000, 0)

	fired := e.Evaluate(snapshotAt(t0, 92, 10, nil))
	if len(fired) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(fired))
	}
	if fired[0].Type != AlertTypeCPU || fired[0].Severity != SeverityWarning {
		t.Errorf("Expected cpu warning, got %s %s", fired[0].Type, fired[0].Severity)
	}

	// Within cooldown: no fire even though worse
	if fired := e.Evaluate(snapshotAt(t0.Add(5*time.Second), 96, 10, nil)); len(fired) != 0 {
		t.Errorf("Expected no alert within cooldown, got %d", len(fired))
	}

	// 31s after first fire: fires again
	fired = e.Evaluate(snapshotAt(t0.Add(31*time.Second), 93, 10, nil))
	if len(fired) != 1 {
		t.Fatalf("Expected alert after cooldown, got %d", len(fired))
	}
}

func TestEvaluator_ExactlyAtCooldownDoesNotFire(t *testing.T) {
	e := newTestEvaluator()
	t0 := time.Unix(10000, 0)

	e.Evaluate(snapshotAt(t0, 92, 10, nil))
	if fired := e.Evaluate(snapshotAt(t0.Add(30*time.Second), 92, 10, nil)); len(fired) != 0 {
		t.Errorf("Cooldown requires strictly more than 30s, got %d alerts", len(fired))
	}
}

func TestEvaluator_ThresholdIsStrict(t *testing.T) {
	e := newTestEvaluator()
	if fired := e.Evaluate(snapshotAt(time.Unix(1, 0), 90, 85, nil)); len(fired) != 0 {
		t.Errorf("Values equal to threshold must not fire, got %d", len(fired))
	}
}

func TestEvaluator_CriticalSeverity(t *testing.T) {
	e := newTestEvaluator()
	temp := 97.0

	fired := e.Evaluate(snapshotAt(time.Unix(1, 0), 95, 99, &temp))
	if len(fired) != 3 {
		t.Fatalf("Expected 3 alerts, got %d", len(fired))
	}
	for _, a := range fired {
		if a.Severity != SeverityCritical {
			t.Errorf("Expected critical for %s at %.1f, got %s", a.Type, a.Value, a.Severity)
		}
	}
	if fired[2].Type != AlertTypeTemperature || !strings.Contains(fired[2].Message, "°C") {
		t.Errorf("Unexpected temperature alert: %+v", fired[2])
	}
}

func TestEvaluator_TypesAreIndependent(t *testing.T) {
	e := newTestEvaluator()
	t0 := time.Unix(10000, 0)

	e.Evaluate(snapshotAt(t0, 92, 10, nil))
	fired := e.Evaluate(snapshotAt(t0.Add(time.Second), 92, 90, nil))
	if len(fired) != 1 || fired[0].Type != AlertTypeRAM {
		t.Errorf("RAM should fire independently of CPU cooldown, got %+v", fired)
	}
}

func TestEvaluator_MissingTemperatureNeverFires(t *testing.T) {
	e := newTestEvaluator()
	if fired := e.Evaluate(snapshotAt(time.Unix(1, 0), 0, 0, nil)); len(fired) != 0 {
		t.Errorf("Absent temperature must not fire, got %d", len(fired))
	}
}

func TestEvaluator_RecentIsBoundedMostRecentFirst(t *testing.T) {
	e := NewEvaluator(Options{
		Rules:    []Rule{{Type: AlertTypeCPU, Threshold: 50, Critical: 95}},
		Cooldown: time.Second,
		Capacity: 3,
	})
	t0 := time.Unix(10000, 0)

	for i := 0; i < 5; i++ {
		e.Evaluate(snapshotAt(t0.Add(time.Duration(i)*2*time.Second), 60+float64(i), 0, nil))
	}

	recent := e.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Expected capacity 3, got %d", len(recent))
	}
	if recent[0].Value != 64 || recent[2].Value != 62 {
		t.Errorf("Expected most recent first [64 63 62], got %.0f..%.0f", recent[0].Value, recent[2].Value)
	}

	if got := e.Recent(2); len(got) != 2 {
		t.Errorf("Expected 2 with limit, got %d", len(got))
	}

	if e.Totals()[AlertTypeCPU][SeverityWarning] != 5 {
		t.Errorf("Totals should count every fired alert, got %v", e.Totals())
	}

	e.Clear()
	if len(e.Recent(0)) != 0 {
		t.Error("Clear should empty recent alerts")
	}
}

func TestFormatAlert(t *testing.T) {
	a := Alert{
		Type:      AlertTypeCPU,
		Severity:  SeverityCritical,
		Message:   "CPU usage is 97.0% (threshold 90%)",
		Timestamp: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC),
	}
	line := FormatAlert(a)
	if !strings.Contains(line, "[critical]") || !strings.Contains(line, "12:30:00") {
		t.Errorf("Unexpected formatted alert %q", line)
	}
}

func TestFormatAge(t *testing.T) {
	if FormatAge(45*time.Second) != "45s" {
		t.Errorf("Expected 45s, got %s", FormatAge(45*time.Second))
	}
	if FormatAge(90*time.Minute) != "1h 30m" {
		t.Errorf("Expected 1h 30m, got %s", FormatAge(90*time.Minute))
	}
}
