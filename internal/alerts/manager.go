package alerts

import (
	"fmt"
	"sync"
	"time"

	"taskly/internal/metrics"
)

// AlertType represents the type of alert
type AlertType string

const (
	AlertTypeCPU         AlertType = "cpu"
	AlertTypeRAM         AlertType = "ram"
	AlertTypeTemperature AlertType = "temperature"
)

// AlertSeverity represents alert severity level
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is one fired threshold breach. Never mutated after creation.
type Alert struct {
	Type      AlertType     `json:"type"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	Value     float64       `json:"value"`
	Threshold float64       `json:"threshold"`
	Timestamp time.Time     `json:"timestamp"`
}

// Rule is the threshold configuration for one alert type
type Rule struct {
	Type      AlertType
	Threshold float64 // fire when value > Threshold
	Critical  float64 // critical when value >= Critical
}

// Options configures an Evaluator
type Options struct {
	Rules    []Rule
	Cooldown time.Duration
	Capacity int // size of the recent-alerts list
}

// Evaluator checks snapshots against thresholds. Each type fires at most once
// per cooldown; there is no resolved state.
type Evaluator struct {
	rules     []Rule
	cooldown  time.Duration
	capacity  int
	lastFired map[AlertType]time.Time
	recent    []Alert // most recent first
	total     map[AlertType]map[AlertSeverity]int
	mutex     sync.RWMutex
}

// NewEvaluator creates an evaluator
func NewEvaluator(opts Options) *Evaluator {
	if opts.Capacity <= 0 {
		opts.Capacity = 10
	}
	return &Evaluator{
		rules:     opts.Rules,
		cooldown:  opts.Cooldown,
		capacity:  opts.Capacity,
		lastFired: make(map[AlertType]time.Time),
		recent:    make([]Alert, 0, opts.Capacity),
		total:     make(map[AlertType]map[AlertSeverity]int),
	}
}

// Evaluate checks one snapshot and returns the alerts it fired, in rule
// order. The snapshot timestamp is the clock for cooldowns.
func (e *Evaluator) Evaluate(snap metrics.Snapshot) []Alert {
	now := snap.Timestamp

	e.mutex.Lock()
	defer e.mutex.Unlock()

	var fired []Alert
	for _, rule := range e.rules {
		value, ok := valueFor(rule.Type, snap)
		if !ok || value <= rule.Threshold {
			continue
		}

		if last, seen := e.lastFired[rule.Type]; seen && now.Sub(last) <= e.cooldown {
			continue
		}

		alert := newAlert(rule, value, now)
		e.lastFired[rule.Type] = now
		e.record(alert)
		fired = append(fired, alert)
	}
	return fired
}

// record inserts at the front and drops the oldest beyond capacity
func (e *Evaluator) record(alert Alert) {
	e.recent = append([]Alert{alert}, e.recent...)
	if len(e.recent) > e.capacity {
		e.recent = e.recent[:e.capacity]
	}

	if e.total[alert.Type] == nil {
		e.total[alert.Type] = make(map[AlertSeverity]int)
	}
	e.total[alert.Type][alert.Severity]++
}

// Recent returns up to limit alerts, most recent first. limit <= 0 returns all.
func (e *Evaluator) Recent(limit int) []Alert {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	n := len(e.recent)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Alert, n)
	copy(out, e.recent[:n])
	return out
}

// Totals returns how many alerts fired per type and severity since start
func (e *Evaluator) Totals() map[AlertType]map[AlertSeverity]int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	out := make(map[AlertType]map[AlertSeverity]int, len(e.total))
	for t, bySeverity := range e.total {
		out[t] = make(map[AlertSeverity]int, len(bySeverity))
		for s, n := range bySeverity {
			out[t][s] = n
		}
	}
	return out
}

// Clear empties the recent list. Cooldowns are kept.
func (e *Evaluator) Clear() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.recent = e.recent[:0]
}

func valueFor(t AlertType, snap metrics.Snapshot) (float64, bool) {
	switch t {
	case AlertTypeCPU:
		return snap.CPU.Percent, true
	case AlertTypeRAM:
		return snap.Memory.Percent, true
	case AlertTypeTemperature:
		if snap.CPU.TemperatureC == nil {
			return 0, false
		}
		return *snap.CPU.TemperatureC, true
	}
	return 0, false
}

func newAlert(rule Rule, value float64, now time.Time) Alert {
	severity := SeverityWarning
	if value >= rule.Critical {
		severity = SeverityCritical
	}

	var message string
	switch rule.Type {
	case AlertTypeCPU:
		message = fmt.Sprintf("CPU usage is %.1f%% (threshold %.0f%%)", value, rule.Threshold)
	case AlertTypeRAM:
		message = fmt.Sprintf("RAM usage is %.1f%% (threshold %.0f%%)", value, rule.Threshold)
	case AlertTypeTemperature:
		message = fmt.Sprintf("CPU temperature is %.1f°C (threshold %.0f°C)", value, rule.Threshold)
	}

	return Alert{
		Type:      rule.Type,
		Severity:  severity,
		Message:   message,
		Value:     value,
		Threshold: rule.Threshold,
		Timestamp: now,
	}
}

// FormatAlert renders an alert as a single log or terminal line
func FormatAlert(alert Alert) string {
	return fmt.Sprintf("%s [%s] %s at %s",
		getSeverityEmoji(alert.Severity),
		alert.Severity,
		alert.Message,
		alert.Timestamp.Format("15:04:05"))
}

// getSeverityEmoji returns emoji for severity level
func getSeverityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityCritical:
		return "🔴"
	case SeverityWarning:
		return "🟡"
	default:
		return "⚪"
	}
}

// FormatAge formats how long ago an alert fired in human-readable form
func FormatAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
