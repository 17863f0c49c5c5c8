package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/metrics"
	"taskly/internal/monitor"

	"github.com/prometheus/client_golang/prometheus/testutil"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type staticSource struct {
	state *monitor.State
}

func (s staticSource) Latest() *monitor.State { return s.state }

type staticTotals map[alerts.AlertType]map[alerts.AlertSeverity]int

func (s staticTotals) Totals() map[alerts.AlertType]map[alerts.AlertSeverity]int { return s }

func testState() *monitor.State {
	temp := 61.5
	return &monitor.State{
		Tick: 3,
		Snapshot: metrics.Snapshot{
			Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
			CPU:       metrics.CPU{Percent: 42, Cores: 4, LogicalCores: 8, FrequencyMHz: 2400, TemperatureC: &temp},
			Memory:    metrics.Memory{Percent: 55, UsedBytes: 4 << 30, TotalBytes: 8 << 30, AvailableBytes: 4 << 30},
			Disk:      metrics.Disk{Path: "/", Percent: 70},
			Network:   metrics.Network{UploadKBps: 12, DownloadKBps: 80},
			System:    metrics.System{UptimeSeconds: 3600},
		},
		Processes: []metrics.ProcessSample{
			{PID: 10, Name: "postgres", CPUPercent: 30, MemoryPercent: 12},
			{PID: 11, Name: "nginx", CPUPercent: 5, MemoryPercent: 1},
		},
	}
}

func TestCollector_CPUGauge(t *testing.T) {
	c := NewCollector(staticSource{state: testState()}, nil)

	expected := `
# HELP taskly_cpu_percent System-wide CPU usage.
# TYPE taskly_cpu_percent gauge
taskly_cpu_percent 42
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "taskly_cpu_percent"); err != nil {
		t.Errorf("Unexpected cpu metric: %v", err)
	}
}

func TestCollector_ProcessAndNetworkLabels(t *testing.T) {
	c := NewCollector(staticSource{state: testState()}, nil)

	if n := testutil.CollectAndCount(c, "taskly_process_cpu_percent"); n != 2 {
		t.Errorf("Expected 2 process series, got %d", n)
	}
	if n := testutil.CollectAndCount(c, "taskly_network_kbps"); n != 2 {
		t.Errorf("Expected up and down series, got %d", n)
	}
}

func TestCollector_SkipsAbsentBattery(t *testing.T) {
	c := NewCollector(staticSource{state: testState()}, nil)

	if n := testutil.CollectAndCount(c, "taskly_battery_percent"); n != 0 {
		t.Errorf("Battery should be absent, got %d series", n)
	}
	if n := testutil.CollectAndCount(c, "taskly_temperature_celsius"); n != 1 {
		t.Errorf("Expected temperature series, got %d", n)
	}
}

func TestCollector_NothingBeforeFirstTick(t *testing.T) {
	c := NewCollector(staticSource{}, nil)

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Errorf("Expected no metrics before the first tick, got %d", n)
	}
}

func TestCollector_AlertTotals(t *testing.T) {
	totals := staticTotals{
		alerts.AlertTypeCPU: {alerts.SeverityWarning: 2, alerts.SeverityCritical: 1},
	}
	c := NewCollector(staticSource{}, totals)

	expected := `
# HELP taskly_alerts_total Alerts fired since start.
# TYPE taskly_alerts_total counter
taskly_alerts_total{severity="critical",type="cpu"} 1
taskly_alerts_total{severity="warning",type="cpu"} 2
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "taskly_alerts_total"); err != nil {
		t.Errorf("Unexpected alert totals: %v", err)
	}
}

func TestWriteText(t *testing.T) {
	reg := SnapshotRegistry(staticSource{state: testState()}, nil)

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"taskly_memory_percent 55",
		`taskly_disk_percent{path="/"} 70`,
		`taskly_process_cpu_percent{name="postgres",pid="10"} 30`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(staticSource{state: testState()}, nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("Expected Go runtime collector to be registered")
	}
}

func TestRegisterInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	if err := RegisterInstruments(provider.Meter("test"), staticSource{state: testState()}); err != nil {
		t.Fatalf("RegisterInstruments failed: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	values := map[string]float64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && len(g.DataPoints) > 0 {
				values[m.Name] = g.DataPoints[0].Value
			}
		}
	}
	if values["taskly.system.cpu"] != 42 {
		t.Errorf("Expected cpu gauge 42, got %v", values["taskly.system.cpu"])
	}
	if values["taskly.system.temperature"] != 61.5 {
		t.Errorf("Expected temperature gauge 61.5, got %v", values["taskly.system.temperature"])
	}
	if _, ok := values["taskly.system.battery"]; ok {
		t.Error("Battery gauge should not report without a battery")
	}
}

func TestStartOTLP_RequiresEndpoint(t *testing.T) {
	if _, err := StartOTLP(context.Background(), OTLPConfig{}, staticSource{}); err == nil {
		t.Error("Expected error for empty endpoint")
	}
}
