// Package telemetry exposes the latest tick as Prometheus metrics and pushes
// the same values over OTLP.
package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	constants "taskly/config"
	"taskly/internal/alerts"
	"taskly/internal/monitor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// StateSource returns the most recently published tick
type StateSource interface {
	Latest() *monitor.State
}

// AlertCounter reports cumulative alert counts
type AlertCounter interface {
	Totals() map[alerts.AlertType]map[alerts.AlertSeverity]int
}

func desc(name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(constants.METRIC_NAMESPACE, "", name), help, labels, nil)
}

var (
	cpuPercentDesc     = desc("cpu_percent", "System-wide CPU usage.")
	cpuFrequencyDesc   = desc("cpu_frequency_mhz", "CPU frequency.")
	memoryPercentDesc  = desc("memory_percent", "RAM usage.")
	memoryBytesDesc    = desc("memory_bytes", "RAM bytes by state.", "state")
	diskPercentDesc    = desc("disk_percent", "Disk usage of the monitored mount.", "path")
	networkRateDesc    = desc("network_kbps", "Network throughput in KB/s.", "direction")
	networkTotalDesc   = desc("network_bytes_total", "Cumulative network bytes.", "direction")
	batteryPercentDesc = desc("battery_percent", "Battery charge level.")
	batteryPluggedDesc = desc("battery_plugged", "1 when on external power.")
	temperatureDesc    = desc("temperature_celsius", "CPU temperature.")
	uptimeDesc         = desc("uptime_seconds", "Host uptime.")
	processCPUDesc     = desc("process_cpu_percent", "CPU usage of top processes.", "pid", "name")
	processMemoryDesc  = desc("process_memory_percent", "Memory usage of top processes.", "pid", "name")
	alertsDesc         = desc("alerts_total", "Alerts fired since start.", "type", "severity")
	ticksDesc          = desc("ticks_total", "Completed poll loop ticks.")
)

// Collector turns the latest State into const metrics at scrape time
type Collector struct {
	source StateSource
	alerts AlertCounter
}

// NewCollector creates a collector. counter may be nil.
func NewCollector(source StateSource, counter AlertCounter) *Collector {
	return &Collector{source: source, alerts: counter}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		cpuPercentDesc, cpuFrequencyDesc, memoryPercentDesc, memoryBytesDesc, diskPercentDesc,
		networkRateDesc, networkTotalDesc, batteryPercentDesc, batteryPluggedDesc, temperatureDesc,
		uptimeDesc, processCPUDesc, processMemoryDesc, alertsDesc, ticksDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector. Nothing is emitted before the
// first tick; absent battery or temperature readings are skipped.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.alerts != nil {
		for alertType, bySeverity := range c.alerts.Totals() {
			for severity, n := range bySeverity {
				ch <- prometheus.MustNewConstMetric(alertsDesc, prometheus.CounterValue, float64(n), string(alertType), string(severity))
			}
		}
	}

	state := c.source.Latest()
	if state == nil {
		return
	}
	snap := state.Snapshot

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	ch <- prometheus.MustNewConstMetric(ticksDesc, prometheus.CounterValue, float64(state.Tick))

	gauge(cpuPercentDesc, snap.CPU.Percent)
	gauge(cpuFrequencyDesc, snap.CPU.FrequencyMHz)
	gauge(memoryPercentDesc, snap.Memory.Percent)
	gauge(memoryBytesDesc, float64(snap.Memory.UsedBytes), "used")
	gauge(memoryBytesDesc, float64(snap.Memory.TotalBytes), "total")
	gauge(memoryBytesDesc, float64(snap.Memory.AvailableBytes), "available")
	gauge(diskPercentDesc, snap.Disk.Percent, snap.Disk.Path)
	gauge(networkRateDesc, snap.Network.UploadKBps, "up")
	gauge(networkRateDesc, snap.Network.DownloadKBps, "down")
	ch <- prometheus.MustNewConstMetric(networkTotalDesc, prometheus.CounterValue, float64(snap.Network.TotalSentBytes), "sent")
	ch <- prometheus.MustNewConstMetric(networkTotalDesc, prometheus.CounterValue, float64(snap.Network.TotalRecvBytes), "recv")
	gauge(uptimeDesc, float64(snap.System.UptimeSeconds))

	if snap.Battery.Percent != nil {
		gauge(batteryPercentDesc, *snap.Battery.Percent)
		plugged := 0.0
		if snap.Battery.Plugged {
			plugged = 1
		}
		gauge(batteryPluggedDesc, plugged)
	}
	if snap.CPU.TemperatureC != nil {
		gauge(temperatureDesc, *snap.CPU.TemperatureC)
	}

	for _, p := range state.Processes {
		pid := strconv.Itoa(int(p.PID))
		gauge(processCPUDesc, p.CPUPercent, pid, p.Name)
		gauge(processMemoryDesc, p.MemoryPercent, pid, p.Name)
	}
}

// NewRegistry creates a registry with the taskly collector plus Go runtime
// and process collectors
func NewRegistry(source StateSource, counter AlertCounter) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		NewCollector(source, counter),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: constants.METRIC_NAMESPACE}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return reg, nil
}

// Handler serves the registry in the Prometheus exposition format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteText writes every metric family in the text exposition format
func WriteText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// SnapshotRegistry builds a registry holding only the taskly collector, for
// one-off text exports
func SnapshotRegistry(source StateSource, counter AlertCounter) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(source, counter))
	return reg
}
