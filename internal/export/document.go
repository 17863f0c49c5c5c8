package export

import (
	"time"

	"taskly/internal/alerts"
	"taskly/internal/metrics"
	"taskly/internal/monitor"
	"taskly/pkg/utils"
)

// Document is the nested layout shared by the JSON and CBOR exports
type Document struct {
	Timestamp time.Time               `json:"timestamp"`
	Metrics   DocumentMetrics         `json:"metrics"`
	Processes []metrics.ProcessSample `json:"processes,omitempty"`
	Alerts    []alerts.Alert          `json:"alerts,omitempty"`
}

// DocumentMetrics groups readings by family
type DocumentMetrics struct {
	CPU     CPUSection     `json:"cpu"`
	Memory  MemorySection  `json:"memory"`
	Disk    DiskSection    `json:"disk"`
	Network NetworkSection `json:"network"`
	Battery BatterySection `json:"battery"`
	System  SystemSection  `json:"system"`
}

type CPUSection struct {
	Percent      float64   `json:"percent"`
	Count        int       `json:"count"`
	FrequencyMHz float64   `json:"freq_mhz"`
	TemperatureC *float64  `json:"temperature_c"`
	History      []float64 `json:"history"`
	Temperatures []float64 `json:"temperature_history"`
}

type MemorySection struct {
	Percent     float64   `json:"percent"`
	UsedGB      float64   `json:"used_gb"`
	TotalGB     float64   `json:"total_gb"`
	AvailableGB float64   `json:"available_gb"`
	History     []float64 `json:"history"`
}

type DiskSection struct {
	Path    string  `json:"path"`
	Percent float64 `json:"percent"`
	UsedGB  float64 `json:"used_gb"`
	TotalGB float64 `json:"total_gb"`
}

type NetworkSection struct {
	UploadKBps     float64   `json:"upload_kbps"`
	DownloadKBps   float64   `json:"download_kbps"`
	TotalSentBytes uint64    `json:"total_sent_bytes"`
	TotalRecvBytes uint64    `json:"total_recv_bytes"`
	History        []float64 `json:"history"`
	UploadHistory  []float64 `json:"upload_history"`
	DownHistory    []float64 `json:"download_history"`
}

type BatterySection struct {
	Percent         *float64 `json:"percent"`
	Plugged         bool     `json:"plugged"`
	TimeLeftSeconds *int64   `json:"time_left_seconds"`
}

type SystemSection struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// NewDocument converts a tick into the export layout
func NewDocument(state *monitor.State, now time.Time) Document {
	snap := state.Snapshot
	gb := func(b uint64) float64 { return utils.Round(utils.BytesToGB(b), 2) }

	return Document{
		Timestamp: now,
		Metrics: DocumentMetrics{
			CPU: CPUSection{
				Percent:      snap.CPU.Percent,
				Count:        snap.CPU.LogicalCores,
				FrequencyMHz: snap.CPU.FrequencyMHz,
				TemperatureC: snap.CPU.TemperatureC,
				History:      snap.History.CPU,
				Temperatures: snap.History.Temperature,
			},
			Memory: MemorySection{
				Percent:     snap.Memory.Percent,
				UsedGB:      gb(snap.Memory.UsedBytes),
				TotalGB:     gb(snap.Memory.TotalBytes),
				AvailableGB: gb(snap.Memory.AvailableBytes),
				History:     snap.History.RAM,
			},
			Disk: DiskSection{
				Path:    snap.Disk.Path,
				Percent: snap.Disk.Percent,
				UsedGB:  gb(snap.Disk.UsedBytes),
				TotalGB: gb(snap.Disk.TotalBytes),
			},
			Network: NetworkSection{
				UploadKBps:     snap.Network.UploadKBps,
				DownloadKBps:   snap.Network.DownloadKBps,
				TotalSentBytes: snap.Network.TotalSentBytes,
				TotalRecvBytes: snap.Network.TotalRecvBytes,
				History:        snap.History.Net,
				UploadHistory:  snap.History.NetUp,
				DownHistory:    snap.History.NetDown,
			},
			Battery: BatterySection{
				Percent:         snap.Battery.Percent,
				Plugged:         snap.Battery.Plugged,
				TimeLeftSeconds: snap.Battery.SecondsLeft,
			},
			System: SystemSection{UptimeSeconds: snap.System.UptimeSeconds},
		},
		Processes: state.Processes,
		Alerts:    state.RecentAlerts,
	}
}
