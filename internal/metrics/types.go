// Package metrics samples the operating system and assembles per-tick
// snapshots for taskly.
package metrics

import "time"

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is the full result of one tick. It is never mutated after
// Collect returns it.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	CPU       CPU       `json:"cpu"`
	Memory    Memory    `json:"memory"`
	Disk      Disk      `json:"disk"`
	Network   Network   `json:"network"`
	Battery   Battery   `json:"battery"`
	System    System    `json:"system"`
	History   History   `json:"history"`
}

// CPU holds processor readings
type CPU struct {
	Percent      float64  `json:"percent"`
	Cores        int      `json:"cores"`
	LogicalCores int      `json:"logical_cores"`
	FrequencyMHz float64  `json:"freq_mhz"`
	TemperatureC *float64 `json:"temperature_c"` // nil when no sensor reports
}

// Memory holds RAM readings
type Memory struct {
	Percent        float64 `json:"percent"`
	UsedBytes      uint64  `json:"used_bytes"`
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
}

// Disk holds usage of the monitored mount point
type Disk struct {
	Path       string  `json:"path"`
	Percent    float64 `json:"percent"`
	UsedBytes  uint64  `json:"used_bytes"`
	TotalBytes uint64  `json:"total_bytes"`
}

// Network holds interface totals and per-second rates (KB/s)
type Network struct {
	UploadKBps     float64 `json:"upload_kbps"`
	DownloadKBps   float64 `json:"download_kbps"`
	TotalSentBytes uint64  `json:"total_sent_bytes"`
	TotalRecvBytes uint64  `json:"total_recv_bytes"`
}

// Battery holds power readings. Percent is nil on machines without a battery.
type Battery struct {
	Percent     *float64 `json:"percent"`
	Plugged     bool     `json:"plugged"`
	SecondsLeft *int64   `json:"time_left_seconds"`
}

// Present reports whether a battery was found
func (b Battery) Present() bool {
	return b.Percent != nil
}

// System holds host-level readings
type System struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	BootTime      time.Time `json:"boot_time"`
}

// History holds copies of the chart series, each of the configured length,
// oldest first.
type History struct {
	CPU         []float64 `json:"cpu"`
	RAM         []float64 `json:"ram"`
	Net         []float64 `json:"net"`
	NetDown     []float64 `json:"net_down"`
	NetUp       []float64 `json:"net_up"`
	Temperature []float64 `json:"temperature"`
}

// =============================================================================
// Processes
// =============================================================================

// ProcessSample is one row of the process ranking
type ProcessSample struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// SortKey selects the ranking column
type SortKey string

const (
	SortByCPU    SortKey = "cpu"
	SortByMemory SortKey = "memory"
)

// ParseSortKey maps a string to a SortKey, defaulting to cpu
func ParseSortKey(s string) SortKey {
	if SortKey(s) == SortByMemory {
		return SortByMemory
	}
	return SortByCPU
}

// =============================================================================
// Raw readings returned by a Sampler
// =============================================================================

// CPUInfo is the static part of the CPU family
type CPUInfo struct {
	Cores        int
	LogicalCores int
	FrequencyMHz float64
}

// MemoryReading is one virtual-memory sample
type MemoryReading struct {
	Percent   float64
	Used      uint64
	Total     uint64
	Available uint64
}

// DiskReading is one disk-usage sample
type DiskReading struct {
	Percent float64
	Used    uint64
	Total   uint64
}

// NetCounters are cumulative interface byte counters
type NetCounters struct {
	BytesSent uint64
	BytesRecv uint64
}

// BatteryReading is one battery sample
type BatteryReading struct {
	Percent     float64
	Plugged     bool
	SecondsLeft *int64
}

// TemperatureReading is one sensor value in celsius
type TemperatureReading struct {
	Key     string
	Celsius float64
}
