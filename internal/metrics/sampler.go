package metrics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/shirou/gopsutil/v4/sensors"
)

// ErrProcessGone marks a process that exited or cannot be inspected. The
// ranker skips such processes.
var ErrProcessGone = errors.New("process gone or access denied")

// Sampler reads raw values from the operating system. Optional families
// (battery, temperatures) return nil without error when the hardware is absent.
type Sampler interface {
	CPUPercent(ctx context.Context) (float64, error)
	CPUInfo(ctx context.Context) (CPUInfo, error)
	Memory(ctx context.Context) (MemoryReading, error)
	Disk(ctx context.Context, path string) (DiskReading, error)
	NetCounters(ctx context.Context) (NetCounters, error)
	Battery(ctx context.Context) (*BatteryReading, error)
	Temperatures(ctx context.Context) ([]TemperatureReading, error)
	BootTime(ctx context.Context) (time.Time, error)
	Processes(ctx context.Context) ([]ProcessHandle, error)
}

// ProcessHandle gives per-process readings. Each method may return
// ErrProcessGone.
type ProcessHandle interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
}

// SystemSampler implements Sampler with gopsutil
type SystemSampler struct {
	// Process objects are kept between calls so gopsutil can compute CPU
	// percent from the delta since the previous tick.
	procs      map[int32]*trackedProcess
	procsMutex sync.Mutex
}

type trackedProcess struct {
	proc       *process.Process
	createTime int64
}

// NewSystemSampler creates the production sampler
func NewSystemSampler() *SystemSampler {
	return &SystemSampler{procs: make(map[int32]*trackedProcess)}
}

// CPUPercent returns system-wide CPU usage since the previous call
func (s *SystemSampler) CPUPercent(ctx context.Context) (float64, error) {
	percent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percent) == 0 {
		return 0, nil
	}
	return percent[0], nil
}

// CPUInfo returns core counts and current frequency
func (s *SystemSampler) CPUInfo(ctx context.Context) (CPUInfo, error) {
	var info CPUInfo

	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return info, fmt.Errorf("cpu counts: %w", err)
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return info, fmt.Errorf("cpu logical counts: %w", err)
	}
	info.Cores = physical
	info.LogicalCores = logical

	// Frequency is best effort; some VMs report nothing
	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 {
		info.FrequencyMHz = stats[0].Mhz
	}
	return info, nil
}

// Memory returns virtual memory usage
func (s *SystemSampler) Memory(ctx context.Context) (MemoryReading, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryReading{}, fmt.Errorf("virtual memory: %w", err)
	}
	return MemoryReading{
		Percent:   vm.UsedPercent,
		Used:      vm.Used,
		Total:     vm.Total,
		Available: vm.Available,
	}, nil
}

// Disk returns usage of the filesystem mounted at path
func (s *SystemSampler) Disk(ctx context.Context, path string) (DiskReading, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskReading{}, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return DiskReading{
		Percent: usage.UsedPercent,
		Used:    usage.Used,
		Total:   usage.Total,
	}, nil
}

// NetCounters returns cumulative bytes across all interfaces
func (s *SystemSampler) NetCounters(ctx context.Context) (NetCounters, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetCounters{}, fmt.Errorf("net counters: %w", err)
	}
	if len(counters) == 0 {
		return NetCounters{}, nil
	}
	return NetCounters{
		BytesSent: counters[0].BytesSent,
		BytesRecv: counters[0].BytesRecv,
	}, nil
}

// Temperatures returns all sensor readings. Partial sensor failures are
// ignored when at least one reading came back.
func (s *SystemSampler) Temperatures(ctx context.Context) ([]TemperatureReading, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return nil, fmt.Errorf("temperatures: %w", err)
	}

	readings := make([]TemperatureReading, 0, len(stats))
	for _, st := range stats {
		readings = append(readings, TemperatureReading{Key: st.SensorKey, Celsius: st.Temperature})
	}
	return readings, nil
}

// BootTime returns the host boot time
func (s *SystemSampler) BootTime(ctx context.Context) (time.Time, error) {
	boot, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("boot time: %w", err)
	}
	return time.Unix(int64(boot), 0), nil
}

// Processes lists running processes, reusing handles from the previous call
// for PIDs that still refer to the same process.
func (s *SystemSampler) Processes(ctx context.Context) ([]ProcessHandle, error) {
	all, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	s.procsMutex.Lock()
	defer s.procsMutex.Unlock()

	seen := make(map[int32]*trackedProcess, len(all))
	handles := make([]ProcessHandle, 0, len(all))

	for _, p := range all {
		createTime, _ := p.CreateTimeWithContext(ctx)

		tracked, ok := s.procs[p.Pid]
		if !ok || tracked.createTime != createTime {
			// New PID, or PID reused by a different process
			tracked = &trackedProcess{proc: p, createTime: createTime}
		}
		seen[p.Pid] = tracked
		handles = append(handles, &gopsutilProcess{tracked: tracked})
	}

	s.procs = seen
	return handles, nil
}

// gopsutilProcess adapts *process.Process to ProcessHandle
type gopsutilProcess struct {
	tracked *trackedProcess
}

func (g *gopsutilProcess) PID() int32 {
	return g.tracked.proc.Pid
}

func (g *gopsutilProcess) Name(ctx context.Context) (string, error) {
	name, err := g.tracked.proc.NameWithContext(ctx)
	return name, classifyProcessError(err)
}

func (g *gopsutilProcess) CPUPercent(ctx context.Context) (float64, error) {
	percent, err := g.tracked.proc.PercentWithContext(ctx, 0)
	return percent, classifyProcessError(err)
}

func (g *gopsutilProcess) MemoryPercent(ctx context.Context) (float64, error) {
	percent, err := g.tracked.proc.MemoryPercentWithContext(ctx)
	return float64(percent), classifyProcessError(err)
}

// classifyProcessError maps exited/denied errors to ErrProcessGone
func classifyProcessError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrProcessGone, err)
	}
	return err
}
