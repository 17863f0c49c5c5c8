package metrics

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeSampler is a scripted Sampler for tests
type fakeSampler struct {
	mu sync.Mutex

	cpu        []float64 // consumed one per call, last value repeats
	cpuCalls   int
	info       CPUInfo
	memory     MemoryReading
	memoryErr  error
	disk       DiskReading
	diskErr    error
	diskCalls  int
	net        NetCounters
	netStep    uint64 // added to both counters on every call
	battery    *BatteryReading
	batteryErr error
	temps      []TemperatureReading
	tempsErr   error
	boot       time.Time
	procs      []ProcessHandle
	procsErr   error
	panicOn    string
}

func newFakeSampler() *fakeSampler {
	return &fakeSampler{
		cpu:    []float64{25},
		info:   CPUInfo{Cores: 2, LogicalCores: 4, FrequencyMHz: 2400},
		memory: MemoryReading{Percent: 40, Used: 4 << 30, Total: 10 << 30, Available: 6 << 30},
		disk:   DiskReading{Percent: 55, Used: 55 << 30, Total: 100 << 30},
		boot:   time.Unix(0, 0),
	}
}

func (f *fakeSampler) CPUPercent(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "cpu" {
		panic("cpu sensor exploded")
	}
	idx := f.cpuCalls
	if idx >= len(f.cpu) {
		idx = len(f.cpu) - 1
	}
	f.cpuCalls++
	return f.cpu[idx], nil
}

func (f *fakeSampler) CPUInfo(ctx context.Context) (CPUInfo, error) {
	return f.info, nil
}

func (f *fakeSampler) Memory(ctx context.Context) (MemoryReading, error) {
	return f.memory, f.memoryErr
}

func (f *fakeSampler) Disk(ctx context.Context, path string) (DiskReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diskCalls++
	return f.disk, f.diskErr
}

func (f *fakeSampler) NetCounters(ctx context.Context) (NetCounters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.net.BytesSent += f.netStep
	f.net.BytesRecv += f.netStep * 2
	return f.net, nil
}

func (f *fakeSampler) Battery(ctx context.Context) (*BatteryReading, error) {
	return f.battery, f.batteryErr
}

func (f *fakeSampler) Temperatures(ctx context.Context) ([]TemperatureReading, error) {
	return f.temps, f.tempsErr
}

func (f *fakeSampler) BootTime(ctx context.Context) (time.Time, error) {
	return f.boot, nil
}

func (f *fakeSampler) Processes(ctx context.Context) ([]ProcessHandle, error) {
	return f.procs, f.procsErr
}

// fakeProcess is a scripted ProcessHandle
type fakeProcess struct {
	pid     int32
	name    string
	nameErr error
	cpu     float64
	cpuErr  error
	mem     float64
	memErr  error
}

func (p *fakeProcess) PID() int32 { return p.pid }

func (p *fakeProcess) Name(ctx context.Context) (string, error) {
	return p.name, p.nameErr
}

func (p *fakeProcess) CPUPercent(ctx context.Context) (float64, error) {
	return p.cpu, p.cpuErr
}

func (p *fakeProcess) MemoryPercent(ctx context.Context) (float64, error) {
	return p.mem, p.memErr
}

var errSensor = errors.New("sensor read failed")
