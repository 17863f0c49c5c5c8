package metrics

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	constants "taskly/config"
	"taskly/internal/logger"
	"taskly/pkg/utils"
)

const (
	cacheKeyDisk    = "disk"
	cacheKeyBattery = "battery"
)

// AggregatorOptions configures an Aggregator
type AggregatorOptions struct {
	HistorySize int
	CacheTTL    time.Duration
	DiskPath    string
}

// Aggregator turns raw Sampler readings into one Snapshot per tick. It owns
// the history buffers, the network rate state and the disk/battery caches;
// none of them are shared with readers.
type Aggregator struct {
	sampler Sampler
	log     *logger.Logger
	opts    AggregatorOptions
	now     func() time.Time

	cpuHistory     *HistoryBuffer
	ramHistory     *HistoryBuffer
	netHistory     *HistoryBuffer
	netDownHistory *HistoryBuffer
	netUpHistory   *HistoryBuffer
	tempHistory    *HistoryBuffer

	rates        *RateComputer
	diskCache    *TTLCache[DiskReading]
	batteryCache *TTLCache[*BatteryReading]

	bootOnce sync.Once
	bootTime time.Time

	infoOnce sync.Once
	cpuInfo  CPUInfo
}

// NewAggregator creates an aggregator. It primes the network counters and
// the CPU percent baseline so the first tick reports real deltas.
func NewAggregator(ctx context.Context, sampler Sampler, opts AggregatorOptions, log *logger.Logger) *Aggregator {
	return newAggregator(ctx, sampler, opts, log, time.Now)
}

func newAggregator(ctx context.Context, sampler Sampler, opts AggregatorOptions, log *logger.Logger, now func() time.Time) *Aggregator {
	if opts.HistorySize <= 0 {
		opts.HistorySize = constants.DEFAULT_HISTORY_SIZE
	}
	if opts.DiskPath == "" {
		opts.DiskPath = constants.DEFAULT_DISK_PATH
	}
	if log == nil {
		log = logger.Discard()
	}

	a := &Aggregator{
		sampler:        sampler,
		log:            log,
		opts:           opts,
		now:            now,
		cpuHistory:     NewHistoryBuffer(opts.HistorySize),
		ramHistory:     NewHistoryBuffer(opts.HistorySize),
		netHistory:     NewHistoryBuffer(opts.HistorySize),
		netDownHistory: NewHistoryBuffer(opts.HistorySize),
		netUpHistory:   NewHistoryBuffer(opts.HistorySize),
		tempHistory:    NewHistoryBuffer(opts.HistorySize),
		rates:          NewRateComputer(),
		diskCache:      newTTLCacheWithClock[DiskReading](now),
		batteryCache:   newTTLCacheWithClock[*BatteryReading](now),
	}

	if counters, err := sampler.NetCounters(ctx); err == nil {
		a.rates.Prime(counters, a.now())
	}
	sampler.CPUPercent(ctx)

	return a
}

// HistorySize returns the length of every chart series
func (a *Aggregator) HistorySize() int {
	return a.opts.HistorySize
}

// Collect samples every metric family and returns a snapshot. A failing
// family degrades to zero or nil and is logged; a panic anywhere yields
// DefaultSnapshot for this tick.
func (a *Aggregator) Collect(ctx context.Context) (snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Collect panicked: %v\n%s", r, debug.Stack())
			snap = DefaultSnapshot(a.opts.HistorySize)
			snap.Timestamp = a.now()
		}
	}()

	now := a.now()
	snap.Timestamp = now

	snap.CPU = a.collectCPU(ctx)
	a.cpuHistory.Push(snap.CPU.Percent)

	snap.Memory = a.collectMemory(ctx)
	a.ramHistory.Push(snap.Memory.Percent)

	snap.Disk = a.collectDisk(ctx)

	snap.Network = a.collectNetwork(ctx, now)
	combined := math.Min((snap.Network.UploadKBps+snap.Network.DownloadKBps)/constants.NET_CHART_DIVISOR, 100)
	a.netHistory.Push(combined)
	a.netDownHistory.Push(snap.Network.DownloadKBps)
	a.netUpHistory.Push(snap.Network.UploadKBps)

	snap.Battery = a.collectBattery(ctx)

	snap.CPU.TemperatureC = a.collectTemperature(ctx)
	a.tempHistory.PushOptional(snap.CPU.TemperatureC)

	snap.System = a.collectSystem(ctx, now)
	snap.History = a.history()

	return snap
}

func (a *Aggregator) collectCPU(ctx context.Context) CPU {
	var c CPU

	percent, err := a.sampler.CPUPercent(ctx)
	if err != nil {
		a.log.Warning("CPU sampling failed: %v", err)
	}
	c.Percent = utils.ClampPercent(percent)

	a.infoOnce.Do(func() {
		info, err := a.sampler.CPUInfo(ctx)
		if err != nil {
			a.log.Warning("CPU info failed: %v", err)
		}
		a.cpuInfo = info
	})
	c.Cores = a.cpuInfo.Cores
	c.LogicalCores = a.cpuInfo.LogicalCores
	c.FrequencyMHz = a.cpuInfo.FrequencyMHz

	return c
}

func (a *Aggregator) collectMemory(ctx context.Context) Memory {
	reading, err := a.sampler.Memory(ctx)
	if err != nil {
		a.log.Warning("Memory sampling failed: %v", err)
		return Memory{}
	}
	return Memory{
		Percent:        utils.ClampPercent(reading.Percent),
		UsedBytes:      reading.Used,
		TotalBytes:     reading.Total,
		AvailableBytes: reading.Available,
	}
}

func (a *Aggregator) collectDisk(ctx context.Context) Disk {
	reading, err := a.diskCache.GetOrRefresh(cacheKeyDisk, a.opts.CacheTTL, func() (DiskReading, error) {
		return a.sampler.Disk(ctx, a.opts.DiskPath)
	})
	if err != nil {
		a.log.Warning("Disk sampling failed: %v", err)
		return Disk{Path: a.opts.DiskPath}
	}
	return Disk{
		Path:       a.opts.DiskPath,
		Percent:    utils.ClampPercent(reading.Percent),
		UsedBytes:  reading.Used,
		TotalBytes: reading.Total,
	}
}

func (a *Aggregator) collectNetwork(ctx context.Context, now time.Time) Network {
	counters, err := a.sampler.NetCounters(ctx)
	if err != nil {
		a.log.Warning("Network sampling failed: %v", err)
		return Network{}
	}

	up, down, reset := a.rates.Observe(counters, now)
	if reset {
		a.log.Debug("Network counters went backwards (sent=%d recv=%d), rate floored at 0",
			counters.BytesSent, counters.BytesRecv)
	}

	return Network{
		UploadKBps:     up,
		DownloadKBps:   down,
		TotalSentBytes: counters.BytesSent,
		TotalRecvBytes: counters.BytesRecv,
	}
}

func (a *Aggregator) collectBattery(ctx context.Context) Battery {
	reading, err := a.batteryCache.GetOrRefresh(cacheKeyBattery, a.opts.CacheTTL, func() (*BatteryReading, error) {
		return a.sampler.Battery(ctx)
	})
	if err != nil {
		a.log.Warning("Battery sampling failed: %v", err)
		return Battery{}
	}
	if reading == nil {
		return Battery{}
	}

	percent := utils.ClampPercent(reading.Percent)
	return Battery{
		Percent:     &percent,
		Plugged:     reading.Plugged,
		SecondsLeft: reading.SecondsLeft,
	}
}

func (a *Aggregator) collectTemperature(ctx context.Context) *float64 {
	readings, err := a.sampler.Temperatures(ctx)
	if err != nil {
		a.log.Debug("Temperature sampling failed: %v", err)
		return nil
	}
	return pickTemperature(readings)
}

func (a *Aggregator) collectSystem(ctx context.Context, now time.Time) System {
	a.bootOnce.Do(func() {
		boot, err := a.sampler.BootTime(ctx)
		if err != nil {
			a.log.Warning("Boot time unavailable: %v", err)
			return
		}
		a.bootTime = boot
	})

	if a.bootTime.IsZero() {
		return System{}
	}

	uptime := int64(now.Sub(a.bootTime).Seconds())
	if uptime < 0 {
		uptime = 0
	}
	return System{UptimeSeconds: uptime, BootTime: a.bootTime}
}

func (a *Aggregator) history() History {
	return History{
		CPU:         a.cpuHistory.Snapshot(),
		RAM:         a.ramHistory.Snapshot(),
		Net:         a.netHistory.Snapshot(),
		NetDown:     a.netDownHistory.Snapshot(),
		NetUp:       a.netUpHistory.Snapshot(),
		Temperature: a.tempHistory.Snapshot(),
	}
}

// DefaultSnapshot is the all-zero snapshot used when a tick fails outright
func DefaultSnapshot(historySize int) Snapshot {
	zeros := func() []float64 { return make([]float64, historySize) }
	return Snapshot{
		History: History{
			CPU:         zeros(),
			RAM:         zeros(),
			Net:         zeros(),
			NetDown:     zeros(),
			NetUp:       zeros(),
			Temperature: zeros(),
		},
	}
}

// String renders a one-line summary for logs
func (s Snapshot) String() string {
	temp := "n/a"
	if s.CPU.TemperatureC != nil {
		temp = fmt.Sprintf("%.1f°C", *s.CPU.TemperatureC)
	}
	return fmt.Sprintf("cpu=%.1f%% ram=%.1f%% disk=%.1f%% up=%.1fKB/s down=%.1fKB/s temp=%s",
		s.CPU.Percent, s.Memory.Percent, s.Disk.Percent, s.Network.UploadKBps, s.Network.DownloadKBps, temp)
}
