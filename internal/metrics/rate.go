package metrics

import (
	"sync"
	"time"
)

// Rate converts two cumulative byte counters into KB/s. A non-positive
// interval is treated as one second. A counter that went backwards (interface
// reset or wrap) yields 0.
func Rate(prev, curr uint64, prevT, currT time.Time) float64 {
	elapsed := currT.Sub(prevT).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	if curr < prev {
		return 0
	}
	return float64(curr-prev) / elapsed / 1024
}

// RateComputer keeps the previous network counters between ticks
type RateComputer struct {
	prev   NetCounters
	prevT  time.Time
	primed bool
	mutex  sync.Mutex
}

// NewRateComputer creates an unprimed computer; the first Observe returns 0/0
func NewRateComputer() *RateComputer {
	return &RateComputer{}
}

// Prime seeds the previous counters without producing a rate
func (rc *RateComputer) Prime(counters NetCounters, at time.Time) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.prev, rc.prevT, rc.primed = counters, at, true
}

// Observe returns upload and download KB/s since the previous observation and
// stores the new counters. reset reports a counter that went backwards.
func (rc *RateComputer) Observe(counters NetCounters, at time.Time) (upKBps, downKBps float64, reset bool) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if rc.primed {
		upKBps = Rate(rc.prev.BytesSent, counters.BytesSent, rc.prevT, at)
		downKBps = Rate(rc.prev.BytesRecv, counters.BytesRecv, rc.prevT, at)
		reset = counters.BytesSent < rc.prev.BytesSent || counters.BytesRecv < rc.prev.BytesRecv
	}

	rc.prev, rc.prevT, rc.primed = counters, at, true
	return upKBps, downKBps, reset
}
