package metrics

import (
	"math"
	"sort"
	"sync"
)

// HistoryBuffer stores the last N values of one chart series using a ring
// buffer for O(1) insert. It starts full of zeros so charts always have N
// points to draw.
type HistoryBuffer struct {
	values []float64
	max    int // Capacity
	head   int // Index of oldest element
	mutex  sync.RWMutex
}

// SeriesStatistics holds statistical analysis of one series
type SeriesStatistics struct {
	Current float64 // Newest value
	Min     float64
	Max     float64
	Avg     float64
	P50     float64 // Median
	P95     float64
	StdDev  float64
}

// NewHistoryBuffer creates a zero-filled buffer of the given capacity
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &HistoryBuffer{
		values: make([]float64, capacity),
		max:    capacity,
	}
}

// Capacity returns the fixed series length
func (hb *HistoryBuffer) Capacity() int {
	return hb.max
}

// Push appends a value and evicts the oldest one
func (hb *HistoryBuffer) Push(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}

	hb.mutex.Lock()
	defer hb.mutex.Unlock()

	// Buffer is always full: overwrite oldest, move head forward
	hb.values[hb.head] = value
	hb.head = (hb.head + 1) % hb.max
}

// PushOptional appends v, or 0 when the reading is absent
func (hb *HistoryBuffer) PushOptional(v *float64) {
	if v == nil {
		hb.Push(0)
		return
	}
	hb.Push(*v)
}

// Snapshot returns a copy of the series, oldest to newest
func (hb *HistoryBuffer) Snapshot() []float64 {
	hb.mutex.RLock()
	defer hb.mutex.RUnlock()
	return hb.orderedValues()
}

// Latest returns the newest value
func (hb *HistoryBuffer) Latest() float64 {
	hb.mutex.RLock()
	defer hb.mutex.RUnlock()
	return hb.values[(hb.head+hb.max-1)%hb.max]
}

// Statistics calculates min/max/avg/percentiles over the whole window
func (hb *HistoryBuffer) Statistics() SeriesStatistics {
	hb.mutex.RLock()
	values := hb.orderedValues()
	hb.mutex.RUnlock()

	return computeStatistics(values)
}

// orderedValues returns ring buffer values in order (oldest to newest)
func (hb *HistoryBuffer) orderedValues() []float64 {
	result := make([]float64, hb.max)
	for i := 0; i < hb.max; i++ {
		result[i] = hb.values[(hb.head+i)%hb.max]
	}
	return result
}

func computeStatistics(values []float64) SeriesStatistics {
	if len(values) == 0 {
		return SeriesStatistics{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return SeriesStatistics{
		Current: values[len(values)-1],
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Avg:     average(values),
		P50:     percentile(sorted, 50),
		P95:     percentile(sorted, 95),
		StdDev:  stdDev(values),
	}
}

// Helper functions for statistics

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func percentile(sortedValues []float64, p int) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	index := int(float64(len(sortedValues)-1) * float64(p) / 100.0)
	if index >= len(sortedValues) {
		index = len(sortedValues) - 1
	}
	return sortedValues[index]
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	avg := average(values)
	variance := 0.0

	for _, v := range values {
		diff := v - avg
		variance += diff * diff
	}

	variance /= float64(len(values))
	return math.Sqrt(variance)
}
