package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"taskly/internal/logger"
	"taskly/pkg/utils"
)

// ProcessRanker lists processes and returns the heaviest ones
type ProcessRanker struct {
	sampler      Sampler
	logicalCores int
	log          *logger.Logger
}

// NewProcessRanker creates a ranker. logicalCores is used for CPU
// normalization; values below 1 disable it.
func NewProcessRanker(sampler Sampler, logicalCores int, log *logger.Logger) *ProcessRanker {
	if log == nil {
		log = logger.Discard()
	}
	return &ProcessRanker{sampler: sampler, logicalCores: logicalCores, log: log}
}

// Top returns up to limit processes sorted descending by key. Processes that
// exit or deny access mid-enumeration are skipped; other read failures fall
// back to 0 / "Unknown". A limit of zero or less returns every process.
func (r *ProcessRanker) Top(ctx context.Context, limit int, key SortKey, normalize bool) ([]ProcessSample, error) {
	handles, err := r.sampler.Processes(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	samples := make([]ProcessSample, 0, len(handles))
	skipped := 0

	for _, h := range handles {
		sample, ok := r.read(ctx, h, normalize)
		if !ok {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}

	if skipped > 0 {
		r.log.Debug("Skipped %d processes that exited or denied access", skipped)
	}

	SortProcesses(samples, key)

	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	return samples, nil
}

func (r *ProcessRanker) read(ctx context.Context, h ProcessHandle, normalize bool) (ProcessSample, bool) {
	sample := ProcessSample{PID: h.PID(), Name: "Unknown"}

	name, err := h.Name(ctx)
	if errors.Is(err, ErrProcessGone) {
		return sample, false
	}
	if err == nil && name != "" {
		sample.Name = name
	}

	cpuPercent, err := h.CPUPercent(ctx)
	if errors.Is(err, ErrProcessGone) {
		return sample, false
	}
	if err == nil {
		sample.CPUPercent = cpuPercent
	}

	memPercent, err := h.MemoryPercent(ctx)
	if errors.Is(err, ErrProcessGone) {
		return sample, false
	}
	if err == nil {
		sample.MemoryPercent = memPercent
	}

	if normalize && r.logicalCores > 0 && sample.CPUPercent > 0 {
		sample.CPUPercent = sample.CPUPercent / float64(r.logicalCores)
	}
	if normalize {
		sample.CPUPercent = utils.ClampPercent(sample.CPUPercent)
	}

	return sample, true
}

// SortProcesses orders samples descending by key. Ties keep their current
// order.
func SortProcesses(samples []ProcessSample, key SortKey) {
	sort.SliceStable(samples, func(i, j int) bool {
		if key == SortByMemory {
			return samples[i].MemoryPercent > samples[j].MemoryPercent
		}
		return samples[i].CPUPercent > samples[j].CPUPercent
	})
}
