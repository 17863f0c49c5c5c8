package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestProcessRanker_NormalizesByLogicalCores(t *testing.T) {
	s := newFakeSampler()
	s.procs = []ProcessHandle{
		&fakeProcess{pid: 2, name: "worker", cpu: 50},
		&fakeProcess{pid: 1, name: "compiler", cpu: 150},
	}

	got, err := NewProcessRanker(s, 2, nil).Top(context.Background(), 7, SortByCPU, true)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 processes, got %d", len(got))
	}
	if got[0].PID != 1 || got[0].CPUPercent != 75 {
		t.Errorf("Expected pid 1 at 75%%, got pid %d at %.1f%%", got[0].PID, got[0].CPUPercent)
	}
	if got[1].PID != 2 || got[1].CPUPercent != 25 {
		t.Errorf("Expected pid 2 at 25%%, got pid %d at %.1f%%", got[1].PID, got[1].CPUPercent)
	}
}

func TestProcessRanker_RawCPUWithoutNormalization(t *testing.T) {
	s := newFakeSampler()
	s.procs = []ProcessHandle{&fakeProcess{pid: 1, name: "compiler", cpu: 150}}

	got, _ := NewProcessRanker(s, 2, nil).Top(context.Background(), 7, SortByCPU, false)

	if got[0].CPUPercent != 150 {
		t.Errorf("Raw CPU should be preserved, got %.1f", got[0].CPUPercent)
	}
}

func TestProcessRanker_NormalizedValueClampedTo100(t *testing.T) {
	s := newFakeSampler()
	s.procs = []ProcessHandle{&fakeProcess{pid: 1, name: "spin", cpu: 450}}

	got, _ := NewProcessRanker(s, 4, nil).Top(context.Background(), 7, SortByCPU, true)

	if got[0].CPUPercent != 100 {
		t.Errorf("Expected clamp at 100, got %.1f", got[0].CPUPercent)
	}
}

func TestProcessRanker_SkipsGoneAndDefaultsMissing(t *testing.T) {
	s := newFakeSampler()
	s.procs = []ProcessHandle{
		&fakeProcess{pid: 10, name: "exited", cpuErr: fmt.Errorf("%w: no such process", ErrProcessGone)},
		&fakeProcess{pid: 11, nameErr: errors.New("zombie name"), cpu: 5, mem: 1},
		&fakeProcess{pid: 12, name: "root-owned", memErr: fmt.Errorf("%w: permission denied", ErrProcessGone)},
		&fakeProcess{pid: 13, name: "", cpu: 3, memErr: errors.New("io glitch")},
	}

	got, err := NewProcessRanker(s, 1, nil).Top(context.Background(), 0, SortByCPU, false)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 surviving processes, got %d: %+v", len(got), got)
	}
	if got[0].PID != 11 || got[0].Name != "Unknown" {
		t.Errorf("Expected pid 11 named Unknown, got %+v", got[0])
	}
	if got[1].PID != 13 || got[1].Name != "Unknown" || got[1].MemoryPercent != 0 {
		t.Errorf("Expected pid 13 with defaults, got %+v", got[1])
	}
}

func TestProcessRanker_SortByMemoryAndLimit(t *testing.T) {
	s := newFakeSampler()
	for i := 1; i <= 10; i++ {
		s.procs = append(s.procs, &fakeProcess{pid: int32(i), name: "p", mem: float64(i)})
	}

	got, _ := NewProcessRanker(s, 4, nil).Top(context.Background(), 3, SortByMemory, true)

	if len(got) != 3 {
		t.Fatalf("Expected 3 processes, got %d", len(got))
	}
	for i, want := range []int32{10, 9, 8} {
		if got[i].PID != want {
			t.Errorf("Position %d: expected pid %d, got %d", i, want, got[i].PID)
		}
	}
}

func TestProcessRanker_FewerThanLimit(t *testing.T) {
	s := newFakeSampler()
	s.procs = []ProcessHandle{&fakeProcess{pid: 1, name: "init"}}

	got, _ := NewProcessRanker(s, 4, nil).Top(context.Background(), 7, SortByCPU, true)

	if len(got) != 1 {
		t.Errorf("Expected all 1 process, got %d", len(got))
	}
}

func TestProcessRanker_TiesKeepEnumerationOrder(t *testing.T) {
	s := newFakeSampler()
	s.procs = []ProcessHandle{
		&fakeProcess{pid: 5, name: "a", cpu: 10},
		&fakeProcess{pid: 3, name: "b", cpu: 10},
		&fakeProcess{pid: 9, name: "c", cpu: 10},
	}

	got, _ := NewProcessRanker(s, 1, nil).Top(context.Background(), 0, SortByCPU, false)

	for i, want := range []int32{5, 3, 9} {
		if got[i].PID != want {
			t.Errorf("Position %d: expected pid %d, got %d", i, want, got[i].PID)
		}
	}
}

func TestProcessRanker_EnumerationFailure(t *testing.T) {
	s := newFakeSampler()
	s.procsErr = errSensor

	if _, err := NewProcessRanker(s, 1, nil).Top(context.Background(), 7, SortByCPU, true); !errors.Is(err, errSensor) {
		t.Errorf("Expected wrapped enumeration error, got %v", err)
	}
}

func TestParseSortKey(t *testing.T) {
	if ParseSortKey("memory") != SortByMemory {
		t.Error("Expected memory")
	}
	if ParseSortKey("pid") != SortByCPU {
		t.Error("Unknown keys should default to cpu")
	}
}
