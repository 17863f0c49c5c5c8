package metrics

import (
	"math"
	"testing"
	"time"
)

func TestHistoryBuffer_StartsZeroFilled(t *testing.T) {
	buffer := NewHistoryBuffer(30)

	snap := buffer.Snapshot()
	if len(snap) != 30 {
		t.Fatalf("Expected length 30, got %d", len(snap))
	}
	for i, v := range snap {
		if v != 0 {
			t.Errorf("Expected zero at %d, got %.1f", i, v)
		}
	}
}

func TestHistoryBuffer_PushEvictsOldest(t *testing.T) {
	buffer := NewHistoryBuffer(3)

	buffer.Push(10.0)
	buffer.Push(20.0)
	buffer.Push(30.0)
	buffer.Push(40.0) // Should evict 10.0

	snap := buffer.Snapshot()
	want := []float64{20, 30, 40}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, snap)
			break
		}
	}
	if buffer.Latest() != 40 {
		t.Errorf("Expected latest 40, got %.1f", buffer.Latest())
	}
}

func TestHistoryBuffer_PartialFill(t *testing.T) {
	buffer := NewHistoryBuffer(4)
	buffer.Push(5)

	snap := buffer.Snapshot()
	want := []float64{0, 0, 0, 5}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, snap)
			break
		}
	}
}

func TestHistoryBuffer_SnapshotIsCopy(t *testing.T) {
	buffer := NewHistoryBuffer(2)
	buffer.Push(1)

	snap := buffer.Snapshot()
	snap[1] = 99

	if buffer.Latest() != 1 {
		t.Error("Mutating a snapshot must not change the buffer")
	}
}

func TestHistoryBuffer_AbsentAndInvalidValues(t *testing.T) {
	buffer := NewHistoryBuffer(3)

	temp := 55.0
	buffer.PushOptional(&temp)
	buffer.PushOptional(nil)
	buffer.Push(math.NaN())

	snap := buffer.Snapshot()
	if snap[0] != 55 || snap[1] != 0 || snap[2] != 0 {
		t.Errorf("Expected [55 0 0], got %v", snap)
	}
}

func TestHistoryBuffer_Statistics(t *testing.T) {
	buffer := NewHistoryBuffer(100)

	for i := 1; i <= 100; i++ {
		buffer.Push(float64(i))
	}

	stats := buffer.Statistics()

	if stats.Min != 1 || stats.Max != 100 {
		t.Errorf("Expected min 1 max 100, got %.1f/%.1f", stats.Min, stats.Max)
	}
	if math.Abs(stats.Avg-50.5) > 0.01 {
		t.Errorf("Expected Avg≈50.5, got %.2f", stats.Avg)
	}
	if stats.P50 < 49 || stats.P50 > 51 {
		t.Errorf("Expected P50≈50, got %.1f", stats.P50)
	}
	if stats.P95 < 94 || stats.P95 > 96 {
		t.Errorf("Expected P95≈95, got %.1f", stats.P95)
	}
	if stats.Current != 100 {
		t.Errorf("Expected current 100, got %.1f", stats.Current)
	}
}

func TestHistoryBuffer_ConcurrentAccess(t *testing.T) {
	buffer := NewHistoryBuffer(30)

	done := make(chan bool)

	// Writer goroutine
	go func() {
		for i := 0; i < 100; i++ {
			buffer.Push(float64(i))
			time.Sleep(100 * time.Microsecond)
		}
		done <- true
	}()

	// Reader goroutine
	go func() {
		for i := 0; i < 100; i++ {
			if len(buffer.Snapshot()) != 30 {
				t.Error("Snapshot length must stay constant")
			}
			time.Sleep(100 * time.Microsecond)
		}
		done <- true
	}()

	<-done
	<-done

	if buffer.Latest() != 99 {
		t.Errorf("Expected latest 99, got %.1f", buffer.Latest())
	}
}
