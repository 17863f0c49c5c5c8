package metrics

import (
	"testing"
	"time"
)

func TestRate_Basic(t *testing.T) {
	t0 := time.Unix(1000, 0)
	got := Rate(0, 10240, t0, t0.Add(2*time.Second))
	if got != 5 {
		t.Errorf("Expected 5 KB/s, got %.2f", got)
	}
}

func TestRate_NonPositiveElapsedTreatedAsOneSecond(t *testing.T) {
	t0 := time.Unix(1000, 0)

	if got := Rate(0, 2048, t0, t0); got != 2 {
		t.Errorf("Zero elapsed: expected 2 KB/s, got %.2f", got)
	}
	if got := Rate(0, 2048, t0, t0.Add(-time.Second)); got != 2 {
		t.Errorf("Negative elapsed: expected 2 KB/s, got %.2f", got)
	}
}

func TestRate_CounterResetIsZero(t *testing.T) {
	t0 := time.Unix(1000, 0)
	if got := Rate(5000, 100, t0, t0.Add(time.Second)); got != 0 {
		t.Errorf("Expected 0 after counter reset, got %.2f", got)
	}
}

func TestRateComputer_Observe(t *testing.T) {
	rc := NewRateComputer()
	t0 := time.Unix(1000, 0)

	up, down, _ := rc.Observe(NetCounters{BytesSent: 1024, BytesRecv: 2048}, t0)
	if up != 0 || down != 0 {
		t.Errorf("First observation should be 0/0, got %.2f/%.2f", up, down)
	}

	up, down, reset := rc.Observe(NetCounters{BytesSent: 3072, BytesRecv: 6144}, t0.Add(time.Second))
	if up != 2 || down != 4 {
		t.Errorf("Expected 2/4 KB/s, got %.2f/%.2f", up, down)
	}
	if reset {
		t.Error("No reset expected")
	}

	up, _, reset = rc.Observe(NetCounters{BytesSent: 10, BytesRecv: 7000}, t0.Add(2*time.Second))
	if up != 0 || !reset {
		t.Errorf("Expected reset with 0 upload, got %.2f reset=%v", up, reset)
	}
}

func TestRateComputer_Prime(t *testing.T) {
	rc := NewRateComputer()
	t0 := time.Unix(1000, 0)
	rc.Prime(NetCounters{BytesSent: 0, BytesRecv: 0}, t0)

	up, down, _ := rc.Observe(NetCounters{BytesSent: 1024, BytesRecv: 1024}, t0.Add(time.Second))
	if up != 1 || down != 1 {
		t.Errorf("Expected 1/1 KB/s after prime, got %.2f/%.2f", up, down)
	}
}
