package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatUptime(t *testing.T) {
	cases := map[int64]string{
		0:      "0m",
		59:     "0m",
		125:    "2m",
		3725:   "1h 2m",
		90061:  "1d 1h",
		-10:    "0m",
		172800: "2d 0h",
	}
	for in, want := range cases {
		if got := FormatUptime(in); got != want {
			t.Errorf("FormatUptime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(512); got != "512 B" {
		t.Errorf("Expected '512 B', got %q", got)
	}
	if got := FormatBytes(1536); got != "1.5 KB" {
		t.Errorf("Expected '1.5 KB', got %q", got)
	}
	if got := FormatBytes(8 * 1024 * 1024 * 1024); got != "8.0 GB" {
		t.Errorf("Expected '8.0 GB', got %q", got)
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(12.34); got != "12.3 KB/s" {
		t.Errorf("Expected '12.3 KB/s', got %q", got)
	}
	if got := FormatRate(2048); got != "2.0 MB/s" {
		t.Errorf("Expected '2.0 MB/s', got %q", got)
	}
}

func TestClampPercent(t *testing.T) {
	if ClampPercent(-3) != 0 {
		t.Error("Negative values should clamp to 0")
	}
	if ClampPercent(150) != 100 {
		t.Error("Values above 100 should clamp to 100")
	}
	if ClampPercent(math.NaN()) != 0 {
		t.Error("NaN should clamp to 0")
	}
	if ClampPercent(42.5) != 42.5 {
		t.Error("In-range values should pass through")
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("firefox", 20); got != "firefox" {
		t.Errorf("Short strings should be unchanged, got %q", got)
	}
	if got := TruncateString("very-long-process-name", 10); got != "very-lo..." {
		t.Errorf("Expected 'very-lo...', got %q", got)
	}
}

func TestBytesToGB(t *testing.T) {
	if got := BytesToGB(16 * 1024 * 1024 * 1024); got != 16 {
		t.Errorf("Expected 16, got %v", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/.taskly_config.json"); got != filepath.Join(home, ".taskly_config.json") {
		t.Errorf("Unexpected expansion %q", got)
	}
	if got := ExpandHome("/etc/taskly.json"); got != "/etc/taskly.json" {
		t.Errorf("Absolute paths should be unchanged, got %q", got)
	}
}
