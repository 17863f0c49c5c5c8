// Package export writes on-demand snapshots of the latest tick to disk.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	constants "taskly/config"
	"taskly/internal/encoding"
	"taskly/internal/logger"
	"taskly/internal/monitor"
	"taskly/internal/telemetry"
	"taskly/pkg/utils"
)

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatCBOR Format = "cbor"
	FormatProm Format = "prom"
)

// Formats lists every supported format
var Formats = []Format{FormatJSON, FormatCSV, FormatCBOR, FormatProm}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (expected json, csv, cbor or prom)", s)
}

// Exporter writes export files into one directory
type Exporter struct {
	dir string
	log *logger.Logger
	now func() time.Time
}

// NewExporter creates an exporter writing to dir
func NewExporter(dir string, log *logger.Logger) *Exporter {
	if dir == "" {
		dir = constants.DEFAULT_EXPORT_DIR
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Exporter{dir: dir, log: log, now: time.Now}
}

// Dir returns the export directory
func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes state in the given format and returns the file path
func (e *Exporter) Export(state *monitor.State, format Format) (string, error) {
	if state == nil {
		return "", fmt.Errorf("no data collected yet")
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, e.fileName(format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if err := e.write(f, state, format); err != nil {
		f.Close()
		os.Remove(path)
		e.log.Error("Export to %s failed: %v", format, err)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	e.log.Info("Metrics exported to %s", path)
	return path, nil
}

func (e *Exporter) fileName(format Format) string {
	return constants.EXPORT_FILE_PREFIX + e.now().Format(constants.EXPORT_TIME_LAYOUT) + "." + string(format)
}

func (e *Exporter) write(w io.Writer, state *monitor.State, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(state, e.now()))
	case FormatCBOR:
		return encoding.WriteCBOR(w, NewDocument(state, e.now()))
	case FormatCSV:
		return WriteCSV(w, state, e.now())
	case FormatProm:
		return telemetry.WriteText(w, telemetry.SnapshotRegistry(fixedSource{state}, nil))
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

type fixedSource struct {
	state *monitor.State
}

func (s fixedSource) Latest() *monitor.State { return s.state }

// History returns the newest export files first, at most limit of them
func (e *Exporter) History(limit int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(e.dir, constants.EXPORT_FILE_PREFIX+"*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	type entry struct {
		path    string
		modTime time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: m, modTime: info.ModTime()})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].modTime.After(entries[j].modTime)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	paths := make([]string, len(entries))
	for i, en := range entries {
		paths[i] = en.path
	}
	return paths, nil
}

// WriteCSV writes the sectioned CSV layout
func WriteCSV(w io.Writer, state *monitor.State, now time.Time) error {
	snap := state.Snapshot
	cw := csv.NewWriter(w)

	battery := "N/A"
	if snap.Battery.Percent != nil {
		battery = fmt.Sprintf("%.0f", *snap.Battery.Percent)
	}
	timeLeft := "N/A"
	if snap.Battery.SecondsLeft != nil && *snap.Battery.SecondsLeft > 0 {
		timeLeft = fmt.Sprintf("%d min", *snap.Battery.SecondsLeft/60)
	}
	plugged := "No"
	if snap.Battery.Plugged {
		plugged = "Yes"
	}
	temperature := "N/A"
	if snap.CPU.TemperatureC != nil {
		temperature = fmt.Sprintf("%.1f", *snap.CPU.TemperatureC)
	}

	rows := [][]string{
		{"Timestamp", now.Format(time.RFC3339)},
		{},
		{"CPU Metrics"},
		{"Usage %", "Cores", "Frequency MHz", "Temperature C"},
		{fmt.Sprintf("%.1f", snap.CPU.Percent), fmt.Sprint(snap.CPU.LogicalCores), fmt.Sprintf("%.0f", snap.CPU.FrequencyMHz), temperature},
		{},
		{"Memory Metrics"},
		{"Usage %", "Used GB", "Total GB", "Available GB"},
		{
			fmt.Sprintf("%.1f", snap.Memory.Percent),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Memory.UsedBytes)),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Memory.TotalBytes)),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Memory.AvailableBytes)),
		},
		{},
		{"Disk Metrics"},
		{"Usage %", "Used GB", "Total GB"},
		{
			fmt.Sprintf("%.1f", snap.Disk.Percent),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Disk.UsedBytes)),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Disk.TotalBytes)),
		},
		{},
		{"Network Metrics"},
		{"Upload KB/s", "Download KB/s", "Total Sent GB", "Total Received GB"},
		{
			fmt.Sprintf("%.2f", snap.Network.UploadKBps),
			fmt.Sprintf("%.2f", snap.Network.DownloadKBps),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Network.TotalSentBytes)),
			fmt.Sprintf("%.2f", utils.BytesToGB(snap.Network.TotalRecvBytes)),
		},
		{},
		{"Battery Metrics"},
		{"Level %", "Plugged", "Time Left"},
		{battery, plugged, timeLeft},
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
