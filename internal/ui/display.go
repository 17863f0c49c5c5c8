package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/metrics"
	"taskly/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values on a 0..max scale, one rune per point. A max of
// zero or less scales to the largest value in the series.
func Sparkline(values []float64, max float64) string {
	if len(values) == 0 {
		return ""
	}
	if max <= 0 {
		for _, v := range values {
			if v > max {
				max = v
			}
		}
	}

	var b strings.Builder
	for _, v := range values {
		if max <= 0 || math.IsNaN(v) || v <= 0 {
			b.WriteRune(sparkRunes[0])
			continue
		}
		idx := int(v / max * float64(len(sparkRunes)-1))
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

func card(title string, lines ...string) string {
	return CardStyle.Render(CardTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

func percentLine(percent float64) string {
	return RenderProgressBar(percent, 16) + " " + levelStyle(percent).Render(utils.FormatPercentage(percent))
}

// RenderCards lays out one card per metric family
func RenderCards(snap metrics.Snapshot, l Labels) string {
	temp := l.NoSensor
	if snap.CPU.TemperatureC != nil {
		temp = fmt.Sprintf("%.1f°C", *snap.CPU.TemperatureC)
	}

	cpu := card(l.CPU,
		percentLine(snap.CPU.Percent),
		GrayStyle.Render(fmt.Sprintf("%s: %d  %s: %.0f MHz", l.Cores, snap.CPU.LogicalCores, l.Frequency, snap.CPU.FrequencyMHz)),
		GrayStyle.Render(l.Temperature+": "+temp),
		PrimaryStyle.Render(Sparkline(snap.History.CPU, 100)),
	)

	mem := card(l.Memory,
		percentLine(snap.Memory.Percent),
		GrayStyle.Render(fmt.Sprintf("%s: %s / %s", l.Used, utils.FormatBytes(snap.Memory.UsedBytes), utils.FormatBytes(snap.Memory.TotalBytes))),
		GrayStyle.Render(l.Available+": "+utils.FormatBytes(snap.Memory.AvailableBytes)),
		PrimaryStyle.Render(Sparkline(snap.History.RAM, 100)),
	)

	disk := card(l.Disk+" "+snap.Disk.Path,
		percentLine(snap.Disk.Percent),
		GrayStyle.Render(fmt.Sprintf("%s: %s / %s", l.Used, utils.FormatBytes(snap.Disk.UsedBytes), utils.FormatBytes(snap.Disk.TotalBytes))),
	)

	network := card(l.Network,
		GrayStyle.Render(fmt.Sprintf("%s %s  %s %s", IconArrow, utils.FormatRate(snap.Network.UploadKBps), "←", utils.FormatRate(snap.Network.DownloadKBps))),
		GrayStyle.Render(fmt.Sprintf("%s: %s", l.Upload, utils.FormatBytes(snap.Network.TotalSentBytes))),
		GrayStyle.Render(fmt.Sprintf("%s: %s", l.Download, utils.FormatBytes(snap.Network.TotalRecvBytes))),
		PrimaryStyle.Render(Sparkline(snap.History.Net, 100)),
	)

	battery := card(l.Battery, renderBattery(snap.Battery, l)...)

	system := card(l.Uptime,
		GrayStyle.Render(utils.FormatUptime(snap.System.UptimeSeconds)),
		MutedStyle.Render(snap.Timestamp.Format("15:04:05")),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cpu, mem, disk),
		lipgloss.JoinHorizontal(lipgloss.Top, network, battery, system),
	)
}

func renderBattery(b metrics.Battery, l Labels) []string {
	if !b.Present() {
		return []string{MutedStyle.Render(l.NoBattery)}
	}

	state := l.OnBattery
	if b.Plugged {
		state = l.Plugged
	}
	// low charge is the alarming end, so color by the drained share
	level := levelStyle(100 - *b.Percent).Render(utils.FormatPercentage(*b.Percent))
	lines := []string{SuccessStyle.Render(strings.Repeat(ProgressFull, int(*b.Percent/100*16))) + " " + level, GrayStyle.Render(state)}
	if b.SecondsLeft != nil {
		lines = append(lines, GrayStyle.Render(l.TimeLeft+": "+utils.FormatDuration(*b.SecondsLeft)))
	}
	return lines
}

// RenderProcessTable renders the ranking as a fixed-width table
func RenderProcessTable(procs []metrics.ProcessSample, sortBy metrics.SortKey, l Labels) string {
	var b strings.Builder

	b.WriteString(RenderSectionStart(fmt.Sprintf("%s (%s %s)", l.Processes, l.SortedBy, sortBy)))
	b.WriteString("\n")

	if len(procs) == 0 {
		b.WriteString(RenderStatus("info", l.NoProcesses))
		b.WriteString("\n")
		b.WriteString(RenderSectionEnd())
		return b.String()
	}

	b.WriteString("  ")
	b.WriteString(BoldStyle.Render(fmt.Sprintf("%-8s %-28s %8s %8s", l.ColPID, l.ColName, l.ColCPU, l.ColMemory)))
	b.WriteString("\n")

	for _, p := range procs {
		b.WriteString("  ")
		b.WriteString(fmt.Sprintf("%-8d %-28s ", p.PID, utils.TruncateString(p.Name, 28)))
		b.WriteString(levelStyle(p.CPUPercent).Render(fmt.Sprintf("%8.1f", p.CPUPercent)))
		b.WriteString(" ")
		b.WriteString(GrayStyle.Render(fmt.Sprintf("%8.1f", p.MemoryPercent)))
		b.WriteString("\n")
	}
	b.WriteString(RenderSectionEnd())
	return b.String()
}

// RenderAlerts renders recent alerts, newest first, with their age
func RenderAlerts(list []alerts.Alert, now time.Time, l Labels) string {
	var b strings.Builder

	b.WriteString(RenderSectionStart(l.Alerts))
	b.WriteString("\n")
	if len(list) == 0 {
		b.WriteString(RenderStatus("success", l.NoAlerts))
		b.WriteString("\n")
	}
	for _, a := range list {
		status := "warning"
		if a.Severity == alerts.SeverityCritical {
			status = "error"
		}
		line := fmt.Sprintf("%s (%s)", alerts.FormatAlert(a), alerts.FormatAge(now.Sub(a.Timestamp)))
		b.WriteString(RenderStatus(status, line))
		b.WriteString("\n")
	}
	b.WriteString(RenderSectionEnd())
	return b.String()
}
