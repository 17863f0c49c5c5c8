package ui

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"taskly/internal/alerts"
	"taskly/internal/metrics"
	"taskly/internal/monitor"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSparkline_Scale(t *testing.T) {
	got := Sparkline([]float64{0, 50, 100}, 100)
	if got != "▁▄█" {
		t.Errorf("Expected ▁▄█, got %q", got)
	}
}

func TestSparkline_AutoScale(t *testing.T) {
	got := Sparkline([]float64{1, 2, 4}, 0)
	if utf8.RuneCountInString(got) != 3 {
		t.Fatalf("Expected 3 runes, got %q", got)
	}
	if !strings.HasSuffix(got, "█") {
		t.Errorf("Largest value should use the full block, got %q", got)
	}
}

func TestSparkline_AllZero(t *testing.T) {
	if got := Sparkline([]float64{0, 0}, 0); got != "▁▁" {
		t.Errorf("Expected ▁▁, got %q", got)
	}
	if got := Sparkline(nil, 100); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}

func TestLabelsFor(t *testing.T) {
	if LabelsFor("en").Memory != "Memory" {
		t.Error("Expected English labels")
	}
	if LabelsFor("fr").Memory != "Mémoire" {
		t.Error("Expected French labels")
	}
	if LabelsFor("de").Language != "fr" {
		t.Error("Unknown language should fall back to French")
	}
}

func TestCatalogsAreComplete(t *testing.T) {
	for lang, l := range catalog {
		if l.Title == "" || l.Help == "" || l.NoBattery == "" || l.ColName == "" || l.LanguageSet == "" {
			t.Errorf("Catalog %s has empty labels", lang)
		}
	}
}

func TestRenderProcessTable(t *testing.T) {
	out := RenderProcessTable([]metrics.ProcessSample{
		{PID: 42, Name: "postgres", CPUPercent: 12.5, MemoryPercent: 3},
	}, metrics.SortByCPU, LabelsFor("en"))

	if !strings.Contains(out, "postgres") || !strings.Contains(out, "42") {
		t.Errorf("Expected process row, got:\n%s", out)
	}
}

func TestRenderAlerts_Empty(t *testing.T) {
	out := RenderAlerts(nil, time.Now(), LabelsFor("fr"))
	if !strings.Contains(out, "Aucune alerte") {
		t.Errorf("Expected empty-state label, got:\n%s", out)
	}
}

func TestRenderCards_NoBattery(t *testing.T) {
	out := RenderCards(metrics.Snapshot{}, LabelsFor("en"))
	if !strings.Contains(out, "No battery") {
		t.Errorf("Expected no-battery label, got:\n%s", out)
	}
}

func testDashboardState() *monitor.State {
	return &monitor.State{
		Tick: 1,
		Processes: []metrics.ProcessSample{
			{PID: 1, Name: "a", CPUPercent: 50, MemoryPercent: 1},
			{PID: 2, Name: "b", CPUPercent: 5, MemoryPercent: 40},
		},
		RecentAlerts: []alerts.Alert{{Type: alerts.AlertTypeCPU, Severity: alerts.SeverityWarning}},
	}
}

func TestDashboard_ReceivesState(t *testing.T) {
	m := NewDashboard(DashboardOptions{Language: "en"})

	updated, _ := m.Update(stateMsg{state: testDashboardState()})
	view := updated.(Dashboard).View()
	if !strings.Contains(view, "Top processes") {
		t.Errorf("Expected process section in view, got:\n%s", view)
	}
}

func TestDashboard_WaitingView(t *testing.T) {
	m := NewDashboard(DashboardOptions{Language: "en"})
	if !strings.Contains(m.View(), "Collecting first sample") {
		t.Error("Expected waiting message before the first tick")
	}
}

func TestDashboard_SortKey(t *testing.T) {
	var set metrics.SortKey
	m := NewDashboard(DashboardOptions{SetSortBy: func(k metrics.SortKey) { set = k }})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if updated.(Dashboard).SortBy() != metrics.SortByMemory || set != metrics.SortByMemory {
		t.Errorf("Expected memory sort, got %q (callback %q)", updated.(Dashboard).SortBy(), set)
	}
}

func TestDashboard_ToggleLanguage(t *testing.T) {
	m := NewDashboard(DashboardOptions{
		Language:       "fr",
		ToggleLanguage: func() (string, error) { return "en", nil },
	})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if updated.(Dashboard).Language() != "en" {
		t.Errorf("Expected en after toggle, got %q", updated.(Dashboard).Language())
	}
}

func TestDashboard_ClearAlerts(t *testing.T) {
	cleared := false
	m := NewDashboard(DashboardOptions{ClearAlerts: func() { cleared = true }})
	next, _ := m.Update(stateMsg{state: testDashboardState()})

	next, _ = next.(Dashboard).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if !cleared {
		t.Error("Expected clear callback")
	}
	if len(next.(Dashboard).state.RecentAlerts) != 0 {
		t.Error("Expected alerts hidden after clear")
	}
}

func TestDashboard_Quit(t *testing.T) {
	m := NewDashboard(DashboardOptions{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestDashboard_QuitsWhenUpdatesClose(t *testing.T) {
	updates := make(chan *monitor.State)
	close(updates)
	m := NewDashboard(DashboardOptions{Updates: updates})

	msg := m.Init()()
	if _, ok := msg.(updatesClosedMsg); !ok {
		t.Fatalf("Expected updatesClosedMsg, got %T", msg)
	}
}
