package ui

import (
	"fmt"
	"strings"
	"time"

	"taskly/internal/metrics"
	"taskly/internal/monitor"
	"taskly/pkg/utils"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardOptions wires the dashboard to the poll loop. Every callback is
// optional.
type DashboardOptions struct {
	Updates        <-chan *monitor.State
	Language       string
	SortBy         metrics.SortKey
	SetSortBy      func(metrics.SortKey)
	ToggleLanguage func() (string, error)
	ClearAlerts    func()
	Now            func() time.Time
}

type keyMap struct {
	Quit     key.Binding
	Sort     key.Binding
	Language key.Binding
	Clear    key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Language: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
	Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear alerts")),
}

type stateMsg struct{ state *monitor.State }

type updatesClosedMsg struct{}

// Dashboard is the bubbletea model behind `taskly watch`
type Dashboard struct {
	opts   DashboardOptions
	labels Labels
	sortBy metrics.SortKey
	state  *monitor.State
	table  table.Model
	notice string
	width  int
}

// NewDashboard creates the model
func NewDashboard(opts DashboardOptions) Dashboard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SortBy == "" {
		opts.SortBy = metrics.SortByCPU
	}

	labels := LabelsFor(opts.Language)
	t := table.New(
		table.WithColumns(processColumns(labels)),
		table.WithHeight(8),
		table.WithFocused(false),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(PrimaryColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)

	return Dashboard{opts: opts, labels: labels, sortBy: opts.SortBy, table: t}
}

func processColumns(l Labels) []table.Column {
	return []table.Column{
		{Title: l.ColPID, Width: 8},
		{Title: l.ColName, Width: 28},
		{Title: l.ColCPU, Width: 8},
		{Title: l.ColMemory, Width: 8},
	}
}

func waitForState(updates <-chan *monitor.State) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return stateMsg{state: s}
	}
}

func (m Dashboard) Init() tea.Cmd {
	return waitForState(m.opts.Updates)
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = msg.state
		m.table.SetRows(processRows(m.state.Processes))
		return m, waitForState(m.opts.Updates)

	case updatesClosedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Sort):
			m.sortBy = nextSortKey(m.sortBy)
			if m.opts.SetSortBy != nil {
				m.opts.SetSortBy(m.sortBy)
			}
			if m.state != nil {
				procs := make([]metrics.ProcessSample, len(m.state.Processes))
				copy(procs, m.state.Processes)
				metrics.SortProcesses(procs, m.sortBy)
				m.table.SetRows(processRows(procs))
			}

		case key.Matches(msg, keys.Language):
			if m.opts.ToggleLanguage == nil {
				break
			}
			lang, err := m.opts.ToggleLanguage()
			if err != nil {
				m.notice = err.Error()
				break
			}
			m.notice = ""
			m.labels = LabelsFor(lang)
			m.table.SetColumns(processColumns(m.labels))

		case key.Matches(msg, keys.Clear):
			if m.opts.ClearAlerts != nil {
				m.opts.ClearAlerts()
			}
			if m.state != nil {
				cleared := *m.state
				cleared.RecentAlerts = nil
				m.state = &cleared
			}
		}
	}
	return m, nil
}

func nextSortKey(k metrics.SortKey) metrics.SortKey {
	if k == metrics.SortByCPU {
		return metrics.SortByMemory
	}
	return metrics.SortByCPU
}

func processRows(procs []metrics.ProcessSample) []table.Row {
	rows := make([]table.Row, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", p.PID),
			utils.TruncateString(p.Name, 28),
			fmt.Sprintf("%.1f", p.CPUPercent),
			fmt.Sprintf("%.1f", p.MemoryPercent),
		})
	}
	return rows
}

func (m Dashboard) View() string {
	var b strings.Builder

	b.WriteString(PrimaryStyle.Render("taskly") + " " + GrayStyle.Render(m.labels.Title))
	b.WriteString("\n\n")

	if m.state == nil {
		b.WriteString(RenderStatus("info", m.labels.Waiting))
		b.WriteString("\n\n")
		b.WriteString(MutedStyle.Render(m.labels.Help))
		return b.String()
	}

	b.WriteString(RenderCards(m.state.Snapshot, m.labels))
	b.WriteString("\n\n")
	b.WriteString(SectionTitleStyle.Render(fmt.Sprintf("%s (%s %s)", m.labels.Processes, m.labels.SortedBy, m.sortBy)))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")
	b.WriteString(RenderAlerts(m.state.RecentAlerts, m.opts.Now(), m.labels))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(RenderStatus("error", m.notice))
		b.WriteString("\n")
	}
	b.WriteString(MutedStyle.Render(m.labels.Help))
	return b.String()
}

// Language returns the language currently shown
func (m Dashboard) Language() string {
	return m.labels.Language
}

// SortBy returns the current sort key
func (m Dashboard) SortBy() metrics.SortKey {
	return m.sortBy
}
