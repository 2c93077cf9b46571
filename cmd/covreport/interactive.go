package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/format"
	"github.com/wippyai/wasm-coverage/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	runStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	incompleteRunStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	taintedRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// detailRows caps how many block rows the detail view renders.
const detailRows = 30

type browserModel struct {
	err      error
	db       *store.Store
	dbPath   string
	runs     []store.RunInfo
	report   *cover.Report
	filter   textinput.Model
	selected int
	state    browserState
}

type browserState int

const (
	stateListRuns browserState = iota
	stateShowRun
)

func newBrowserModel(dbPath string) *browserModel {
	filter := textinput.New()
	filter.Placeholder = "filter run id"
	filter.Prompt = "/ "
	filter.Width = 40
	return &browserModel{dbPath: dbPath, state: stateListRuns, filter: filter}
}

type runsLoadedMsg struct {
	err  error
	db   *store.Store
	runs []store.RunInfo
}

type reportLoadedMsg struct {
	err    error
	report *cover.Report
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadRuns
}

func (m *browserModel) loadRuns() tea.Msg {
	db := m.db
	if db == nil {
		var err error
		if db, err = store.Open(m.dbPath); err != nil {
			return runsLoadedMsg{err: err}
		}
	}
	runs, err := db.ListRuns(context.Background())
	if err != nil {
		return runsLoadedMsg{err: err}
	}
	return runsLoadedMsg{db: db, runs: runs}
}

func (m *browserModel) loadSelected() tea.Cmd {
	visible := m.visibleRuns()
	if m.selected >= len(visible) {
		return nil
	}
	runID := visible[m.selected].RunID
	return func() tea.Msg {
		report, err := m.db.LoadReport(context.Background(), runID)
		return reportLoadedMsg{report: report, err: err}
	}
}

// visibleRuns applies the filter input to the run list.
func (m *browserModel) visibleRuns() []store.RunInfo {
	needle := strings.TrimSpace(m.filter.Value())
	if needle == "" {
		return m.runs
	}
	var out []store.RunInfo
	for _, r := range m.runs {
		if strings.Contains(r.RunID, needle) {
			out = append(out, r)
		}
	}
	return out
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.db != nil {
				m.db.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateListRuns && !m.filter.Focused() && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateListRuns && !m.filter.Focused() && m.selected < len(m.visibleRuns())-1 {
				m.selected++
			}

		case "/":
			if m.state == stateListRuns && !m.filter.Focused() {
				m.filter.Focus()
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateListRuns:
				if m.filter.Focused() {
					m.filter.Blur()
					m.selected = 0
					return m, nil
				}
				return m, m.loadSelected()
			case stateShowRun:
				m.state = stateListRuns
				m.report = nil
			}

		case "esc":
			switch m.state {
			case stateListRuns:
				if m.filter.Focused() {
					m.filter.Blur()
				} else {
					m.filter.SetValue("")
					m.selected = 0
				}
			case stateShowRun:
				m.state = stateListRuns
				m.report = nil
			}
		}

	case runsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.db = msg.db
		m.runs = msg.runs

	case reportLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.report = msg.report
		m.state = stateShowRun
	}

	if m.state == stateListRuns && m.filter.Focused() {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *browserModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("coverage archive " + m.dbPath))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q: quit"))
		return b.String()
	}

	switch m.state {
	case stateListRuns:
		m.viewRunList(&b)
	case stateShowRun:
		m.viewRunDetail(&b)
	}
	return b.String()
}

func (m *browserModel) viewRunList(b *strings.Builder) {
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	visible := m.visibleRuns()
	if len(visible) == 0 {
		b.WriteString(helpStyle.Render("no runs"))
		b.WriteString("\n")
	}
	for i, r := range visible {
		line := fmt.Sprintf("%s  %s  %5.1f%%  %d/%d blocks",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Percent,
			r.Covered, r.TotalBlocks)
		style := runStyle
		if !r.Complete {
			style = incompleteRunStyle
		}
		if i == m.selected && !m.filter.Focused() {
			style = selectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("up/down: select  enter: open  /: filter  q: quit"))
}

func (m *browserModel) viewRunDetail(b *strings.Builder) {
	if m.report == nil {
		return
	}
	b.WriteString(format.TerminalSummary(m.report))
	b.WriteString("\n")

	rows := m.report.Blocks()
	shown := 0
	for _, row := range rows {
		if shown >= detailRows {
			b.WriteString(helpStyle.Render(fmt.Sprintf("... %d more blocks", len(rows)-shown)))
			b.WriteString("\n")
			break
		}
		line := fmt.Sprintf("block %4d  hits %6d", uint32(row.ID), row.Hits)
		switch {
		case row.Tainted:
			b.WriteString(taintedRowStyle.Render(line + "  tainted"))
		case row.Hits > 0:
			b.WriteString(runStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
		shown++
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter/esc: back  q: quit"))
}

func runInteractive(dbPath string) error {
	p := tea.NewProgram(newBrowserModel(dbPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
