package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/simtrack/internal/dashboard"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

const statusTTL = 3 * time.Second

type pollMsg struct {
	err error
}

// refreshMsg is a manual refresh; unlike pollMsg it does not schedule a tick
type refreshMsg struct {
	err error
}

type tickMsg time.Time

type actionMsg struct {
	text string
	err  error
}

type clearStatusMsg int

// DashboardModel is the root Bubble Tea model of the dashboard.
// Pointer fields are shared across the value copies Bubble Tea makes.
type DashboardModel struct {
	width  int
	height int

	agg       *dashboard.Aggregator
	interval  time.Duration
	exportDir string
	timeout   time.Duration

	entries []domain.Entry
	cursor  int
	offset  int

	status    string
	statusErr bool
	statusSeq int
	confirm   string // "d" atau "D" kalau menunggu konfirmasi
}

func NewDashboard(agg *dashboard.Aggregator, interval time.Duration, exportDir string) DashboardModel {
	if interval <= 0 {
		interval = dashboard.DefaultPollInterval
	}
	return DashboardModel{
		agg:       agg,
		interval:  interval,
		exportDir: exportDir,
		timeout:   10 * time.Second,
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return m.pollCmd()
}

func (m DashboardModel) pollCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return pollMsg{err: m.agg.Poll(ctx)}
	}
}

func (m DashboardModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return refreshMsg{err: m.agg.Poll(ctx)}
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m DashboardModel) action(f func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		text, err := f(ctx)
		return actionMsg{text: text, err: err}
	}
}

func (m DashboardModel) setStatus(text string, isErr bool) (DashboardModel, tea.Cmd) {
	m.status = text
	m.statusErr = isErr
	m.statusSeq++
	seq := m.statusSeq
	return m, tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg(seq) })
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pollMsg:
		m.entries = m.agg.Entries()
		m.clampCursor()
		return m, m.tickCmd()

	case refreshMsg:
		m.entries = m.agg.Entries()
		m.clampCursor()
		return m, nil

	case tickMsg:
		return m, m.pollCmd()

	case actionMsg:
		m.entries = m.agg.Entries()
		m.clampCursor()
		if msg.err != nil {
			return m.setStatus(msg.err.Error(), true)
		}
		return m.setStatus(msg.text, false)

	case clearStatusMsg:
		if int(msg) == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// aksi hapus butuh tekan tombol yang sama dua kali
	if m.confirm != "" {
		pending := m.confirm
		m.confirm = ""
		if key != pending {
			return m.setStatus("cancelled", false)
		}
		if pending == "D" {
			return m, m.action(m.agg.DeleteAll)
		}
		return m, m.action(m.agg.DeleteSelected)
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case " ", "space", "x":
		if m.cursor < len(m.entries) {
			m.agg.Toggle(m.entries[m.cursor].Code)
		}

	case "r":
		return m, m.refreshCmd()

	case "c":
		n, err := m.agg.ExportAll()
		if err != nil {
			return m.setStatus(err.Error(), true)
		}
		return m.setStatus(fmt.Sprintf("copied %d codes", n), false)

	case "e":
		path, err := m.agg.SaveCSV(m.exportDir)
		if err != nil {
			return m.setStatus(err.Error(), true)
		}
		return m.setStatus("saved "+path, false)

	case "d":
		if len(m.agg.Selected()) == 0 {
			return m.setStatus("nothing selected", false)
		}
		m.confirm = "d"

	case "D":
		m.confirm = "D"
	}
	return m, nil
}

func (m *DashboardModel) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m DashboardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading scans..."
	}

	title := StyleTitle.Width(m.width).Render(fmt.Sprintf("simtrack  %d scans  %d selected",
		len(m.entries), len(m.agg.Selected())))
	list := m.renderList(max(1, m.height-3))
	status := m.renderStatus()
	help := StyleHelp.Render(" space select  c copy  e csv  d delete  D delete all  r refresh  q quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, list, status, help)
}

func (m *DashboardModel) renderList(rows int) string {
	if len(m.entries) == 0 {
		return StyleHelp.Render(" no scans yet")
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}

	var b strings.Builder
	end := min(len(m.entries), m.offset+rows)
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		check := StyleCheckOff.Render("[ ]")
		if m.agg.IsSelected(e.Code) {
			check = StyleCheckOn.Render("[x]")
		}
		line := fmt.Sprintf(" %s %s  %s", check, StyleTime.Render(e.Time), StyleCode.Render(e.Code))
		if i == m.cursor {
			line = StyleCursorLine.Width(m.width).Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m DashboardModel) renderStatus() string {
	var content string
	switch {
	case m.confirm == "d":
		content = StyleConfirm.Render("press d again to delete the selected scans")
	case m.confirm == "D":
		content = StyleConfirm.Render("press D again to delete ALL scans")
	case m.status != "" && m.statusErr:
		content = StyleStatusErr.Render(m.status)
	case m.status != "":
		content = StyleStatusOK.Render(m.status)
	case m.agg.LastError() != nil:
		content = StyleStatusErr.Render("offline: " + m.agg.LastError().Error())
	default:
		if at := m.agg.PolledAt(); !at.IsZero() {
			content = StyleHelp.Render("updated " + at.Format("15:04:05"))
		}
	}
	return StyleStatusBar.Width(m.width).Render(content)
}
