package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bryanwahyu/simtrack/internal/controller"
	"github.com/bryanwahyu/simtrack/internal/dashboard"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

type stubSource struct {
	lists    int
	entries  []domain.Entry
	cleared  bool
	selected []string
}

func (s *stubSource) List(context.Context) ([]domain.Entry, error) {
	s.lists++
	return s.entries, nil
}

func (s *stubSource) Delete(_ context.Context, codes []string) (string, error) {
	s.selected = codes
	return "1 selected scans deleted", nil
}

func (s *stubSource) DeleteAll(context.Context) (string, error) {
	s.cleared = true
	s.entries = nil
	return "all scans deleted", nil
}

func loaded(t *testing.T, src *stubSource) DashboardModel {
	t.Helper()
	agg := dashboard.New(src, nil, time.Hour)
	m := NewDashboard(agg, time.Hour, t.TempDir())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	next, _ = next.Update(m.Init()())
	return next.(DashboardModel)
}

func key(m DashboardModel, k string) (DashboardModel, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(DashboardModel), cmd
}

func TestDashboard_RendersEntries(t *testing.T) {
	m := loaded(t, &stubSource{entries: []domain.Entry{
		{Code: "ABCDEF GHIJK LMNOPQRST", Time: "10:00:01"},
		{Code: "short", Time: "10:00:00"},
	}})
	view := m.View()
	for _, want := range []string{"2 scans", "ABCDEF GHIJK LMNOPQRST", "10:00:00"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDashboard_SelectAndConfirmDelete(t *testing.T) {
	src := &stubSource{entries: []domain.Entry{{Code: "a", Time: "1"}, {Code: "b", Time: "2"}}}
	m := loaded(t, src)

	m, _ = key(m, "down")
	m, _ = key(m, "x")
	if !m.agg.IsSelected("b") {
		t.Fatal("x should select the row under the cursor")
	}

	m, cmd := key(m, "d")
	if cmd != nil || m.confirm != "d" {
		t.Fatal("first d only asks for confirmation")
	}
	m, cmd = key(m, "d")
	if cmd == nil {
		t.Fatal("second d should delete")
	}
	next, _ := m.Update(cmd())
	m = next.(DashboardModel)
	if len(src.selected) != 1 || src.selected[0] != "b" {
		t.Fatalf("deleted %v", src.selected)
	}
	if !strings.Contains(m.View(), "1 selected scans deleted") {
		t.Fatalf("status missing:\n%s", m.View())
	}
}

func TestDashboard_DeleteAllCancelled(t *testing.T) {
	src := &stubSource{entries: []domain.Entry{{Code: "a", Time: "1"}}}
	m := loaded(t, src)
	m, _ = key(m, "D")
	m, _ = key(m, "x")
	if src.cleared || m.status != "cancelled" {
		t.Fatalf("cleared=%v status=%q", src.cleared, m.status)
	}
}

func TestDashboard_StatusResets(t *testing.T) {
	m := loaded(t, &stubSource{})
	m, _ = key(m, "c")
	if !strings.Contains(m.status, "nothing to copy") || !m.statusErr {
		t.Fatalf("status %q", m.status)
	}
	next, _ := m.Update(clearStatusMsg(m.statusSeq))
	if next.(DashboardModel).status != "" {
		t.Fatal("status should reset")
	}
}

func TestRenderScanEvent(t *testing.T) {
	out := RenderScanEvent(controller.Event{Kind: controller.EventRejected, Raw: "bad", Err: errors.New("invalid length")})
	if !strings.Contains(out, "bad") || !strings.Contains(out, "invalid length") {
		t.Fatalf("render %q", out)
	}
	out = RenderScanEvent(controller.Event{Kind: controller.EventAccepted, Display: "ABCDEF GHIJK LMNOPQRST"})
	if !strings.Contains(out, "ABCDEF GHIJK LMNOPQRST") {
		t.Fatalf("render %q", out)
	}
}

func TestDashboard_ManualRefreshKeepsSingleTickLoop(t *testing.T) {
	src := &stubSource{entries: []domain.Entry{{Code: "a", Time: "1"}}}
	m := loaded(t, src)
	polls := src.lists

	for i := 0; i < 5; i++ {
		var cmd tea.Cmd
		m, cmd = key(m, "r")
		if cmd == nil {
			t.Fatal("r should refresh")
		}
		next, follow := m.Update(cmd())
		m = next.(DashboardModel)
		if follow != nil {
			t.Fatalf("refresh %d scheduled another tick", i)
		}
	}
	if src.lists != polls+5 {
		t.Fatalf("polls = %d, want %d", src.lists, polls+5)
	}

	// the regular loop still re-arms itself
	if _, cmd := m.Update(pollMsg{}); cmd == nil {
		t.Fatal("scheduled poll must schedule the next tick")
	}
}
