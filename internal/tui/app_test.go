package tui

import (
	"strings"
	"testing"
	"time"

	"artnode/internal/artnet"
	"artnode/internal/node"
	"artnode/internal/stats"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSource struct {
	node    stats.NodeSnapshot
	outputs []node.OutputStatus
	resets  int
}

func (f *fakeSource) Options() node.Options {
	opts := node.DefaultOptions()
	opts.Address = artnet.NewAddress(1, 2, 0)
	return opts
}

func (f *fakeSource) Stats(reset bool) stats.NodeSnapshot {
	s := f.node
	if reset {
		f.resets++
		f.node = stats.NodeSnapshot{}
	}
	return s
}

func (f *fakeSource) Outputs(reset bool) []node.OutputStatus {
	return f.outputs
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		node: stats.NodeSnapshot{Received: 40, Invalid: 2},
		outputs: []node.OutputStatus{
			{Index: 0, Address: artnet.NewAddress(1, 2, 3), SeqState: node.Tracking, SeqLast: 7, Active: true,
				Stats: stats.OutputSnapshot{DMXRecv: 30, SeqDrop: 1}},
			{Index: 1, Address: artnet.NewAddress(1, 2, 4), Grouped: true, GroupIndex: 2},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return mm, cmd
}

func TestModel_View(t *testing.T) {
	m := NewModel(newFakeSource(), time.Second)

	if got := m.View(); got != "Loading..." {
		t.Errorf("View() before size = %q, want Loading...", got)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, cmd := update(t, m, TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick did not schedule the next tick")
	}

	view := m.View()
	for _, want := range []string{"artnode", "1.2.3", "1.2.4", "tracking 7", "Received: 40"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if m.rate != 40 {
		t.Errorf("rate = %v, want 40", m.rate)
	}
}

func TestModel_Keys(t *testing.T) {
	src := newFakeSource()
	m := NewModel(src, time.Second)
	m, _ = update(t, m, TickMsg(time.Now()))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1 (clamped to last output)", m.selected)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if src.resets != 1 {
		t.Errorf("resets = %d, want 1", src.resets)
	}
	if m.node.Received != 0 {
		t.Errorf("Received after reset = %d, want 0", m.node.Received)
	}

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
