// Package tui renders a live view of the node counters and patch table.
package tui

import (
	"fmt"
	"strings"
	"time"

	"artnode/internal/node"
	"artnode/internal/stats"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	cyanColor   = lipgloss.Color("#00FFFF")
	grayColor   = lipgloss.Color("#666666")
	whiteColor  = lipgloss.Color("#FFFFFF")
	yellowColor = lipgloss.Color("#FFFF00")
	redColor    = lipgloss.Color("#FF6666")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(whiteColor).
			Background(lipgloss.Color("#1a1a2e")).
			Padding(0, 2)

	statsStyle = lipgloss.NewStyle().
			Foreground(whiteColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(cyanColor)

	idleStyle = lipgloss.NewStyle().
			Foreground(grayColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(yellowColor)

	errStyle = lipgloss.NewStyle().
			Foreground(redColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(grayColor)
)

// KeyMap defines keybindings
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Reset key.Binding
	Quit  key.Binding
}

var keys = KeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k")),
	Down:  key.NewBinding(key.WithKeys("down", "j")),
	Reset: key.NewBinding(key.WithKeys("r")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// Source is the node state the view polls.
type Source interface {
	Options() node.Options
	Stats(reset bool) stats.NodeSnapshot
	Outputs(reset bool) []node.OutputStatus
}

// Model is the main TUI model
type Model struct {
	src      Source
	interval time.Duration

	node     stats.NodeSnapshot
	outputs  []node.OutputStatus
	rate     float64 // packets per second over the last tick
	selected int
	width    int
	height   int
}

// NewModel creates a view refreshed every interval.
func NewModel(src Source, interval time.Duration) Model {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return Model{
		src:      src,
		interval: interval,
	}
}

// TickMsg is a message for periodic updates
type TickMsg time.Time

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.outputs)-1 {
				m.selected++
			}
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Reset):
			m.src.Stats(true)
			m.src.Outputs(true)
			m.refresh()
			m.rate = 0
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		prev := m.node.Received
		m.refresh()
		if m.node.Received >= prev {
			m.rate = float64(m.node.Received-prev) / m.interval.Seconds()
		}
		return m, m.tickCmd()
	}

	return m, nil
}

func (m *Model) refresh() {
	m.node = m.src.Stats(false)
	m.outputs = m.src.Outputs(false)
	if m.selected >= len(m.outputs) {
		m.selected = max(0, len(m.outputs)-1)
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	opts := m.src.Options()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %d.%d", opts.ShortName, opts.Address.Net(), opts.Address.SubNet())))
	b.WriteString("\n\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n\n")

	if len(m.outputs) == 0 {
		b.WriteString(helpStyle.Render("No outputs patched."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderOutputs())
	}

	b.WriteString("\n" + helpStyle.Render("↑↓: select | r: reset counters | q: quit"))
	return b.String()
}

func (m Model) renderStats() string {
	s := m.node

	invalid := fmt.Sprintf("%d", s.Invalid)
	if s.Invalid > 0 {
		invalid = warnStyle.Render(invalid)
	}
	errs := fmt.Sprintf("%d", s.Errors)
	if s.Errors > 0 {
		errs = errStyle.Render(errs)
	}

	return statsStyle.Render(fmt.Sprintf(
		"Rate: %.1f pps | Received: %d | Invalid: %s | Unknown: %d | Discarded: %d | Polls: %d | Replies seen: %d | Errors: %s",
		m.rate, s.Received, invalid, s.Unknown, s.DMXDiscarded, s.PollRequests, s.PollReplies, errs,
	))
}

func (m Model) renderOutputs() string {
	rows := []string{
		headerStyle.Render(fmt.Sprintf("  %-3s %-9s %-5s %-14s %8s %6s %6s %9s", "#", "universe", "group", "sequence", "recv", "skip", "drop", "overwrite")),
	}

	for i, o := range m.outputs {
		group := "-"
		if o.Grouped {
			group = fmt.Sprintf("%d", o.GroupIndex)
		}
		seq := o.SeqState.String()
		if o.SeqState == node.Tracking {
			seq = fmt.Sprintf("%s %d", seq, o.SeqLast)
		}

		line := fmt.Sprintf("%-3d %-9s %-5s %-14s %8d %6d %6d %9d",
			o.Index, o.Address, group, seq,
			o.Stats.DMXRecv, o.Stats.SeqSkip, o.Stats.SeqDrop, o.Stats.Overwrite)

		switch {
		case i == m.selected:
			line = selectedStyle.Render("> " + line)
		case !o.Active:
			line = idleStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		rows = append(rows, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
