package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tachyon/internal/engine"
)

type progressModel struct {
	title   string
	events  <-chan engine.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fnItem
	index   map[string]int
	last    string
	width   int
	done    bool
}

type fnItem struct {
	key        string
	status     string
	generation uint64
	deopts     int
	restarts   int
}

type eventMsg engine.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders one row per
// function specialization as runtime events arrive. It quits when events is
// closed.
func NewProgressModel(title string, events <-chan engine.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(engine.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.last != "" {
		header = fmt.Sprintf("%s (%s)", header, m.last)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	nameWidth := max(m.width-statusWidth-24, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%10s", item.status))
		fmt.Fprintf(&b, "  %s %s  gen %-3d deopts %-3d restarts %d\n",
			status, pad(truncate(item.key, nameWidth), nameWidth), item.generation, item.deopts, item.restarts)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev engine.Event) tea.Cmd {
	key := ev.Key.String()
	idx, ok := m.index[key]
	if !ok {
		idx = len(m.items)
		m.index[key] = idx
		m.items = append(m.items, fnItem{key: key})
	}
	item := &m.items[idx]
	item.status = ev.Kind.String()
	if ev.Generation > item.generation {
		item.generation = ev.Generation
	}
	switch ev.Kind {
	case engine.EventDeopt:
		item.deopts++
	case engine.EventRestart:
		item.restarts++
	}
	m.last = fmt.Sprintf("%s %s", ev.Kind, key)
	return m.prog.SetPercent(stableShare(m.items))
}

// stableShare is the fraction of specializations not waiting on a
// recompilation.
func stableShare(items []fnItem) float64 {
	if len(items) == 0 {
		return 0
	}
	stable := 0
	for _, item := range items {
		if item.status != engine.EventDeopt.String() && item.status != engine.EventDiverged.String() {
			stable++
		}
	}
	return float64(stable) / float64(len(items))
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "compiled":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "diverged":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "deopt", "restart":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

func pad(value string, width int) string {
	return runewidth.FillRight(value, width)
}
