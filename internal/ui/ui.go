package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

// SampleSource is implemented by *sampler.Collector.
type SampleSource interface {
	Snapshot() model.Sample
}

// KeyMap lists the bindings of the live view.
type KeyMap struct {
	Quit  key.Binding
	Pause key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause"),
		),
	}
}

// Model renders the latest sample of a collector.
type Model struct {
	src     SampleSource
	latest  model.Sample
	keys    KeyMap
	refresh time.Duration
	paused  bool
	quit    func()
	width   int
	height  int
}

// New returns a view polling src every refresh. quit is called when the
// user leaves the view.
func New(src SampleSource, refresh time.Duration, quit func()) *Model {
	if refresh <= 0 {
		refresh = time.Second / 5
	}
	if quit == nil {
		quit = func() {}
	}
	return &Model{
		src:     src,
		latest:  src.Snapshot(),
		keys:    DefaultKeyMap(),
		refresh: refresh,
		quit:    quit,
		width:   120,
		height:  40,
	}
}

// Messages
type tickMsg struct{}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return m.tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		}
	case tickMsg:
		if !m.paused {
			m.latest = m.src.Snapshot()
		}
		return m, m.tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	status := ""
	if m.paused {
		status = "  " + subtleStyle.Render("[paused]")
	}
	header := titleStyle.Render("loadwatch") + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05 MST 2006")) +
		subtleStyle.Render(fmt.Sprintf("  #%d", s.Seq)) + status

	verdict := okStyle.Render("ok")
	if s.Overloaded {
		verdict = alertStyle.Render("OVERLOADED")
	}
	loadCard := card("Load",
		fmt.Sprintf("%s  %s %.2f / %.2f %s\n1m %.2f  5m %.2f  15m %.2f",
			gaugeBar(ratio(s.Threshold, s.Limit), 28),
			s.LoadType, s.Threshold, s.Limit, verdict,
			s.Load.Load1, s.Load.Load5, s.Load.Load15))

	c := s.CPU
	cpuCard := card("CPU "+s.CPUName,
		fmt.Sprintf("%s\nus %4.1f  sy %4.1f  ni %4.1f  wa %4.1f  st %4.1f",
			gaugeBar(c.Load(), 28),
			c.User, c.System, c.Nice, c.IOWait, c.Steal))

	mem := s.Memory
	memCard := card("Memory",
		fmt.Sprintf("%s\n%.1f/%.1f GiB | Swap %3.0f%% | Cached %.1f GiB",
			gaugeBar(pct(mem.Used, mem.Total()), 28),
			kbToGiB(mem.Used), kbToGiB(mem.Total()),
			pct(mem.SwapUsed, mem.SwapTotal()),
			kbToGiB(mem.Cached())))

	netCard := card("Net "+truncate(s.Interface, 12),
		fmt.Sprintf("RX %9.1f kbps  %s\nTX %9.1f kbps  %s",
			s.NetRates.RxKbps, humanBytes(s.Net.Rx.Bytes),
			s.NetRates.TxKbps, humanBytes(s.Net.Tx.Bytes)))

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, loadCard, cpuCard)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, memCard, netCard)
	footer := subtleStyle.Render(m.help())

	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2, footer)
}

func (m *Model) help() string {
	parts := make([]string, 0, 2)
	for _, b := range []key.Binding{m.keys.Pause, m.keys.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pct(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) * 100 / float64(total)
}

// ratio is value as a percentage of limit.
func ratio(value, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return value * 100 / limit
}

func kbToGiB(kb uint64) float64 { return float64(kb) / (1024 * 1024) }

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// RunTUI starts the Bubble Tea program and blocks until the user quits or
// ctx is done.
func RunTUI(ctx context.Context, src SampleSource, refresh time.Duration, quit func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	prog := tea.NewProgram(New(src, refresh, quit), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		prog.Quit()
	}()
	_, err := prog.Run()
	return err
}
