package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"threatsim/internal/config"
	"threatsim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// threatsMsg carries the threat rows of one tick.
type threatsMsg struct{ rows []telemetry.ThreatRow }

// stateMsg carries a battle state update.
type stateMsg struct{ telemetry.BattleStateRow }

// adminMsg reports admin UI status.
type adminMsg struct {
	addr   string
	active bool
}

type setRetireMsg struct{ fn func(string) bool }

const maxLogLines = 500

// TUIWriter renders the threat picture using a bubbletea TUI.
type TUIWriter struct {
	program     teaProgram
	enemyColors map[string]string
	colorIdx    int
	done        chan struct{}
	sendSignal  atomic.Bool
	mu          sync.Mutex
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.Config) *TUIWriter {
	w := &TUIWriter{enemyColors: make(map[string]string), done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func (w *TUIWriter) enemyColor(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.enemyColors[name]; ok {
		return c
	}
	c := enemyPalette[w.colorIdx%len(enemyPalette)]
	w.enemyColors[name] = c
	w.colorIdx++
	return c
}

// WriteThreat implements ThreatWriter.
func (w *TUIWriter) WriteThreat(row telemetry.ThreatRow) error {
	return w.WriteThreats([]telemetry.ThreatRow{row})
}

// WriteThreats sends a tick's threat rows to the table.
func (w *TUIWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	w.program.Send(threatsMsg{rows: append([]telemetry.ThreatRow(nil), rows...)})
	return nil
}

// WriteHit logs a hit on the observer.
func (w *TUIWriter) WriteHit(row telemetry.HitRow) error {
	line := fmt.Sprintf("%s[%s]%s %sHIT%s t=%d from %s%s%s power=%.2f damage=%.2f",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorRed, colorReset, row.Tick,
		w.enemyColor(row.Source), row.Source, colorReset,
		row.Power, row.Damage)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteState updates the status line.
func (w *TUIWriter) WriteState(row telemetry.BattleStateRow) error {
	w.program.Send(stateMsg{row})
	for _, name := range row.Retired {
		w.program.Send(logMsg{line: fmt.Sprintf("%s[%s]%s %sRETIRED%s %s%s%s at t=%d",
			colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
			colorMagenta, colorReset,
			w.enemyColor(name), name, colorReset, row.Tick)})
	}
	return nil
}

// SetAdminStatus implements AdminStatusWriter.
func (w *TUIWriter) SetAdminStatus(addr string, active bool) {
	w.program.Send(adminMsg{addr: addr, active: active})
}

// SetRetirer installs the callback used by the retire dialog.
func (w *TUIWriter) SetRetirer(fn func(string) bool) {
	w.program.Send(setRetireMsg{fn: fn})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type sortMode int

const (
	sortByDanger sortMode = iota
	sortByDistance
)

func (s sortMode) String() string {
	if s == sortByDistance {
		return "distance"
	}
	return "danger"
}

type tuiModel struct {
	cfg          *config.Config
	cfgTable     table.Model
	threatTable  table.Model
	vp           viewport.Model
	logs         []string
	threats      map[string]telemetry.ThreatRow
	state        telemetry.BattleStateRow
	admin        bool
	adminAddr    string
	wrap         bool
	autoscroll   bool
	help         bool
	sort         sortMode
	header       string
	headerHeight int
	height       int
	retire       func(string) bool
	retireInput  textinput.Model
	retireDialog bool
}

var threatColumns = []table.Column{
	{Title: "Enemy", Width: 14},
	{Title: "Dist", Width: 7},
	{Title: "Danger", Width: 7},
	{Title: "Energy", Width: 7},
	{Title: "Force", Width: 16},
	{Title: "Seen", Width: 6},
}

func newTUIModel(cfg *config.Config) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 20},
		{Title: "Value", Width: 10},
		{Title: "Config", Width: 20},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Damage Window", fmt.Sprintf("%d", cfg.Threat.DamageWindowTicks), "Position Window", fmt.Sprintf("%d", cfg.Threat.PositionWindowTicks)},
		{"Repulsion G", fmt.Sprintf("%.0f", cfg.Threat.RepulsionConstant), "Radar Range", fmt.Sprintf("%.0f", cfg.Simulation.RadarRange)},
		{"Radar Dropout", fmt.Sprintf("%.2f", cfg.Simulation.RadarDropout), "Sensor Noise", fmt.Sprintf("%.2f", cfg.Simulation.SensorNoise)},
	}
	return tuiModel{
		cfg:         cfg,
		cfgTable:    table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1)),
		threatTable: table.New(table.WithColumns(threatColumns), table.WithHeight(6)),
		vp:          viewport.New(0, 0),
		threats:     make(map[string]telemetry.ThreatRow),
		autoscroll:  true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cfgTable.SetWidth(msg.Width)
		m.threatTable.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.retireDialog {
			switch msg.Type {
			case tea.KeyEnter:
				name := strings.TrimSpace(m.retireInput.Value())
				if name != "" && m.retire != nil {
					if m.retire(name) {
						delete(m.threats, name)
						m.refreshThreats()
					}
				}
				m.retireDialog = false
			case tea.KeyEsc:
				m.retireDialog = false
			default:
				var cmd tea.Cmd
				m.retireInput, cmd = m.retireInput.Update(msg)
				return m, cmd
			}
			m.updateViewportHeight()
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "o":
			if m.sort == sortByDanger {
				m.sort = sortByDistance
			} else {
				m.sort = sortByDanger
			}
			m.refreshThreats()
			return m, nil
		case "r":
			m.retireInput = textinput.New()
			m.retireInput.Placeholder = "enemy name"
			if rows := m.threatTable.Rows(); len(rows) > 0 {
				m.retireInput.SetValue(rows[m.threatTable.Cursor()][0])
				m.retireInput.CursorEnd()
			}
			m.retireInput.Focus()
			m.retireDialog = true
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown":
				m.vp.ViewDown()
			case "pgup":
				m.vp.ViewUp()
			}
		}
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case threatsMsg:
		for _, r := range msg.rows {
			m.threats[r.Enemy] = r
		}
		m.refreshThreats()
	case stateMsg:
		m.state = msg.BattleStateRow
		for _, name := range m.state.Retired {
			delete(m.threats, name)
		}
		if len(m.state.Retired) > 0 {
			m.refreshThreats()
		}
	case adminMsg:
		m.admin = msg.active
		m.adminAddr = msg.addr
	case setRetireMsg:
		m.retire = msg.fn
	}
	return m, nil
}

// sortedThreats orders rows by the active sort mode, ties broken by name.
func (m tuiModel) sortedThreats() []telemetry.ThreatRow {
	rows := make([]telemetry.ThreatRow, 0, len(m.threats))
	for _, r := range m.threats {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch m.sort {
		case sortByDistance:
			if a.Distance != b.Distance {
				return a.Distance < b.Distance
			}
		default:
			if a.DangerScore != b.DangerScore {
				return a.DangerScore > b.DangerScore
			}
		}
		return a.Enemy < b.Enemy
	})
	return rows
}

func (m *tuiModel) refreshThreats() {
	var rows []table.Row
	for _, r := range m.sortedThreats() {
		seen := "stale"
		if r.Seen {
			seen = "yes"
		}
		rows = append(rows, table.Row{
			r.Enemy,
			fmt.Sprintf("%.0f", r.Distance),
			fmt.Sprintf("%.2f", r.DangerScore),
			fmt.Sprintf("%.1f", r.Energy),
			fmt.Sprintf("(%.1f,%.1f)", r.RepulsionX, r.RepulsionY),
			seen,
		})
	}
	m.threatTable.SetRows(rows)
	if c := m.threatTable.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.threatTable.SetCursor(len(rows) - 1)
	}
	m.updateViewportHeight()
}

func (m *tuiModel) updateViewportHeight() {
	rows := len(m.threatTable.Rows())
	if rows < 1 {
		rows = 1
	}
	m.threatTable.SetHeight(rows + 1)
	bottomHeight := lipgloss.Height(m.renderBottom())
	h := m.height - m.headerHeight - m.threatTable.Height() - bottomHeight - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.threatTable.View(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	return m.cfgTable.View()
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	state := fmt.Sprintf("%sSTATE%s %st=%d%s %sobserver=(%.0f,%.0f)%s %senergy=%.1f%s %stracked=%d%s %svisible=%d%s",
		colorBlue, colorReset,
		colorGray, m.state.Tick, colorReset,
		colorCyan, m.state.ObserverX, m.state.ObserverY, colorReset,
		dangerColor(100-m.state.ObserverEnergy), m.state.ObserverEnergy, colorReset,
		colorGreen, m.state.Tracked, colorReset,
		colorYellow, m.state.Visible, colorReset)
	admin := "Admin UI " + indicator(m.admin)
	if m.admin && m.adminAddr != "" {
		admin += " " + m.adminAddr
	}
	line := fmt.Sprintf("%s | %s | Wrap %s | Scroll %s | Sort %s | Help %s",
		state, admin, indicator(m.wrap), indicator(m.autoscroll), m.sort, indicator(m.help))
	if m.retireDialog {
		return fmt.Sprintf("Retire: %s\n%s", m.retireInput.View(), line)
	}
	return line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap for the event log",
		" s  toggle auto-scroll",
		" o  toggle threat order (danger/distance)",
		" r  retire an enemy",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
