package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/memory-master/internal/core"
	"github.com/vovakirdan/memory-master/internal/games/memory"
	"github.com/vovakirdan/memory-master/internal/session"
)

// GameModel plays one run through a session runner. The runner owns the
// engine; the model only forwards commands and draws snapshots.
type GameModel struct {
	runner *session.Runner
	stop   context.CancelFunc

	snap    memory.Snapshot
	screen  *core.Screen
	palette *Palette
	keys    *KeyMapper
	help    help.Model
	price   string

	cursor   memory.Cell
	notice   string
	noticeID int
	paying   bool
	spinner  spinner.Model

	width      int
	height     int
	quitting   bool
	backToMenu bool
	closed     bool
}

// NewGameModel creates a model for a runner that the caller has started.
// stop is called when the player leaves the game.
func NewGameModel(runner *session.Runner, stop context.CancelFunc, price string, width, height int) GameModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return GameModel{
		runner:  runner,
		stop:    stop,
		snap:    runner.Latest(),
		screen:  core.NewScreen(width, max(height-1, 0)),
		palette: NewPalette(nil),
		keys:    NewKeyMapper(),
		help:    help.New(),
		price:   price,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init starts listening for runner events.
func (m GameModel) Init() tea.Cmd {
	return waitForEvent(m.runner)
}

// Update handles messages.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+s" {
			m.saveScreenshot()
			return m, nil
		}
		action, _ := m.keys.MapKey(msg)
		return m.apply(action)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screen.Resize(msg.Width, max(msg.Height-1, 0))
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		cmd := m.handleEvent(msg.evt)
		return m, tea.Batch(cmd, waitForEvent(m.runner))

	case sessionClosedMsg:
		m.closed = true
		return m, nil

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.paying {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *GameModel) handleEvent(evt session.Event) tea.Cmd {
	switch e := evt.(type) {
	case session.SnapshotEvent:
		m.snap = e.Snapshot
	case session.RunOverEvent:
		if e.NewBest {
			return m.setNotice("New personal best!")
		}
	case session.PaymentEvent:
		switch e.State {
		case session.PaymentPending:
			m.paying = true
			m.notice = ""
			return m.spinner.Tick
		default:
			m.paying = false
			return m.setNotice(e.Message)
		}
	}
	return nil
}

func (m *GameModel) setNotice(text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	return expireNotice(m.noticeID)
}

func (m GameModel) apply(action core.Action) (tea.Model, tea.Cmd) {
	s := m.snap

	switch action {
	case core.ActionQuit:
		m.quitting = true
		m.stop()
		return m, tea.Quit

	case core.ActionBack:
		if s.Over || s.Paused || !s.Started || m.closed {
			m.backToMenu = true
			m.stop()
		}

	case core.ActionUp:
		m.cursor.Row = core.Clamp(m.cursor.Row-1, 0, memory.GridSize-1)
	case core.ActionDown:
		m.cursor.Row = core.Clamp(m.cursor.Row+1, 0, memory.GridSize-1)
	case core.ActionLeft:
		m.cursor.Col = core.Clamp(m.cursor.Col-1, 0, memory.GridSize-1)
	case core.ActionRight:
		m.cursor.Col = core.Clamp(m.cursor.Col+1, 0, memory.GridSize-1)

	case core.ActionToggle:
		m.click(m.cursor)

	case core.ActionConfirm:
		m.confirm()

	case core.ActionReset:
		m.do(memory.CmdReset)

	case core.ActionPause:
		if s.Paused {
			m.do(memory.CmdResume)
		} else {
			m.do(memory.CmdPause)
		}

	case core.ActionContinue:
		if s.Over && !m.paying {
			m.do(memory.CmdContinue)
		}
	}
	return m, nil
}

// confirm is the Enter key: it does whatever moves the game forward.
func (m GameModel) confirm() {
	s := m.snap
	if s.Paused {
		m.do(memory.CmdResume)
		return
	}
	switch s.Phase {
	case memory.PhaseIdle:
		if !s.Started {
			m.do(memory.CmdStart)
		}
	case memory.PhaseMemorizing:
		m.do(memory.CmdProceed)
	case memory.PhaseRecalling:
		m.do(memory.CmdSubmit)
	case memory.PhaseFeedback:
		if s.Outcome == memory.OutcomeSuccess {
			m.do(memory.CmdAckSuccess)
		} else {
			m.do(memory.CmdAckFailure)
		}
	}
}

func (m GameModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	c, ok := memory.LayoutFor(m.screen.Width(), m.screen.Height()).CellAtPoint(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.cursor = c
	m.click(c)
	return m, nil
}

func (m GameModel) click(c memory.Cell) {
	if m.snap.Phase != memory.PhaseRecalling {
		return
	}
	m.runner.Do(memory.Command{Kind: memory.CmdClick, Row: c.Row, Col: c.Col})
}

func (m GameModel) do(kind memory.CommandKind) {
	m.runner.Do(memory.Command{Kind: kind})
}

func (m GameModel) view() memory.View {
	v := memory.View{
		Cursor:     m.cursor,
		ShowCursor: m.snap.Phase == memory.PhaseRecalling && !m.snap.Paused,
		Notice:     m.notice,
		Price:      m.price,
	}
	if m.paying {
		v.Notice = m.spinner.View() + " Processing payment..."
	}
	return v
}

// View renders the board and the help bar.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}
	memory.Render(m.screen, m.snap, m.view())
	return m.palette.Render(m.screen) + "\n" + m.help.View(m.keys.keys)
}

// saveScreenshot writes the current board as plain text under
// ~/.memory/screenshots.
func (m *GameModel) saveScreenshot() {
	memory.Render(m.screen, m.snap, m.view())

	dir := filepath.Join(os.Getenv("HOME"), ".memory", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	name := fmt.Sprintf("memory_%s.txt", time.Now().Format("20060102_150405"))
	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(filepath.Join(dir, name), []byte(m.screen.String()), 0o600)
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m GameModel) BackToMenu() bool {
	return m.backToMenu
}

// Cursor returns the grid cursor.
func (m GameModel) Cursor() memory.Cell {
	return m.cursor
}

// Run plays a single run in the terminal until the player quits or goes
// back.
func Run(runner *session.Runner, stop context.CancelFunc, price string, width, height int) error {
	model := NewGameModel(runner, stop, price, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	stop()
	return err
}
