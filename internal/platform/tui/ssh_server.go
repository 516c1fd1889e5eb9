package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/memory-master/internal/config"
)

// SSHServer serves the game over SSH with Wish. Every connection gets its
// own menu, runner and engine; the store is shared.
type SSHServer struct {
	app    *App
	addr   string
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates a new SSH server for app.
func NewSSHServer(app *App) (*SSHServer, error) {
	cfg := app.Config.Server
	logger := app.logger().WithPrefix("ssh")

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".memory", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	srv := &SSHServer{app: app, addr: cfg.SSHAddr, logger: logger}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.SSHAddr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	player := Player{ID: sess.User(), Name: sess.User()}
	// The session context ends when the client disconnects, which also stops
	// any run in progress.
	model := NewSessionModel(sess.Context(), s.app, player, pty.Window.Width, pty.Window.Height)
	model.palette = NewPalette(bubbletea.MakeRenderer(sess))

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started", "user", sess.User(), "remote", sess.RemoteAddr().String())
		next(sess)
		s.logger.Info("session ended", "user", sess.User(), "remote", sess.RemoteAddr().String())
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.addr
}

type screenState int

const (
	stateMenu screenState = iota
	stateGame
	stateScores
)

// SessionModel manages the full flow of one terminal: menu -> game or
// leaderboard -> menu.
type SessionModel struct {
	ctx     context.Context
	app     *App
	player  Player
	palette *Palette
	width   int
	height  int
	state   screenState
	preset  config.DifficultyPreset

	menu   MenuModel
	game   GameModel
	scores ScoreboardModel

	quitting bool
}

// NewSessionModel creates a new session model starting at the menu. Runs
// started from it stop when ctx ends.
func NewSessionModel(ctx context.Context, app *App, player Player, width, height int) SessionModel {
	preset := app.Config.Game.Difficulty
	if preset == "" {
		preset = config.DifficultyEasy
	}
	return SessionModel{
		ctx:     ctx,
		app:     app,
		player:  player,
		palette: NewPalette(nil),
		width:   width,
		height:  height,
		preset:  preset,
		menu:    NewMenuModel(player.Name, preset, app.HighestLevel(player), width, height),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch m.state {
	case stateGame:
		return m.updateGame(msg)
	case stateScores:
		return m.updateScores(msg)
	default:
		return m.updateMenu(msg)
	}
}

// Sub-models signal completion with tea.Quit; the session swallows it and
// switches screens instead.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	m.menu = next.(MenuModel)

	switch m.menu.Choice() {
	case ChoiceQuit:
		m.quitting = true
		return m, tea.Quit
	case ChoicePlay:
		m.preset = m.menu.Difficulty()
		runner, stop := m.app.StartRun(m.ctx, m.player, m.preset)
		m.game = NewGameModel(runner, stop, m.app.Price(), m.width, m.height)
		m.game.palette = m.palette
		m.state = stateGame
		return m, m.game.Init()
	case ChoiceScoreboard:
		m.scores = NewScoreboardModel(m.app.Store, m.player.ID, m.app.Config.Leaderboard.Limit, m.width, m.height)
		m.state = stateScores
		return m, m.scores.Init()
	}
	return m, cmd
}

func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.game.Update(msg)
	m.game = next.(GameModel)

	if m.game.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.game.BackToMenu() {
		return m.backToMenu()
	}
	return m, cmd
}

func (m SessionModel) updateScores(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.scores.Update(msg)
	m.scores = next.(ScoreboardModel)

	if m.scores.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.scores.IsGoingBack() {
		return m.backToMenu()
	}
	return m, cmd
}

func (m SessionModel) backToMenu() (tea.Model, tea.Cmd) {
	m.state = stateMenu
	m.menu = NewMenuModel(m.player.Name, m.preset, m.app.HighestLevel(m.player), m.width, m.height)
	return m, m.menu.Init()
}

// View renders the current screen.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.state {
	case stateGame:
		return m.game.View()
	case stateScores:
		return m.scores.View()
	default:
		return m.menu.View()
	}
}

// RunSession runs the whole menu flow in the local terminal.
func RunSession(ctx context.Context, app *App, player Player, width, height int) error {
	model := NewSessionModel(ctx, app, player, width, height)
	model.palette = NewPalette(lipgloss.DefaultRenderer())

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
