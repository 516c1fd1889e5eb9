package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/memory-master/internal/config"
)

// MenuChoice is what the player picked in the main menu.
type MenuChoice int

const (
	ChoiceNone MenuChoice = iota
	ChoicePlay
	ChoiceScoreboard
	ChoiceQuit
)

const (
	itemPlay = iota
	itemDifficulty
	itemScores
	itemQuit
	itemCount
)

var difficulties = []config.DifficultyPreset{
	config.DifficultyEasy,
	config.DifficultyNormal,
	config.DifficultyHard,
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// MenuModel is the Bubble Tea model for the main menu.
type MenuModel struct {
	cursor     int
	difficulty int
	player     string
	best       int
	width      int
	height     int
	keyMapper  *KeyMapper
	choice     MenuChoice
}

// NewMenuModel creates a menu. best is the player's highest level, shown
// when positive.
func NewMenuModel(player string, preset config.DifficultyPreset, best, width, height int) MenuModel {
	d := 0
	for i, p := range difficulties {
		if p == preset {
			d = i
		}
	}
	return MenuModel{
		difficulty: d,
		player:     player,
		best:       best,
		width:      width,
		height:     height,
		keyMapper:  NewKeyMapper(),
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if m.cursor == itemDifficulty {
			m.difficulty = (m.difficulty + len(difficulties) - 1) % len(difficulties)
		}
		return m, nil
	case "right", "l":
		if m.cursor == itemDifficulty {
			m.difficulty = (m.difficulty + 1) % len(difficulties)
		}
		return m, nil
	}

	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.choice = ChoiceQuit
		return m, tea.Quit
	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case MenuActionDown:
		if m.cursor < itemCount-1 {
			m.cursor++
		}
	case MenuActionScoreboard:
		m.choice = ChoiceScoreboard
		return m, tea.Quit
	case MenuActionSelect:
		switch m.cursor {
		case itemPlay:
			m.choice = ChoicePlay
			return m, tea.Quit
		case itemDifficulty:
			m.difficulty = (m.difficulty + 1) % len(difficulties)
		case itemScores:
			m.choice = ChoiceScoreboard
			return m, tea.Quit
		case itemQuit:
			m.choice = ChoiceQuit
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m MenuModel) itemLabel(i int) string {
	switch i {
	case itemPlay:
		return "Play"
	case itemDifficulty:
		d := difficulties[m.difficulty]
		return fmt.Sprintf("Difficulty: < %s (level %d) >",
			strings.ToUpper(string(d[:1]))+string(d[1:]), config.StartLevelForPreset(d))
	case itemScores:
		return "Leaderboard"
	case itemQuit:
		return "Quit"
	}
	return ""
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.choice == ChoiceQuit {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("M E M O R Y   M A S T E R"), m.width))
	b.WriteString("\n\n")

	sub := "Remember the shape. Rebuild it."
	if m.player != "" {
		sub = "Playing as " + m.player
	}
	b.WriteString(centerText(dimStyle.Render(sub), m.width))
	b.WriteString("\n")
	if m.best > 0 {
		b.WriteString(centerText(dimStyle.Render(fmt.Sprintf("Best level: %d", m.best)), m.width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i := 0; i < itemCount; i++ {
		line := "  " + m.itemLabel(i)
		if i == m.cursor {
			line = selectedStyle.Render("> " + m.itemLabel(i))
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render("Up/Down: Navigate  |  Enter: Select  |  Tab: Scores  |  Q: Quit"), m.width))
	b.WriteString("\n")
	return b.String()
}

// Choice returns what the player picked.
func (m MenuModel) Choice() MenuChoice {
	return m.choice
}

// Difficulty returns the selected difficulty preset.
func (m MenuModel) Difficulty() config.DifficultyPreset {
	return difficulties[m.difficulty]
}

// Size returns the last known terminal size.
func (m MenuModel) Size() (int, int) {
	return m.width, m.height
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
