package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/memory-master/internal/config"
)

func menuUpdate(m MenuModel, keys ...string) MenuModel {
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(MenuModel)
	}
	return m
}

func TestMenuPlay(t *testing.T) {
	m := NewMenuModel("alice", config.DifficultyNormal, 0, 80, 24)
	if m.Difficulty() != config.DifficultyNormal {
		t.Fatalf("difficulty = %q, want normal", m.Difficulty())
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(MenuModel)
	if m.Choice() != ChoicePlay {
		t.Fatalf("choice = %v, want play", m.Choice())
	}
	if cmd == nil {
		t.Fatal("selecting play should finish the menu")
	}
}

func TestMenuDifficultyCycles(t *testing.T) {
	m := NewMenuModel("", config.DifficultyEasy, 0, 80, 24)

	m = menuUpdate(m, "down", "right")
	if m.Difficulty() != config.DifficultyNormal {
		t.Fatalf("after right: %q, want normal", m.Difficulty())
	}
	m = menuUpdate(m, "right", "right")
	if m.Difficulty() != config.DifficultyEasy {
		t.Fatalf("difficulty should wrap around, got %q", m.Difficulty())
	}
	m = menuUpdate(m, "left")
	if m.Difficulty() != config.DifficultyHard {
		t.Fatalf("after left: %q, want hard", m.Difficulty())
	}
	m = menuUpdate(m, "enter")
	if m.Choice() != ChoiceNone {
		t.Fatalf("enter on difficulty should not leave the menu, got %v", m.Choice())
	}
	if m.Difficulty() != config.DifficultyEasy {
		t.Fatalf("enter on difficulty should cycle it, got %q", m.Difficulty())
	}
}

func TestMenuArrowsOutsideDifficulty(t *testing.T) {
	m := NewMenuModel("", config.DifficultyEasy, 0, 80, 24)
	m = menuUpdate(m, "right")
	if m.Difficulty() != config.DifficultyEasy {
		t.Fatal("left/right should only change difficulty on its row")
	}
}

func TestMenuChoices(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want MenuChoice
	}{
		{"tab opens scores", []string{"tab"}, ChoiceScoreboard},
		{"leaderboard item", []string{"down", "down", "enter"}, ChoiceScoreboard},
		{"quit item", []string{"down", "down", "down", "enter"}, ChoiceQuit},
		{"cursor clamps", []string{"down", "down", "down", "down", "down", "enter"}, ChoiceQuit},
		{"q quits", []string{"q"}, ChoiceQuit},
		{"up at top", []string{"up", "enter"}, ChoicePlay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := menuUpdate(NewMenuModel("", config.DifficultyEasy, 0, 80, 24), tt.keys...)
			if m.Choice() != tt.want {
				t.Errorf("choice = %v, want %v", m.Choice(), tt.want)
			}
		})
	}
}

func TestMenuView(t *testing.T) {
	m := NewMenuModel("alice", config.DifficultyHard, 12, 80, 24)
	view := m.View()
	for _, want := range []string{"Playing as alice", "Best level: 12", "Hard (level 8)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = menuUpdate(m, "q")
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestMenuResize(t *testing.T) {
	m := NewMenuModel("", config.DifficultyEasy, 0, 80, 24)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	w, h := next.(MenuModel).Size()
	if w != 120 || h != 40 {
		t.Fatalf("size = %dx%d, want 120x40", w, h)
	}
}
