package memory

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/memory-master/internal/core"
)

const (
	cellStrideX = 4 // columns per grid cell, including the gap
	cellStrideY = 2 // rows per grid cell, including the gap
	cellGlyphW  = 3

	hudHeight = 3

	boardW = GridSize*cellStrideX + 3
	boardH = GridSize*cellStrideY + 1

	// MinScreenW and MinScreenH are the smallest screen the board fits on.
	MinScreenW = boardW
	MinScreenH = hudHeight + boardH + 1
)

// View carries presentation-only state that the engine does not own.
type View struct {
	Cursor     Cell
	ShowCursor bool
	// Notice is a transient message such as a payment status.
	Notice string
	// Price is shown in the continue offer, e.g. "0.1 USDT".
	Price string
}

// Layout describes where the board sits on a screen.
type Layout struct {
	Board   core.Rect
	originX int
	originY int
}

// LayoutFor centers the board on a screen of the given size.
func LayoutFor(screenW, screenH int) Layout {
	x := (screenW - boardW) / 2
	y := hudHeight
	if x < 0 {
		x = 0
	}
	return Layout{
		Board:   core.NewRect(x, y, boardW, boardH),
		originX: x + 2,
		originY: y + 1,
	}
}

// CellOrigin returns the top-left screen position of a cell's glyph.
func (l Layout) CellOrigin(c Cell) (int, int) {
	return l.originX + c.Col*cellStrideX, l.originY + c.Row*cellStrideY
}

// CellAtPoint maps a screen position to the grid cell under it.
func (l Layout) CellAtPoint(x, y int) (Cell, bool) {
	dx := x - l.originX
	dy := y - l.originY
	if dx < 0 || dy < 0 {
		return Cell{}, false
	}
	c := Cell{Row: dy / cellStrideY, Col: dx / cellStrideX}
	if !c.Valid() {
		return Cell{}, false
	}
	return c, true
}

// Render draws a snapshot onto the screen.
func Render(dst *core.Screen, s Snapshot, v View) {
	dst.Clear()

	if dst.Width() < MinScreenW || dst.Height() < MinScreenH {
		renderTooSmall(dst)
		return
	}

	l := LayoutFor(dst.Width(), dst.Height())
	renderHUD(dst, s, l)
	renderBoard(dst, s, v, l)
	renderOverlay(dst, s, v, l)

	if v.Notice != "" {
		dst.DrawTextCentered(l.Board.Bottom(), v.Notice, core.ColorYellow)
	}
}

func renderTooSmall(dst *core.Screen) {
	y := dst.Height() / 2
	dst.DrawTextCentered(y, "Window too small", core.ColorDefault)
	dst.DrawTextCentered(y+1, "Please resize terminal", core.ColorGray)
}

func renderHUD(dst *core.Screen, s Snapshot, l Layout) {
	left := l.Board.X
	right := l.Board.Right()

	dst.DrawTextCentered(0, "MEMORY MASTER", core.ColorBrightCyan)

	dst.DrawTextColor(left, 1, fmt.Sprintf("Level %d", s.Level), core.ColorBrightWhite)
	score := fmt.Sprintf("Score %d", s.Score)
	dst.DrawTextColor((dst.Width()-len(score))/2, 1, score, core.ColorBrightYellow)

	hearts := strings.Repeat("♥", s.Lives) + strings.Repeat("♡", MaxLives-s.Lives)
	dst.DrawTextColor(right-utf8.RuneCountInString(hearts), 1, hearts, core.ColorBrightRed)

	status, color := phaseLabel(s)
	dst.DrawTextColor(left, 2, status, color)

	if s.Phase.Timed() {
		clock := FormatClock(s.TimeRemaining)
		c := core.ColorBrightWhite
		if Hurry(s.TimeRemaining) {
			c = core.ColorBrightRed
		}
		dst.DrawTextColor(right-len(clock), 2, clock, c)
	} else {
		best := fmt.Sprintf("Best L%d", s.HighestLevel)
		dst.DrawTextColor(right-len(best), 2, best, core.ColorGray)
	}
}

func phaseLabel(s Snapshot) (string, core.Color) {
	switch s.Phase {
	case PhaseMemorizing:
		if s.ResetAvailable {
			return "MEMORIZE  (R: new pattern)", core.ColorBrightCyan
		}
		return "MEMORIZE", core.ColorBrightCyan
	case PhaseRecalling:
		return fmt.Sprintf("RECALL  %d selected", len(s.Selections)), core.ColorBrightGreen
	case PhaseFeedback:
		if s.Outcome == OutcomeSuccess {
			return "PERFECT", core.ColorBrightGreen
		}
		return "MISSED", core.ColorBrightRed
	case PhaseOver:
		return "GAME OVER", core.ColorRed
	default:
		return "", core.ColorDefault
	}
}

func renderBoard(dst *core.Screen, s Snapshot, v View, l Layout) {
	dst.DrawBox(l.Board, core.ColorGray)

	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			c := Cell{Row: row, Col: col}
			x, y := l.CellOrigin(c)
			glyph, color := cellGlyph(s, c)
			dst.DrawTextColor(x, y, glyph, color)

			if v.ShowCursor && s.Phase == PhaseRecalling && v.Cursor == c {
				dst.SetColor(x-1, y, '[', core.ColorBrightWhite)
				dst.SetColor(x+cellGlyphW, y, ']', core.ColorBrightWhite)
			}
		}
	}
}

func cellGlyph(s Snapshot, c Cell) (string, core.Color) {
	inShape := s.ShapeContains(c)
	selected := s.Selected(c)

	switch s.Phase {
	case PhaseMemorizing:
		if inShape {
			return "███", core.ColorBrightCyan
		}
	case PhaseRecalling:
		if selected {
			return "███", core.ColorBrightYellow
		}
	case PhaseFeedback:
		switch {
		case inShape && selected:
			return "███", core.ColorBrightGreen
		case inShape:
			return "▒▒▒", core.ColorBrightCyan
		case selected:
			return "███", core.ColorBrightRed
		}
	}
	return "···", core.ColorGray
}

func renderOverlay(dst *core.Screen, s Snapshot, v View, l Layout) {
	cx, cy := l.Board.Center()

	switch {
	case s.Paused:
		drawOverlay(dst, cx, cy, core.ColorBrightYellow, "Game Paused", "Press P to resume")
	case s.Phase == PhaseIdle && s.Started:
		drawOverlay(dst, cx, cy, core.ColorBrightWhite, "Get Ready...", fmt.Sprintf("Level %d", s.Level))
	case s.Phase == PhaseIdle:
		drawOverlay(dst, cx, cy, core.ColorBrightWhite, "Memory Master", "Press Enter to start")
	case s.Phase == PhaseFeedback && s.Outcome == OutcomeSuccess:
		drawOverlay(dst, cx, cy+5, core.ColorBrightGreen,
			"Perfect!",
			fmt.Sprintf("+%d Points", s.RoundScore),
			fmt.Sprintf("Accuracy %.0f%%", s.Accuracy*100),
			"Enter: next level")
	case s.Phase == PhaseFeedback:
		lives := fmt.Sprintf("%d lives left", s.Lives)
		if s.Lives == 1 {
			lives = "1 life left"
		}
		next := "Enter: try again"
		if s.Lives == 0 {
			next = "Enter: continue"
		}
		drawOverlay(dst, cx, cy+5, core.ColorBrightRed,
			"Not quite!",
			fmt.Sprintf("Accuracy %.0f%%", s.Accuracy*100),
			lives,
			next)
	case s.Phase == PhaseOver:
		lines := []string{
			"GAME OVER",
			fmt.Sprintf("Final score %d", s.Score),
			fmt.Sprintf("Reached level %d", s.Level),
		}
		if v.Price != "" {
			lines = append(lines, fmt.Sprintf("C: pay %s to continue from level %d", v.Price, s.LevelWhenFailed))
		}
		lines = append(lines, "B: back to menu")
		drawOverlay(dst, cx, cy, core.ColorRed, lines...)
	}
}

// drawOverlay draws a bordered box of centered lines.
func drawOverlay(dst *core.Screen, centerX, centerY int, c core.Color, lines ...string) {
	maxLen := 0
	for _, line := range lines {
		maxLen = max(maxLen, utf8.RuneCountInString(line))
	}

	box := core.NewRect(centerX-(maxLen+4)/2, centerY-(len(lines)+2)/2, maxLen+4, len(lines)+2)
	dst.DrawRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, c)

	for i, line := range lines {
		x := centerX - utf8.RuneCountInString(line)/2
		dst.DrawTextColor(x, box.Y+1+i, line, c)
	}
}
