package memory

import "fmt"

// HurrySeconds is the remaining time at or below which the countdown is
// highlighted.
const HurrySeconds = 3

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Hurry reports whether the countdown should be highlighted.
func Hurry(seconds int) bool {
	return seconds <= HurrySeconds
}

// ShareText is the message offered to the player after a run.
func ShareText(score, level int) string {
	return fmt.Sprintf("I scored %d points and reached level %d in Memory Master! Can you beat me?", score, level)
}
