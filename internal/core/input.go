package core

// Action represents a semantic player intent, abstracted from physical keys
// and mouse buttons. The platform maps input to actions; the game layer
// decides what an action means in the current phase.
type Action int

const (
	ActionNone     Action = iota
	ActionUp              // W, Up arrow, k - move grid cursor up
	ActionDown            // S, Down arrow, j - move grid cursor down
	ActionLeft            // A, Left arrow, h - move grid cursor left
	ActionRight           // D, Right arrow, l - move grid cursor right
	ActionToggle          // Space - toggle the cell under the cursor
	ActionConfirm         // Enter - submit, proceed early or acknowledge
	ActionReset           // R - new pattern (once per round)
	ActionPause           // P - pause/resume
	ActionContinue        // C - pay to continue after game over
	ActionBack            // B, Escape - go back to menu
	ActionQuit            // Q, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionToggle:
		return "Toggle"
	case ActionConfirm:
		return "Confirm"
	case ActionReset:
		return "Reset"
	case ActionPause:
		return "Pause"
	case ActionContinue:
		return "Continue"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
