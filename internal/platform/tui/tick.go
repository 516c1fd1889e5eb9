// Package tui provides the Bubble Tea front end for Memory Master and the
// Wish SSH server that serves it.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/memory-master/internal/session"
)

// noticeDuration is how long a transient notice stays on screen.
const noticeDuration = 3 * time.Second

// eventMsg wraps an event from the session runner.
type eventMsg struct {
	evt session.Event
}

// sessionClosedMsg is sent once the runner has stopped.
type sessionClosedMsg struct{}

// noticeExpiredMsg clears the notice with the matching id.
type noticeExpiredMsg struct {
	id int
}

// waitForEvent returns a command that waits for the next runner event.
func waitForEvent(r *session.Runner) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-r.Events():
			return eventMsg{evt: evt}
		case <-r.Done():
			return sessionClosedMsg{}
		}
	}
}

// expireNotice returns a command that clears notice id after noticeDuration.
func expireNotice(id int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}
