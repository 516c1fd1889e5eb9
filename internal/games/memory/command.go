package memory

// CommandKind identifies a player action.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdStart
	CmdClick
	CmdSubmit
	CmdProceed
	CmdReset
	CmdPause
	CmdResume
	CmdAckSuccess
	CmdAckFailure
	CmdContinue
)

var commandNames = [...]string{
	CmdNone:       "none",
	CmdStart:      "start",
	CmdClick:      "click",
	CmdSubmit:     "submit",
	CmdProceed:    "proceed",
	CmdReset:      "reset",
	CmdPause:      "pause",
	CmdResume:     "resume",
	CmdAckSuccess: "ack_success",
	CmdAckFailure: "ack_failure",
	CmdContinue:   "continue",
}

// String returns the wire name of the command.
func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[k]
}

// ParseCommandKind maps a wire name to a command kind.
func ParseCommandKind(name string) (CommandKind, bool) {
	for i, n := range commandNames {
		if n == name && CommandKind(i) != CmdNone {
			return CommandKind(i), true
		}
	}
	return CmdNone, false
}

// Command is a player action addressed to an engine. Row and Col are only
// used by CmdClick.
type Command struct {
	Kind CommandKind
	Row  int
	Col  int
}

// Handle applies a command to the engine.
func (e *Engine) Handle(cmd Command) {
	switch cmd.Kind {
	case CmdStart:
		e.Start()
	case CmdClick:
		e.ClickCell(cmd.Row, cmd.Col)
	case CmdSubmit:
		e.Submit()
	case CmdProceed:
		e.ProceedEarly()
	case CmdReset:
		e.ResetPattern()
	case CmdPause:
		e.Pause()
	case CmdResume:
		e.Resume()
	case CmdAckSuccess:
		e.AcknowledgeSuccess()
	case CmdAckFailure:
		e.AcknowledgeFailure()
	case CmdContinue:
		e.ContinueAfterPayment()
	}
}
