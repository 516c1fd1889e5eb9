package api

import (
	"time"

	"github.com/vovakirdan/memory-master/internal/games/memory"
	"github.com/vovakirdan/memory-master/internal/session"
	"github.com/vovakirdan/memory-master/internal/storage"
)

type entryJSON struct {
	Rank      int       `json:"rank"`
	PlayerID  string    `json:"player_id"`
	Username  string    `json:"username"`
	Handle    string    `json:"handle,omitempty"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toEntryJSON(e storage.Entry) entryJSON {
	return entryJSON{
		Rank:      e.Rank,
		PlayerID:  e.PlayerID,
		Username:  e.Username,
		Handle:    e.Handle,
		Score:     e.Score,
		Level:     e.Level,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

type cellJSON struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type snapshotJSON struct {
	PlayerID        string     `json:"player_id"`
	Round           int        `json:"round"`
	Phase           string     `json:"phase"`
	Outcome         string     `json:"outcome"`
	Started         bool       `json:"started"`
	Paused          bool       `json:"paused"`
	Over            bool       `json:"over"`
	Level           int        `json:"level"`
	Score           int        `json:"score"`
	Lives           int        `json:"lives"`
	HighestLevel    int        `json:"highest_level"`
	LevelWhenFailed int        `json:"level_when_failed"`
	TimeRemaining   int        `json:"time_remaining"`
	Clock           string     `json:"clock"`
	Hurry           bool       `json:"hurry"`
	ResetAvailable  bool       `json:"reset_available"`
	Shape           []cellJSON `json:"shape"`
	Selections      []int      `json:"selections"`
	Accuracy        float64    `json:"accuracy"`
	RoundScore      int        `json:"round_score"`
}

func toSnapshotJSON(s memory.Snapshot) snapshotJSON {
	out := snapshotJSON{
		PlayerID:        s.PlayerID,
		Round:           s.Round,
		Phase:           s.Phase.String(),
		Outcome:         s.Outcome.String(),
		Started:         s.Started,
		Paused:          s.Paused,
		Over:            s.Over,
		Level:           s.Level,
		Score:           s.Score,
		Lives:           s.Lives,
		HighestLevel:    s.HighestLevel,
		LevelWhenFailed: s.LevelWhenFailed,
		TimeRemaining:   s.TimeRemaining,
		ResetAvailable:  s.ResetAvailable,
		Shape:           make([]cellJSON, 0, len(s.Shape)),
		Selections:      s.Selections,
		Accuracy:        s.Accuracy,
		RoundScore:      s.RoundScore,
	}
	if s.Phase.Timed() {
		out.Clock = memory.FormatClock(s.TimeRemaining)
		out.Hurry = memory.Hurry(s.TimeRemaining)
	}
	for _, c := range s.Shape {
		out.Shape = append(out.Shape, cellJSON{Row: c.Row, Col: c.Col})
	}
	if out.Selections == nil {
		out.Selections = []int{}
	}
	return out
}

// serverMessage is a frame sent to websocket clients.
type serverMessage struct {
	Type     string        `json:"type"`
	Snapshot *snapshotJSON `json:"snapshot,omitempty"`

	// round and run_over
	Round     int      `json:"round,omitempty"`
	Outcome   string   `json:"outcome,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Points    int      `json:"points,omitempty"`
	LivesLeft *int     `json:"lives_left,omitempty"`
	Score     int      `json:"score,omitempty"`
	Level     int      `json:"level,omitempty"`
	Highest   int      `json:"highest_level,omitempty"`
	NewBest   bool     `json:"new_best,omitempty"`
	Share     string   `json:"share,omitempty"`

	// payment and error
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
}

func encodeEvent(evt session.Event) (serverMessage, bool) {
	switch e := evt.(type) {
	case session.SnapshotEvent:
		s := toSnapshotJSON(e.Snapshot)
		return serverMessage{Type: "snapshot", Snapshot: &s}, true
	case session.RoundEvent:
		// Set even when zero: a failed round reports accuracy 0, and the
		// last life lost reports lives_left 0.
		accuracy, lives := e.Result.Accuracy, e.Result.LivesLeft
		return serverMessage{
			Type:      "round",
			Round:     e.Result.Round,
			Outcome:   e.Result.Outcome.String(),
			Accuracy:  &accuracy,
			Points:    e.Result.Points,
			LivesLeft: &lives,
			Level:     e.Result.Level,
		}, true
	case session.RunOverEvent:
		return serverMessage{
			Type:    "run_over",
			Score:   e.Result.Score,
			Level:   e.Result.Level,
			Highest: e.Result.HighestLevel,
			NewBest: e.NewBest,
			Share:   e.Share,
		}, true
	case session.PaymentEvent:
		m := serverMessage{Type: "payment", State: e.State.String(), Message: e.Message}
		if e.Receipt != nil {
			m.TxHash = e.Receipt.TxHash
		}
		return m, true
	}
	return serverMessage{}, false
}

// clientMessage is a command frame from a websocket client.
type clientMessage struct {
	Type string `json:"type"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

func (m clientMessage) command() (memory.Command, bool) {
	kind, ok := memory.ParseCommandKind(m.Type)
	if !ok {
		return memory.Command{}, false
	}
	return memory.Command{Kind: kind, Row: m.Row, Col: m.Col}, true
}
