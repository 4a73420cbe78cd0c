// Package report renders a tournament's live progress: a terminal dashboard built on
// bubbletea/lipgloss, and an optional JSON-over-websocket feed for a spectator page.
// Both are external-collaborator-facing per spec.md §1 — deliberately thin renderers of
// a stats.Snapshot, never a GUI for playing chess (an explicit Non-goal).
package report

import (
	"time"

	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
)

// GameEvent is one finished game, reduced to what a dashboard or spectator feed needs.
type GameEvent struct {
	GameID    int       `json:"game_id"`
	Round     int       `json:"round"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"` // e.g. "1-0 (checkmate)"
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newGameEvent(p pairing.Pairing, g *match.Game, err error) GameEvent {
	ev := GameEvent{GameID: p.GameID, Round: p.Round, White: p.White, Black: p.Black, Timestamp: time.Now()}
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	if g != nil {
		ev.Result = g.Result.Outcome.String() + " (" + g.Result.Reason.String() + ")"
	}
	return ev
}

// Multi fans GameFinished/Snapshot callbacks out to every Reporter in the slice, so a
// scheduler can drive a terminal dashboard and a websocket feed from one Reporter value.
type Multi []interface {
	GameFinished(p pairing.Pairing, g *match.Game, err error)
	Snapshot(snap stats.Snapshot)
}

func (m Multi) GameFinished(p pairing.Pairing, g *match.Game, err error) {
	for _, r := range m {
		r.GameFinished(p, g, err)
	}
}

func (m Multi) Snapshot(snap stats.Snapshot) {
	for _, r := range m {
		r.Snapshot(snap)
	}
}
