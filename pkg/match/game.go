package match

import (
	"fmt"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/uci"
)

// ReasonKind discriminates the terminal-reason union of a GameResult.
type ReasonKind int

const (
	Normal ReasonKind = iota
	Adjudicated
	TimeForfeit
	IllegalMove
	Disconnect
	EngineError
	Interrupted
)

// Reason is the terminal-reason union described in the data model: exactly one field
// group is meaningful, selected by Kind.
type Reason struct {
	Kind ReasonKind

	NormalReason board.Reason // Kind == Normal
	Adjudication string       // Kind == Adjudicated: "draw"/"resign"/"maxmoves"/"tablebase"

	By      board.Color // Kind in {TimeForfeit, IllegalMove, Disconnect, EngineError}
	Move    string       // Kind == IllegalMove
	Message string       // Kind == EngineError
}

func (r Reason) String() string {
	switch r.Kind {
	case Normal:
		return r.NormalReason.String()
	case Adjudicated:
		return "adjudicated(" + r.Adjudication + ")"
	case TimeForfeit:
		return fmt.Sprintf("time forfeit by %v", r.By)
	case IllegalMove:
		return fmt.Sprintf("illegal move %v by %v", r.Move, r.By)
	case Disconnect:
		return fmt.Sprintf("disconnect by %v", r.By)
	case EngineError:
		return fmt.Sprintf("engine error by %v: %v", r.By, r.Message)
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// GameResult is the terminal status of one played game.
type GameResult struct {
	Outcome board.Outcome
	Reason  Reason
}

func (r GameResult) String() string {
	return fmt.Sprintf("%v (%v)", r.Outcome, r.Reason)
}

// MoveRecord is one annotated ply in the move log. SAN is intentionally not produced:
// the chess rules library is an out-of-scope external collaborator for SAN generation
// per spec.md §1; only the UCI coordinate form (which pkg/board does support) is kept.
type MoveRecord struct {
	UCI      string
	By       board.Color
	ThinkMs  int64
	Depth    int
	SelDepth int
	Score    *uci.Score
	Nodes    uint64
	NPS      uint64
	TBHits   uint64
	HashFull int
	PV       []string
	RawInfo  []string
}

// Game is the full record of one played game.
type Game struct {
	White, Black EngineConfig
	Opening      Opening

	Moves  []MoveRecord
	Result GameResult
}
