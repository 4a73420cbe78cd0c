package board

import "fmt"

// Outcome is the decided outcome of a game, if any. 2 bits.
type Outcome uint8

const (
	Undecided Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

// Loss returns the outcome of the given color losing.
func Loss(c Color) Outcome {
	if c == White {
		return BlackWins
	}
	return WhiteWins
}

var outcomeScores = map[Outcome]string{
	WhiteWins: "1-0",
	BlackWins: "0-1",
	Draw:      "1/2-1/2",
}

// String renders the outcome as a PGN result tag value ("1-0", "0-1", "1/2-1/2" or "*"
// while undecided).
func (o Outcome) String() string {
	if s, ok := outcomeScores[o]; ok {
		return s
	}
	return "*"
}

// Reason is the rules-based termination reason for a Result. Adjudicated reasons
// (draw/resign/maxmoves/tablebase) live outside the board package; it only knows
// about the reasons it can detect from position and move history itself.
type Reason uint8

const (
	NoReason Reason = iota
	Checkmate
	Stalemate
	Repetition3
	Repetition5
	NoProgress
	InsufficientMaterial
)

var reasonNames = map[Reason]string{
	Checkmate:            "checkmate",
	Stalemate:            "stalemate",
	Repetition3:          "threefold repetition",
	Repetition5:          "fivefold repetition",
	NoProgress:           "fifty-move rule",
	InsufficientMaterial: "insufficient material",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "none"
}

// Result is the terminal status of a board, if decided by the rules themselves.
type Result struct {
	Outcome Outcome
	Reason  Reason
}

func (r Result) String() string {
	if r.Reason == NoReason {
		return "undecided"
	}
	return fmt.Sprintf("%v (%v)", r.Outcome, r.Reason)
}
