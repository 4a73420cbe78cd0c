// Package adjudicate implements early-termination rules for an in-progress game: rules
// draws pass through from the board, then max-moves, tablebase, score-draw and resign in
// a fixed priority order.
package adjudicate

import (
	"context"
	"fmt"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/board/fen"
	"github.com/chessarbiter/chessarbiter/pkg/tablebase"
)

// ResultType selects which tablebase verdicts the adjudicator acts on.
type ResultType int

const (
	WinLoss ResultType = iota
	DrawOnly
	Both
)

// Config holds the thresholds an Adjudicator is constructed with; side counters reset
// whenever the underlying condition breaks.
type Config struct {
	MaxMoves        int // 0 disables; full_move_number >= MaxMoves adjudicates a draw

	TablebaseEnabled bool
	MaxPieces        int
	ResultType       ResultType
	IgnoreFiftyMove  bool // tablebase verdict overrides the 50-move counter
	Prober           tablebase.Prober

	DrawScoreCp           int // |score| <= this counts toward a score-draw
	DrawMoveCount         int // consecutive plies required, per side
	DrawMoveNumberThreshold int // full-move number at/after which a score-draw may fire

	ResignScoreCp   int // score <= -this counts toward a resignation
	ResignMoveCount int // consecutive plies required
	ResignTwoSided  bool // require the other side's score to mirror as >= +ResignScoreCp
}

// Outcome is the adjudicator's verdict, distinct from the board's own rules-based Result.
type Outcome struct {
	Adjudicated bool
	Reason      string // "maxmoves", "tablebase", "draw", "resign"
	Result      board.Result
}

// Adjudicator tracks the rolling per-side score streaks needed by the score-draw and
// resign rules. It is stateful and must be driven one ply at a time, in game order.
type Adjudicator struct {
	cfg Config

	drawStreak   [board.NumColors]int
	resignStreak [board.NumColors]int
}

// New constructs an Adjudicator. Thresholds are fixed for the Adjudicator's lifetime.
func New(cfg Config) *Adjudicator {
	return &Adjudicator{cfg: cfg}
}

// Ply is the per-move input the adjudicator's rules 2-5 need. Rule 1 (rules draws) is
// expected to already have been checked by the caller against the board's own Result.
type Ply struct {
	Position        string // FEN, for tablebase probing
	FullMoveNumber  int
	Scores          [board.NumColors]*int // nil if that side hasn't reported a score yet
}

// Evaluate runs rules 2-5 in order and returns the first that fires.
func (a *Adjudicator) Evaluate(ctx context.Context, ply Ply) (Outcome, error) {
	if a.cfg.MaxMoves > 0 && ply.FullMoveNumber >= a.cfg.MaxMoves {
		return Outcome{Adjudicated: true, Reason: "maxmoves", Result: board.Result{Outcome: board.Draw}}, nil
	}

	if a.cfg.TablebaseEnabled && a.cfg.Prober != nil {
		if out, fired, err := a.evaluateTablebase(ctx, ply); err != nil {
			return Outcome{}, err
		} else if fired {
			return out, nil
		}
	}

	a.updateDrawStreak(ply)
	if a.drawFired(ply) {
		a.drawStreak = [board.NumColors]int{}
		return Outcome{Adjudicated: true, Reason: "draw", Result: board.Result{Outcome: board.Draw}}, nil
	}

	a.updateResignStreak(ply)
	if out, fired := a.resignFired(ply); fired {
		a.resignStreak = [board.NumColors]int{}
		return out, nil
	}

	return Outcome{}, nil
}

func (a *Adjudicator) evaluateTablebase(ctx context.Context, ply Ply) (Outcome, bool, error) {
	pos, turn, _, _, err := fen.Decode(ply.Position)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("adjudicate: invalid position %q: %w", ply.Position, err)
	}

	pieces := 0
	for c := board.ZeroColor; c < board.NumColors; c++ {
		pieces += pos.Pieces(c, board.NoPiece).PopCount()
	}
	if pieces > a.cfg.MaxPieces {
		return Outcome{}, false, nil
	}

	wdl, ok, err := a.cfg.Prober.Probe(ctx, ply.Position)
	if err != nil || !ok {
		return Outcome{}, false, err
	}

	switch wdl {
	case tablebase.Draw:
		if a.cfg.ResultType == WinLoss {
			return Outcome{}, false, nil
		}
		return Outcome{Adjudicated: true, Reason: "tablebase", Result: board.Result{Outcome: board.Draw}}, true, nil
	default:
		if a.cfg.ResultType == DrawOnly {
			return Outcome{}, false, nil
		}
		winner := turn
		if wdl == tablebase.Loss {
			winner = turn.Opponent()
		}
		out := board.WhiteWins
		if winner == board.Black {
			out = board.BlackWins
		}
		return Outcome{Adjudicated: true, Reason: "tablebase", Result: board.Result{Outcome: out}}, true, nil
	}
}

func (a *Adjudicator) updateDrawStreak(ply Ply) {
	if a.cfg.DrawScoreCp == 0 && a.cfg.DrawMoveCount == 0 {
		return
	}
	for c := board.ZeroColor; c < board.NumColors; c++ {
		score := ply.Scores[c]
		if score != nil && abs(*score) <= a.cfg.DrawScoreCp {
			a.drawStreak[c]++
		} else {
			a.drawStreak[c] = 0
		}
	}
}

func (a *Adjudicator) drawFired(ply Ply) bool {
	if a.cfg.DrawMoveCount == 0 || ply.FullMoveNumber < a.cfg.DrawMoveNumberThreshold {
		return false
	}
	for c := board.ZeroColor; c < board.NumColors; c++ {
		if a.drawStreak[c] < a.cfg.DrawMoveCount {
			return false
		}
	}
	return true
}

func (a *Adjudicator) updateResignStreak(ply Ply) {
	if a.cfg.ResignScoreCp == 0 && a.cfg.ResignMoveCount == 0 {
		return
	}
	for c := board.ZeroColor; c < board.NumColors; c++ {
		score := ply.Scores[c]
		if score != nil && *score <= -a.cfg.ResignScoreCp {
			a.resignStreak[c]++
		} else {
			a.resignStreak[c] = 0
		}
	}
}

func (a *Adjudicator) resignFired(ply Ply) (Outcome, bool) {
	if a.cfg.ResignMoveCount == 0 {
		return Outcome{}, false
	}
	for c := board.ZeroColor; c < board.NumColors; c++ {
		if a.resignStreak[c] < a.cfg.ResignMoveCount {
			continue
		}
		if a.cfg.ResignTwoSided {
			opp := c.Opponent()
			oppScore := ply.Scores[opp]
			if oppScore == nil || *oppScore < a.cfg.ResignScoreCp {
				continue
			}
		}
		return Outcome{Adjudicated: true, Reason: "resign", Result: board.Result{Outcome: board.Loss(c)}}, true
	}
	return Outcome{}, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
