// Package tablebase defines the endgame-probing interface the adjudicator depends on.
// No Syzygy/Gaviota binding exists anywhere in the retrieved reference pack, so the
// shipped implementation is a reference stub that recognizes only bare kings and a king
// plus one minor piece against a bare king; positions with pawns are not recognized.
// Real use requires swapping in a genuine probing library behind Prober.
package tablebase

import (
	"context"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/board/fen"
)

// WDL is a tablebase win/draw/loss verdict from the perspective of the side to move.
type WDL int

const (
	Loss WDL = -1
	Draw WDL = 0
	Win  WDL = 1
)

// Prober probes a position's WDL outcome. Probe's second return value is false when the
// position is outside the prober's supported piece count or material signature.
type Prober interface {
	Probe(ctx context.Context, position string) (WDL, bool, error)
}

// MaterialHeuristic is a reference Prober that only recognizes the small set of
// materially trivial endings where the rules decide the outcome without search: bare
// kings, and a lone extra minor piece with no pawns on the board.
type MaterialHeuristic struct {
	MaxPieces int
}

// NewMaterialHeuristic returns a Prober gating on maxPieces total pieces on the board.
func NewMaterialHeuristic(maxPieces int) *MaterialHeuristic {
	return &MaterialHeuristic{MaxPieces: maxPieces}
}

func (p *MaterialHeuristic) Probe(ctx context.Context, position string) (WDL, bool, error) {
	pos, _, _, _, err := fen.Decode(position)
	if err != nil {
		return Draw, false, err
	}

	total := 0
	pawns, minors, majors := 0, 0, 0
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for pc := board.Pawn; pc < board.NumPieces; pc++ {
			n := pos.Pieces(c, pc).PopCount()
			total += n
			switch pc {
			case board.Pawn:
				pawns += n
			case board.Knight, board.Bishop:
				minors += n
			case board.Rook, board.Queen:
				majors += n
			}
		}
	}

	if total > p.MaxPieces {
		return Draw, false, nil
	}
	if pawns > 0 || majors > 0 {
		return Draw, false, nil
	}

	// Bare kings, or king+king+one minor: always drawn by insufficient material.
	if total <= 3 && minors <= 1 {
		return Draw, true, nil
	}

	return Draw, false, nil
}
