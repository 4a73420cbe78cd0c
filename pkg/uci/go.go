package uci

import (
	"fmt"
	"strings"
)

// GoParams is the argument set for a UCI "go" command. Zero value means the field was
// not sent, mirroring the protocol's "absent == does not influence the search" rule.
type GoParams struct {
	WhiteTime, BlackTime   int // milliseconds
	WhiteInc, BlackInc     int // milliseconds
	MovesToGo              int
	Depth                  int
	Nodes                  uint64
	MoveTime               int // milliseconds, exact
	Infinite               bool
	SearchMoves            []string
}

// String renders the "go" command line, e.g. "go wtime 60000 btime 60000" (zero-valued fields are omitted).
func (p GoParams) String() string {
	parts := []string{"go"}

	if p.Infinite {
		parts = append(parts, "infinite")
	}
	if p.WhiteTime > 0 {
		parts = append(parts, fmt.Sprintf("wtime %v", p.WhiteTime))
	}
	if p.BlackTime > 0 {
		parts = append(parts, fmt.Sprintf("btime %v", p.BlackTime))
	}
	if p.WhiteInc > 0 {
		parts = append(parts, fmt.Sprintf("winc %v", p.WhiteInc))
	}
	if p.BlackInc > 0 {
		parts = append(parts, fmt.Sprintf("binc %v", p.BlackInc))
	}
	if p.MovesToGo > 0 {
		parts = append(parts, fmt.Sprintf("movestogo %v", p.MovesToGo))
	}
	if p.Depth > 0 {
		parts = append(parts, fmt.Sprintf("depth %v", p.Depth))
	}
	if p.Nodes > 0 {
		parts = append(parts, fmt.Sprintf("nodes %v", p.Nodes))
	}
	if p.MoveTime > 0 {
		parts = append(parts, fmt.Sprintf("movetime %v", p.MoveTime))
	}
	if len(p.SearchMoves) > 0 {
		parts = append(parts, "searchmoves")
		parts = append(parts, strings.Join(p.SearchMoves, " "))
	}

	return strings.Join(parts, " ")
}

// BestMove is the parsed result of a "bestmove <move> [ponder <move>]" line.
type BestMove struct {
	Move   string
	Ponder string // empty if the engine didn't suggest one
}

// ParseBestMove parses a "bestmove ..." line. A move of "0000" (the UCI null move) means
// the engine found no legal move, i.e. the position is checkmate or stalemate.
func ParseBestMove(line string) (BestMove, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return BestMove{}, false
	}

	bm := BestMove{Move: fields[1]}
	if len(fields) >= 4 && fields[2] == "ponder" {
		bm.Ponder = fields[3]
	}
	return bm, true
}
