// Package pgnout renders finished games to PGN and EPD, the two sink formats spec.md §1
// names as external collaborators: chessarbiter writes the moves it already recorded,
// never re-deriving or validating them. No third-party PGN library appears anywhere in
// the retrieved example pack, so this writer is stdlib-only by necessity; see DESIGN.md.
package pgnout

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/board/fen"
	"github.com/chessarbiter/chessarbiter/pkg/match"
)

func resultTag(o board.Outcome) string {
	switch o {
	case board.WhiteWins:
		return "1-0"
	case board.BlackWins:
		return "0-1"
	case board.Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// WritePGN appends one game in PGN movetext form, tagged with the round number and game id
// the scheduler assigned it.
func WritePGN(w io.Writer, g *match.Game, round, gameID int) error {
	tag := resultTag(g.Result.Outcome)

	fmt.Fprintf(w, "[Event \"chessarbiter\"]\n")
	fmt.Fprintf(w, "[Round \"%d\"]\n", round)
	fmt.Fprintf(w, "[White \"%s\"]\n", g.White.Name)
	fmt.Fprintf(w, "[Black \"%s\"]\n", g.Black.Name)
	fmt.Fprintf(w, "[Result \"%s\"]\n", tag)
	fmt.Fprintf(w, "[GameId \"%d\"]\n", gameID)
	if g.Opening.FEN != "" {
		fmt.Fprintf(w, "[FEN \"%s\"]\n", g.Opening.FEN)
		fmt.Fprintf(w, "[SetUp \"1\"]\n")
	}
	if g.Result.Reason.Kind == match.Adjudicated {
		fmt.Fprintf(w, "[Termination \"adjudicated: %s\"]\n", g.Result.Reason.Adjudication)
	}
	fmt.Fprintln(w)

	var sb strings.Builder
	moveNumber := 1
	for i, m := range g.Moves {
		if m.By == board.White {
			fmt.Fprintf(&sb, "%d. %s ", moveNumber, m.UCI)
		} else {
			fmt.Fprintf(&sb, "%s ", m.UCI)
			moveNumber++
		}
		if (i+1)%10 == 0 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(tag)
	fmt.Fprintln(w, sb.String())
	fmt.Fprintln(w)
	return nil
}

// WriteEPD appends one line per finished game's final position in EPD form (FEN plus the
// engine names and result as opcodes), the lighter sink spec.md §6's -epdout selects.
func WriteEPD(w io.Writer, g *match.Game) error {
	finalFEN, err := FinalFEN(g)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s c0 \"%s vs %s\"; c1 \"%s\";\n", finalFEN, g.White.Name, g.Black.Name, resultTag(g.Result.Outcome))
	return err
}

// FinalFEN replays a finished game's recorded moves from its opening FEN to recover the
// final position. Game.Moves already begins with the opening's own moves (match.Runner
// records them before play starts), so they are not replayed separately.
func FinalFEN(g *match.Game) (string, error) {
	start := g.Opening.FEN
	if start == "" {
		start = fen.Initial
	}
	pos, turn, noprogress, fullmoves, err := fen.Decode(start)
	if err != nil {
		return "", errors.Wrap(err, "pgnout: invalid opening FEN")
	}
	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)

	for _, mv := range g.Moves {
		full, ok := resolveUCI(b, mv.UCI)
		if !ok {
			return "", errors.Errorf("pgnout: invalid recorded move %q", mv.UCI)
		}
		b.PushMove(full)
	}
	return fen.Encode(b.Position(), b.Turn(), b.NoProgress(), b.FullMoves()), nil
}

func resolveUCI(b *board.Board, uciMove string) (board.Move, bool) {
	partial, err := board.ParseMove(uciMove)
	if err != nil {
		return board.Move{}, false
	}
	for _, m := range b.Position().LegalMoves(b.Turn()) {
		if m.Equals(partial) {
			return m, true
		}
	}
	return board.Move{}, false
}
