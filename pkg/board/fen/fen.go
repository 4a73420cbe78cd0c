// Package fen reads and writes chess positions and game-clock state in Forsyth-Edwards
// Notation, the wire format match.Runner uses to tell engines the current position via
// "position fen ..." and pgnout uses to record a game's final position.
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/chessarbiter/chessarbiter/pkg/board"
)

const (
	Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Decode parses a FEN record into a Position plus the three pieces of game state FEN
// carries alongside it: the side to move, the halfmove (no-progress) clock and the
// fullmove number.
//
// Example: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
func Decode(fen string) (*board.Position, board.Color, int, int, error) {
	parts := strings.Split(strings.TrimSpace(fen), " ")
	if len(parts) != 6 {
		return nil, 0, 0, 0, fmt.Errorf("invalid number of sections in FEN: '%v'", fen)
	}

	placement, err := decodePlacement(parts[0])
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("invalid FEN '%v': %w", fen, err)
	}

	active, ok := board.ParseColor(parts[1])
	if !ok {
		return nil, 0, 0, 0, fmt.Errorf("invalid active color in FEN: '%v'", fen)
	}

	castling, ok := board.ParseCastling(parts[2])
	if !ok {
		return nil, 0, 0, 0, fmt.Errorf("invalid castling in FEN: '%v'", fen)
	}

	var ep board.Square
	if parts[3] != "-" {
		sq, err := board.ParseSquareStr(parts[3])
		if err != nil {
			return nil, 0, 0, 0, fmt.Errorf("invalid en passant in FEN: '%v'", fen)
		}
		ep = sq
	}

	// Halfmove clock: halfmoves since the last pawn advance or capture, used for the
	// 50-move rule.
	np, err := strconv.Atoi(parts[4])
	if err != nil || np < 0 {
		return nil, 0, 0, 0, fmt.Errorf("invalid halfmove in FEN: '%v'", fen)
	}

	// Fullmove number: starts at 1, increments after Black's move.
	fm, err := strconv.Atoi(parts[5])
	if err != nil || fm < 0 {
		return nil, 0, 0, 0, fmt.Errorf("invalid full moves in FEN: '%v'", fen)
	}

	pos, _ := board.NewPosition(placement, castling, ep)
	return pos, active, np, fm, nil
}

// decodePlacement parses FEN's piece-placement field, which walks ranks 8 down to 1 and
// files a through h within each rank, using digits 1-8 to run-length encode blank squares.
func decodePlacement(field string) ([]board.Placement, error) {
	var pieces []board.Placement

	sq := board.A8
	for _, r := range field {
		switch {
		case r == '/':
			// rank separator, purely cosmetic
		case unicode.IsDigit(r):
			sq -= board.Square(r - '0')
		case unicode.IsLetter(r):
			piece, ok := board.ParsePiece(r)
			if !ok {
				return nil, fmt.Errorf("invalid piece '%v'", r)
			}
			color := board.Black
			if unicode.IsUpper(r) {
				color = board.White
			}
			pieces = append(pieces, board.Placement{Square: sq, Color: color, Piece: piece})
			sq--
		default:
			return nil, fmt.Errorf("invalid character '%v'", r)
		}
	}
	if sq+1 != board.H1 {
		return nil, fmt.Errorf("invalid number of squares")
	}
	return pieces, nil
}

// Encode renders a position and its accompanying game state back into a FEN record.
func Encode(pos *board.Position, c board.Color, noprogress, fullmoves int) string {
	var sb strings.Builder
	for r := board.ZeroRank; r < board.NumRanks; r++ {
		blanks := 0
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			color, piece, ok := pos.Square(board.NewSquare(board.NumFiles-f-1, board.NumRanks-r-1))
			if !ok {
				blanks++
				continue
			}

			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteString(printPiece(color, piece))
		}

		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if r < board.NumRanks-1 {
			sb.WriteString("/")
		}
	}

	ep := "-"
	if sq, ok := pos.EnPassant(); ok {
		ep = sq.String()
	}

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), c, pos.Castling(), ep, noprogress, fullmoves)
}

// printPiece renders a piece with FEN's case-for-color convention: uppercase for White,
// lowercase for Black. Piece.String() already returns the lowercase letter.
func printPiece(c board.Color, p board.Piece) string {
	if c == board.White {
		return strings.ToUpper(p.String())
	}
	return p.String()
}
