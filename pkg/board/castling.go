package board

import "strings"

// Castling is a 4-bit set of remaining castling rights, one bit per (Color, side) pair.
// Position clears the relevant bits whenever a king or rook moves or is captured.
type Castling uint8

const (
	WhiteKingSideCastle Castling = 1 << iota
	WhiteQueenSideCastle
	BlackKingSideCastle
	BlackQueenSideCastle
)

const (
	FullCastingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// Iteration helpers, used to index the zobrist castling table.
const (
	ZeroCastling Castling = 0
	NumCastling  Castling = FullCastingRights + 1
)

var castlingLetters = [...]struct {
	right  Castling
	letter string
}{
	{WhiteKingSideCastle, "K"},
	{WhiteQueenSideCastle, "Q"},
	{BlackKingSideCastle, "k"},
	{BlackQueenSideCastle, "q"},
}

// ParseCastling parses a FEN castling-availability field ("-", or some combination of
// "KQkq").
func ParseCastling(str string) (Castling, bool) {
	var ret Castling
	if str == "-" {
		return ret, true
	}
	for _, r := range str {
		switch r {
		case 'K':
			ret |= WhiteKingSideCastle
		case 'Q':
			ret |= WhiteQueenSideCastle
		case 'k':
			ret |= BlackKingSideCastle
		case 'q':
			ret |= BlackQueenSideCastle
		default:
			return 0, false
		}
	}
	return ret, true
}

// IsAllowed returns true iff all the given rights are allowed.
func (c Castling) IsAllowed(right Castling) bool {
	return c&right == right
}

// Revoke returns the rights remaining after the given rights are dropped, e.g. because
// a rook on that side was captured or moved.
func (c Castling) Revoke(right Castling) Castling {
	return c &^ right
}

func (c Castling) String() string {
	if c == 0 {
		return "-"
	}

	var sb strings.Builder
	for _, cl := range castlingLetters {
		if c.IsAllowed(cl.right) {
			sb.WriteString(cl.letter)
		}
	}
	return sb.String()
}
