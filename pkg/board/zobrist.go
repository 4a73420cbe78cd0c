package board

import "math/rand"

// ZobristHash is a position hash built from piece-square, castling-rights, en-passant-file
// and side-to-move components. Board's ply history keys its repetition counter by this
// hash, so any two positions that hash equal are treated as "identical" for the 3-fold
// and 5-fold repetition rules.
//
// See also: https://research.cs.wisc.edu/techreports/1970/TR88.pdf.
type ZobristHash uint64

// ZobristTable holds one pseudo-random value per (color, piece, square), castling-rights
// combination, en-passant file and side to move. A position's hash is the XOR of the
// entries matching its features; XOR's self-inverse property is what makes the
// incremental Move update possible without rehashing the whole board.
type ZobristTable struct {
	pieces    [NumColors][NumPieces][NumSquares]ZobristHash
	castling  [NumCastling]ZobristHash
	enpassant [NumSquares]ZobristHash
	turn      [NumColors]ZobristHash
}

// NewZobristTable builds a table from the given seed. Two tables built from the same
// seed produce identical hashes; a tournament run typically seeds once at startup so
// hash values are stable for the run's lifetime but need not match across runs.
func NewZobristTable(seed int64) *ZobristTable {
	t := &ZobristTable{}
	r := rand.New(rand.NewSource(seed))

	for c := ZeroColor; c < NumColors; c++ {
		for p := ZeroPiece; p < NumPieces; p++ {
			for sq := ZeroSquare; sq < NumSquares; sq++ {
				t.pieces[c][p][sq] = ZobristHash(r.Uint64())
			}
		}
		t.turn[c] = ZobristHash(r.Uint64())
	}
	for i := ZeroCastling; i < NumCastling; i++ {
		t.castling[i] = ZobristHash(r.Uint64())
	}
	for sq := ZeroSquare; sq < NumSquares; sq++ {
		// Only the two en-passant ranks can ever be a legal target square, so only those
		// get entries; every other index stays the zero hash and never contributes.
		if sq.Rank() == Rank3 || sq.Rank() == Rank6 {
			t.enpassant[sq] = ZobristHash(r.Uint64())
		}
	}
	return t
}

// Hash computes the zobrist hash for the given position and side to move from scratch.
func (t *ZobristTable) Hash(pos *Position, turn Color) ZobristHash {
	var hash ZobristHash

	for sq := ZeroSquare; sq < NumSquares; sq++ {
		if c, p, ok := pos.Square(sq); ok {
			hash ^= t.pieces[c][p][sq]
		}
	}
	hash ^= t.castling[pos.Castling()]
	if ep, ok := pos.EnPassant(); ok {
		hash ^= t.enpassant[ep]
	}
	hash ^= t.turn[turn]

	return hash
}

// Move derives the hash of the position after applying the (legal) move m, given the
// hash of pos before the move. This only XORs in the squares/status that actually
// changed, which is cheaper than Hash-ing the resulting position outright and is what
// lets Board extend its ply history by one entry per move instead of rehashing.
func (t *ZobristTable) Move(h ZobristHash, pos *Position, m Move) ZobristHash {
	hash := h

	turn, _, _ := pos.Square(m.From)

	// Undo the pre-move metastatus (castling rights, en passant target, side to move):
	// these get re-applied below using post-move values.
	hash ^= t.castling[pos.Castling()]
	if ep, ok := pos.EnPassant(); ok {
		hash ^= t.enpassant[ep]
	}
	hash ^= t.turn[turn]

	hash ^= t.pieces[turn][m.Piece][m.From]

	switch m.Type {
	case Capture:
		hash ^= t.pieces[turn.Opponent()][m.Capture][m.To]
		hash ^= t.pieces[turn][m.Piece][m.To]

	case Promotion:
		hash ^= t.pieces[turn][m.Promotion][m.To]

	case CapturePromotion:
		hash ^= t.pieces[turn.Opponent()][m.Capture][m.To]
		hash ^= t.pieces[turn][m.Promotion][m.To]

	case EnPassant:
		hash ^= t.pieces[turn][m.Piece][m.To]
		epc, _ := m.EnPassantCapture()
		hash ^= t.pieces[turn.Opponent()][Pawn][epc]

	case KingSideCastle, QueenSideCastle:
		hash ^= t.pieces[turn][m.Piece][m.To]
		from, to, _ := m.CastlingRookMove()
		hash ^= t.pieces[turn][Rook][from]
		hash ^= t.pieces[turn][Rook][to]

	default:
		hash ^= t.pieces[turn][m.Piece][m.To]
	}

	hash ^= t.castling[pos.Castling().Revoke(m.CastlingRightsLost())]
	ept, _ := m.EnPassantTarget()
	hash ^= t.enpassant[ept]
	hash ^= t.turn[turn.Opponent()]

	return hash
}
