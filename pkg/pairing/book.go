package pairing

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/board/fen"
)

// BookFormat selects the opening book's on-disk encoding.
type BookFormat string

const (
	EPD BookFormat = "epd"
	PGN BookFormat = "pgn"
)

// Entry is one opening book position: a FEN plus the UCI moves that reach it, truncated
// to at most Plies moves by ParseBook.
type Entry struct {
	FEN   string
	Moves []string
}

// ParseBook reads an opening book in the given format, truncating every line's move list
// to at most plies moves. PGN/EPD I/O is an out-of-scope external collaborator per
// spec.md §1, so both formats are read minimally: EPD ignores trailing opcodes past the
// FEN's first four fields, and PGN reads movetext only (tags, {brace} comments and result
// tokens are stripped; ';' line comments, NAGs and variations are not supported).
func ParseBook(r io.Reader, format BookFormat, plies int) ([]Entry, error) {
	switch format {
	case EPD:
		return parseEPD(r, plies)
	case PGN:
		return parsePGN(r, plies)
	default:
		return nil, errors.Errorf("pairing: unknown book format %q", format)
	}
}

func parseEPD(r io.Reader, plies int) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, errors.Errorf("pairing: malformed EPD line %q", line)
		}
		f := strings.Join(fields[:4], " ") + " 0 1"
		if _, _, _, _, err := fen.Decode(f); err != nil {
			return nil, errors.Wrapf(err, "pairing: invalid EPD position %q", line)
		}
		entries = append(entries, Entry{FEN: f})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parsePGN(r io.Reader, plies int) ([]Entry, error) {
	var entries []Entry
	var movetext strings.Builder

	flush := func() error {
		text := movetext.String()
		movetext.Reset()
		moves := extractMoves(text)
		if len(moves) == 0 {
			return nil
		}
		b := board.NewBoard(board.NewZobristTable(1), initialPosition(), board.White, 0, 1)
		uciMoves, err := replayToUCI(b, moves, plies)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{FEN: fen.Initial, Moves: uciMoves})
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			continue
		}
		if trimmed == "" {
			if movetext.Len() > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			continue
		}
		movetext.WriteString(" ")
		movetext.WriteString(trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if movetext.Len() > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// extractMoves strips move numbers, result tokens and {brace} comments from raw PGN
// movetext.
func extractMoves(text string) []string {
	var out []string
	inComment := false
	for _, tok := range strings.Fields(text) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if inComment || strings.HasPrefix(tok, "{") {
			inComment = !strings.HasSuffix(tok, "}")
			continue
		}
		if isResult(tok) {
			continue
		}
		if i := strings.IndexByte(tok, '.'); i >= 0 {
			rest := tok[i+1:]
			if rest == "" {
				continue
			}
			tok = rest
		}
		if strings.Trim(tok, "0123456789.") == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isResult(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	default:
		return false
	}
}

func initialPosition() *board.Position {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	if err != nil {
		panic(err) // fen.Initial is a compile-time constant, always valid
	}
	return pos
}

// replayToUCI resolves a book's SAN-ish movetext against the rules engine to produce UCI
// coordinate moves, since engines and the ProcessHandle layer only ever speak UCI.
func replayToUCI(b *board.Board, san []string, plies int) ([]string, error) {
	if plies > 0 && len(san) > plies {
		san = san[:plies]
	}
	out := make([]string, 0, len(san))
	for _, token := range san {
		m, ok := resolveSAN(b, token)
		if !ok {
			return nil, errors.Errorf("pairing: could not resolve move %q against legal moves", token)
		}
		out = append(out, strings.ToLower(m.String()))
		b.PushMove(m)
	}
	return out, nil
}

// resolveSAN does minimal disambiguation: strip check/mate/capture markers and promotion
// suffix, match by destination square and piece letter against the legal move list. Full
// SAN parsing belongs to the chess rules library, not this book reader.
func resolveSAN(b *board.Board, token string) (board.Move, bool) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '+', '#', '!', '?':
			return -1
		default:
			return r
		}
	}, token)
	if clean == "O-O" || clean == "0-0" {
		return findCastle(b, false)
	}
	if clean == "O-O-O" || clean == "0-0-0" {
		return findCastle(b, true)
	}

	dest := clean
	promo := ""
	if i := strings.IndexByte(clean, '='); i >= 0 {
		promo = strings.ToLower(clean[i+1:])
		dest = clean[:i]
	}
	if len(dest) < 2 {
		return board.Move{}, false
	}
	destSquare := dest[len(dest)-2:]
	piece := board.Pawn
	if strings.ContainsRune("NBRQK", rune(dest[0])) {
		piece, _ = board.ParsePiece(rune(dest[0]))
	}

	moves := b.Position().LegalMoves(b.Turn())
	var candidates []board.Move
	for _, m := range moves {
		if m.Piece == piece && strings.EqualFold(m.String()[2:4], destSquare) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	for _, m := range candidates {
		if promo != "" && strings.HasSuffix(strings.ToLower(m.String()), promo) {
			return m, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return board.Move{}, false
}

func findCastle(b *board.Board, queenside bool) (board.Move, bool) {
	for _, m := range b.Position().LegalMoves(b.Turn()) {
		switch m.Type {
		case board.KingSideCastle:
			if !queenside {
				return m, true
			}
		case board.QueenSideCastle:
			if queenside {
				return m, true
			}
		}
	}
	return board.Move{}, false
}
