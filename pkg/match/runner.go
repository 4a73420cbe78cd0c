package match

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/seekerror/logw"

	"github.com/chessarbiter/chessarbiter/internal/process"
	"github.com/chessarbiter/chessarbiter/pkg/adjudicate"
	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/board/fen"
	"github.com/chessarbiter/chessarbiter/pkg/timecontrol"
	"github.com/chessarbiter/chessarbiter/pkg/uci"
)

// HandshakeDeadline is the long default used for one-time engine initialisation
// (setoption/ucinewgame/isready), since engines may do slow one-time setup.
const HandshakeDeadline = 60 * time.Second

const mateScoreCp = 100000

// Runner plays one game at a time between two already-handshaken EngineSessions.
type Runner struct {
	Adjudicator *adjudicate.Adjudicator
	Seed        int64
}

// NewRunner constructs a Runner. seed feeds the board's ZobristTable.
func NewRunner(adj *adjudicate.Adjudicator, seed int64) *Runner {
	return &Runner{Adjudicator: adj, Seed: seed}
}

// PlayGame runs one game to completion (or interruption) per spec.md §4.5's algorithm.
// white/black are already-spawned, handshaken sessions; PlayGame does not spawn them, and
// it sends "quit" to both when the game ends, so the caller (cmd/chessarbiter's play
// function) spawns fresh sessions for every pairing. EngineConfig.Restart is not consulted.
func (r *Runner) PlayGame(ctx context.Context, white, black EngineSession, whiteCfg, blackCfg EngineConfig, opening Opening) (*Game, error) {
	g := &Game{White: whiteCfg, Black: blackCfg, Opening: opening}

	b, err := newOpeningBoard(opening, r.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "match: invalid opening")
	}
	for _, mv := range opening.Moves {
		full, ok := findMove(b, mv)
		if !ok {
			return nil, errors.Errorf("match: invalid opening move %q", mv)
		}
		by := b.Turn()
		b.PushMove(full)
		g.Moves = append(g.Moves, MoveRecord{UCI: mv, By: by})
	}

	sessions := map[board.Color]EngineSession{board.White: white, board.Black: black}
	clocks := map[board.Color]*timecontrol.Clock{
		board.White: timecontrol.NewClock(whiteCfg.Limit),
		board.Black: timecontrol.NewClock(blackCfg.Limit),
	}
	var lastScore [board.NumColors]*int

	for _, c := range []board.Color{board.White, board.Black} {
		if err := sessions[c].NewGame(ctx); err != nil {
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(c), Reason: Reason{Kind: EngineError, By: c, Message: err.Error()}}), nil
		}
		if err := sessions[c].IsReady(ctx, HandshakeDeadline); err != nil {
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(c), Reason: Reason{Kind: EngineError, By: c, Message: err.Error()}}), nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return r.finish(ctx, g, sessions, GameResult{Reason: Reason{Kind: Interrupted}}), nil
		default:
		}

		turn := b.Turn()
		session := sessions[turn]

		moves := make([]string, 0, len(g.Moves))
		for _, m := range g.Moves {
			moves = append(moves, m.UCI)
		}
		if err := session.SetPosition(ctx, opening.FEN, moves); err != nil {
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(turn), Reason: Reason{Kind: Disconnect, By: turn}}), nil
		}

		clock := clocks[turn]
		params := goParams(clock, clocks[turn.Opponent()], turn)

		start := time.Now()
		if err := session.Go(ctx, params); err != nil {
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(turn), Reason: Reason{Kind: Disconnect, By: turn}}), nil
		}

		deadline, _ := clock.Deadline()
		bm, infos, err := session.WaitBestMove(ctx, deadline)
		think := time.Since(start)
		forfeit := clock.Advance(think)

		if err != nil {
			reason := classifyWaitError(err, turn)
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(turn), Reason: reason}), nil
		}
		if forfeit {
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(turn), Reason: Reason{Kind: TimeForfeit, By: turn}}), nil
		}

		full, ok := findMove(b, bm.Move)
		if !ok {
			return r.finish(ctx, g, sessions, GameResult{Outcome: board.Loss(turn), Reason: Reason{Kind: IllegalMove, By: turn, Move: bm.Move}}), nil
		}

		rec := MoveRecord{UCI: bm.Move, By: turn, ThinkMs: think.Milliseconds()}
		if len(infos) > 0 {
			last := infos[len(infos)-1]
			rec.Depth, rec.SelDepth = last.Depth, last.SelDepth
			rec.Score = last.Score
			rec.Nodes, rec.NPS, rec.TBHits, rec.HashFull = last.Nodes, last.NPS, last.TBHits, last.HashFull
			rec.PV = last.PV
			if cp, ok := scoreCp(last.Score); ok {
				lastScore[turn] = &cp
			}
		}
		for _, info := range infos {
			rec.RawInfo = append(rec.RawInfo, info.Raw)
		}

		b.PushMove(full)
		g.Moves = append(g.Moves, rec)

		if b.Result().Reason != board.NoReason {
			return r.finish(ctx, g, sessions, GameResult{Outcome: b.Result().Outcome, Reason: Reason{Kind: Normal, NormalReason: b.Result().Reason}}), nil
		}
		if !b.Position().HasLegalMoves(b.Turn()) {
			result := b.AdjudicateNoLegalMoves()
			return r.finish(ctx, g, sessions, GameResult{Outcome: result.Outcome, Reason: Reason{Kind: Normal, NormalReason: result.Reason}}), nil
		}

		if r.Adjudicator != nil {
			fenNow := fen.Encode(b.Position(), b.Turn(), b.NoProgress(), b.FullMoves())
			out, err := r.Adjudicator.Evaluate(ctx, adjudicate.Ply{
				Position:       fenNow,
				FullMoveNumber: b.FullMoves(),
				Scores:         lastScore,
			})
			if err != nil {
				logw.Warningf(ctx, "adjudicator error, ignoring: %v", err)
			} else if out.Adjudicated {
				return r.finish(ctx, g, sessions, GameResult{Outcome: out.Result.Outcome, Reason: Reason{Kind: Adjudicated, Adjudication: out.Reason}}), nil
			}
		}
	}
}

func (r *Runner) finish(ctx context.Context, g *Game, sessions map[board.Color]EngineSession, result GameResult) *Game {
	g.Result = result
	for _, c := range []board.Color{board.White, board.Black} {
		sessions[c].Quit(ctx)
	}
	return g
}

func newOpeningBoard(o Opening, seed int64) (*board.Board, error) {
	f := o.FEN
	if f == "" {
		f = fen.Initial
	}
	pos, turn, noprogress, fullmoves, err := fen.Decode(f)
	if err != nil {
		return nil, err
	}
	return board.NewBoard(board.NewZobristTable(seed), pos, turn, noprogress, fullmoves), nil
}

// findMove resolves a UCI coordinate move against the board's legal moves for the side
// to move, filling in the Type/Piece/Capture fields ParseMove alone cannot determine.
func findMove(b *board.Board, uciMove string) (board.Move, bool) {
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

func goParams(self, opponent *timecontrol.Clock, turn board.Color) uci.GoParams {
	white, black := self, opponent
	if turn == board.Black {
		white, black = opponent, self
	}

	p := uci.GoParams{
		WhiteTime: int(white.RemainingMs()),
		BlackTime: int(black.RemainingMs()),
		WhiteInc:  int(white.Limit().IncMs),
		BlackInc:  int(black.Limit().IncMs),
		MovesToGo: self.Limit().Moves,
		Depth:     self.Limit().Depth,
		Nodes:     self.Limit().Nodes,
		MoveTime:  int(self.Limit().FixedTimeMs),
	}
	return p
}

func classifyWaitError(err error, by board.Color) Reason {
	var crashed *process.CrashedError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, process.ErrInterrupted):
		return Reason{Kind: Interrupted}
	case errors.Is(err, process.ErrTimeout):
		return Reason{Kind: TimeForfeit, By: by}
	case errors.As(err, &crashed), errors.Is(err, process.ErrNotAlive):
		return Reason{Kind: Disconnect, By: by}
	default:
		return Reason{Kind: EngineError, By: by, Message: err.Error()}
	}
}

func scoreCp(s *uci.Score) (int, bool) {
	if s == nil {
		return 0, false
	}
	if s.Kind == uci.Mate {
		if s.Value > 0 {
			return mateScoreCp, true
		}
		return -mateScoreCp, true
	}
	return s.Value, true
}
