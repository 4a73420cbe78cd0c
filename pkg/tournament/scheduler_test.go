package tournament_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/board/fen"
	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
	"github.com/chessarbiter/chessarbiter/pkg/tournament"
)

func book() []pairing.Entry {
	return []pairing.Entry{{FEN: fen.Initial}}
}

// refAlwaysWinsPlay always finishes the game as a win for whichever side is "A".
func refAlwaysWinsPlay(played *int64) tournament.PlayFunc {
	return func(ctx context.Context, p pairing.Pairing) (*match.Game, error) {
		atomic.AddInt64(played, 1)
		outcome := board.BlackWins
		if p.White == "A" {
			outcome = board.WhiteWins
		}
		return &match.Game{
			White: match.EngineConfig{Name: p.White},
			Black: match.EngineConfig{Name: p.Black},
			Result: match.GameResult{
				Outcome: outcome,
				Reason:  match.Reason{Kind: match.Normal, NormalReason: board.Checkmate},
			},
		}, nil
	}
}

// refMostlyWinsPlay has "A" win every game except every fifth, which it loses — a
// one-sided but non-degenerate score so the Logistic model's variance stays nonzero
// and the SPRT can actually cross a boundary (an all-wins script pins variance at 0).
func refMostlyWinsPlay(played *int64) tournament.PlayFunc {
	return func(ctx context.Context, p pairing.Pairing) (*match.Game, error) {
		n := atomic.AddInt64(played, 1)
		aWins := n%5 != 0
		outcome := board.BlackWins
		if (p.White == "A") == aWins {
			outcome = board.WhiteWins
		}
		return &match.Game{
			White: match.EngineConfig{Name: p.White},
			Black: match.EngineConfig{Name: p.Black},
			Result: match.GameResult{
				Outcome: outcome,
				Reason:  match.Reason{Kind: match.Normal, NormalReason: board.Checkmate},
			},
		}, nil
	}
}

func TestScheduler_PlaysAllPairings(t *testing.T) {
	stream, err := pairing.NewStream(pairing.Config{
		Engines:      []string{"A", "B"},
		Rounds:       2,
		GamesPerPair: 1,
		Book:         book(),
	})
	require.NoError(t, err)
	total := stream.Len()

	agg, err := stats.New(stats.Config{Elo0: -1000, Elo1: 1000, Alpha: 0.01, Beta: 0.01, Model: stats.Normalized}, false)
	require.NoError(t, err)

	var played int64
	sched, err := tournament.NewScheduler(tournament.Config{Concurrency: 2, ReferenceEngine: "A"}, stream, refAlwaysWinsPlay(&played), agg, nil)
	require.NoError(t, err)

	require.NoError(t, sched.Run(context.Background()))

	assert.EqualValues(t, total, played)
	assert.Equal(t, int64(total), agg.Snapshot().Games)
	assert.Equal(t, int64(total), agg.Snapshot().Trinomial[stats.Win]) // "A" always wins, and always plays
}

func TestScheduler_StopsOnSPRTVerdict(t *testing.T) {
	stream, err := pairing.NewStream(pairing.Config{
		Engines:      []string{"A", "B"},
		Rounds:       50,
		GamesPerPair: 1,
		NoSwap:       true,
		Book:         book(),
	})
	require.NoError(t, err)

	// A tight band around a huge Elo gap trips AcceptH1 after only a handful of
	// one-sided results, well before the stream of 50 pairings is exhausted.
	agg, err := stats.New(stats.Config{Elo0: -1000, Elo1: 1000, Alpha: 0.2, Beta: 0.2, Model: stats.Logistic}, true)
	require.NoError(t, err)

	var played int64
	sched, err := tournament.NewScheduler(tournament.Config{Concurrency: 1, ReferenceEngine: "A"}, stream, refMostlyWinsPlay(&played), agg, nil)
	require.NoError(t, err)

	require.NoError(t, sched.Run(context.Background()))

	assert.Less(t, played, int64(stream.Len()))
	assert.Equal(t, stats.AcceptH1, agg.Snapshot().Verdict)
}

func TestScheduler_RespectsCancellation(t *testing.T) {
	stream, err := pairing.NewStream(pairing.Config{
		Engines:      []string{"A", "B"},
		Rounds:       100,
		GamesPerPair: 1,
		Book:         book(),
	})
	require.NoError(t, err)

	var played int64
	sched, err := tournament.NewScheduler(tournament.Config{Concurrency: 2}, stream, refAlwaysWinsPlay(&played), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sched.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_ValidatesConfig(t *testing.T) {
	stream, err := pairing.NewStream(pairing.Config{Engines: []string{"A", "B"}, Rounds: 1, GamesPerPair: 1, Book: book()})
	require.NoError(t, err)

	agg, err := stats.New(stats.Config{Elo0: 0, Elo1: 10, Alpha: 0.05, Beta: 0.05, Model: stats.Normalized}, false)
	require.NoError(t, err)

	_, err = tournament.NewScheduler(tournament.Config{}, stream, refAlwaysWinsPlay(new(int64)), agg, nil)
	assert.Error(t, err) // aggregator supplied without a ReferenceEngine

	_, err = tournament.NewScheduler(tournament.Config{}, nil, refAlwaysWinsPlay(new(int64)), nil, nil)
	assert.Error(t, err) // nil stream
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/checkpoint.yaml"

	cp := tournament.Checkpoint{
		Completed: []pairing.Pairing{{Round: 1, White: "A", Black: "B", GameID: 1}},
		Seed:      42,
	}
	require.NoError(t, tournament.SaveCheckpoint(path, cp))

	got, err := tournament.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, cp.Seed, got.Seed)
	require.Len(t, got.Completed, 1)
	assert.Equal(t, "A", got.Completed[0].White)
}

func TestScheduler_ScoreIntervalDoesNotPanic(t *testing.T) {
	stream, err := pairing.NewStream(pairing.Config{Engines: []string{"A", "B"}, Rounds: 1, GamesPerPair: 1, NoSwap: true, Book: book()})
	require.NoError(t, err)

	var played int64
	sched, err := tournament.NewScheduler(tournament.Config{Concurrency: 1, ScoreInterval: time.Millisecond}, stream, refAlwaysWinsPlay(&played), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, sched.Run(context.Background()))
}
