package match

import (
	"context"
	"time"

	"github.com/chessarbiter/chessarbiter/pkg/uci"
)

// EngineSession is the subset of *uci.EngineSession the GameRunner drives. It is an
// interface so tests can substitute a scriptable mock instead of spawning a real engine.
type EngineSession interface {
	NewGame(ctx context.Context) error
	IsReady(ctx context.Context, deadline time.Duration) error
	SetOption(ctx context.Context, name, value string) error
	SetPosition(ctx context.Context, fen string, moves []string) error
	Go(ctx context.Context, params uci.GoParams) error
	WaitBestMove(ctx context.Context, deadline time.Duration) (uci.BestMove, []uci.Info, error)
	Stop(ctx context.Context) error
	Quit(ctx context.Context)
	Alive() bool
	PID() int
}

var _ EngineSession = (*uci.EngineSession)(nil)
