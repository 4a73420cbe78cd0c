package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/uci"
)

// spawnEngine starts a fresh engine process, performs the UCI handshake, and applies the
// engine's configured options. pkg/match.Runner.PlayGame always quits both sessions once a
// game finishes (pkg/match/runner.go's finish helper), so every individual pairing gets a
// freshly spawned pair of sessions; there is no session pool to manage here.
func spawnEngine(ctx context.Context, cfg match.EngineConfig) (match.EngineSession, error) {
	s, err := uci.Start(ctx, cfg.WorkDir, cfg.Command, cfg.Args, cfg.Name, match.HandshakeDeadline)
	if err != nil {
		return nil, errors.Wrapf(err, "chessarbiter: spawning %s", cfg.Name)
	}
	for _, kv := range cfg.Options {
		if err := s.SetOption(ctx, kv.Name, kv.Value); err != nil {
			s.Quit(ctx)
			return nil, errors.Wrapf(err, "chessarbiter: %s setoption %s=%s", cfg.Name, kv.Name, kv.Value)
		}
	}
	return s, nil
}
