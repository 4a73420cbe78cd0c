package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/chessarbiter/chessarbiter/pkg/adjudicate"
	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
	"github.com/chessarbiter/chessarbiter/pkg/tablebase"
	"github.com/chessarbiter/chessarbiter/pkg/timecontrol"
	"github.com/chessarbiter/chessarbiter/pkg/tournament"
)

// parseTC parses spec.md §6's "moves/time+inc" time control, times in seconds with an
// optional decimal component for sub-second precision (e.g. "40/60+0.5", "60+0.1").
func parseTC(tc string) (timecontrol.Limit, error) {
	var limit timecontrol.Limit

	rest := tc
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		moves, err := strconv.Atoi(rest[:i])
		if err != nil {
			return limit, errors.Wrapf(err, "config: tc moves %q", tc)
		}
		limit.Moves = moves
		rest = rest[i+1:]
	}

	timePart, incPart := rest, ""
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		timePart, incPart = rest[:i], rest[i+1:]
	}

	secs, err := strconv.ParseFloat(timePart, 64)
	if err != nil {
		return limit, errors.Wrapf(err, "config: tc time %q", tc)
	}
	limit.TimeMs = int64(secs * 1000)

	if incPart != "" {
		inc, err := strconv.ParseFloat(incPart, 64)
		if err != nil {
			return limit, errors.Wrapf(err, "config: tc inc %q", tc)
		}
		limit.IncMs = int64(inc * 1000)
	}
	return limit, nil
}

// parseST parses the fixed-seconds-per-move -engine st=... value.
func parseST(st string) (timecontrol.Limit, error) {
	secs, err := strconv.ParseFloat(st, 64)
	if err != nil {
		return timecontrol.Limit{}, errors.Wrapf(err, "config: st %q", st)
	}
	return timecontrol.Limit{FixedTimeMs: int64(secs * 1000)}, nil
}

// Engines builds the typed EngineConfig list, applying -each broadcasts to every engine
// and each engine's own tc/st into a timecontrol.Limit.
func (c Config) Engines() ([]match.EngineConfig, error) {
	out := make([]match.EngineConfig, 0, len(c.Engines))
	for _, spec := range c.Engines {
		limit, err := engineLimit(spec)
		if err != nil {
			return nil, err
		}
		opts := append([]match.KV(nil), c.Each...)
		opts = append(opts, spec.Options...)

		out = append(out, match.EngineConfig{
			Name:    spec.Name,
			Command: spec.Command,
			Args:    spec.Args,
			WorkDir: spec.WorkDir,
			Limit:   limit,
			Restart: spec.Restart,
			Options: opts,
		})
	}
	return out, nil
}

func engineLimit(spec EngineSpec) (timecontrol.Limit, error) {
	switch {
	case spec.TC != "":
		limit, err := parseTC(spec.TC)
		if err != nil {
			return limit, err
		}
		limit.Nodes, limit.Depth = spec.Nodes, spec.Depth
		return limit, nil
	case spec.ST != "":
		limit, err := parseST(spec.ST)
		if err != nil {
			return limit, err
		}
		limit.Nodes, limit.Depth = spec.Nodes, spec.Depth
		return limit, nil
	default:
		return timecontrol.Limit{Nodes: spec.Nodes, Depth: spec.Depth}, nil
	}
}

// OpeningBook reads and parses the configured opening book, if any.
func (c Config) OpeningBook(read func(file string) ([]byte, error)) ([]pairing.Entry, error) {
	if c.Openings.File == "" {
		return []pairing.Entry{{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}}, nil
	}
	data, err := read(c.Openings.File)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading opening book %s", c.Openings.File)
	}
	format := pairing.BookFormat(c.Openings.Format)
	return pairing.ParseBook(strings.NewReader(string(data)), format, c.Openings.Plies)
}

// PairingConfig builds pkg/pairing's Config from the engine names and schedule options.
func (c Config) PairingConfig(engineNames []string, book []pairing.Entry) pairing.Config {
	order := pairing.Sequential
	if c.Openings.Order == string(pairing.Random) {
		order = pairing.Random
	}
	noSwap := c.NoSwap || !(c.Games == 2 && c.Repeat)
	gamesPerPair := c.Games
	if !noSwap {
		gamesPerPair = c.Games / 2 // each base game is followed by its colour-swapped twin
	}
	return pairing.Config{
		Engines:       engineNames,
		Rounds:        c.Rounds,
		GamesPerPair:  gamesPerPair,
		GauntletSeeds: gauntletSeeds(c),
		NoSwap:        noSwap,
		Reverse:       c.Reverse,
		Book:          book,
		Order:         order,
		Start:         c.Openings.Start,
		Plies:         c.Openings.Plies,
		Seed:          c.Srand,
	}
}

func gauntletSeeds(c Config) int {
	if c.Tournament != "gauntlet" {
		return 0
	}
	if c.GauntletSeeds > 0 {
		return c.GauntletSeeds
	}
	return 1
}

// StatsConfig builds pkg/stats's Config when -sprt is enabled.
func (c Config) StatsConfig() (stats.Config, bool) {
	if !c.SPRT.Enabled {
		return stats.Config{}, false
	}
	return stats.Config{
		Elo0:  c.SPRT.Elo0,
		Elo1:  c.SPRT.Elo1,
		Alpha: c.SPRT.Alpha,
		Beta:  c.SPRT.Beta,
		Model: stats.Model(c.SPRT.Model),
	}, true
}

// AdjudicateConfig builds pkg/adjudicate's Config. prober is nil when tablebase
// adjudication is disabled; the caller supplies a tablebase.Prober (e.g.
// tablebase.NewMaterialHeuristic) since pkg/config owns no probing logic of its own.
func (c Config) AdjudicateConfig(prober tablebase.Prober) (adjudicate.Config, error) {
	cfg := adjudicate.Config{
		MaxMoves:                c.MaxMoves,
		DrawScoreCp:             c.Draw.ScoreCp,
		DrawMoveCount:           c.Draw.MoveCount,
		DrawMoveNumberThreshold: c.Draw.MoveNumber,
		ResignScoreCp:           c.Resign.ScoreCp,
		ResignMoveCount:         c.Resign.MoveCount,
		ResignTwoSided:          c.Resign.TwoSided,
	}
	if c.TB.Enabled {
		rt, ok := adjudicateResultType(c.TB.Adjudicate)
		if !ok {
			return cfg, errors.Errorf("config: -tb adjudicate=%q invalid", c.TB.Adjudicate)
		}
		cfg.TablebaseEnabled = true
		cfg.MaxPieces = c.TB.Pieces
		cfg.ResultType = rt
		cfg.IgnoreFiftyMove = c.TB.Ignore50
		cfg.Prober = prober
	}
	return cfg, nil
}

// TournamentConfig builds pkg/tournament's Config. referenceEngine is the engine whose
// point of view statistics are scored from, required whenever SPRT is enabled.
func (c Config) TournamentConfig(referenceEngine string) tournament.Config {
	return tournament.Config{
		Concurrency:      c.Concurrency,
		ForceConcurrency: c.ForceConcurrency,
		UseAffinity:      c.UseAffinity,
		CPUList:          c.CPUList,
		WaitMs:           c.WaitMs,
		RatingInterval:   c.RatingInterval,
		ScoreInterval:    c.ScoreInterval,
		AutosaveInterval: c.AutosaveInterval,
		ReferenceEngine:  referenceEngine,
	}
}
