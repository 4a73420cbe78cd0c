package config

import (
	"runtime"

	"github.com/pkg/errors"
)

// Validate checks the configuration errors spec.md §7 requires to be caught "before any
// game starts": at least two uniquely-named engines each with a time control, a
// recognized variant/tournament mode, and (when present) valid SPRT/tablebase/openings
// sub-options. It never touches the filesystem or spawns a process.
func (c Config) Validate() error {
	if len(c.Engines) < 2 {
		return errors.New("config: at least two -engine blocks are required")
	}
	seen := make(map[string]bool, len(c.Engines))
	for _, e := range c.Engines {
		if e.Name == "" {
			return errors.New("config: every -engine requires name=...")
		}
		if seen[e.Name] {
			return errors.Errorf("config: duplicate engine name %q", e.Name)
		}
		seen[e.Name] = true
		if e.Command == "" {
			return errors.Errorf("config: engine %q requires cmd=...", e.Name)
		}
		if e.TC == "" && e.ST == "" && e.Nodes == 0 && e.Depth == 0 {
			return errors.Errorf("config: engine %q requires tc=, st=, nodes=, or depth=", e.Name)
		}
		if _, err := engineLimit(e); err != nil {
			return err
		}
	}

	if c.Concurrency > runtime.NumCPU() && !c.ForceConcurrency {
		return errors.Errorf("config: -concurrency %d exceeds %d visible CPUs; pass -force-concurrency to override", c.Concurrency, runtime.NumCPU())
	}
	if c.Games != 1 && c.Games != 2 {
		return errors.Errorf("config: -games must be 1 or 2, got %d", c.Games)
	}
	if c.Rounds <= 0 {
		return errors.New("config: -rounds must be positive")
	}

	switch c.Variant {
	case "standard", "fischerandom":
	default:
		return errors.Errorf("config: -variant %q invalid (standard | fischerandom)", c.Variant)
	}
	switch c.Tournament {
	case "roundrobin", "gauntlet":
	default:
		return errors.Errorf("config: -tournament %q invalid (roundrobin | gauntlet)", c.Tournament)
	}
	switch c.Openings.Format {
	case "epd", "pgn":
	default:
		return errors.Errorf("config: -openings format=%q invalid (epd | pgn)", c.Openings.Format)
	}
	switch c.Openings.Order {
	case "sequential", "random":
	default:
		return errors.Errorf("config: -openings order=%q invalid (sequential | random)", c.Openings.Order)
	}

	if c.SPRT.Enabled {
		if c.SPRT.Alpha <= 0 || c.SPRT.Alpha >= 1 {
			return errors.New("config: -sprt alpha must be in (0,1)")
		}
		if c.SPRT.Beta <= 0 || c.SPRT.Beta >= 1 {
			return errors.New("config: -sprt beta must be in (0,1)")
		}
		if c.SPRT.Alpha+c.SPRT.Beta >= 1 {
			return errors.New("config: -sprt alpha+beta must be < 1")
		}
		if c.SPRT.Elo0 >= c.SPRT.Elo1 {
			return errors.New("config: -sprt elo0 must be < elo1")
		}
		switch c.SPRT.Model {
		case "logistic", "bayesian", "normalized":
		default:
			return errors.Errorf("config: -sprt model=%q invalid", c.SPRT.Model)
		}
	}

	if c.TB.Enabled {
		if _, ok := adjudicateResultType(c.TB.Adjudicate); !ok {
			return errors.Errorf("config: -tb adjudicate=%q invalid (WIN_LOSS | DRAW | BOTH)", c.TB.Adjudicate)
		}
		if c.TB.Pieces <= 0 {
			return errors.New("config: -tb pieces must be positive")
		}
	}

	if c.Variant == "fischerandom" && c.Openings.File == "" {
		return errors.New("config: -variant fischerandom requires a 960 opening book via -openings file=...")
	}

	return nil
}
