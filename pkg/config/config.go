// Package config parses the chessarbiter CLI's flags and an optional TOML config file
// into the typed option structs pkg/tournament and its collaborators consume. It performs
// no game logic of its own, matching SPEC_FULL.md's "external-collaborator role" for the
// CLI/config layer.
package config

import (
	"time"

	"github.com/chessarbiter/chessarbiter/pkg/adjudicate"
	"github.com/chessarbiter/chessarbiter/pkg/match"
)

// EngineSpec is one parsed `-engine` block.
type EngineSpec struct {
	Name    string
	Command string
	Args    []string
	WorkDir string

	TC string // "moves/time+inc", seconds with optional ms via decimals
	ST string // fixed seconds per move

	Nodes uint64
	Depth int

	Options []match.KV
	Restart bool
}

// OpeningsSpec is the parsed `-openings` block.
type OpeningsSpec struct {
	File   string
	Format string // "epd" | "pgn"
	Order  string // "sequential" | "random"
	Plies  int
	Start  int
}

// DrawSpec is the parsed `-draw` block.
type DrawSpec struct {
	Enabled     bool
	MoveNumber  int
	MoveCount   int
	ScoreCp     int
}

// ResignSpec is the parsed `-resign` block.
type ResignSpec struct {
	Enabled   bool
	MoveCount int
	ScoreCp   int
	TwoSided  bool
}

// SPRTSpec is the parsed `-sprt` block.
type SPRTSpec struct {
	Enabled bool
	Alpha   float64
	Beta    float64
	Elo0    float64
	Elo1    float64
	Model   string // "logistic" | "bayesian" | "normalized"
}

// TablebaseSpec is the parsed `-tb` block.
type TablebaseSpec struct {
	Enabled     bool
	Dir         string
	Pieces      int
	Adjudicate  string // "WIN_LOSS" | "DRAW" | "BOTH"
	Ignore50    bool
}

// OutputSpec is a parsed `-pgnout`/`-epdout` block. Both writers are external
// collaborators per spec.md §1; only the destination is meaningful to the core.
type OutputSpec struct {
	Enabled bool
	File    string
}

// LogSpec is the parsed `-log` block.
type LogSpec struct {
	File     string
	Level    string
	Realtime bool
	Engine   bool // also log raw engine stdin/stdout lines
}

// Config is the fully-parsed option set for one tournament run.
type Config struct {
	ConfigFile string // -config file.toml; pre-populates the rest, overridden by flags

	Engines []EngineSpec
	Each    []match.KV

	Concurrency      int
	ForceConcurrency bool

	Rounds       int
	Games        int
	Repeat       bool

	Openings OpeningsSpec

	Draw     DrawSpec
	Resign   ResignSpec
	MaxMoves int

	SPRT SPRTSpec
	TB   TablebaseSpec

	PGNOut OutputSpec
	EPDOut OutputSpec

	Variant string // "standard" | "fischerandom"

	UseAffinity bool
	CPUList     []int

	Srand            int64
	Seeds            int64
	WaitMs           int
	NoSwap           bool
	Reverse          bool
	Tournament       string // "roundrobin" | "gauntlet"
	GauntletSeeds    int
	RatingInterval   int
	ScoreInterval    time.Duration
	AutosaveInterval int
	AutosaveFile     string

	Log LogSpec

	LiveFeedAddr string // -livefeed addr; empty disables the websocket spectator feed
	NoDashboard  bool   // suppress the terminal dashboard (e.g. non-interactive CI runs)
}

// Default returns a Config with the same baseline values spec.md's options table implies
// when a flag is omitted: one round, one game per pairing, round-robin, standard variant.
func Default() Config {
	return Config{
		Concurrency: 0, // resolved against runtime.NumCPU by pkg/tournament
		Rounds:      1,
		Games:       1,
		Openings: OpeningsSpec{
			Format: "epd",
			Order:  "sequential",
		},
		Variant:    "standard",
		Tournament: "roundrobin",
		Log: LogSpec{
			Level: "info",
		},
	}
}

// adjudicateResultType maps the CLI's -tb adjudicate= token onto adjudicate.ResultType.
func adjudicateResultType(s string) (adjudicate.ResultType, bool) {
	switch s {
	case "", "WIN_LOSS":
		return adjudicate.WinLoss, true
	case "DRAW":
		return adjudicate.DrawOnly, true
	case "BOTH":
		return adjudicate.Both, true
	default:
		return 0, false
	}
}
