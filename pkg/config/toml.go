package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/chessarbiter/chessarbiter/pkg/match"
)

// fileConfig mirrors Config as a TOML document, grounded on Mgrdich-TermChess's nested
// ConfigFile{Display,Game} pattern: one section per concern, every field tagged.
type fileConfig struct {
	Engine   []fileEngine      `toml:"engine"`
	Each     map[string]string `toml:"each"`
	Schedule fileSchedule      `toml:"schedule"`
	Openings fileOpenings      `toml:"openings"`
	Draw     fileDraw          `toml:"draw"`
	Resign   fileResign        `toml:"resign"`
	MaxMoves int               `toml:"max_moves"`
	SPRT     fileSPRT          `toml:"sprt"`
	TB       fileTB            `toml:"tb"`
	PGNOut   fileOutput        `toml:"pgnout"`
	EPDOut   fileOutput        `toml:"epdout"`
	Variant  string            `toml:"variant"`
	Affinity fileAffinity      `toml:"affinity"`
	Log      fileLog           `toml:"log"`
}

type fileEngine struct {
	Name    string            `toml:"name"`
	Command string            `toml:"cmd"`
	Args    []string          `toml:"args"`
	WorkDir string            `toml:"dir"`
	TC      string            `toml:"tc"`
	ST      string            `toml:"st"`
	Nodes   uint64            `toml:"nodes"`
	Depth   int               `toml:"depth"`
	Options map[string]string `toml:"options"`
	Restart bool              `toml:"restart"`
}

type fileSchedule struct {
	Concurrency      int           `toml:"concurrency"`
	ForceConcurrency bool          `toml:"force_concurrency"`
	Rounds           int           `toml:"rounds"`
	Games            int           `toml:"games"`
	Repeat           bool          `toml:"repeat"`
	Srand            int64         `toml:"srand"`
	Seeds            int64         `toml:"seeds"`
	WaitMs           int           `toml:"wait_ms"`
	NoSwap           bool          `toml:"no_swap"`
	Reverse          bool          `toml:"reverse"`
	Tournament       string        `toml:"tournament"`
	GauntletSeeds    int           `toml:"gauntlet_seeds"`
	RatingInterval   int           `toml:"rating_interval"`
	ScoreInterval    time.Duration `toml:"score_interval"`
	AutosaveInterval int           `toml:"autosave_interval"`
	AutosaveFile     string        `toml:"autosave_file"`
}

type fileOpenings struct {
	File   string `toml:"file"`
	Format string `toml:"format"`
	Order  string `toml:"order"`
	Plies  int    `toml:"plies"`
	Start  int    `toml:"start"`
}

type fileDraw struct {
	Enabled    bool `toml:"enabled"`
	MoveNumber int  `toml:"move_number"`
	MoveCount  int  `toml:"move_count"`
	ScoreCp    int  `toml:"score_cp"`
}

type fileResign struct {
	Enabled   bool `toml:"enabled"`
	MoveCount int  `toml:"move_count"`
	ScoreCp   int  `toml:"score_cp"`
	TwoSided  bool `toml:"two_sided"`
}

type fileSPRT struct {
	Enabled bool    `toml:"enabled"`
	Alpha   float64 `toml:"alpha"`
	Beta    float64 `toml:"beta"`
	Elo0    float64 `toml:"elo0"`
	Elo1    float64 `toml:"elo1"`
	Model   string  `toml:"model"`
}

type fileTB struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	Pieces     int    `toml:"pieces"`
	Adjudicate string `toml:"adjudicate"`
	Ignore50   bool   `toml:"ignore_50"`
}

type fileOutput struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`
}

type fileAffinity struct {
	Enabled bool  `toml:"enabled"`
	CPUList []int `toml:"cpu_list"`
}

type fileLog struct {
	File     string `toml:"file"`
	Level    string `toml:"level"`
	Realtime bool   `toml:"realtime"`
	Engine   bool   `toml:"engine"`
}

// LoadFile reads a TOML config file and returns the Config it describes, seeded with
// Default()'s baseline for anything the file omits.
func LoadFile(path string) (Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, errors.Wrapf(err, "config: decode %s", path)
	}

	cfg := Default()
	for _, e := range fc.Engine {
		spec := EngineSpec{
			Name: e.Name, Command: e.Command, Args: e.Args, WorkDir: e.WorkDir,
			TC: e.TC, ST: e.ST, Nodes: e.Nodes, Depth: e.Depth, Restart: e.Restart,
		}
		for k, v := range e.Options {
			spec.Options = append(spec.Options, match.KV{Name: k, Value: v})
		}
		cfg.Engines = append(cfg.Engines, spec)
	}
	for k, v := range fc.Each {
		cfg.Each = append(cfg.Each, match.KV{Name: k, Value: v})
	}

	s := fc.Schedule
	if s.Concurrency != 0 {
		cfg.Concurrency = s.Concurrency
	}
	cfg.ForceConcurrency = s.ForceConcurrency
	if s.Rounds != 0 {
		cfg.Rounds = s.Rounds
	}
	if s.Games != 0 {
		cfg.Games = s.Games
	}
	cfg.Repeat = s.Repeat
	cfg.Srand = s.Srand
	cfg.Seeds = s.Seeds
	cfg.WaitMs = s.WaitMs
	cfg.NoSwap = s.NoSwap
	cfg.Reverse = s.Reverse
	if s.Tournament != "" {
		cfg.Tournament = s.Tournament
	}
	cfg.GauntletSeeds = s.GauntletSeeds
	cfg.RatingInterval = s.RatingInterval
	cfg.ScoreInterval = s.ScoreInterval
	cfg.AutosaveInterval = s.AutosaveInterval
	cfg.AutosaveFile = s.AutosaveFile

	if fc.Openings.File != "" {
		cfg.Openings = OpeningsSpec{File: fc.Openings.File, Format: fc.Openings.Format, Order: fc.Openings.Order, Plies: fc.Openings.Plies, Start: fc.Openings.Start}
		if cfg.Openings.Format == "" {
			cfg.Openings.Format = "epd"
		}
		if cfg.Openings.Order == "" {
			cfg.Openings.Order = "sequential"
		}
	}

	if fc.Draw.Enabled {
		cfg.Draw = DrawSpec{Enabled: true, MoveNumber: fc.Draw.MoveNumber, MoveCount: fc.Draw.MoveCount, ScoreCp: fc.Draw.ScoreCp}
	}
	if fc.Resign.Enabled {
		cfg.Resign = ResignSpec{Enabled: true, MoveCount: fc.Resign.MoveCount, ScoreCp: fc.Resign.ScoreCp, TwoSided: fc.Resign.TwoSided}
	}
	cfg.MaxMoves = fc.MaxMoves

	if fc.SPRT.Enabled {
		model := fc.SPRT.Model
		if model == "" {
			model = "logistic"
		}
		cfg.SPRT = SPRTSpec{Enabled: true, Alpha: fc.SPRT.Alpha, Beta: fc.SPRT.Beta, Elo0: fc.SPRT.Elo0, Elo1: fc.SPRT.Elo1, Model: model}
	}
	if fc.TB.Enabled {
		cfg.TB = TablebaseSpec{Enabled: true, Dir: fc.TB.Dir, Pieces: fc.TB.Pieces, Adjudicate: fc.TB.Adjudicate, Ignore50: fc.TB.Ignore50}
	}
	if fc.PGNOut.Enabled {
		cfg.PGNOut = OutputSpec{Enabled: true, File: fc.PGNOut.File}
	}
	if fc.EPDOut.Enabled {
		cfg.EPDOut = OutputSpec{Enabled: true, File: fc.EPDOut.File}
	}
	if fc.Variant != "" {
		cfg.Variant = fc.Variant
	}
	if fc.Affinity.Enabled {
		cfg.UseAffinity = true
		cfg.CPUList = fc.Affinity.CPUList
	}
	if fc.Log.File != "" || fc.Log.Level != "" {
		level := fc.Log.Level
		if level == "" {
			level = "info"
		}
		cfg.Log = LogSpec{File: fc.Log.File, Level: level, Realtime: fc.Log.Realtime, Engine: fc.Log.Engine}
	}

	return cfg, nil
}
