package config

import (
	"flag"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/chessarbiter/chessarbiter/pkg/match"
)

// fields splits a sub-option blob ("cmd=./a name=A tc=60+0.1") into key=value tokens.
// A value may itself contain '=' (e.g. engine arguments); only the first '=' splits.
func fields(s string) map[string]string {
	out := make(map[string]string)
	for _, tok := range strings.Fields(s) {
		i := strings.IndexByte(tok, '=')
		if i < 0 {
			out[tok] = ""
			continue
		}
		out[tok[:i]] = tok[i+1:]
	}
	return out
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "on":
		return true
	case "off":
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

// engineListValue implements flag.Value for the repeatable -engine flag, appending one
// EngineSpec per occurrence.
type engineListValue struct{ cfg *Config }

func (v engineListValue) String() string { return "" }

func (v engineListValue) Set(s string) error {
	// args= takes the rest of the blob, so an engine can be given several arguments.
	var argv []string
	if i := strings.Index(" "+s, " args="); i >= 0 {
		argv = strings.Fields(s[i+len("args="):])
		s = s[:i]
	}
	kv := fields(s)
	spec := EngineSpec{
		Name:    kv["name"],
		Command: kv["cmd"],
		TC:      kv["tc"],
		ST:      kv["st"],
		Restart: parseBool(kv["restart"], false),
	}
	if len(argv) > 0 {
		spec.Args = argv
	}
	if kv["dir"] != "" {
		spec.WorkDir = kv["dir"]
	}
	if n, ok := kv["nodes"]; ok {
		parsed, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "config: -engine nodes=%q", n)
		}
		spec.Nodes = parsed
	}
	if d, ok := kv["depth"]; ok {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			return errors.Wrapf(err, "config: -engine depth=%q", d)
		}
		spec.Depth = parsed
	}
	for k, val := range kv {
		if strings.HasPrefix(k, "option.") {
			spec.Options = append(spec.Options, match.KV{Name: strings.TrimPrefix(k, "option."), Value: val})
		}
	}
	if spec.Command == "" {
		return errors.New("config: -engine requires cmd=...")
	}
	v.cfg.Engines = append(v.cfg.Engines, spec)
	return nil
}

// kvListValue implements flag.Value for -each, broadcasting key=val pairs to every engine.
type kvListValue struct{ cfg *Config }

func (v kvListValue) String() string { return "" }

func (v kvListValue) Set(s string) error {
	for k, val := range fields(s) {
		v.cfg.Each = append(v.cfg.Each, match.KV{Name: k, Value: val})
	}
	return nil
}

type openingsValue struct{ cfg *Config }

func (v openingsValue) String() string { return "" }

func (v openingsValue) Set(s string) error {
	kv := fields(s)
	o := OpeningsSpec{File: kv["file"], Format: kv["format"], Order: kv["order"]}
	if o.Format == "" {
		o.Format = "epd"
	}
	if o.Order == "" {
		o.Order = "sequential"
	}
	if p, ok := kv["plies"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return errors.Wrapf(err, "config: -openings plies=%q", p)
		}
		o.Plies = n
	}
	if st, ok := kv["start"]; ok {
		n, err := strconv.Atoi(st)
		if err != nil {
			return errors.Wrapf(err, "config: -openings start=%q", st)
		}
		o.Start = n
	}
	v.cfg.Openings = o
	return nil
}

type drawValue struct{ cfg *Config }

func (v drawValue) String() string { return "" }

func (v drawValue) Set(s string) error {
	kv := fields(s)
	d := DrawSpec{Enabled: true}
	var err error
	if d.MoveNumber, err = atoiField(kv, "movenumber"); err != nil {
		return err
	}
	if d.MoveCount, err = atoiField(kv, "movecount"); err != nil {
		return err
	}
	if d.ScoreCp, err = atoiField(kv, "score"); err != nil {
		return err
	}
	v.cfg.Draw = d
	return nil
}

type resignValue struct{ cfg *Config }

func (v resignValue) String() string { return "" }

func (v resignValue) Set(s string) error {
	kv := fields(s)
	r := ResignSpec{Enabled: true, TwoSided: parseBool(kv["twosided"], false)}
	var err error
	if r.MoveCount, err = atoiField(kv, "movecount"); err != nil {
		return err
	}
	if r.ScoreCp, err = atoiField(kv, "score"); err != nil {
		return err
	}
	v.cfg.Resign = r
	return nil
}

type sprtValue struct{ cfg *Config }

func (v sprtValue) String() string { return "" }

func (v sprtValue) Set(s string) error {
	kv := fields(s)
	sp := SPRTSpec{Enabled: true, Model: kv["model"]}
	if sp.Model == "" {
		sp.Model = "logistic"
	}
	var err error
	if sp.Alpha, err = floatField(kv, "alpha"); err != nil {
		return err
	}
	if sp.Beta, err = floatField(kv, "beta"); err != nil {
		return err
	}
	if sp.Elo0, err = floatField(kv, "elo0"); err != nil {
		return err
	}
	if sp.Elo1, err = floatField(kv, "elo1"); err != nil {
		return err
	}
	v.cfg.SPRT = sp
	return nil
}

type tbValue struct{ cfg *Config }

func (v tbValue) String() string { return "" }

func (v tbValue) Set(s string) error {
	kv := fields(s)
	tb := TablebaseSpec{Enabled: true, Dir: kv["dir"], Adjudicate: kv["adjudicate"], Ignore50: parseBool(kv["ignore50"], false)}
	if tb.Dir == "" {
		tb.Dir = s // bare "-tb DIR" form: the whole blob is the directory
	}
	if p, ok := kv["pieces"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return errors.Wrapf(err, "config: -tb pieces=%q", p)
		}
		tb.Pieces = n
	}
	v.cfg.TB = tb
	return nil
}

type outputValue struct {
	cfg    *Config
	target *OutputSpec
}

func (v outputValue) String() string { return "" }

func (v outputValue) Set(s string) error {
	kv := fields(s)
	out := OutputSpec{Enabled: true, File: kv["file"]}
	if out.File == "" {
		out.File = s
	}
	*v.target = out
	return nil
}

type logValue struct{ cfg *Config }

func (v logValue) String() string { return "" }

func (v logValue) Set(s string) error {
	kv := fields(s)
	l := LogSpec{File: kv["file"], Level: kv["level"], Realtime: parseBool(kv["realtime"], false), Engine: parseBool(kv["engine"], false)}
	if l.Level == "" {
		l.Level = "info"
	}
	v.cfg.Log = l
	return nil
}

// intListValue implements flag.Value for a comma-separated list of CPU ids.
type intListValue struct{ cfg *Config }

func (v intListValue) String() string { return "" }

func (v intListValue) Set(s string) error {
	v.cfg.UseAffinity = true
	if s == "" {
		return nil
	}
	var ids []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return errors.Wrapf(err, "config: -use-affinity CPU id %q", tok)
		}
		ids = append(ids, n)
	}
	v.cfg.CPUList = ids
	return nil
}

func atoiField(kv map[string]string, key string) (int, error) {
	s, ok := kv[key]
	if !ok || s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s=%q", key, s)
	}
	return n, nil
}

func floatField(kv map[string]string, key string) (float64, error) {
	s, ok := kv[key]
	if !ok || s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s=%q", key, s)
	}
	return f, nil
}

// scanConfigFlag looks for -config/--config=VALUE or -config/--config VALUE anywhere in
// args without otherwise interpreting the command line, so an unrecognized flag earlier
// in args can never hide -config from the real flag.FlagSet pass that follows.
func scanConfigFlag(args []string) string {
	for i, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if !strings.HasPrefix(arg, "-") || (name != "config" && !strings.HasPrefix(name, "config=")) {
			continue
		}
		if eq := strings.IndexByte(arg, '='); eq >= 0 {
			return arg[eq+1:]
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// ParseArgs parses a chessarbiter command line into a Config, per spec.md §6's options
// table. When -config is present, the named TOML file is loaded first and flags parsed
// on top of it, so flags win over file values (SPEC_FULL.md §2's "[AMBIENT]
// Configuration" note).
func ParseArgs(args []string) (*Config, error) {
	cfg := Default()
	if preConfigFile := scanConfigFlag(args); preConfigFile != "" {
		loaded, err := LoadFile(preConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		cfg.ConfigFile = preConfigFile
	}

	fs := flag.NewFlagSet("chessarbiter", flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML config file pre-populating these options")
	fs.Var(engineListValue{&cfg}, "engine", "add an engine (repeatable): cmd=... name=... tc=... st=... nodes=... depth=... option.X=V restart=on|off args=...")
	fs.Var(kvListValue{&cfg}, "each", "broadcast key=val pairs to every engine")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "parallel game limit (0 = NumCPU)")
	fs.BoolVar(&cfg.ForceConcurrency, "force-concurrency", cfg.ForceConcurrency, "allow -concurrency to exceed the visible CPU count")
	fs.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "number of rounds")
	fs.IntVar(&cfg.Games, "games", cfg.Games, "games per pairing per round (1 or 2)")
	fs.BoolVar(&cfg.Repeat, "repeat", cfg.Repeat, "with games=2, form colour-swap pairs")
	fs.Var(openingsValue{&cfg}, "openings", "opening book: file=... format={epd,pgn} order={sequential,random} plies=N start=K")
	fs.Var(drawValue{&cfg}, "draw", "score-draw adjudication: movenumber=K movecount=N score=CP")
	fs.Var(resignValue{&cfg}, "resign", "resign adjudication: movecount=N score=CP twosided={true,false}")
	fs.IntVar(&cfg.MaxMoves, "maxmoves", cfg.MaxMoves, "adjudicate a draw at or after this full-move number (0 disables)")
	fs.Var(sprtValue{&cfg}, "sprt", "SPRT stop: alpha=... beta=... elo0=... elo1=... model={logistic,bayesian,normalized}")
	fs.Var(tbValue{&cfg}, "tb", "tablebase dir (optionally dir=... pieces=N adjudicate={WIN_LOSS,DRAW,BOTH} ignore50=true)")
	fs.Var(outputValue{&cfg, &cfg.PGNOut}, "pgnout", "PGN output file (external writer)")
	fs.Var(outputValue{&cfg, &cfg.EPDOut}, "epdout", "EPD output file (external writer)")
	fs.StringVar(&cfg.Variant, "variant", cfg.Variant, "rule variant: standard | fischerandom")
	fs.Var(intListValue{&cfg}, "use-affinity", "enable CPU pinning; takes a comma-separated CPU-LIST value (an empty value selects every visible CPU)")
	fs.Int64Var(&cfg.Srand, "srand", cfg.Srand, "pairing/opening-order PRNG seed")
	fs.Int64Var(&cfg.Seeds, "seeds", cfg.Seeds, "per-engine search seed base")
	fs.IntVar(&cfg.WaitMs, "wait", cfg.WaitMs, "pacing delay in ms before dispatching the next task")
	fs.BoolVar(&cfg.NoSwap, "noswap", cfg.NoSwap, "disable colour-swap pairing (falls back to trinomial stats)")
	fs.BoolVar(&cfg.Reverse, "reverse", cfg.Reverse, "globally flip initial colour assignment")
	fs.StringVar(&cfg.Tournament, "tournament", cfg.Tournament, "roundrobin | gauntlet")
	fs.IntVar(&cfg.GauntletSeeds, "gauntlet-seeds", cfg.GauntletSeeds, "engines (by listed order) that play everyone, gauntlet mode only")
	fs.IntVar(&cfg.RatingInterval, "ratinginterval", cfg.RatingInterval, "report progress every N finished games (0 disables)")
	fs.DurationVar(&cfg.ScoreInterval, "scoreinterval", cfg.ScoreInterval, "report progress at least this often (0 disables)")
	fs.IntVar(&cfg.AutosaveInterval, "autosaveinterval", cfg.AutosaveInterval, "checkpoint every N finished games (0 disables)")
	fs.StringVar(&cfg.AutosaveFile, "autosave", cfg.AutosaveFile, "checkpoint file path")
	fs.Var(logValue{&cfg}, "log", "logging sink: file=... level=... realtime=true|false engine=true|false")
	fs.StringVar(&cfg.LiveFeedAddr, "livefeed", cfg.LiveFeedAddr, "serve a JSON-over-websocket spectator feed on this address")
	fs.BoolVar(&cfg.NoDashboard, "no-dashboard", cfg.NoDashboard, "suppress the terminal dashboard")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &cfg, nil
}
