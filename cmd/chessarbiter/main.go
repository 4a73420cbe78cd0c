// Command chessarbiter runs a round-robin or gauntlet tournament between UCI engines,
// adjudicating, scoring and (optionally) SPRT-testing the games it plays. See spec.md for
// the full option surface; -h prints the summary below.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"

	"github.com/chessarbiter/chessarbiter/pkg/adjudicate"
	"github.com/chessarbiter/chessarbiter/pkg/config"
	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/pgnout"
	"github.com/chessarbiter/chessarbiter/pkg/report"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
	"github.com/chessarbiter/chessarbiter/pkg/tablebase"
	"github.com/chessarbiter/chessarbiter/pkg/tournament"
)

var version = build.NewVersion(0, 1, 0)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: chessarbiter -engine cmd=... name=... tc=... -engine cmd=... name=... tc=... [options]

chessarbiter %v runs a tournament between two or more UCI engines.
Options:
`, version)
		flag.PrintDefaults()
	}
}

// exit codes, per spec.md §7: 0 success or SPRT stop, 1 configuration error, 2 a fatal
// runtime error or operator cancellation.
const (
	exitOK            = 0
	exitConfig        = 1
	exitRuntimeFatal  = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		flag.Usage()
		logw.Exitf(ctx, "chessarbiter: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logw.Exitf(ctx, "chessarbiter: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		if ctx.Err() != nil {
			logw.Errorf(ctx, "chessarbiter: cancelled: %v", err)
			os.Exit(exitRuntimeFatal)
		}
		logw.Errorf(ctx, "chessarbiter: %v", err)
		os.Exit(exitRuntimeFatal)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	engines, err := cfg.Engines()
	if err != nil {
		return err
	}
	byName := make(map[string]match.EngineConfig, len(engines))
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		byName[e.Name] = e
		names = append(names, e.Name)
	}

	book, err := cfg.OpeningBook(os.ReadFile)
	if err != nil {
		return err
	}

	pcfg := cfg.PairingConfig(names, book)
	stream, err := pairing.NewStream(pcfg)
	if err != nil {
		return err
	}

	var checkpoint *tournament.Checkpoint
	if cfg.AutosaveFile != "" {
		if cp, err := tournament.LoadCheckpoint(cfg.AutosaveFile); err == nil {
			checkpoint = &cp
			stream.Seek(len(cp.Completed))
			logw.Infof(ctx, "chessarbiter: resuming from %s, %d games already played", cfg.AutosaveFile, len(cp.Completed))
		}
	}

	var prober tablebase.Prober
	if cfg.TB.Enabled {
		prober = tablebase.NewMaterialHeuristic(cfg.TB.Pieces)
	}
	acfg, err := cfg.AdjudicateConfig(prober)
	if err != nil {
		return err
	}
	adj := adjudicate.New(acfg)
	runner := match.NewRunner(adj, cfg.Srand)

	var agg *stats.Aggregator
	referenceEngine := ""
	if scfg, ok := cfg.StatsConfig(); ok {
		referenceEngine = names[0]
		agg, err = stats.New(scfg, pcfg.NoSwap)
		if err != nil {
			return err
		}
		if checkpoint != nil {
			agg.Restore(checkpoint.Cells)
		}
	}

	outputs, closeOutputs, err := newOutputWriters(cfg)
	if err != nil {
		return err
	}
	defer closeOutputs()

	reporters, stopReporters := newReporters(cfg)
	defer stopReporters()
	reporters = append(reporters, outputs)

	play := func(ctx context.Context, p pairing.Pairing) (*match.Game, error) {
		white, err := spawnEngine(ctx, byName[p.White])
		if err != nil {
			return nil, err
		}
		black, err := spawnEngine(ctx, byName[p.Black])
		if err != nil {
			white.Quit(ctx)
			return nil, err
		}
		return runner.PlayGame(ctx, white, black, byName[p.White], byName[p.Black], p.Opening)
	}

	tcfg := cfg.TournamentConfig(referenceEngine)
	sched, err := tournament.NewScheduler(tcfg, stream, play, agg, report.Multi(reporters))
	if err != nil {
		return err
	}
	if cfg.AutosaveFile != "" {
		sched.SetAutosave(func(cp tournament.Checkpoint) error {
			cp.Seed = cfg.Srand
			return tournament.SaveCheckpoint(cfg.AutosaveFile, cp)
		})
	}

	if err := sched.Run(ctx); err != nil {
		return err
	}

	if agg != nil {
		snap := agg.Snapshot()
		fmt.Printf("games=%d score=%.3f elo=%.1f llr=%.3f [%.3f,%.3f] verdict=%v\n",
			snap.Games, snap.Score, snap.Elo, snap.LLR, snap.Lower, snap.Upper, snap.Verdict)
	}
	return nil
}

// newReporters builds the non-output Reporter sinks: a terminal dashboard (unless
// suppressed) and a websocket spectator feed (when -livefeed names an address). Returns a
// stop func that tears both down; safe to call even when neither was built.
func newReporters(cfg *config.Config) ([]interface {
	GameFinished(pairing.Pairing, *match.Game, error)
	Snapshot(stats.Snapshot)
}, func()) {
	var reporters []interface {
		GameFinished(pairing.Pairing, *match.Game, error)
		Snapshot(stats.Snapshot)
	}
	var wg sync.WaitGroup
	var server *http.Server

	if !cfg.NoDashboard {
		d := report.NewDashboard("chessarbiter")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Start()
		}()
		reporters = append(reporters, d)
	}
	if cfg.LiveFeedAddr != "" {
		feed := report.NewFeed()
		mux := http.NewServeMux()
		mux.Handle("/livefeed", feed)
		server = &http.Server{Addr: cfg.LiveFeedAddr, Handler: mux}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = server.ListenAndServe()
		}()
		reporters = append(reporters, feed)
	}

	stop := func() {
		if server != nil {
			_ = server.Close()
		}
		wg.Wait()
	}
	return reporters, stop
}

// outputWriter fans GameFinished events out to the configured PGN/EPD sinks. It never
// reacts to Snapshot, since those files are per-game records, not running tallies.
type outputWriter struct {
	mu     sync.Mutex
	pgn    *os.File
	epd    *os.File
}

func (w *outputWriter) GameFinished(p pairing.Pairing, g *match.Game, err error) {
	if g == nil || err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pgn != nil {
		if err := pgnout.WritePGN(w.pgn, g, p.Round, p.GameID); err != nil {
			logw.Warningf(context.Background(), "chessarbiter: pgnout: %v", err)
		}
	}
	if w.epd != nil {
		if err := pgnout.WriteEPD(w.epd, g); err != nil {
			logw.Warningf(context.Background(), "chessarbiter: epdout: %v", err)
		}
	}
}

func (w *outputWriter) Snapshot(stats.Snapshot) {}

func newOutputWriters(cfg *config.Config) (*outputWriter, func(), error) {
	w := &outputWriter{}
	closers := make([]*os.File, 0, 2)

	if cfg.PGNOut.Enabled {
		f, err := os.Create(cfg.PGNOut.File)
		if err != nil {
			return nil, func() {}, err
		}
		w.pgn = f
		closers = append(closers, f)
	}
	if cfg.EPDOut.Enabled {
		f, err := os.Create(cfg.EPDOut.File)
		if err != nil {
			return nil, func() {}, err
		}
		w.epd = f
		closers = append(closers, f)
	}

	return w, func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}, nil
}
