// Package tournament runs a bounded-concurrency pool of games pulled from a pairing
// stream, feeding results into a StatsAggregator and deciding when the tournament stops.
package tournament

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/seekerror/logw"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/chessarbiter/chessarbiter/pkg/board"
	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
)

func init() {
	// Reflects the container/cgroup CPU quota, not the host's visible core count, in
	// runtime.GOMAXPROCS before Config.resolveConcurrency reads runtime.NumCPU.
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {})); err != nil {
		// best effort: GOMAXPROCS is left at whatever the runtime already chose
	}
}

// PlayFunc plays one pairing to completion (or interruption/error) and returns its
// record. The caller supplies this closure so the Scheduler never spawns a process or
// knows which EngineConfig belongs to which engine name; that wiring lives in
// cmd/chessarbiter, keeping the scheduler itself deterministic and easy to test with a
// stub PlayFunc.
type PlayFunc func(ctx context.Context, p pairing.Pairing) (*match.Game, error)

// Reporter receives progress callbacks. Implementations must not block the scheduler for
// long; pkg/report's TUI and websocket sinks buffer internally.
type Reporter interface {
	GameFinished(p pairing.Pairing, g *match.Game, err error)
	Snapshot(snap stats.Snapshot)
}

// NopReporter discards all progress callbacks.
type NopReporter struct{}

func (NopReporter) GameFinished(pairing.Pairing, *match.Game, error) {}
func (NopReporter) Snapshot(stats.Snapshot)                          {}

// Config parameterises one Scheduler run, matching spec.md §4.7's scheduler knobs.
type Config struct {
	Concurrency      int  // 0 selects runtime.NumCPU()
	ForceConcurrency bool // allow Concurrency > NumCPU()

	UseAffinity bool
	CPUList     []int // explicit CPU ids to partition; empty uses 0..NumCPU()-1

	WaitMs int // pacing delay before dispatching the next task, when > 0

	RatingInterval   int           // snapshot + report every N finished games; 0 disables
	ScoreInterval    time.Duration // snapshot + report at least this often; 0 disables
	AutosaveInterval int           // checkpoint every N finished games; 0 disables

	// ReferenceEngine orients stats.Outcome: a game is scored from this engine's point of
	// view. Required whenever a non-nil StatsAggregator is supplied.
	ReferenceEngine string
}

func (c Config) resolveConcurrency() (int, error) {
	n := c.Concurrency
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > runtime.NumCPU() && !c.ForceConcurrency {
		return 0, errors.Errorf("tournament: concurrency %d exceeds %d visible CPUs; set ForceConcurrency to override", n, runtime.NumCPU())
	}
	return n, nil
}

// Scheduler drains a pairing.Stream through a bounded worker pool, scoring completed
// games into a stats.Aggregator and stopping on exhaustion, SPRT verdict, or caller
// cancellation, per spec.md §4.7.
type Scheduler struct {
	cfg    Config
	stream *pairing.Stream
	play   PlayFunc
	agg    *stats.Aggregator
	report Reporter

	autosave func(Checkpoint) error
}

// NewScheduler validates cfg and wires a Scheduler around stream. agg and autosave may
// be nil (no SPRT stop condition / no checkpointing, respectively); report defaults to
// NopReporter when nil.
func NewScheduler(cfg Config, stream *pairing.Stream, play PlayFunc, agg *stats.Aggregator, report Reporter) (*Scheduler, error) {
	if stream == nil {
		return nil, errors.New("tournament: stream is required")
	}
	if play == nil {
		return nil, errors.New("tournament: play function is required")
	}
	if agg != nil && cfg.ReferenceEngine == "" {
		return nil, errors.New("tournament: reference_engine is required when a stats aggregator is supplied")
	}
	if _, err := cfg.resolveConcurrency(); err != nil {
		return nil, err
	}
	if report == nil {
		report = NopReporter{}
	}
	return &Scheduler{cfg: cfg, stream: stream, play: play, agg: agg, report: report}, nil
}

// SetAutosave installs a checkpoint sink, called every AutosaveInterval finished games.
func (s *Scheduler) SetAutosave(fn func(Checkpoint) error) {
	s.autosave = fn
}

// Run drains the stream until one of spec.md §4.7's three stop conditions fires:
// pairings exhausted, the aggregator reports an SPRT accept/reject verdict, or ctx is
// cancelled. It returns ctx.Err() on operator cancellation and nil otherwise: a PlayFunc
// error ends only that game, which is logged and passed to the Reporter, and never aborts
// the run.
func (s *Scheduler) Run(ctx context.Context) error {
	concurrency, err := s.cfg.resolveConcurrency()
	if err != nil {
		return err
	}

	var affinity [][]int
	if s.cfg.UseAffinity && runtime.GOOS != "darwin" {
		affinity = partitionCPUs(concurrency, s.cfg.CPUList)
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu               sync.Mutex
		completed        []pairing.Pairing
		sinceRating      int
		sinceAutosave    int
		lastScoreReport  = time.Now()
	)

	reportLocked := func() {
		if s.agg == nil {
			return
		}
		s.report.Snapshot(s.agg.Snapshot())
	}

	checkpointLocked := func() {
		if s.autosave == nil {
			return
		}
		cp := Checkpoint{Completed: append([]pairing.Pairing(nil), completed...)}
		if s.agg != nil {
			cp.Cells = s.agg.Snapshot()
		}
		if err := s.autosave(cp); err != nil {
			logw.Warningf(gctx, "tournament: autosave failed: %v", err)
		}
	}

	dispatched := 0

dispatch:
	for {
		if s.agg != nil && s.agg.Snapshot().Verdict != stats.Continue {
			logw.Infof(ctx, "tournament: SPRT verdict reached, stopping dispatch")
			break dispatch
		}
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}

		task, ok := s.stream.NextTask()
		if !ok {
			break dispatch
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break dispatch
		}

		var cpus []int
		if affinity != nil {
			cpus = affinity[dispatched%len(affinity)]
		}
		dispatched++

		g.Go(func() error {
			defer sem.Release(1)
			runTask(gctx, s, task, cpus, &mu, &completed, &sinceRating, &sinceAutosave, reportLocked, checkpointLocked)
			return nil
		})

		if s.cfg.ScoreInterval > 0 {
			mu.Lock()
			if time.Since(lastScoreReport) >= s.cfg.ScoreInterval {
				lastScoreReport = time.Now()
				reportLocked()
			}
			mu.Unlock()
		}

		if s.cfg.WaitMs > 0 {
			select {
			case <-time.After(time.Duration(s.cfg.WaitMs) * time.Millisecond):
			case <-ctx.Done():
				break dispatch
			}
		}
	}

	_ = g.Wait() // worker goroutines never return a non-nil error themselves

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// runTask plays every game in one scheduler task (one colour-swap pair, or one game when
// swap pairing is disabled) sequentially on the calling worker, scores completed games
// into the aggregator, and updates the shared bookkeeping under mu.
func runTask(
	ctx context.Context,
	s *Scheduler,
	task []pairing.Pairing,
	cpus []int,
	mu *sync.Mutex,
	completed *[]pairing.Pairing,
	sinceRating *int,
	sinceAutosave *int,
	reportLocked func(),
	checkpointLocked func(),
) {
	_ = cpus // CPU pinning has no real syscall binding in the retrieved pack; see DESIGN.md

	outcomes := make([]stats.Outcome, 0, len(task))
	for _, p := range task {
		g, err := s.play(ctx, p)
		s.report.GameFinished(p, g, err)

		if err != nil {
			logw.Warningf(ctx, "tournament: game %d errored: %v", p.GameID, err)
			continue
		}
		if out, ok := referenceOutcome(p, g, s.cfg.ReferenceEngine); ok {
			outcomes = append(outcomes, out)
		}

		mu.Lock()
		*completed = append(*completed, p)
		*sinceRating++
		*sinceAutosave++
		fireRating := s.cfg.RatingInterval > 0 && *sinceRating >= s.cfg.RatingInterval
		if fireRating {
			*sinceRating = 0
		}
		fireAutosave := s.cfg.AutosaveInterval > 0 && *sinceAutosave >= s.cfg.AutosaveInterval
		if fireAutosave {
			*sinceAutosave = 0
		}
		if s.agg != nil {
			if fireRating {
				reportLocked()
			}
			if fireAutosave {
				checkpointLocked()
			}
		}
		mu.Unlock()
	}

	if s.agg == nil {
		return
	}
	switch len(outcomes) {
	case 2:
		s.agg.AddPair(outcomes[0], outcomes[1])
	case 1:
		s.agg.AddResult(outcomes[0])
	}
}

// referenceOutcome scores a finished game from reference's point of view. It returns
// ok=false for games that did not complete (Interrupted) or where reference played
// neither side, per spec.md §5's "not counted in statistics unless it completed" rule.
func referenceOutcome(p pairing.Pairing, g *match.Game, reference string) (stats.Outcome, bool) {
	if g == nil || g.Result.Reason.Kind == match.Interrupted {
		return 0, false
	}
	switch reference {
	case p.White:
		switch g.Result.Outcome {
		case board.WhiteWins:
			return stats.Win, true
		case board.BlackWins:
			return stats.Loss, true
		case board.Draw:
			return stats.Draw, true
		}
	case p.Black:
		switch g.Result.Outcome {
		case board.WhiteWins:
			return stats.Loss, true
		case board.BlackWins:
			return stats.Win, true
		case board.Draw:
			return stats.Draw, true
		}
	}
	return 0, false
}
