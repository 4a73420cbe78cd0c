// Package pairing produces the lazy, restartable stream of Pairings the scheduler pulls
// tasks from: round-robin or gauntlet engine matchups, colour-swap pairing, and opening
// book rotation, all driven by a single deterministic seed.
package pairing

import (
	"math/rand"

	"github.com/pkg/errors"
)

// OpeningOrder selects how the book is walked.
type OpeningOrder string

const (
	Sequential OpeningOrder = "sequential"
	Random     OpeningOrder = "random"
)

// Opening is a starting position plus the plies already applied before a colour-swap
// pair begins play. UsedTwice is set on the colour-swapped twin's copy when the schedule
// is built, marking the opening's second use (spec.md §4.6's "reused across the
// colour-swapped twin" rule).
type Opening struct {
	FEN       string
	Moves     []string
	UsedTwice bool
}

// Pairing is one scheduled game: a (white, black, opening, round, game_id) tuple. Within
// a colour-swap pair, GameInRound 0 gives white to the first-listed engine and 1 swaps it,
// reusing the same Opening.
type Pairing struct {
	Round       int
	GameInRound int
	White       string
	Black       string
	Opening     Opening
	GameID      int
}

// Config parameterises one tournament's pairing/opening schedule.
type Config struct {
	Engines []string // unique names, in listed order

	Rounds        int
	GamesPerPair  int
	GauntletSeeds int // 0 disables gauntlet mode: every engine pairs with every other
	NoSwap        bool
	Reverse       bool

	Book  []Entry
	Order OpeningOrder
	Start int
	Plies int

	Seed int64
}

func (c Config) validate() error {
	if len(c.Engines) < 2 {
		return errors.New("pairing: at least two engines are required")
	}
	if c.Rounds <= 0 {
		return errors.New("pairing: rounds must be positive")
	}
	if c.GamesPerPair <= 0 {
		return errors.New("pairing: games_per_pair must be positive")
	}
	if c.GauntletSeeds < 0 || c.GauntletSeeds > len(c.Engines) {
		return errors.New("pairing: gauntlet_seeds out of range")
	}
	if len(c.Book) == 0 {
		return errors.New("pairing: opening book is empty")
	}
	return nil
}

// enginePair is one base (white-seat, black-seat) matchup before colour-swap expansion.
type enginePair struct {
	white, black string
}

func buildPairs(cfg Config) []enginePair {
	var pairs []enginePair
	n := len(cfg.Engines)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if cfg.GauntletSeeds > 0 {
				// Gauntlet: at least one side of the pair must be a seed; seeds never
				// play each other.
				iSeed, jSeed := i < cfg.GauntletSeeds, j < cfg.GauntletSeeds
				if iSeed == jSeed {
					continue
				}
				if !iSeed {
					continue // the seed is always listed first (white seat) per pair
				}
			} else if i > j {
				continue // round-robin: unordered pairs, white/black decided by swap
			}
			pairs = append(pairs, enginePair{white: cfg.Engines[i], black: cfg.Engines[j]})
		}
	}
	if cfg.Reverse {
		for i := range pairs {
			pairs[i].white, pairs[i].black = pairs[i].black, pairs[i].white
		}
	}
	return pairs
}

// Stream is a lazy, restartable iterator over the full tournament schedule. Restartable
// means: materialize the schedule once (it is fully deterministic given Config), then
// resume from any GameID via Seek — no replay of engine games is required.
type Stream struct {
	cfg       Config
	pairs     []enginePair
	schedule  []Pairing
	pos       int
}

// NewStream validates cfg and builds the full ordered schedule of Pairings. The schedule
// is pure data — no process is spawned and no engine is contacted until the Scheduler
// consumes a Pairing.
func NewStream(cfg Config) (*Stream, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Stream{cfg: cfg, pairs: buildPairs(cfg)}
	s.schedule = s.build()
	return s, nil
}

func (s *Stream) build() []Pairing {
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	bookIdx := s.cfg.Start % len(s.cfg.Book)

	nextOpening := func() Opening {
		var entry Entry
		if s.cfg.Order == Random {
			entry = s.cfg.Book[rng.Intn(len(s.cfg.Book))]
		} else {
			entry = s.cfg.Book[bookIdx]
			bookIdx = (bookIdx + 1) % len(s.cfg.Book)
		}
		moves := entry.Moves
		if s.cfg.Plies > 0 && len(moves) > s.cfg.Plies {
			moves = moves[:s.cfg.Plies]
		}
		return Opening{FEN: entry.FEN, Moves: moves}
	}

	var out []Pairing
	gameID := 0
	for round := 1; round <= s.cfg.Rounds; round++ {
		for _, pair := range s.pairs {
			for g := 0; g < s.cfg.GamesPerPair; g++ {
				opening := nextOpening()

				gameID++
				out = append(out, Pairing{
					Round: round, GameInRound: 0,
					White: pair.white, Black: pair.black,
					Opening: opening, GameID: gameID,
				})

				if !s.cfg.NoSwap {
					opening.UsedTwice = true
					gameID++
					out = append(out, Pairing{
						Round: round, GameInRound: 1,
						White: pair.black, Black: pair.white,
						Opening: opening, GameID: gameID,
					})
				}
			}
		}
	}
	return out
}

// Len returns the total number of pairings in the schedule.
func (s *Stream) Len() int { return len(s.schedule) }

// Next returns the next Pairing and advances the cursor, or ok=false when exhausted.
func (s *Stream) Next() (Pairing, bool) {
	if s.pos >= len(s.schedule) {
		return Pairing{}, false
	}
	p := s.schedule[s.pos]
	s.pos++
	return p, true
}

// NextTask pops one scheduler task: a full colour-swap pair (GameInRound 0 and 1 back to
// back) when swap pairing is active, or a single game otherwise. This is the unit the
// Scheduler hands to one worker, per spec.md §4.7's "a task is one full colour-swap pair
// (or, if pairing disabled, one game)".
func (s *Stream) NextTask() ([]Pairing, bool) {
	first, ok := s.Next()
	if !ok {
		return nil, false
	}
	if s.cfg.NoSwap || first.GameInRound != 0 {
		return []Pairing{first}, true
	}
	second, ok := s.Next()
	if !ok {
		return []Pairing{first}, true
	}
	return []Pairing{first, second}, true
}

// Seek resets the cursor to resume at the given count of already-completed pairings,
// supporting the Scheduler's checkpoint/autosave restart path.
func (s *Stream) Seek(completed int) {
	if completed < 0 {
		completed = 0
	}
	if completed > len(s.schedule) {
		completed = len(s.schedule)
	}
	s.pos = completed
}

// Remaining returns the pairings not yet returned by Next.
func (s *Stream) Remaining() []Pairing {
	return s.schedule[s.pos:]
}
