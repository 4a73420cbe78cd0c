// Package timecontrol computes per-move deadlines and tracks remaining time for one
// engine across a game, generalizing the classical/fixed/nodes/depth limit kinds.
package timecontrol

import (
	"fmt"
	"time"
)

// DefaultSafetyMargin is the ceiling used to detect a hung engine when the limit carries
// no wall-clock component of its own (nodes/depth-only play).
const DefaultSafetyMargin = 10 * time.Second

// Limit is one engine's configured time control. It is one of four modes, or any
// additive combination of {Moves,TimeMs,IncMs} (classical) with Nodes/Depth, except that
// FixedTimeMs is mutually exclusive with the classical trio.
type Limit struct {
	Moves int   // moves-to-go before the clock resets; 0 == rest of game
	TimeMs   int64 // classical: starting time budget
	IncMs    int64 // classical: increment added after each move

	FixedTimeMs int64 // fixed time per move; cannot combine with the classical trio

	Nodes uint64 // node limit passed through to the engine, no deadline of its own
	Depth int    // depth/ply limit passed through to the engine, no deadline of its own

	TimeMarginMs int64 // slack added to the computed deadline; defaults to DefaultSafetyMargin when zero and the limit has no wall-clock component
}

// Validate rejects a Limit that mixes the classical trio (moves/time/increment) with
// fixed-time-per-move: the two modes compute a deadline differently and can't coexist.
func (l Limit) Validate() error {
	classical := l.Moves != 0 || l.TimeMs != 0 || l.IncMs != 0
	if classical && l.FixedTimeMs != 0 {
		return fmt.Errorf("timecontrol: classical (moves/time/inc) and fixed_time_ms cannot both be set")
	}
	return nil
}

func (l Limit) margin() time.Duration {
	if l.TimeMarginMs > 0 {
		return time.Duration(l.TimeMarginMs) * time.Millisecond
	}
	if l.TimeMs == 0 && l.FixedTimeMs == 0 {
		return DefaultSafetyMargin
	}
	return 0
}

func (l Limit) String() string {
	switch {
	case l.FixedTimeMs > 0:
		return fmt.Sprintf("fixed=%dms", l.FixedTimeMs)
	case l.TimeMs > 0 || l.IncMs > 0:
		if l.Moves > 0 {
			return fmt.Sprintf("%dms+%dms/move[moves=%d]", l.TimeMs, l.IncMs, l.Moves)
		}
		return fmt.Sprintf("%dms+%dms/move", l.TimeMs, l.IncMs)
	case l.Nodes > 0:
		return fmt.Sprintf("nodes=%d", l.Nodes)
	case l.Depth > 0:
		return fmt.Sprintf("depth=%d", l.Depth)
	default:
		return "unlimited"
	}
}

// Clock tracks one engine's remaining time across a game under a fixed Limit.
type Clock struct {
	limit     Limit
	remaining time.Duration
	togo      int // moves remaining until the next clock reset, classical mode only
}

// NewClock creates a Clock at the start of a game.
func NewClock(limit Limit) *Clock {
	c := &Clock{
		limit:     limit,
		remaining: time.Duration(limit.TimeMs) * time.Millisecond,
	}
	if limit.Moves > 0 {
		c.togo = limit.Moves
	}
	return c
}

// Limit returns the clock's configured limit.
func (c *Clock) Limit() Limit {
	return c.limit
}

// RemainingMs returns the engine's current remaining time budget, classical mode only.
func (c *Clock) RemainingMs() int64 {
	return c.remaining.Milliseconds()
}

// Deadline returns the wall-clock deadline for the upcoming move, including margin, and
// whether the limit carries a deadline of its own (false for a pure nodes/depth pass-
// through whose only timing bound is the safety margin itself).
func (c *Clock) Deadline() (time.Duration, bool) {
	margin := c.limit.margin()

	switch {
	case c.limit.FixedTimeMs > 0:
		return time.Duration(c.limit.FixedTimeMs)*time.Millisecond + margin, true
	case c.limit.TimeMs > 0 || c.limit.IncMs > 0:
		return c.remaining + margin, true
	default:
		if margin == 0 {
			margin = DefaultSafetyMargin
		}
		return margin, false
	}
}

// Advance records that the engine's move took think wall-clock time, updates the
// remaining budget (classical mode: subtract think, add increment, reset every Moves
// plies) and reports whether think exceeded the computed deadline.
func (c *Clock) Advance(think time.Duration) (forfeit bool) {
	deadline, _ := c.Deadline()
	forfeit = think > deadline

	if c.limit.TimeMs > 0 || c.limit.IncMs > 0 {
		c.remaining -= think
		c.remaining += time.Duration(c.limit.IncMs) * time.Millisecond
		if c.remaining < 0 {
			c.remaining = 0
		}
	}

	if c.limit.Moves > 0 {
		c.togo--
		if c.togo <= 0 {
			c.remaining = time.Duration(c.limit.TimeMs) * time.Millisecond
			c.togo = c.limit.Moves
		}
	}

	return forfeit
}
