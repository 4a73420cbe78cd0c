package timecontrol_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessarbiter/chessarbiter/pkg/timecontrol"
)

func TestLimit_ValidateRejectsMixedModes(t *testing.T) {
	l := timecontrol.Limit{TimeMs: 60000, FixedTimeMs: 1000}
	assert.Error(t, l.Validate())

	ok := timecontrol.Limit{TimeMs: 60000, IncMs: 500}
	assert.NoError(t, ok.Validate())
}

func TestClock_ClassicalAdvanceAppliesIncrementAndResetsTogo(t *testing.T) {
	limit := timecontrol.Limit{Moves: 2, TimeMs: 10000, IncMs: 1000}
	c := timecontrol.NewClock(limit)

	require.EqualValues(t, 10000, c.RemainingMs())

	forfeit := c.Advance(2 * time.Second)
	require.False(t, forfeit)
	assert.EqualValues(t, 9000, c.RemainingMs()) // 10000 - 2000 + 1000

	// second move of the two-move window resets the clock back to TimeMs
	forfeit = c.Advance(1 * time.Second)
	require.False(t, forfeit)
	assert.EqualValues(t, 10000, c.RemainingMs())
}

func TestClock_ForfeitsWhenThinkExceedsDeadline(t *testing.T) {
	c := timecontrol.NewClock(timecontrol.Limit{TimeMs: 1000})
	forfeit := c.Advance(5 * time.Second)
	assert.True(t, forfeit)
}

func TestClock_FixedTimeDeadlineIncludesNoMarginByDefault(t *testing.T) {
	c := timecontrol.NewClock(timecontrol.Limit{FixedTimeMs: 500})
	deadline, hasDeadline := c.Deadline()
	assert.True(t, hasDeadline)
	assert.Equal(t, 500*time.Millisecond, deadline)
}

func TestClock_NodesOnlyLimitUsesSafetyMarginAsDeadline(t *testing.T) {
	c := timecontrol.NewClock(timecontrol.Limit{Nodes: 1_000_000})
	deadline, hasDeadline := c.Deadline()
	assert.False(t, hasDeadline)
	assert.Equal(t, timecontrol.DefaultSafetyMargin, deadline)
}

func TestLimit_String(t *testing.T) {
	assert.Equal(t, "fixed=500ms", timecontrol.Limit{FixedTimeMs: 500}.String())
	assert.Equal(t, "nodes=1000", timecontrol.Limit{Nodes: 1000}.String())
	assert.Equal(t, "depth=10", timecontrol.Limit{Depth: 10}.String())
	assert.Equal(t, "unlimited", timecontrol.Limit{}.String())
}
