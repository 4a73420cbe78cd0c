package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessarbiter/chessarbiter/pkg/stats"
)

func validConfig() stats.Config {
	return stats.Config{Elo0: 0, Elo1: 10, Alpha: 0.05, Beta: 0.05, Model: stats.Normalized}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  stats.Config
		ok   bool
	}{
		{"valid", validConfig(), true},
		{"alpha zero", stats.Config{Elo0: 0, Elo1: 10, Alpha: 0, Beta: 0.05, Model: stats.Normalized}, false},
		{"alpha+beta>=1", stats.Config{Elo0: 0, Elo1: 10, Alpha: 0.6, Beta: 0.5, Model: stats.Normalized}, false},
		{"elo0>=elo1", stats.Config{Elo0: 10, Elo1: 5, Alpha: 0.05, Beta: 0.05, Model: stats.Normalized}, false},
		{"bad model", stats.Config{Elo0: 0, Elo1: 10, Alpha: 0.05, Beta: 0.05, Model: "bogus"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAggregator_TrinomialCounting(t *testing.T) {
	a, err := stats.New(validConfig(), true)
	require.NoError(t, err)

	a.AddResult(stats.Win)
	a.AddResult(stats.Draw)
	a.AddResult(stats.Loss)
	a.AddResult(stats.Win)

	snap := a.Snapshot()
	assert.Equal(t, int64(4), snap.Games)
	assert.Equal(t, int64(2), snap.Trinomial[stats.Win])
	assert.Equal(t, int64(1), snap.Trinomial[stats.Draw])
	assert.Equal(t, int64(1), snap.Trinomial[stats.Loss])
	assert.InDelta(t, 0.625, snap.Score, 1e-9) // (2 + 0.5)/4
}

func TestAggregator_PentanomialPairing(t *testing.T) {
	a, err := stats.New(validConfig(), false)
	require.NoError(t, err)

	a.AddResult(stats.Win)
	a.AddResult(stats.Win) // WW pair -> index 4

	a.AddResult(stats.Loss)
	a.AddResult(stats.Win) // LW pair -> index 2 (shares bucket with DD)

	a.AddResult(stats.Draw)
	a.AddResult(stats.Draw) // DD pair -> index 2

	snap := a.Snapshot()
	assert.Equal(t, int64(6), snap.Games)
	assert.Equal(t, int64(1), snap.Pentanomial[4])
	assert.Equal(t, int64(2), snap.Pentanomial[2])
}

func TestAggregator_SPRTAcceptsH1OnStrongWins(t *testing.T) {
	cfg := stats.Config{Elo0: 0, Elo1: 50, Alpha: 0.05, Beta: 0.05, Model: stats.Logistic}
	a, err := stats.New(cfg, true)
	require.NoError(t, err)

	for i := 0; i < 190; i++ {
		a.AddResult(stats.Win)
	}
	for i := 0; i < 10; i++ {
		a.AddResult(stats.Loss)
	}

	snap := a.Snapshot()
	assert.Equal(t, stats.AcceptH1, snap.Verdict)
	assert.Greater(t, snap.LLR, snap.Upper)
}

func TestAggregator_SPRTAcceptsH0OnEvenResults(t *testing.T) {
	cfg := stats.Config{Elo0: 0, Elo1: 50, Alpha: 0.05, Beta: 0.05, Model: stats.Normalized}
	a, err := stats.New(cfg, true)
	require.NoError(t, err)

	for i := 0; i < 250; i++ {
		a.AddResult(stats.Win)
		a.AddResult(stats.Loss)
	}

	snap := a.Snapshot()
	assert.Equal(t, stats.AcceptH0, snap.Verdict)
	assert.Less(t, snap.LLR, snap.Lower)
}

func TestAggregator_NoVerdictWithoutData(t *testing.T) {
	a, err := stats.New(validConfig(), true)
	require.NoError(t, err)

	snap := a.Snapshot()
	assert.Equal(t, stats.Continue, snap.Verdict)
	assert.Equal(t, 0.0, snap.LLR)
}
