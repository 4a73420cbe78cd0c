package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessarbiter/chessarbiter/pkg/config"
)

func baseArgs() []string {
	return []string{
		"-engine", "cmd=./enginea name=A tc=40/60+0.5",
		"-engine", "cmd=./engineb name=B st=1 restart=true",
		"-rounds", "2",
	}
}

func TestParseArgs_Engines(t *testing.T) {
	cfg, err := config.ParseArgs(baseArgs())
	require.NoError(t, err)
	require.Len(t, cfg.Engines, 2)

	assert.Equal(t, "A", cfg.Engines[0].Name)
	assert.Equal(t, "./enginea", cfg.Engines[0].Command)
	assert.Equal(t, "40/60+0.5", cfg.Engines[0].TC)

	assert.Equal(t, "B", cfg.Engines[1].Name)
	assert.Equal(t, "1", cfg.Engines[1].ST)
	assert.True(t, cfg.Engines[1].Restart)

	assert.NoError(t, cfg.Validate())
}

func TestParseArgs_EngineOptionsAndArgs(t *testing.T) {
	args := append(baseArgs(), "-engine", `cmd=./enginec name=C tc=60+0 option.Hash=128 option.Threads=2 args=--quiet --uci`)
	cfg, err := config.ParseArgs(args)
	require.NoError(t, err)
	require.Len(t, cfg.Engines, 3)

	c := cfg.Engines[2]
	assert.ElementsMatch(t, []string{"--quiet", "--uci"}, c.Args)

	byName := map[string]string{}
	for _, kv := range c.Options {
		byName[kv.Name] = kv.Value
	}
	assert.Equal(t, "128", byName["Hash"])
	assert.Equal(t, "2", byName["Threads"])
}

func TestParseArgs_SPRT(t *testing.T) {
	args := append(baseArgs(), "-sprt", "alpha=0.05 beta=0.05 elo0=0 elo1=10 model=logistic")
	cfg, err := config.ParseArgs(args)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	sc, ok := cfg.StatsConfig()
	require.True(t, ok)
	assert.Equal(t, 0.05, sc.Alpha)
	assert.Equal(t, 10.0, sc.Elo1)
}

func TestParseArgs_SPRTInvalidRangeFailsValidation(t *testing.T) {
	args := append(baseArgs(), "-sprt", "alpha=0.5 beta=0.6 elo0=0 elo1=10 model=logistic")
	cfg, err := config.ParseArgs(args)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate()) // alpha+beta >= 1
}

func TestParseArgs_DrawResignMaxMoves(t *testing.T) {
	args := append(baseArgs(),
		"-draw", "movenumber=40 movecount=5 score=10",
		"-resign", "movecount=3 score=900 twosided=true",
		"-maxmoves", "200",
	)
	cfg, err := config.ParseArgs(args)
	require.NoError(t, err)

	assert.True(t, cfg.Draw.Enabled)
	assert.Equal(t, 40, cfg.Draw.MoveNumber)
	assert.True(t, cfg.Resign.TwoSided)
	assert.Equal(t, 200, cfg.MaxMoves)
}

func TestParseArgs_ConcurrencyRejectedWithoutForce(t *testing.T) {
	cfg, err := config.ParseArgs(append(baseArgs(), "-concurrency", "999999"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg2, err := config.ParseArgs(append(baseArgs(), "-concurrency", "999999", "-force-concurrency"))
	require.NoError(t, err)
	assert.NoError(t, cfg2.Validate())
}

func TestParseArgs_RequiresTwoEngines(t *testing.T) {
	cfg, err := config.ParseArgs([]string{"-rounds", "1"})
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
	_ = cfg
}

func TestParseArgs_UseAffinityWithCPUList(t *testing.T) {
	cfg, err := config.ParseArgs(append(baseArgs(), "-use-affinity", "0,1,2,3"))
	require.NoError(t, err)
	assert.True(t, cfg.UseAffinity)
	assert.Equal(t, []int{0, 1, 2, 3}, cfg.CPUList)
}

func TestLoadFile_RoundTripsIntoFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chessarbiter.toml")
	doc := `
variant = "standard"

[[engine]]
name = "A"
cmd = "./enginea"
tc = "40/60+0.5"

[[engine]]
name = "B"
cmd = "./engineb"
st = "1"

[schedule]
rounds = 3
concurrency = 2

[sprt]
enabled = true
alpha = 0.05
beta = 0.05
elo0 = 0
elo1 = 10
model = "logistic"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.ParseArgs([]string{"-config", path})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Rounds)
	assert.Equal(t, 2, cfg.Concurrency)
	require.Len(t, cfg.Engines, 2)
	assert.True(t, cfg.SPRT.Enabled)
}

func TestLoadFile_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chessarbiter.toml")
	doc := `
[schedule]
rounds = 3

[[engine]]
name = "A"
cmd = "./enginea"
tc = "60+0"

[[engine]]
name = "B"
cmd = "./engineb"
tc = "60+0"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.ParseArgs([]string{"-config", path, "-rounds", "9"})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Rounds) // flag wins over the file's 3
}

func TestEngines_BuildsTimeControlAndBroadcastOptions(t *testing.T) {
	args := append(baseArgs(), "-each", "Threads=1")
	cfg, err := config.ParseArgs(args)
	require.NoError(t, err)

	engines, err := cfg.Engines()
	require.NoError(t, err)
	require.Len(t, engines, 2)

	assert.Equal(t, int64(60000), engines[0].Limit.TimeMs)
	assert.Equal(t, int64(500), engines[0].Limit.IncMs)
	assert.Equal(t, 40, engines[0].Limit.Moves)

	assert.Equal(t, int64(1000), engines[1].Limit.FixedTimeMs)

	for _, e := range engines {
		found := false
		for _, kv := range e.Options {
			if kv.Name == "Threads" && kv.Value == "1" {
				found = true
			}
		}
		assert.True(t, found, "broadcast -each option missing on engine %s", e.Name)
	}
}

func TestPairingConfig_NoSwapWithoutRepeat(t *testing.T) {
	cfg, err := config.ParseArgs(baseArgs())
	require.NoError(t, err)

	book, err := cfg.OpeningBook(nil)
	require.NoError(t, err)

	pc := cfg.PairingConfig([]string{"A", "B"}, book)
	assert.True(t, pc.NoSwap) // games=1 (default), no -repeat: falls back to trinomial
}

func TestPairingConfig_SwapPairingWithGamesTwoAndRepeat(t *testing.T) {
	cfg, err := config.ParseArgs(append(baseArgs(), "-games", "2", "-repeat"))
	require.NoError(t, err)

	book, err := cfg.OpeningBook(nil)
	require.NoError(t, err)

	pc := cfg.PairingConfig([]string{"A", "B"}, book)
	assert.False(t, pc.NoSwap)
}
