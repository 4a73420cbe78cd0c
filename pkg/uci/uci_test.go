package uci

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoParams_StringOmitsZeroFields(t *testing.T) {
	p := GoParams{WhiteTime: 60000, BlackTime: 59000, WhiteInc: 500}
	assert.Equal(t, "go wtime 60000 btime 59000 winc 500", p.String())
}

func TestGoParams_StringInfiniteAndSearchMoves(t *testing.T) {
	p := GoParams{Infinite: true, SearchMoves: []string{"e2e4", "d2d4"}}
	assert.Equal(t, "go infinite searchmoves e2e4 d2d4", p.String())
}

func TestGoParams_StringMoveTimeAndDepth(t *testing.T) {
	p := GoParams{MoveTime: 1000, Depth: 12, Nodes: 5000}
	assert.Equal(t, "go depth 12 nodes 5000 movetime 1000", p.String())
}

func TestParseBestMove_PlainMove(t *testing.T) {
	bm, ok := ParseBestMove("bestmove e2e4")
	assert.True(t, ok)
	assert.Equal(t, BestMove{Move: "e2e4"}, bm)
}

func TestParseBestMove_WithPonder(t *testing.T) {
	bm, ok := ParseBestMove("bestmove e2e4 ponder e7e5")
	assert.True(t, ok)
	assert.Equal(t, BestMove{Move: "e2e4", Ponder: "e7e5"}, bm)
}

func TestParseBestMove_NullMoveMeansNoLegalMove(t *testing.T) {
	bm, ok := ParseBestMove("bestmove 0000")
	assert.True(t, ok)
	assert.Equal(t, "0000", bm.Move)
}

func TestParseBestMove_RejectsMalformedLine(t *testing.T) {
	_, ok := ParseBestMove("info depth 5")
	assert.False(t, ok)

	_, ok = ParseBestMove("bestmove")
	assert.False(t, ok)
}

func TestParseInfo_ScoreCentipawns(t *testing.T) {
	info := ParseInfo("info depth 10 seldepth 14 score cp 34 nodes 12345 nps 500000 time 24 pv e2e4 e7e5")
	assert.Equal(t, 10, info.Depth)
	assert.Equal(t, 14, info.SelDepth)
	assert.Equal(t, uint64(12345), info.Nodes)
	assert.Equal(t, uint64(500000), info.NPS)
	assert.Equal(t, 24, info.Time)
	assert.Equal(t, []string{"e2e4", "e7e5"}, info.PV)
	assert.Equal(t, 1, info.Multipv, "absent multipv defaults to 1")

	assert.NotNil(t, info.Score)
	assert.Equal(t, Centipawns, info.Score.Kind)
	assert.Equal(t, 34, info.Score.Value)
	assert.Equal(t, "cp 34", info.Score.String())
}

func TestParseInfo_ScoreMate(t *testing.T) {
	info := ParseInfo("info depth 20 score mate -3")
	assert.NotNil(t, info.Score)
	assert.Equal(t, Mate, info.Score.Kind)
	assert.Equal(t, -3, info.Score.Value)
	assert.Equal(t, "mate -3", info.Score.String())
}

func TestParseInfo_StringKeywordStopsParsing(t *testing.T) {
	info := ParseInfo("info depth 1 string this engine prints depth nonsense 99")
	assert.Equal(t, 1, info.Depth)
}

func TestParseInfo_SkipsUnknownAndSingleArgKeywords(t *testing.T) {
	info := ParseInfo("info currmove e2e4 currmovenumber 1 depth 5")
	assert.Equal(t, 5, info.Depth)
}

func TestParseInfo_NotAnInfoLineReturnsZeroValue(t *testing.T) {
	info := ParseInfo("bestmove e2e4")
	assert.Equal(t, 1, info.Multipv)
	assert.Equal(t, 0, info.Depth)
	assert.Nil(t, info.Score)
}

func TestParseOption_SpinWithMinMax(t *testing.T) {
	opt, ok := parseOption("option name Hash type spin default 16 min 1 max 4096")
	assert.True(t, ok)
	assert.Equal(t, "Hash", opt.Name)
	assert.Equal(t, OptionSpin, opt.Kind)
	assert.Equal(t, "16", opt.Default)
	assert.Equal(t, 1, opt.Min)
	assert.Equal(t, 4096, opt.Max)
}

func TestParseOption_ComboWithVars(t *testing.T) {
	opt, ok := parseOption("option name Style type combo default Normal var Solid var Normal var Risky")
	assert.True(t, ok)
	assert.Equal(t, "Style", opt.Name)
	assert.Equal(t, OptionCombo, opt.Kind)
	assert.Equal(t, "Normal", opt.Default)
	assert.Equal(t, []string{"Solid", "Normal", "Risky"}, opt.Vars)
}

func TestParseOption_NameWithSpaces(t *testing.T) {
	opt, ok := parseOption("option name Move Overhead type spin default 10 min 0 max 5000")
	assert.True(t, ok)
	assert.Equal(t, "Move Overhead", opt.Name)
}

func TestParseOption_RejectsNonOptionLine(t *testing.T) {
	_, ok := parseOption("id name Stockbird 1.0")
	assert.False(t, ok)
}
