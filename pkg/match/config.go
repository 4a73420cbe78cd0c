// Package match plays exactly one game deterministically between two engine sessions:
// the GameRunner of the tournament runner.
package match

import (
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/timecontrol"
)

// KV is an ordered (option_name, option_value) pair sent to an engine after handshake.
type KV struct {
	Name, Value string
}

// EngineConfig is the immutable description of one engine.
type EngineConfig struct {
	Name    string // must be unique within a tournament
	Command string
	Args    []string
	WorkDir string

	Limit   timecontrol.Limit
	Restart bool // the engine's restart=on|off setting; no code reads it, and PlayGame quits both sessions after every game

	Options []KV
}

// Opening is produced by pkg/pairing's OpeningPool; GameRunner only consumes it.
type Opening = pairing.Opening
