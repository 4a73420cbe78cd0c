package tournament

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
)

// Checkpoint is enough state to resume a tournament after a restart: which pairings
// already completed (so the stream can Seek past them) and the aggregator's counts
// (so statistics survive the restart too), per spec.md §4.7's "-autosave" feature.
type Checkpoint struct {
	Completed []pairing.Pairing `yaml:"completed"`
	Cells     stats.Snapshot    `yaml:"cells"`
	Seed      int64             `yaml:"seed"`
}

// SaveCheckpoint writes cp to path as YAML.
func SaveCheckpoint(path string, cp Checkpoint) error {
	data, err := yaml.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "tournament: marshal checkpoint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "tournament: write checkpoint")
	}
	return nil
}

// LoadCheckpoint reads a Checkpoint previously written by SaveCheckpoint.
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, errors.Wrap(err, "tournament: read checkpoint")
	}
	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, errors.Wrap(err, "tournament: unmarshal checkpoint")
	}
	return cp, nil
}
