package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDefeatRate  = 1.0
	DefaultVictoryRate = 0.0
)

// Record is what the evaluation pass knows about one opponent. Only the two
// rates are read by the training core; the counters are informational.
type Record struct {
	DefeatRate  float64 `json:"defeatRate"`
	VictoryRate float64 `json:"victoryRate"`

	Episodes     int `json:"episodes,omitempty"`
	WinsFirst    int `json:"winsFirst,omitempty"`
	WinsSecond   int `json:"winsSecond,omitempty"`
	LossesFirst  int `json:"lossesFirst,omitempty"`
	LossesSecond int `json:"lossesSecond,omitempty"`
	DrawsFirst   int `json:"drawsFirst,omitempty"`
	DrawsSecond  int `json:"drawsSecond,omitempty"`
}

// Snapshot maps opponent id to its record. It's a point-in-time copy of the
// statistics file and may lag behind a concurrent evaluation.
type Snapshot map[string]Record

// For returns the record for id. Opponents never evaluated are assumed to
// beat the agent every time.
func (s Snapshot) For(id string) Record {
	if r, ok := s[id]; ok {
		return r
	}
	return Record{DefeatRate: DefaultDefeatRate, VictoryRate: DefaultVictoryRate}
}

var errTornRead = errors.New("statistics file is incomplete")

const (
	readAttempts = 3
	readDelay    = 20 * time.Millisecond
)

// LoadSnapshot reads the statistics file at path. A missing file or an
// empty path means no data yet. A file that stays unparseable after a few
// attempts (a writer was mid-update, or it's just corrupt) is logged and
// also treated as no data. Nothing here is fatal to training.
func LoadSnapshot(path string) Snapshot {
	snap := Snapshot{}
	if path == "" {
		return snap
	}
	err := retry.Do(
		func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			fresh := Snapshot{}
			if err := json.Unmarshal(data, &fresh); err != nil {
				return fmt.Errorf("%w: %w", errTornRead, err)
			}
			snap = fresh
			return nil
		},
		retry.Attempts(readAttempts),
		retry.Delay(readDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Debug().Err(err).Uint("n", n).Str("path", path).Msg("stats-read-retry")
			return retry.FixedDelay(n, err, config)
		}),
	)
	switch {
	case err == nil:
		return snap
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", path).Msg("no-stats-file-yet")
	case errors.Is(err, errTornRead):
		log.Warn().Err(err).Str("path", path).Msg("ignoring-unreadable-stats-file")
	default:
		log.Warn().Err(err).Str("path", path).Msg("stats-file-unavailable")
	}
	return Snapshot{}
}

// SaveSnapshot writes the whole snapshot to a temporary file next to path
// and renames it into place, so readers never see a partial file.
func SaveSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic is shared with the loss-replay file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
