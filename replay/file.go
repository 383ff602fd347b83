package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/stats"
)

const entryPrefix = "game_lost_"

// LoadFile reads a loss-replay file into a buffer of capacity maxEntries.
// Entries are ordered by the sequence number in their id; ids without one
// sort after, by name. A missing or unreadable file gives an empty buffer,
// which simply turns review episodes off.
func LoadFile(path string, maxEntries int) *Buffer {
	buf := NewBuffer(maxEntries)
	if path == "" {
		return buf
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("replay-file-unavailable")
		}
		return buf
	}
	raw := map[string]LossEntry{}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring-unreadable-replay-file")
		return buf
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, oki := sequence(ids[i])
		sj, okj := sequence(ids[j])
		switch {
		case oki && okj:
			return si < sj
		case oki != okj:
			return oki
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		e := raw[id]
		if e.Player != board.PlayerA && e.Player != board.PlayerB {
			log.Warn().Str("id", id).Int("player", int(e.Player)).Msg("skipping-bad-replay-entry")
			continue
		}
		buf.Add(e)
	}
	log.Debug().Str("path", path).Int("entries", buf.Len()).Msg("loaded-replay-file")
	return buf
}

func sequence(id string) (int, bool) {
	s, ok := strings.CutPrefix(id, entryPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SaveFile writes the buffer, oldest entry first as game_lost_0, replacing
// the file atomically.
func (b *Buffer) SaveFile(path string) error {
	if path == "" {
		return errors.New("no loss replay path set")
	}
	out := make(map[string]LossEntry, len(b.entries))
	for i, e := range b.entries {
		out[fmt.Sprintf("%s%d", entryPrefix, i)] = e
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return stats.WriteFileAtomic(path, data)
}
