// Package replay stores lines the agent lost, so later episodes can be
// started from them and the agent gets another go at the same position.
package replay

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash"

	"github.com/lategardener/morpion-RL/board"
)

// LossEntry is one lost game: which symbol the agent held, and every move
// the opponent made, in order. PlayerA always moves first, so an agent
// holding PlayerB means the opponent opened.
type LossEntry struct {
	Player        board.Player `json:"player"`
	OpponentMoves []int        `json:"opponentMoves"`
}

func (e LossEntry) OpponentStarts() bool {
	return e.Player == board.PlayerB
}

// Key hashes the whole line. Two entries with the same key replay
// identically.
func (e LossEntry) Key() uint64 {
	buf := make([]byte, 0, 8*(len(e.OpponentMoves)+1))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.Player))
	for _, m := range e.OpponentMoves {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(m))
	}
	return xxhash.Sum64(buf)
}

func (e LossEntry) String() string {
	return fmt.Sprintf("agent=%s opp=%v", e.Player, e.OpponentMoves)
}

// Rand is the subset of *frand.RNG the buffer draws from.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Buffer is a bounded FIFO; adding to a full buffer evicts the oldest entry.
type Buffer struct {
	maxEntries int
	entries    []LossEntry
}

func NewBuffer(maxEntries int) *Buffer {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Buffer{maxEntries: maxEntries, entries: make([]LossEntry, 0, maxEntries)}
}

func (b *Buffer) MaxEntries() int {
	return b.maxEntries
}

func (b *Buffer) Add(e LossEntry) {
	e.OpponentMoves = append([]int(nil), e.OpponentMoves...)
	if len(b.entries) == b.maxEntries {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
	b.entries = append(b.entries, e)
}

func (b *Buffer) Len() int {
	return len(b.entries)
}

// Entries returns the stored entries, oldest first. The slice must not be
// modified.
func (b *Buffer) Entries() []LossEntry {
	return b.entries
}

// Contains reports whether an identical line is already stored.
func (b *Buffer) Contains(e LossEntry) bool {
	k := e.Key()
	for _, x := range b.entries {
		if x.Key() == k {
			return true
		}
	}
	return false
}

// MaybeStartReplay returns a cursor over a uniformly drawn entry with
// probability reviewRatio, or nil. An empty buffer never replays.
func (b *Buffer) MaybeStartReplay(reviewRatio float64, rng Rand) *Cursor {
	if len(b.entries) == 0 || reviewRatio <= 0 {
		return nil
	}
	if rng.Float64() >= reviewRatio {
		return nil
	}
	e := b.entries[rng.Intn(len(b.entries))]
	return &Cursor{entry: e, queue: append([]int(nil), e.OpponentMoves...)}
}

// Cursor walks the forced opponent moves of one replay episode.
type Cursor struct {
	entry     LossEntry
	queue     []int
	abandoned bool
}

func (c *Cursor) Entry() LossEntry {
	return c.entry
}

// Next pops the head of the queue. If the queue is empty or the head is no
// longer legal, the replay is abandoned for good and ok is false.
func (c *Cursor) Next(mask board.ActionMask) (move int, ok bool) {
	if c == nil || c.abandoned {
		return -1, false
	}
	if len(c.queue) == 0 {
		c.abandoned = true
		return -1, false
	}
	move, c.queue = c.queue[0], c.queue[1:]
	if move < 0 || move >= len(mask) || !mask[move] {
		c.abandoned = true
		return -1, false
	}
	return move, true
}

// Active is true while the cursor may still produce moves.
func (c *Cursor) Active() bool {
	return c != nil && !c.abandoned
}

func (c *Cursor) Abandoned() bool {
	return c != nil && c.abandoned
}

func (c *Cursor) Remaining() int {
	if c == nil {
		return 0
	}
	return len(c.queue)
}
