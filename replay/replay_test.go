package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/lategardener/morpion-RL/board"
)

// scriptedRand hands out preset draws.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scriptedRand) Intn(n int) int {
	i := s.ints[0]
	s.ints = s.ints[1:]
	return i % n
}

func entry(p board.Player, moves ...int) LossEntry {
	return LossEntry{Player: p, OpponentMoves: moves}
}

func TestBufferNeverExceedsMax(t *testing.T) {
	is := is.New(t)
	const maxEntries, extra = 5, 7
	b := NewBuffer(maxEntries)
	for i := 0; i < maxEntries+extra; i++ {
		b.Add(entry(board.PlayerA, i))
		is.True(b.Len() <= maxEntries)
	}
	is.Equal(b.Len(), maxEntries)
	for i, e := range b.Entries() {
		is.Equal(e.OpponentMoves, []int{extra + i}) // the most recent, in order
	}
}

func TestAddCopiesMoves(t *testing.T) {
	is := is.New(t)
	b := NewBuffer(2)
	moves := []int{4, 2}
	b.Add(entry(board.PlayerB, moves...))
	moves[0] = 8
	is.Equal(b.Entries()[0].OpponentMoves, []int{4, 2})
}

func TestKeyAndContains(t *testing.T) {
	is := is.New(t)
	b := NewBuffer(3)
	b.Add(entry(board.PlayerA, 4, 2))
	is.True(b.Contains(entry(board.PlayerA, 4, 2)))
	is.True(!b.Contains(entry(board.PlayerB, 4, 2)))
	is.True(!b.Contains(entry(board.PlayerA, 2, 4)))
	is.True(entry(board.PlayerB).OpponentStarts())
	is.True(!entry(board.PlayerA).OpponentStarts())
}

func TestMaybeStartReplay(t *testing.T) {
	is := is.New(t)
	b := NewBuffer(3)
	is.True(b.MaybeStartReplay(1.0, &scriptedRand{floats: []float64{0}, ints: []int{0}}) == nil)

	b.Add(entry(board.PlayerA, 1))
	b.Add(entry(board.PlayerB, 2))
	is.True(b.MaybeStartReplay(0, &scriptedRand{}) == nil)
	is.True(b.MaybeStartReplay(0.3, &scriptedRand{floats: []float64{0.3}}) == nil)

	c := b.MaybeStartReplay(0.3, &scriptedRand{floats: []float64{0.29}, ints: []int{1}})
	is.True(c != nil)
	is.Equal(c.Entry(), entry(board.PlayerB, 2))
	is.True(c.Active())
}

func TestCursorDivergence(t *testing.T) {
	is := is.New(t)
	b := NewBuffer(1)
	b.Add(entry(board.PlayerA, 4, 2))
	c := b.MaybeStartReplay(1, &scriptedRand{floats: []float64{0}, ints: []int{0}})

	bd, _ := board.NewBoard(3, 3)
	is.NoErr(bd.ApplyMove(board.PlayerA, 0))
	m, ok := c.Next(bd.ValidActions())
	is.True(ok)
	is.Equal(m, 4)
	is.NoErr(bd.ApplyMove(board.PlayerB, m))

	// the agent takes 2 itself, so the stored reply is gone
	is.NoErr(bd.ApplyMove(board.PlayerA, 2))
	_, ok = c.Next(bd.ValidActions())
	is.True(!ok)
	is.True(c.Abandoned())
	is.True(!c.Active())

	// abandonment is permanent
	_, ok = c.Next(board.ActionMask{true, true, true, true, true, true, true, true, true})
	is.True(!ok)
}

func TestCursorExhausted(t *testing.T) {
	is := is.New(t)
	c := &Cursor{entry: entry(board.PlayerA, 1), queue: []int{1}}
	mask := board.ActionMask{true, true, true}
	m, ok := c.Next(mask)
	is.True(ok)
	is.Equal(m, 1)
	is.Equal(c.Remaining(), 0)
	_, ok = c.Next(mask)
	is.True(!ok)
	is.True(c.Abandoned())

	var none *Cursor
	_, ok = none.Next(mask)
	is.True(!ok)
	is.True(!none.Active())
}

func TestFileRoundTripKeepsOrder(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "losses.json")
	b := NewBuffer(20)
	for i := 0; i < 12; i++ {
		b.Add(entry(board.Player(i%2), i, 8-i%9))
	}
	is.NoErr(b.SaveFile(path))

	got := LoadFile(path, 20)
	is.Equal(got.Entries(), b.Entries())

	// a smaller capacity keeps the newest lines
	got = LoadFile(path, 4)
	is.Equal(got.Entries(), b.Entries()[8:])
}

func TestLoadFileExternalFormat(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "losses.json")
	data := `{
		"game_lost_10": {"player": 0, "opponentMoves": [8]},
		"game_lost_2": {"player": 1, "opponentMoves": [4, 2]},
		"game_lost_bad": {"player": 7, "opponentMoves": [1]}
	}`
	is.NoErr(os.WriteFile(path, []byte(data), 0644))
	b := LoadFile(path, 20)
	is.Equal(b.Entries(), []LossEntry{entry(board.PlayerB, 4, 2), entry(board.PlayerA, 8)})
}

func TestLoadFileMissingOrBroken(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.Equal(LoadFile("", 5).Len(), 0)
	is.Equal(LoadFile(filepath.Join(dir, "none.json"), 5).Len(), 0)
	broken := filepath.Join(dir, "broken.json")
	is.NoErr(os.WriteFile(broken, []byte(`{"game_lost_0": {"player": `), 0644))
	is.Equal(LoadFile(broken, 5).Len(), 0)
	is.True(NewBuffer(5).SaveFile("") != nil)
}
