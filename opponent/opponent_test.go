package opponent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/threats"
)

func testRNG(seed byte) *frand.RNG {
	s := make([]byte, 32)
	s[0] = seed
	return frand.NewCustom(s, 1024, 12)
}

func TestRandomOpponentStaysLegal(t *testing.T) {
	is := is.New(t)
	b, err := board.FromRows(3, "XO.", ".X.", "O..")
	is.NoErr(err)
	o := NewRandomOpponent(testRNG(1))
	legal := b.ValidActions()
	for i := 0; i < 50; i++ {
		m, err := o.ChooseMove(b, board.PlayerB, b.LegalMoves())
		is.NoErr(err)
		is.True(legal.Legal(m))
	}
	is.Equal(o.Kind(), Scripted)
}

func TestHeuristicOpponentWinsThenBlocks(t *testing.T) {
	is := is.New(t)
	a := threats.NewAnalyzer(3, 3)
	o := NewHeuristicOpponent(HeuristicName, a, testRNG(2))

	// O can win at 5 and must also watch X's win at 2; winning comes first.
	b, err := board.FromRows(3, "XX.", "OO.", "X..")
	is.NoErr(err)
	m, err := o.ChooseMove(b, board.PlayerB, b.LegalMoves())
	is.NoErr(err)
	is.Equal(m, 5)

	b, err = board.FromRows(3, "XX.", ".O.", "...")
	is.NoErr(err)
	m, err = o.ChooseMove(b, board.PlayerB, b.LegalMoves())
	is.NoErr(err)
	is.Equal(m, 2)
}

type scriptedPredictor struct {
	move int
	err  error
}

func (s scriptedPredictor) Predict(obs board.Observation, mask board.ActionMask, deterministic bool) (int, error) {
	return s.move, s.err
}

func TestPolicyOpponent(t *testing.T) {
	is := is.New(t)
	b, _ := board.NewBoard(3, 3)
	o := NewPolicyOpponent("frozen.onnx", scriptedPredictor{move: 7})
	m, err := o.ChooseMove(b, board.PlayerB, b.LegalMoves())
	is.NoErr(err)
	is.Equal(m, 7)
	is.Equal(o.Kind(), FrozenPolicy)

	boom := errors.New("boom")
	o = NewPolicyOpponent("frozen.onnx", scriptedPredictor{err: boom})
	_, err = o.ChooseMove(b, board.PlayerB, b.LegalMoves())
	is.True(errors.Is(err, boom))
}

func TestNewPool(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	p, err := NewPool(cfg, []string{"random", "heuristic", "random", "smart_random"}, testRNG(3))
	is.NoErr(err)
	is.Equal(p.Names(), []string{"random", "heuristic", "smart_random"})
	is.Equal(p.Len(), 3)
	o, ok := p.Get("smart_random")
	is.True(ok)
	is.Equal(o.Name(), "smart_random")
	_, ok = p.Get("nobody")
	is.True(!ok)
}

func TestNewPoolFailures(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	_, err := NewPool(cfg, []string{"random", "grandmaster"}, testRNG(4))
	is.True(errors.Is(err, ErrUnknownOpponent))

	_, err = NewPool(cfg, nil, testRNG(4))
	is.True(errors.Is(err, ErrUnknownOpponent))

	dir := t.TempDir()
	cfg.Set(config.ConfigModelsPath, dir)
	_, err = NewPool(cfg, []string{"missing.onnx"}, testRNG(4))
	is.True(errors.Is(err, os.ErrNotExist))
	is.Equal(resolvePolicyPath(cfg, "a.onnx"), filepath.Join(dir, "a.onnx"))
	is.Equal(resolvePolicyPath(cfg, "/abs/a.onnx"), "/abs/a.onnx")
}

func TestNewPoolFrom(t *testing.T) {
	is := is.New(t)
	rng := testRNG(5)
	p := NewPoolFrom(NewRandomOpponent(rng), NewRandomOpponent(rng))
	is.Equal(p.Len(), 1)
}
