package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		scores []int
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, score := range c.scores {
			s.Push(float64(score))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
	}
	s := &Statistic{}
	for _, v := range []float64{3, -1, 7} {
		s.Push(v)
	}
	is.Equal(s.Min(), -1.0)
	is.Equal(s.Max(), 7.0)
	is.Equal(s.Last(), 7.0)
	is.Equal(s.Iterations(), 3)
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.959963984540054))
	is.True(ZVal(99) > ZVal(95))
}

func TestWilsonInterval(t *testing.T) {
	is := is.New(t)
	lo, hi := WilsonInterval(0, 0, 95)
	is.Equal(lo, 0.0)
	is.Equal(hi, 1.0)

	lo, hi = WilsonInterval(50, 100, 95)
	is.True(lo < 0.5 && hi > 0.5)
	is.True(FuzzyEqual(0.5-lo, hi-0.5))

	lo, hi = WilsonInterval(0, 20, 95)
	is.True(FuzzyEqual(lo, 0))
	is.True(hi > 0 && hi < 0.25)
}

func TestSnapshotDefaults(t *testing.T) {
	is := is.New(t)
	snap := Snapshot{"random": {DefeatRate: 0.1, VictoryRate: 0.8}}
	is.Equal(snap.For("random").DefeatRate, 0.1)
	is.Equal(snap.For("heuristic"), Record{DefeatRate: 1.0, VictoryRate: 0.0})
}

func TestLoadSnapshotMissingOrTorn(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.Equal(len(LoadSnapshot("")), 0)
	is.Equal(len(LoadSnapshot(filepath.Join(dir, "nope.json"))), 0)

	torn := filepath.Join(dir, "torn.json")
	is.NoErr(os.WriteFile(torn, []byte(`{"random": {"defeatRate": 0.`), 0644))
	is.Equal(len(LoadSnapshot(torn)), 0)
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "sub", "stats.json")
	snap := Snapshot{
		"random":    {DefeatRate: 0.25, VictoryRate: 0.5, Episodes: 200},
		"heuristic": {DefeatRate: 0.75, VictoryRate: 0.1},
	}
	is.NoErr(SaveSnapshot(path, snap))
	is.Equal(LoadSnapshot(path), snap)

	entries, err := os.ReadDir(filepath.Dir(path))
	is.NoErr(err)
	is.Equal(len(entries), 1) // no temp files left behind
}

func TestLoadSnapshotExternalFormat(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "stats.json")
	is.NoErr(os.WriteFile(path, []byte(`{"random": {"defeatRate": 0.3, "victoryRate": 0.6}}`), 0644))
	snap := LoadSnapshot(path)
	is.Equal(snap.For("random"), Record{DefeatRate: 0.3, VictoryRate: 0.6})
}
