package curriculum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"

	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/opponent"
	"github.com/lategardener/morpion-RL/stats"
	"github.com/lategardener/morpion-RL/threats"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func testPool() *opponent.Pool {
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	a := threats.NewAnalyzer(3, 3)
	return opponent.NewPoolFrom(
		opponent.NewRandomOpponent(rng),
		opponent.NewHeuristicOpponent(opponent.HeuristicName, a, rng),
		opponent.NewHeuristicOpponent(opponent.SmartRandomName, a, rng),
	)
}

func mustNew(t *testing.T, pool *opponent.Pool, strategy Strategy, eps float64, rng Rand) *Curriculum {
	t.Helper()
	c, err := New(pool, strategy, eps, rng)
	require.NoError(t, err)
	return c
}

func sum(m map[string]float64) float64 {
	t := 0.0
	for _, v := range m {
		t += v
	}
	return t
}

func TestWeightsAlwaysNormalizedAndPositive(t *testing.T) {
	snaps := []stats.Snapshot{
		{},
		{"random": {DefeatRate: 0}, "heuristic": {DefeatRate: 0}, "smart_random": {DefeatRate: 0}},
		{"random": {DefeatRate: 0.1}, "heuristic": {DefeatRate: 0.9}},
		{"random": {DefeatRate: 1}, "heuristic": {DefeatRate: 1}, "smart_random": {DefeatRate: 1}},
		{"random": {DefeatRate: -3}, "heuristic": {DefeatRate: 7}},
	}
	for _, strategy := range []Strategy{DefeatRate, Blended} {
		c := mustNew(t, testPool(), strategy, 0.05, fixedRand(0))
		for _, snap := range snaps {
			c.Refresh(snap)
			w := c.Weights()
			assert.Len(t, w, 3)
			assert.InDelta(t, 1.0, sum(w), 1e-9, "%s %v", strategy, snap)
			for name, v := range w {
				assert.Greater(t, v, 0.0, "%s %s", strategy, name)
			}
		}
	}
}

func TestDefeatRateWeights(t *testing.T) {
	c := mustNew(t, testPool(), DefeatRate, 0.05, fixedRand(0))
	c.Refresh(stats.Snapshot{
		"random":       {DefeatRate: 0.0},
		"heuristic":    {DefeatRate: 0.425},
		"smart_random": {DefeatRate: 0.425},
	})
	w := c.Weights()
	assert.InDelta(t, 0.05, w["random"], 1e-9)
	assert.InDelta(t, 0.475, w["heuristic"], 1e-9)
}

func TestBlendedWeights(t *testing.T) {
	c := mustNew(t, testPool(), Blended, 0.05, fixedRand(0))
	c.Refresh(stats.Snapshot{
		"random":       {DefeatRate: 0.0},
		"heuristic":    {DefeatRate: 0.5},
		"smart_random": {DefeatRate: 0.5},
	})
	w := c.Weights()
	assert.InDelta(t, 0.8/3, w["random"], 1e-9)
	assert.InDelta(t, 0.8/3+0.1, w["heuristic"], 1e-9)

	// no losses anywhere: the blend is uniform
	c.Refresh(stats.Snapshot{"random": {}, "heuristic": {}, "smart_random": {}})
	for _, v := range c.Weights() {
		assert.InDelta(t, 1.0/3, v, 1e-9)
	}
}

func TestUnseenOpponentsAreFavored(t *testing.T) {
	c := mustNew(t, testPool(), DefeatRate, 0.05, fixedRand(0))
	c.Refresh(stats.Snapshot{"random": {DefeatRate: 0.0}, "heuristic": {DefeatRate: 0.0}})
	w := c.Weights()
	assert.Greater(t, w["smart_random"], w["random"])
}

func TestChoose(t *testing.T) {
	pool := testPool()
	c := mustNew(t, pool, DefeatRate, 0.05, fixedRand(0))
	c.Refresh(stats.Snapshot{
		"random":       {DefeatRate: 0.0},
		"heuristic":    {DefeatRate: 0.425},
		"smart_random": {DefeatRate: 0.425},
	})
	// cumulative weights: 0.05, 0.525, 1.0
	for _, tc := range []struct {
		r    float64
		want string
	}{
		{0.0, "random"},
		{0.049, "random"},
		{0.06, "heuristic"},
		{0.52, "heuristic"},
		{0.53, "smart_random"},
		{0.999999, "smart_random"},
	} {
		c.rng = fixedRand(tc.r)
		assert.Equal(t, tc.want, c.Choose().Name(), "r=%v", tc.r)
	}
}

func TestChooseFollowsWeights(t *testing.T) {
	rng := frand.NewCustom([]byte("0123456789abcdef0123456789abcdef"), 1024, 12)
	c := mustNew(t, testPool(), DefeatRate, 0.05, rng)
	c.Refresh(stats.Snapshot{
		"random":       {DefeatRate: 0.0},
		"heuristic":    {DefeatRate: 0.95},
		"smart_random": {DefeatRate: 0.0},
	})
	counts := map[string]int{}
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[c.Choose().Name()]++
	}
	w := c.Weights()
	for name, n := range counts {
		assert.InDelta(t, w[name], float64(n)/draws, 0.02, name)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	c, err := NewFromConfig(cfg, testPool(), fixedRand(0))
	require.NoError(t, err)
	assert.Equal(t, DefeatRate, c.Strategy())

	cfg.Set(config.ConfigCurriculumStrategy, "blended")
	c, err = NewFromConfig(cfg, testPool(), fixedRand(0))
	require.NoError(t, err)
	assert.Equal(t, Blended, c.Strategy())

	cfg.Set(config.ConfigCurriculumStrategy, "round-robin")
	_, err = NewFromConfig(cfg, testPool(), fixedRand(0))
	assert.Error(t, err)

	cfg.Set(config.ConfigCurriculumStrategy, "defeat-rate")
	cfg.Set(config.ConfigCurriculumEpsilon, 0.0)
	_, err = NewFromConfig(cfg, testPool(), fixedRand(0))
	assert.Error(t, err)
}

func TestNewRejectsNonPositiveEpsilon(t *testing.T) {
	for _, eps := range []float64{0, -0.05, math.NaN()} {
		_, err := New(testPool(), DefeatRate, eps, fixedRand(0))
		assert.Error(t, err, "eps=%v", eps)
	}
	// every opponent beaten and a tiny epsilon still normalizes
	c := mustNew(t, testPool(), DefeatRate, 1e-9, fixedRand(0))
	snap := stats.Snapshot{}
	for _, name := range testPool().Names() {
		snap[name] = stats.Record{DefeatRate: 0}
	}
	c.Refresh(snap)
	for name, w := range c.Weights() {
		assert.False(t, math.IsNaN(w), name)
		assert.Greater(t, w, 0.0, name)
	}
	assert.InDelta(t, 1.0, sum(c.Weights()), 1e-9)
}
