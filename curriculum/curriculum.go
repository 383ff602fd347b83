// Package curriculum decides which opponent the agent faces each episode,
// favoring the opponents it currently loses to.
package curriculum

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/opponent"
	"github.com/lategardener/morpion-RL/stats"
)

type Strategy int

const (
	// DefeatRate weights each opponent by defeatRate + epsilon.
	DefeatRate Strategy = iota
	// Blended mixes a uniform 80% with 20% proportional to defeat rate.
	Blended
)

const (
	uniformShare = 0.8
	defeatShare  = 0.2
)

func (s Strategy) String() string {
	switch s {
	case DefeatRate:
		return "defeat-rate"
	case Blended:
		return "blended"
	}
	return "unknown"
}

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "defeat-rate", "":
		return DefeatRate, nil
	case "blended":
		return Blended, nil
	}
	return DefeatRate, fmt.Errorf("unknown curriculum strategy %q", s)
}

// Rand is the subset of *frand.RNG the draw needs.
type Rand interface {
	Float64() float64
}

// Curriculum holds normalized selection weights, one per pool entry, in
// pool order.
type Curriculum struct {
	pool     *opponent.Pool
	strategy Strategy
	epsilon  float64
	rng      Rand
	weights  []float64
}

// New starts with every opponent at the default (never evaluated) record.
// epsilon must be positive so the defeat-rate weights never sum to zero.
func New(pool *opponent.Pool, strategy Strategy, epsilon float64, rng Rand) (*Curriculum, error) {
	if !(epsilon > 0) {
		return nil, fmt.Errorf("curriculum epsilon %v must be positive", epsilon)
	}
	c := &Curriculum{
		pool:     pool,
		strategy: strategy,
		epsilon:  epsilon,
		rng:      rng,
	}
	c.Refresh(stats.Snapshot{})
	return c, nil
}

func NewFromConfig(cfg *config.Config, pool *opponent.Pool, rng Rand) (*Curriculum, error) {
	strategy, err := ParseStrategy(cfg.GetString(config.ConfigCurriculumStrategy))
	if err != nil {
		return nil, err
	}
	return New(pool, strategy, cfg.GetFloat64(config.ConfigCurriculumEpsilon), rng)
}

func (c *Curriculum) Strategy() Strategy {
	return c.strategy
}

// Refresh recomputes the weights from a statistics snapshot.
func (c *Curriculum) Refresh(snap stats.Snapshot) {
	names := c.pool.Names()
	defeat := make([]float64, len(names))
	for i, name := range names {
		// Rates outside [0, 1] come from a broken evaluator; clamp them.
		defeat[i] = min(max(snap.For(name).DefeatRate, 0), 1)
	}
	w := make([]float64, len(names))
	switch c.strategy {
	case Blended:
		n := float64(len(names))
		total := floats.Sum(defeat)
		for i := range w {
			w[i] = uniformShare / n
			if total > 0 {
				w[i] += defeatShare * defeat[i] / total
			}
		}
	default:
		floats.AddConst(c.epsilon, floats.AddTo(w, w, defeat))
	}
	floats.Scale(1/floats.Sum(w), w)
	c.weights = w
	log.Debug().Str("strategy", c.strategy.String()).Strs("opponents", names).
		Floats64("weights", w).Msg("curriculum-refreshed")
}

// Weights returns the current weight per opponent name.
func (c *Curriculum) Weights() map[string]float64 {
	out := make(map[string]float64, len(c.weights))
	for i, name := range c.pool.Names() {
		out[name] = c.weights[i]
	}
	return out
}

// Choose draws one opponent according to the current weights.
func (c *Curriculum) Choose() opponent.Opponent {
	names := c.pool.Names()
	r := c.rng.Float64()
	idx := len(names) - 1
	acc := 0.0
	for i, w := range c.weights {
		acc += w
		if r < acc {
			idx = i
			break
		}
	}
	opp, _ := c.pool.Get(names[idx])
	return opp
}
