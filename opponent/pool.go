package opponent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/policy"
	"github.com/lategardener/morpion-RL/threats"
)

const policySuffix = ".onnx"

// Pool is the fixed set of opponents for a run, in configuration order.
// Frozen policies come from the process-wide cache, so building several
// pools (one per concurrent episode) only reads each file once.
type Pool struct {
	names     []string
	opponents map[string]Opponent
}

// NewPool builds a pool from opponent ids. Duplicate ids collapse into one
// entry. An unknown id or an unloadable policy file fails the whole pool.
func NewPool(cfg *config.Config, ids []string, rng Rand) (*Pool, error) {
	ids = lo.Uniq(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty opponent pool", ErrUnknownOpponent)
	}
	analyzer := threats.NewAnalyzer(cfg.GetInt(config.ConfigBoardSize), cfg.GetInt(config.ConfigWinLength))
	p := &Pool{opponents: make(map[string]Opponent, len(ids))}
	for _, id := range ids {
		var opp Opponent
		switch {
		case id == RandomName:
			opp = NewRandomOpponent(rng)
		case id == HeuristicName || id == SmartRandomName:
			opp = NewHeuristicOpponent(id, analyzer, rng)
		case strings.HasSuffix(id, policySuffix):
			pol, err := policy.LoadONNX(cfg, resolvePolicyPath(cfg, id))
			if err != nil {
				return nil, fmt.Errorf("loading opponent %s: %w", id, err)
			}
			opp = NewPolicyOpponent(id, pol)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownOpponent, id)
		}
		p.names = append(p.names, id)
		p.opponents[id] = opp
	}
	log.Debug().Strs("opponents", p.names).Msg("opponent-pool-built")
	return p, nil
}

// NewPoolFrom wraps already-built opponents. Used by tests and by callers
// that bring their own opponent implementations.
func NewPoolFrom(opps ...Opponent) *Pool {
	p := &Pool{opponents: make(map[string]Opponent, len(opps))}
	for _, o := range opps {
		if _, ok := p.opponents[o.Name()]; ok {
			continue
		}
		p.names = append(p.names, o.Name())
		p.opponents[o.Name()] = o
	}
	return p
}

func resolvePolicyPath(cfg *config.Config, id string) string {
	if filepath.IsAbs(id) {
		return id
	}
	return filepath.Join(cfg.GetString(config.ConfigModelsPath), id)
}

func (p *Pool) Names() []string {
	return p.names
}

func (p *Pool) Get(name string) (Opponent, bool) {
	o, ok := p.opponents[name]
	return o, ok
}

func (p *Pool) Len() int {
	return len(p.names)
}
