// Package automatic runs the evaluation pass: the agent plays every pool
// opponent, and the results feed the statistics and loss-replay files that
// training episodes read at reset.
package automatic

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/episode"
	"github.com/lategardener/morpion-RL/opponent"
	"github.com/lategardener/morpion-RL/policy"
	"github.com/lategardener/morpion-RL/replay"
	"github.com/lategardener/morpion-RL/reward"
	"github.com/lategardener/morpion-RL/stats"
	"github.com/lategardener/morpion-RL/threats"
)

var (
	GamesPlayed  *expvar.Int
	IsEvaluating *expvar.Int
)

var ErrEvaluationRunning = errors.New("an evaluation is already running, please wait till complete")

// evaluating gates Run; IsEvaluating only reports it.
var evaluating atomic.Bool

func init() {
	GamesPlayed = expvar.NewInt("evalGamesPlayed")
	IsEvaluating = expvar.NewInt("isEvaluating")
}

// Frozen policies play deterministically on both sides, so one game per
// opening tells the whole story.
const policyEpisodes = 2

// AgentFactory returns a Predictor for one evaluation goroutine. Predictors
// with internal state must not be shared, so each goroutine asks for its own.
type AgentFactory func() (policy.Predictor, error)

type Evaluator struct {
	cfg      *config.Config
	agent    string
	newAgent AgentFactory
}

func NewEvaluator(cfg *config.Config, agentName string, f AgentFactory) *Evaluator {
	return &Evaluator{cfg: cfg, agent: agentName, newAgent: f}
}

// AgentFromConfig builds the factory for an agent id: a scripted name or an
// .onnx policy file.
func AgentFromConfig(cfg *config.Config, id string) AgentFactory {
	return func() (policy.Predictor, error) {
		return NewAgent(cfg, id, frand.New())
	}
}

// Run evaluates the agent against every opponent in the configured pool,
// then merges the results into the statistics and loss-replay files.
func (e *Evaluator) Run(ctx context.Context) (*Report, error) {
	if !evaluating.CompareAndSwap(false, true) {
		return nil, ErrEvaluationRunning
	}
	defer evaluating.Store(false)
	IsEvaluating.Add(1)
	defer IsEvaluating.Add(-1)

	ids := e.cfg.GetStringSlice(config.ConfigOpponentPool)
	// Fail on a bad pool before any game is played.
	pool, err := opponent.NewPool(e.cfg, ids, frand.New())
	if err != nil {
		return nil, err
	}
	names := pool.Names()
	threads := max(1, e.cfg.GetInt(config.ConfigEvaluationThreads))
	log.Info().Strs("opponents", names).Int("threads", threads).Str("agent", e.agent).
		Msg("starting-evaluation")

	results := make([]*OpponentResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := e.evaluateOpponent(gctx, name)
			if err != nil {
				return fmt.Errorf("evaluating against %s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug().Msgf("errgroup returned err %v", err)
		return nil, err
	}

	report := &Report{Agent: e.agent, Results: results}
	if err := e.persist(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (e *Evaluator) evaluateOpponent(ctx context.Context, name string) (*OpponentResult, error) {
	rng := frand.New()
	pool, err := opponent.NewPool(e.cfg, []string{name}, rng)
	if err != nil {
		return nil, err
	}
	opp, _ := pool.Get(name)
	agent, err := e.newAgent()
	if err != nil {
		return nil, err
	}

	settings := episode.SettingsFromConfig(e.cfg)
	a := threats.NewAnalyzer(settings.BoardSize, settings.WinLength)
	shaper := reward.NewShaper(a, reward.WeightsFromConfig(e.cfg))
	envs := [2]*episode.Env{}
	for i, opening := range []episode.Opening{episode.OpeningAgent, episode.OpeningOpponent} {
		envs[i], err = episode.New(settings.ForOpponent(name, opening), pool, nil, shaper, a, rng)
		if err != nil {
			return nil, err
		}
	}

	episodes := e.cfg.GetInt(config.ConfigEvaluationEpisodes)
	if opp.Kind() == opponent.FrozenPolicy {
		episodes = policyEpisodes
	}
	res := newOpponentResult(name, opp.Kind())
	for i := 0; i < episodes; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		env := envs[0]
		if i >= episodes/2 {
			env = envs[1]
		}
		total, err := playEpisode(env, agent)
		if err != nil {
			return nil, err
		}
		res.add(env, total)
		GamesPlayed.Add(1)
	}
	res.finish()
	log.Info().Str("opponent", name).Int("episodes", res.Episodes).
		Float64("defeat-rate", res.DefeatRate).Float64("victory-rate", res.VictoryRate).
		Msg("opponent-evaluated")
	return res, nil
}

// playEpisode runs one full game with deterministic agent moves and returns
// the summed reward.
func playEpisode(env *episode.Env, agent policy.Predictor) (float64, error) {
	obs, err := env.Reset()
	if err != nil {
		return 0, err
	}
	if env.Done() {
		return env.Result().Reward, nil
	}
	total := 0.0
	for !env.Done() {
		move, err := agent.Predict(obs, obs.Mask(), true)
		if err != nil {
			return 0, err
		}
		res, err := env.Step(move)
		if err != nil {
			return 0, err
		}
		total += res.Reward
		obs = res.Observation
	}
	return total, nil
}

// persist folds the results into the statistics snapshot and the loss
// buffer and writes whichever files are configured.
func (e *Evaluator) persist(report *Report) error {
	statsPath := e.cfg.GetString(config.ConfigOpponentStatsPath)
	replayPath := e.cfg.GetString(config.ConfigLossReplayPath)

	buf := replay.LoadFile(replayPath, e.cfg.GetInt(config.ConfigMaxReplayEntries))
	for _, res := range report.Results {
		for _, le := range res.losses {
			if buf.Contains(le) {
				continue
			}
			buf.Add(le)
			res.NewLosses++
		}
	}
	report.ReplayEntries = buf.Len()
	if replayPath != "" {
		if err := buf.SaveFile(replayPath); err != nil {
			return err
		}
	}

	if statsPath != "" {
		snap := stats.LoadSnapshot(statsPath)
		for _, res := range report.Results {
			snap[res.Opponent] = res.Record()
		}
		if err := stats.SaveSnapshot(statsPath, snap); err != nil {
			return err
		}
	}
	log.Info().Int("new-losses", lo.SumBy(report.Results, func(r *OpponentResult) int {
		return r.NewLosses
	})).Int("replay-entries", buf.Len()).Msg("evaluation-saved")
	return nil
}

// ScriptedAgent lets any pool opponent, scripted or frozen, play the
// agent's side.
type ScriptedAgent struct {
	opp       opponent.Opponent
	winLength int
}

// NewAgent builds a Predictor from an id: an .onnx policy file (loaded
// through the cache) or a scripted opponent name.
func NewAgent(cfg *config.Config, id string, rng opponent.Rand) (policy.Predictor, error) {
	pool, err := opponent.NewPool(cfg, []string{id}, rng)
	if err != nil {
		return nil, err
	}
	opp, _ := pool.Get(pool.Names()[0])
	return &ScriptedAgent{opp: opp, winLength: cfg.GetInt(config.ConfigWinLength)}, nil
}

func (a *ScriptedAgent) Predict(obs board.Observation, mask board.ActionMask, deterministic bool) (int, error) {
	b, err := board.FromGrid(obs.Grid, a.winLength)
	if err != nil {
		return -1, err
	}
	return a.opp.ChooseMove(b, obs.CurrentPlayer, mask.Moves())
}
