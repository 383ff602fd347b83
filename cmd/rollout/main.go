// rollout drives training episodes with a fixed agent and reports the
// rewards it collected per opponent. Useful for checking reward shaping
// and curriculum settings before a real training run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/lategardener/morpion-RL/automatic"
	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/episode"
	"github.com/lategardener/morpion-RL/stats"
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
}

type tally struct {
	episodes, wins, losses, draws, replays int
	reward                                 stats.Statistic
}

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	if wd, err := os.Getwd(); err == nil {
		cfg.AdjustRelativePaths(wd)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := frand.New()
	env, err := episode.NewFromConfig(cfg, rng)
	if err != nil {
		log.Fatal().Err(err).Msg("building-env")
	}
	agentID := cfg.GetString(config.ConfigAgentPolicy)
	agent, err := automatic.NewAgent(cfg, agentID, rng)
	if err != nil {
		log.Fatal().Err(err).Msg("building-agent")
	}

	tallies := map[string]*tally{}
	n := cfg.GetInt(config.ConfigEpisodes)
	for i := 0; i < n && ctx.Err() == nil; i++ {
		obs, err := env.Reset()
		if err != nil {
			log.Fatal().Err(err).Int("episode", i).Msg("reset-failed")
		}
		t, ok := tallies[env.Opponent().Name()]
		if !ok {
			t = &tally{}
			tallies[env.Opponent().Name()] = t
		}
		if env.Replaying() {
			t.replays++
		}
		total := 0.0
		if env.Done() {
			total = env.Result().Reward
		}
		for !env.Done() {
			move, err := agent.Predict(obs, obs.Mask(), false)
			if err != nil {
				log.Fatal().Err(err).Msg("agent-failed")
			}
			res, err := env.Step(move)
			if err != nil {
				log.Fatal().Err(err).Msg("step-failed")
			}
			total += res.Reward
			obs = res.Observation
		}
		switch out := env.Outcome(); {
		case out.Kind == board.Draw:
			t.draws++
		case out.Winner == env.AgentPlayer():
			t.wins++
		default:
			t.losses++
		}
		t.episodes++
		t.reward.Push(total)
	}

	names := make([]string, 0, len(tallies))
	for name := range tallies {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("%-20s %8s %6s %6s %6s %8s %10s %10s\n",
		"opponent", "episodes", "wins", "losses", "draws", "replays", "reward", "stdev")
	for _, name := range names {
		t := tallies[name]
		fmt.Printf("%-20s %8d %6d %6d %6d %8d %10.4f %10.4f\n",
			name, t.episodes, t.wins, t.losses, t.draws, t.replays, t.reward.Mean(), t.reward.Stdev())
	}
}
