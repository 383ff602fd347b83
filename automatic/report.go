package automatic

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/episode"
	"github.com/lategardener/morpion-RL/opponent"
	"github.com/lategardener/morpion-RL/replay"
	"github.com/lategardener/morpion-RL/stats"
)

const (
	confidence = 95.0
	histBins   = 10
	histWidth  = 40
)

// OpponentResult is the outcome of all evaluation games against one
// opponent. "First" and "Second" refer to the agent's seat.
type OpponentResult struct {
	Opponent     string  `yaml:"opponent"`
	Kind         string  `yaml:"kind"`
	Episodes     int     `yaml:"episodes"`
	WinsFirst    int     `yaml:"wins_first"`
	WinsSecond   int     `yaml:"wins_second"`
	LossesFirst  int     `yaml:"losses_first"`
	LossesSecond int     `yaml:"losses_second"`
	DrawsFirst   int     `yaml:"draws_first"`
	DrawsSecond  int     `yaml:"draws_second"`
	DefeatRate   float64 `yaml:"defeat_rate"`
	VictoryRate  float64 `yaml:"victory_rate"`
	DefeatLow    float64 `yaml:"defeat_rate_low"`
	DefeatHigh   float64 `yaml:"defeat_rate_high"`
	MeanReward   float64 `yaml:"mean_reward"`
	RewardStdev  float64 `yaml:"reward_stdev"`
	MeanLength   float64 `yaml:"mean_length"`
	NewLosses    int     `yaml:"new_losses"`

	rewards stats.Statistic
	lengths []float64
	losses  []replay.LossEntry
}

func newOpponentResult(name string, kind opponent.Kind) *OpponentResult {
	return &OpponentResult{Opponent: name, Kind: kind.String()}
}

// add records the finished episode in env.
func (r *OpponentResult) add(env *episode.Env, totalReward float64) {
	r.Episodes++
	r.rewards.Push(totalReward)
	r.lengths = append(r.lengths, float64(env.Board().MovesPlayed()))
	out := env.Outcome()
	first := env.AgentOpened()
	switch {
	case out.Kind == board.Draw && first:
		r.DrawsFirst++
	case out.Kind == board.Draw:
		r.DrawsSecond++
	case out.Winner == env.AgentPlayer() && first:
		r.WinsFirst++
	case out.Winner == env.AgentPlayer():
		r.WinsSecond++
	case first:
		r.LossesFirst++
	default:
		r.LossesSecond++
	}
	if le, ok := env.LossEntry(); ok {
		r.losses = append(r.losses, le)
	}
}

func (r *OpponentResult) finish() {
	if r.Episodes == 0 {
		return
	}
	n := float64(r.Episodes)
	losses := r.LossesFirst + r.LossesSecond
	r.DefeatRate = float64(losses) / n
	r.VictoryRate = float64(r.WinsFirst+r.WinsSecond) / n
	r.DefeatLow, r.DefeatHigh = stats.WilsonInterval(losses, r.Episodes, confidence)
	r.MeanReward = r.rewards.Mean()
	r.RewardStdev = r.rewards.Stdev()
	r.MeanLength = lo.Sum(r.lengths) / n
}

// Losses are the lost lines from this opponent's games, in play order.
func (r *OpponentResult) Losses() []replay.LossEntry {
	return r.losses
}

// Record is the statistics-file entry for this opponent.
func (r *OpponentResult) Record() stats.Record {
	return stats.Record{
		DefeatRate:   r.DefeatRate,
		VictoryRate:  r.VictoryRate,
		Episodes:     r.Episodes,
		WinsFirst:    r.WinsFirst,
		WinsSecond:   r.WinsSecond,
		LossesFirst:  r.LossesFirst,
		LossesSecond: r.LossesSecond,
		DrawsFirst:   r.DrawsFirst,
		DrawsSecond:  r.DrawsSecond,
	}
}

type Report struct {
	Agent         string            `yaml:"agent"`
	Results       []*OpponentResult `yaml:"results"`
	ReplayEntries int               `yaml:"replay_entries"`
}

func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// Fprint writes a human-readable summary and a histogram of game lengths.
func (r *Report) Fprint(w io.Writer) error {
	fmt.Fprintf(w, "Agent: %s\n", r.Agent)
	fmt.Fprintf(w, "%-20s %8s %8s %8s %17s %8s %8s\n",
		"opponent", "games", "defeat", "victory", "defeat 95% CI", "reward", "length")
	var lengths []float64
	for _, res := range r.Results {
		fmt.Fprintf(w, "%-20s %8d %8.3f %8.3f    [%.3f, %.3f] %8.3f %8.2f\n",
			res.Opponent, res.Episodes, res.DefeatRate, res.VictoryRate,
			res.DefeatLow, res.DefeatHigh, res.MeanReward, res.MeanLength)
		lengths = append(lengths, res.lengths...)
	}
	fmt.Fprintf(w, "Stored losing lines: %d\n", r.ReplayEntries)
	if len(lengths) == 0 {
		return nil
	}
	if lo.Min(lengths) == lo.Max(lengths) {
		fmt.Fprintf(w, "Every game lasted %.0f plies\n", lengths[0])
		return nil
	}
	fmt.Fprintln(w, "Game lengths (plies):")
	return histogram.Fprint(w, histogram.Hist(histBins, lengths), histogram.Linear(histWidth))
}
