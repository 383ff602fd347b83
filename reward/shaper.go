// Package reward turns game outcomes and threat counts into the scalar
// reward handed to the learning agent.
package reward

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/threats"
)

// Shaper computes step rewards, always from the agent's point of view.
type Shaper struct {
	analyzer    *threats.Analyzer
	weights     Weights
	missedWin   MissedWinCalculator
	calculators []Calculator
}

func NewShaper(a *threats.Analyzer, w Weights) *Shaper {
	mw := MissedWinCalculator{analyzer: a, weights: w}
	return &Shaper{
		analyzer:  a,
		weights:   w,
		missedWin: mw,
		calculators: []Calculator{
			NewThreatCalculator(a, w),
			BlockCalculator{weights: w},
			mw,
		},
	}
}

func (s *Shaper) Weights() Weights {
	return s.weights
}

// Terminal is the reward for a finished episode.
func (s *Shaper) Terminal(out board.Outcome, agent board.Player) float64 {
	switch {
	case out.Kind == board.Win && out.Winner == agent:
		return s.weights.VictoryReward
	case out.Kind == board.Win:
		return -s.weights.VictoryReward
	}
	return 0
}

// Shape rewards a non-terminal agent move. Leaving the opponent an
// immediate win is charged the missed-block penalty, plus the missed-win
// penalty if one applies, and earns no bonus; otherwise the calculators are
// summed.
func (s *Shaper) Shape(t Transition) float64 {
	opp := t.Agent.Opponent()
	if m, ok := s.analyzer.WinningMove(opp, t.After, t.After.LegalMoves()); ok {
		log.Debug().Int("move", t.Move).Int("opp-win", m).Msg("missed-block")
		return s.weights.MissedBlockPenalty + s.missedWin.Reward(t)
	}
	return lo.SumBy(s.calculators, func(c Calculator) float64 {
		return c.Reward(t)
	})
}
