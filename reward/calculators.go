package reward

import (
	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/threats"
)

// ThreatCalculator scores the agent's threat shapes after its move. When the
// move itself sets up an immediate win for next turn, the flat create-threat
// bonus replaces the continuous score. A win that was already on the board
// earns only the continuous score.
type ThreatCalculator struct {
	analyzer *threats.Analyzer
	weights  Weights
}

func NewThreatCalculator(a *threats.Analyzer, w Weights) *ThreatCalculator {
	return &ThreatCalculator{analyzer: a, weights: w}
}

func (tc *ThreatCalculator) Reward(t Transition) float64 {
	if tc.createdWin(t) {
		return tc.weights.CreateThreatBonus
	}
	return tc.HeuristicScore(t.After, t.Agent)
}

func (tc *ThreatCalculator) createdWin(t Transition) bool {
	if _, ok := tc.analyzer.WinningMove(t.Agent, t.After, t.After.LegalMoves()); !ok {
		return false
	}
	if t.Before == nil {
		return true
	}
	_, had := tc.analyzer.WinningMove(t.Agent, t.Before, t.Before.LegalMoves())
	return !had
}

// HeuristicScore is the weighted threat sum for p over threat lengths
// winLength-2 and winLength-1.
func (tc *ThreatCalculator) HeuristicScore(b *board.Board, p board.Player) float64 {
	k := tc.analyzer.WinLength()
	short := tc.analyzer.Count(b, k-2, p)
	long := tc.analyzer.Count(b, k-1, p)
	w := tc.weights
	return w.ShortSemiOpen*float64(short.SemiOpen) +
		w.ShortDangerous*float64(short.Dangerous) +
		w.ShortOpen*float64(short.Open) +
		w.LongSemiOpen*float64(long.SemiOpen) +
		w.LongDangerous*float64(long.Dangerous) +
		w.LongOpen*float64(long.Open)
}

func (tc *ThreatCalculator) Type() string {
	return "ThreatCalculator"
}

// BlockCalculator pays the block bonus when the opponent had a win before
// the agent moved. The shaper only consults it once it has established that
// no opponent win remains.
type BlockCalculator struct {
	weights Weights
}

func (bc BlockCalculator) Reward(t Transition) float64 {
	if t.OpponentWinBefore {
		return bc.weights.BlockBonus
	}
	return 0
}

func (bc BlockCalculator) Type() string {
	return "BlockCalculator"
}

// MissedWinCalculator charges the agent for passing up a winning move. The
// default penalty is 0, which leaves it out of the reward.
type MissedWinCalculator struct {
	analyzer *threats.Analyzer
	weights  Weights
}

func (mc MissedWinCalculator) Reward(t Transition) float64 {
	if t.Before == nil {
		return 0
	}
	if _, ok := mc.analyzer.WinningMove(t.Agent, t.Before, t.Before.LegalMoves()); ok {
		return mc.weights.MissedWinPenalty
	}
	return 0
}

func (mc MissedWinCalculator) Type() string {
	return "MissedWinCalculator"
}
