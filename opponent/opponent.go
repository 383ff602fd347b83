// Package opponent holds the opponents an agent trains against: scripted
// players and frozen policies, behind one capability interface.
package opponent

import (
	"errors"
	"fmt"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/policy"
	"github.com/lategardener/morpion-RL/threats"
)

type Kind int

const (
	Scripted Kind = iota
	FrozenPolicy
)

func (k Kind) String() string {
	switch k {
	case Scripted:
		return "scripted"
	case FrozenPolicy:
		return "frozen-policy"
	}
	return "unknown"
}

const (
	RandomName      = "random"
	HeuristicName   = "heuristic"
	SmartRandomName = "smart_random"
)

var ErrUnknownOpponent = errors.New("unknown opponent")

// Rand is the subset of *frand.RNG opponents draw from.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Opponent picks a move for mover. legalMoves is never empty when the
// controller asks; implementations must return one of its elements.
type Opponent interface {
	Name() string
	Kind() Kind
	ChooseMove(b *board.Board, mover board.Player, legalMoves []int) (int, error)
}

// RandomOpponent plays a uniformly random legal move.
type RandomOpponent struct {
	rng Rand
}

func NewRandomOpponent(rng Rand) *RandomOpponent {
	return &RandomOpponent{rng: rng}
}

func (o *RandomOpponent) Name() string { return RandomName }
func (o *RandomOpponent) Kind() Kind   { return Scripted }

func (o *RandomOpponent) ChooseMove(b *board.Board, mover board.Player, legalMoves []int) (int, error) {
	if len(legalMoves) == 0 {
		return -1, policy.ErrNoLegalMove
	}
	return legalMoves[o.rng.Intn(len(legalMoves))], nil
}

// HeuristicOpponent takes a win when it has one, blocks the other side's
// win otherwise, and falls back to a random move.
type HeuristicOpponent struct {
	name     string
	analyzer *threats.Analyzer
	rng      Rand
}

func NewHeuristicOpponent(name string, a *threats.Analyzer, rng Rand) *HeuristicOpponent {
	return &HeuristicOpponent{name: name, analyzer: a, rng: rng}
}

func (o *HeuristicOpponent) Name() string { return o.name }
func (o *HeuristicOpponent) Kind() Kind   { return Scripted }

func (o *HeuristicOpponent) ChooseMove(b *board.Board, mover board.Player, legalMoves []int) (int, error) {
	if len(legalMoves) == 0 {
		return -1, policy.ErrNoLegalMove
	}
	if m, ok := o.analyzer.WinningMove(mover, b, legalMoves); ok {
		return m, nil
	}
	if m, ok := o.analyzer.WinningMove(mover.Opponent(), b, legalMoves); ok {
		return m, nil
	}
	return legalMoves[o.rng.Intn(len(legalMoves))], nil
}

// PolicyOpponent asks a frozen policy for a deterministic move.
type PolicyOpponent struct {
	name      string
	predictor policy.Predictor
}

func NewPolicyOpponent(name string, p policy.Predictor) *PolicyOpponent {
	return &PolicyOpponent{name: name, predictor: p}
}

func (o *PolicyOpponent) Name() string { return o.name }
func (o *PolicyOpponent) Kind() Kind   { return FrozenPolicy }

func (o *PolicyOpponent) ChooseMove(b *board.Board, mover board.Player, legalMoves []int) (int, error) {
	obs := b.Observe(mover)
	m, err := o.predictor.Predict(obs, obs.Mask(), true)
	if err != nil {
		return -1, fmt.Errorf("policy %s: %w", o.name, err)
	}
	return m, nil
}
