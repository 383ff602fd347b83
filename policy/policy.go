// Package policy defines the contract learning agents are consumed
// through, and frozen policies stored as ONNX files.
package policy

import (
	"errors"
	"math"

	"github.com/lategardener/morpion-RL/board"
)

// Predictor is the learning-agent contract. Implementations must only
// return indices whose mask entry is set.
type Predictor interface {
	Predict(obs board.Observation, mask board.ActionMask, deterministic bool) (int, error)
}

// Rand is the subset of *frand.RNG the package needs.
type Rand interface {
	Float64() float64
}

var ErrNoLegalMove = errors.New("no legal move")

// EncodePlanes turns an observation into three N×N planes: the current
// player's marks, the other player's marks, and empty cells.
func EncodePlanes(obs board.Observation) []float32 {
	n := len(obs.Grid)
	own := board.CellFor(obs.CurrentPlayer)
	other := board.CellFor(obs.CurrentPlayer.Opponent())
	planes := make([]float32, 3*n*n)
	for r, row := range obs.Grid {
		for c, cell := range row {
			i := r*n + c
			switch cell {
			case own:
				planes[i] = 1
			case other:
				planes[n*n+i] = 1
			case board.Empty:
				planes[2*n*n+i] = 1
			}
		}
	}
	return planes
}

// ArgmaxLegal returns the legal index with the highest logit. Ties go to
// the lowest index.
func ArgmaxLegal(logits []float32, mask board.ActionMask) (int, error) {
	best := -1
	var bestVal float32
	for i, ok := range mask {
		if !ok || i >= len(logits) {
			continue
		}
		if best < 0 || logits[i] > bestVal {
			best, bestVal = i, logits[i]
		}
	}
	if best < 0 {
		return -1, ErrNoLegalMove
	}
	return best, nil
}

// SampleLegal draws from the softmax of the legal logits.
func SampleLegal(logits []float32, mask board.ActionMask, rng Rand) (int, error) {
	maxLogit := math.Inf(-1)
	for i, ok := range mask {
		if ok && i < len(logits) && float64(logits[i]) > maxLogit {
			maxLogit = float64(logits[i])
		}
	}
	if math.IsInf(maxLogit, -1) {
		return -1, ErrNoLegalMove
	}
	probs := make([]float64, len(mask))
	total := 0.0
	last := -1
	for i, ok := range mask {
		if !ok || i >= len(logits) {
			continue
		}
		probs[i] = math.Exp(float64(logits[i]) - maxLogit)
		total += probs[i]
		last = i
	}
	r := rng.Float64() * total
	for i, p := range probs {
		if p == 0 {
			continue
		}
		r -= p
		if r < 0 {
			return i, nil
		}
	}
	return last, nil
}
