package reward

import (
	"github.com/lategardener/morpion-RL/board"
)

// Transition describes one agent half-move for shaping purposes.
type Transition struct {
	Before *board.Board
	After  *board.Board
	Agent  board.Player
	Move   int

	// OpponentWinBefore is whether the opponent had an immediate win
	// available before the agent moved. The controller computes it before
	// applying the move so the board copy isn't needed.
	OpponentWinBefore bool
}

// Calculator is one contribution to the shaped reward of a non-terminal
// agent move.
type Calculator interface {
	Reward(t Transition) float64
	Type() string
}
