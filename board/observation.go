package board

import "fmt"

// Observation is what a learning agent sees each step.
type Observation struct {
	Grid          [][]Cell
	ActionMask    []float32
	CurrentPlayer Player
}

// Observe snapshots the board. The grid is a copy; mutating it doesn't touch
// the board.
func (b *Board) Observe(current Player) Observation {
	grid := make([][]Cell, b.dim)
	for r := range grid {
		grid[r] = make([]Cell, b.dim)
		copy(grid[r], b.cells[r*b.dim:(r+1)*b.dim])
	}
	return Observation{
		Grid:          grid,
		ActionMask:    b.ValidActions().Floats(),
		CurrentPlayer: current,
	}
}

// Mask turns the float mask back into an ActionMask.
func (o Observation) Mask() ActionMask {
	m := make(ActionMask, len(o.ActionMask))
	for i, f := range o.ActionMask {
		m[i] = f > 0.5
	}
	return m
}

// FromGrid rebuilds a board from an observation grid. The player on turn is
// derived from the mark counts.
func FromGrid(grid [][]Cell, winLength int) (*Board, error) {
	b, err := NewBoard(len(grid), winLength)
	if err != nil {
		return nil, err
	}
	var na, nb int
	for r, row := range grid {
		if len(row) != b.dim {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(row), b.dim)
		}
		for c, cell := range row {
			switch cell {
			case CellA:
				na++
			case CellB:
				nb++
			case Empty:
			default:
				return nil, fmt.Errorf("bad cell value %d at (%d, %d)", cell, r, c)
			}
			b.set(r, c, cell)
		}
	}
	if na > nb {
		b.onTurn = PlayerB
	}
	return b, nil
}

// FromRows builds a board from strings such as "XO.", one per row. X is
// PlayerA, O is PlayerB, anything else is empty.
func FromRows(winLength int, rows ...string) (*Board, error) {
	grid := make([][]Cell, len(rows))
	for r, row := range rows {
		grid[r] = make([]Cell, len(row))
		for c, ch := range row {
			switch ch {
			case 'X':
				grid[r][c] = CellA
			case 'O':
				grid[r][c] = CellB
			default:
				grid[r][c] = Empty
			}
		}
	}
	return FromGrid(grid, winLength)
}
