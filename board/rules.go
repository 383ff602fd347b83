package board

// directions through a cell: row, column, descending and ascending diagonal.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// countDirection counts consecutive cells equal to target starting next to
// (row, col) and walking by (dr, dc).
func (b *Board) countDirection(row, col, dr, dc int, target Cell) int {
	n := 0
	r, c := row+dr, col+dc
	for b.InBounds(r, c) && b.At(r, c) == target {
		n++
		r += dr
		c += dc
	}
	return n
}

// CheckTerminal looks at the four lines through (lastRow, lastCol) only; a
// new win can't appear anywhere else.
func (b *Board) CheckTerminal(mover Player, lastRow, lastCol int) Outcome {
	target := CellFor(mover)
	if b.InBounds(lastRow, lastCol) && b.At(lastRow, lastCol) == target {
		for _, d := range directions {
			run := 1 + b.countDirection(lastRow, lastCol, d[0], d[1], target) +
				b.countDirection(lastRow, lastCol, -d[0], -d[1], target)
			if run >= b.winLength {
				return Outcome{Kind: Win, Winner: mover}
			}
		}
	}
	if b.IsFull() {
		return Outcome{Kind: Draw}
	}
	return Outcome{Kind: Ongoing}
}

// ActionMask has one entry per cell; true iff the cell is empty.
type ActionMask []bool

// ValidActions recomputes the mask from the cells.
func (b *Board) ValidActions() ActionMask {
	mask := make(ActionMask, len(b.cells))
	for i, c := range b.cells {
		mask[i] = c == Empty
	}
	return mask
}

// LegalMoves lists empty cell indices in ascending order.
func (b *Board) LegalMoves() []int {
	moves := make([]int, 0, len(b.cells)-b.movesPlayed)
	for i, c := range b.cells {
		if c == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

func (m ActionMask) Legal(move int) bool {
	return move >= 0 && move < len(m) && m[move]
}

func (m ActionMask) Count() int {
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return n
}

func (m ActionMask) Moves() []int {
	moves := make([]int, 0, len(m))
	for i, ok := range m {
		if ok {
			moves = append(moves, i)
		}
	}
	return moves
}

// Floats is the 0/1 float encoding handed to learning agents.
func (m ActionMask) Floats() []float32 {
	f := make([]float32, len(m))
	for i, ok := range m {
		if ok {
			f[i] = 1
		}
	}
	return f
}
