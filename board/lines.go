package board

type Direction uint8

const (
	Rows Direction = iota
	Columns
	DescendingDiagonals
	AscendingDiagonals
)

func (d Direction) String() string {
	switch d {
	case Rows:
		return "rows"
	case Columns:
		return "columns"
	case DescendingDiagonals:
		return "descending"
	case AscendingDiagonals:
		return "ascending"
	}
	return "none"
}

// Line is a maximal row, column or diagonal, as cell indices in reading
// order.
type Line struct {
	Direction Direction
	Cells     []int
}

// Lines enumerates every line of a dim×dim board: dim rows, dim columns and
// 2·dim−1 diagonals in each diagonal direction, including the length-1
// corner diagonals.
func Lines(dim int) []Line {
	lines := make([]Line, 0, 6*dim-2)
	idx := func(r, c int) int { return r*dim + c }

	for r := 0; r < dim; r++ {
		cells := make([]int, dim)
		for c := 0; c < dim; c++ {
			cells[c] = idx(r, c)
		}
		lines = append(lines, Line{Rows, cells})
	}
	for c := 0; c < dim; c++ {
		cells := make([]int, dim)
		for r := 0; r < dim; r++ {
			cells[r] = idx(r, c)
		}
		lines = append(lines, Line{Columns, cells})
	}
	// Descending: start on the first column going down, then on the first
	// row going right.
	for x := 0; x < dim; x++ {
		var cells []int
		for i, j := x, 0; i < dim && j < dim; i, j = i+1, j+1 {
			cells = append(cells, idx(i, j))
		}
		lines = append(lines, Line{DescendingDiagonals, cells})
	}
	for y := 1; y < dim; y++ {
		var cells []int
		for i, j := 0, y; i < dim && j < dim; i, j = i+1, j+1 {
			cells = append(cells, idx(i, j))
		}
		lines = append(lines, Line{DescendingDiagonals, cells})
	}
	// Ascending: start on the first column going up, then on the last row
	// going right.
	for x := 0; x < dim; x++ {
		var cells []int
		for i, j := x, 0; i >= 0 && j < dim; i, j = i-1, j+1 {
			cells = append(cells, idx(i, j))
		}
		lines = append(lines, Line{AscendingDiagonals, cells})
	}
	for y := 1; y < dim; y++ {
		var cells []int
		for i, j := dim-1, y; i >= 0 && j < dim; i, j = i-1, j+1 {
			cells = append(cells, idx(i, j))
		}
		lines = append(lines, Line{AscendingDiagonals, cells})
	}
	return lines
}

// Serialize writes the cells of a line into buf and returns it. The byte
// values are the Cell values themselves.
func (b *Board) Serialize(l Line, buf []byte) []byte {
	buf = buf[:0]
	for _, i := range l.Cells {
		buf = append(buf, byte(b.cells[i]))
	}
	return buf
}
