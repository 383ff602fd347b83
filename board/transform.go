package board

// Rotate90 returns a copy rotated a quarter turn clockwise.
func (b *Board) Rotate90() *Board {
	out := b.Copy()
	n := b.dim
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.cells[c*n+(n-1-r)] = b.cells[r*n+c]
		}
	}
	return out
}

// FlipHorizontal returns a mirrored copy (columns reversed).
func (b *Board) FlipHorizontal() *Board {
	out := b.Copy()
	n := b.dim
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.cells[r*n+(n-1-c)] = b.cells[r*n+c]
		}
	}
	return out
}
