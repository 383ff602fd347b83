// Package threats scans every row, column and diagonal of a board for
// open, semi-open and dangerous runs, and finds immediate winning moves.
package threats

import (
	"bytes"

	"github.com/lategardener/morpion-RL/board"
)

type templateKey struct {
	player board.Player
	length int
}

// Analyzer is bound to one board size and win length. All templates are
// built up front; after construction it is read-only and safe to share
// between episodes.
type Analyzer struct {
	dim       int
	winLength int
	lines     []board.Line
	templates map[templateKey]templateSet
	winRuns   [2][]byte
}

// Counts bundles the three threat classes for one threat length.
type Counts struct {
	Open      int
	SemiOpen  int
	Dangerous int
}

func NewAnalyzer(dim, winLength int) *Analyzer {
	a := &Analyzer{
		dim:       dim,
		winLength: winLength,
		lines:     board.Lines(dim),
		templates: make(map[templateKey]templateSet),
	}
	for _, p := range []board.Player{board.PlayerA, board.PlayerB} {
		for n := 1; n < winLength; n++ {
			a.templates[templateKey{p, n}] = buildTemplates(p, n, winLength)
		}
		a.winRuns[p] = repeat(board.CellFor(p), winLength)
	}
	return a
}

func (a *Analyzer) Dim() int {
	return a.dim
}

func (a *Analyzer) WinLength() int {
	return a.winLength
}

func (a *Analyzer) lookup(p board.Player, n int) (templateSet, bool) {
	ts, ok := a.templates[templateKey{p, n}]
	return ts, ok
}

// countOverlapping counts occurrences of pattern in line, restarting the
// search advance cells after each match start.
func countOverlapping(line, pattern []byte, advance int) (count int, touchesStart, touchesEnd bool) {
	start := 0
	for start <= len(line)-len(pattern) {
		i := bytes.Index(line[start:], pattern)
		if i < 0 {
			break
		}
		pos := start + i
		count++
		if pos == 0 {
			touchesStart = true
		}
		if pos+len(pattern) == len(line) {
			touchesEnd = true
		}
		start = pos + advance
	}
	return count, touchesStart, touchesEnd
}

func openInLine(line []byte, ts templateSet, n int) int {
	c, _, _ := countOverlapping(line, ts.open, n)
	return c
}

func dangerousInLine(line []byte, ts templateSet) int {
	total := 0
	for _, t := range ts.opponentAdjacent {
		c, _, _ := countOverlapping(line, t, 1)
		total += c
	}
	return total
}

func semiOpenInLine(line []byte, ts templateSet, p board.Cell) int {
	total := 0
	var left, right bool
	for _, t := range ts.opponentAdjacent {
		c, s, e := countOverlapping(line, t, 1)
		total += c
		left = left || s
		right = right || e
	}
	if !left {
		for _, t := range ts.wallBlocked {
			if t[0] == byte(p) && bytes.HasPrefix(line, t) {
				total++
				if len(t) == len(line) {
					return total
				}
				break
			}
		}
	}
	if !right {
		for _, t := range ts.wallBlocked {
			if t[len(t)-1] == byte(p) && bytes.HasSuffix(line, t) {
				total++
				break
			}
		}
	}
	return total
}

func (a *Analyzer) sumLines(b *board.Board, f func(line []byte) int) int {
	total := 0
	buf := make([]byte, 0, a.dim)
	for _, l := range a.lines {
		buf = b.Serialize(l, buf)
		total += f(buf)
	}
	return total
}

// CountOpenThreats counts `empty, p×n, empty` shapes over all lines.
func (a *Analyzer) CountOpenThreats(b *board.Board, n int, p board.Player) int {
	ts, ok := a.lookup(p, n)
	if !ok {
		return 0
	}
	return a.sumLines(b, func(line []byte) int { return openInLine(line, ts, n) })
}

// CountSemiOpenThreats counts runs of length n blocked on one side by the
// opponent or by the edge of the board.
func (a *Analyzer) CountSemiOpenThreats(b *board.Board, n int, p, o board.Player) int {
	ts, ok := a.lookup(p, n)
	if !ok || o != p.Opponent() {
		return 0
	}
	pc := board.CellFor(p)
	return a.sumLines(b, func(line []byte) int { return semiOpenInLine(line, ts, pc) })
}

// CountDangerousSemiOpenThreats counts the opponent-bounded shapes whose
// only completion runs through the empty cells on the other side.
func (a *Analyzer) CountDangerousSemiOpenThreats(b *board.Board, n int, p, o board.Player) int {
	ts, ok := a.lookup(p, n)
	if !ok || o != p.Opponent() {
		return 0
	}
	return a.sumLines(b, func(line []byte) int { return dangerousInLine(line, ts) })
}

// Count computes all three classes in a single pass over the lines.
func (a *Analyzer) Count(b *board.Board, n int, p board.Player) Counts {
	var c Counts
	ts, ok := a.lookup(p, n)
	if !ok {
		return c
	}
	pc := board.CellFor(p)
	buf := make([]byte, 0, a.dim)
	for _, l := range a.lines {
		buf = b.Serialize(l, buf)
		c.Open += openInLine(buf, ts, n)
		c.SemiOpen += semiOpenInLine(buf, ts, pc)
		c.Dangerous += dangerousInLine(buf, ts)
	}
	return c
}

// HasRun scans the whole board for a winLength run of p.
func (a *Analyzer) HasRun(b *board.Board, p board.Player) bool {
	run := a.winRuns[p]
	buf := make([]byte, 0, a.dim)
	for _, l := range a.lines {
		if len(l.Cells) < a.winLength {
			continue
		}
		buf = b.Serialize(l, buf)
		if bytes.Contains(buf, run) {
			return true
		}
	}
	return false
}

// WinningMove tries legalMoves in order and returns the first one that
// gives p a winLength run. It isn't a search for the best win; callers that
// prefer a particular winning move must order legalMoves themselves.
func (a *Analyzer) WinningMove(p board.Player, b *board.Board, legalMoves []int) (int, bool) {
	scratch := b.Copy()
	for _, m := range legalMoves {
		scratch.CopyFrom(b)
		if err := scratch.ApplyMove(p, m); err != nil {
			continue
		}
		if a.HasRun(scratch, p) {
			return m, true
		}
	}
	return -1, false
}
