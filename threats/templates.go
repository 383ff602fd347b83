package threats

import (
	"bytes"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/lategardener/morpion-RL/board"
)

// templateSet holds every pattern used to count threats of one length for
// one player. Patterns are byte strings of board.Cell values so lines can be
// searched with bytes.Index.
type templateSet struct {
	open []byte
	// wallBlocked patterns stand in for an open side when the line ends.
	wallBlocked [][]byte
	// opponentAdjacent patterns have the opponent on one end and exactly
	// enough empties on the other to still complete a run.
	opponentAdjacent [][]byte
}

func repeat(c board.Cell, n int) []byte {
	if n <= 0 {
		return nil
	}
	return bytes.Repeat([]byte{byte(c)}, n)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// gappedOrderings lists the distinct orderings of n player marks and one
// empty gap that begin and end with a player mark, i.e. the gap sits
// strictly inside.
func gappedOrderings(p board.Cell, n int) [][]byte {
	var out [][]byte
	if n < 2 {
		return out
	}
	width := n + 1
	for _, pos := range combin.Combinations(width, 1) {
		gap := pos[0]
		if gap == 0 || gap == width-1 {
			continue
		}
		o := repeat(p, width)
		o[gap] = byte(board.Empty)
		out = append(out, o)
	}
	return out
}

func buildTemplates(p board.Player, n, winLength int) templateSet {
	pc := board.CellFor(p)
	oc := board.CellFor(p.Opponent())
	run := repeat(pc, n)
	pad := repeat(board.Empty, winLength-n)

	ts := templateSet{
		open: concat([]byte{byte(board.Empty)}, run, []byte{byte(board.Empty)}),
	}
	gapped := gappedOrderings(pc, n)

	ts.wallBlocked = append(ts.wallBlocked, gapped...)
	ts.wallBlocked = append(ts.wallBlocked, concat(run, pad), concat(pad, run))

	for _, g := range gapped {
		gpad := repeat(board.Empty, winLength-len(g))
		ts.opponentAdjacent = append(ts.opponentAdjacent,
			concat(gpad, g, []byte{byte(oc)}),
			concat([]byte{byte(oc)}, g, gpad))
	}
	ts.opponentAdjacent = append(ts.opponentAdjacent,
		concat([]byte{byte(oc)}, run, pad),
		concat(pad, run, []byte{byte(oc)}))
	return ts
}
