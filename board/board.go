// Package board holds the N-in-a-row board: cells, legality, move
// application and terminal detection.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// Player is one of the two sides. PlayerA always moves first.
type Player uint8

const (
	PlayerA Player = 0
	PlayerB Player = 1
)

// Opponent returns the other side.
func (p Player) Opponent() Player {
	return 1 - p
}

func (p Player) String() string {
	if p == PlayerA {
		return "A"
	}
	return "B"
}

// Cell values match the observation encoding: 0 and 1 for the two players,
// 3 for an empty cell.
type Cell uint8

const (
	CellA Cell = 0
	CellB Cell = 1
	Empty Cell = 3
)

// CellFor returns the mark the given player leaves on the board.
func CellFor(p Player) Cell {
	return Cell(p)
}

func (c Cell) String() string {
	switch c {
	case CellA:
		return "X"
	case CellB:
		return "O"
	}
	return "."
}

type OutcomeKind uint8

const (
	Ongoing OutcomeKind = iota
	Win
	Draw
)

// Outcome is the terminal status after a move. Winner is only meaningful
// when Kind is Win.
type Outcome struct {
	Kind   OutcomeKind
	Winner Player
}

func (o Outcome) Terminal() bool {
	return o.Kind != Ongoing
}

func (o Outcome) String() string {
	switch o.Kind {
	case Win:
		return "win(" + o.Winner.String() + ")"
	case Draw:
		return "draw"
	}
	return "ongoing"
}

// IllegalMoveError is returned when a move targets an occupied or
// out-of-range cell. Callers that validate against the action mask never
// see it; when they do, it's a bug upstream and must not be swallowed.
type IllegalMoveError struct {
	Move     int
	Row, Col int
	Occupant Cell
}

func (e *IllegalMoveError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("illegal move %d: out of range", e.Move)
	}
	return fmt.Sprintf("illegal move %d (%d, %d): cell holds %v", e.Move, e.Row, e.Col, e.Occupant)
}

// Board is a square N-in-a-row board. It is owned by a single episode and
// must not be mutated concurrently.
type Board struct {
	dim         int
	winLength   int
	cells       []Cell
	movesPlayed int
	onTurn      Player
}

// NewBoard creates an empty board with PlayerA on turn.
func NewBoard(dim, winLength int) (*Board, error) {
	if dim < 3 {
		return nil, errors.New("board size must be at least 3")
	}
	if winLength < 1 || winLength > dim {
		return nil, fmt.Errorf("win length %d must be between 1 and %d", winLength, dim)
	}
	b := &Board{
		dim:       dim,
		winLength: winLength,
		cells:     make([]Cell, dim*dim),
	}
	b.Reset()
	return b, nil
}

// Reset empties every cell and gives the move back to PlayerA.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
	b.movesPlayed = 0
	b.onTurn = PlayerA
}

func (b *Board) Dim() int {
	return b.dim
}

func (b *Board) WinLength() int {
	return b.winLength
}

func (b *Board) MovesPlayed() int {
	return b.movesPlayed
}

func (b *Board) OnTurn() Player {
	return b.onTurn
}

func (b *Board) SetOnTurn(p Player) {
	b.onTurn = p
}

// NumCells is boardSize².
func (b *Board) NumCells() int {
	return len(b.cells)
}

// Position maps a move index to (row, col).
func (b *Board) Position(move int) (int, int) {
	return move / b.dim, move % b.dim
}

func (b *Board) Index(row, col int) int {
	return row*b.dim + col
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.dim && col >= 0 && col < b.dim
}

func (b *Board) At(row, col int) Cell {
	return b.cells[row*b.dim+col]
}

// CellAt returns the cell for a move index.
func (b *Board) CellAt(move int) Cell {
	return b.cells[move]
}

// Copy returns a deep copy of the board.
func (b *Board) Copy() *Board {
	c := *b
	c.cells = make([]Cell, len(b.cells))
	copy(c.cells, b.cells)
	return &c
}

// CopyFrom overwrites b with the contents of o. Both boards must have the
// same dimension.
func (b *Board) CopyFrom(o *Board) {
	copy(b.cells, o.cells)
	b.movesPlayed = o.movesPlayed
	b.onTurn = o.onTurn
}

// ApplyMove places mover's mark at move. The board is left untouched when
// an error is returned.
func (b *Board) ApplyMove(mover Player, move int) error {
	if move < 0 || move >= len(b.cells) {
		return &IllegalMoveError{Move: move, Row: -1, Col: -1}
	}
	if b.cells[move] != Empty {
		row, col := b.Position(move)
		return &IllegalMoveError{Move: move, Row: row, Col: col, Occupant: b.cells[move]}
	}
	b.cells[move] = CellFor(mover)
	b.movesPlayed++
	b.onTurn = mover.Opponent()
	return nil
}

// set places a mark without any bookkeeping besides the move count. Only
// used to build positions in tests and from observation grids.
func (b *Board) set(row, col int, c Cell) {
	idx := b.Index(row, col)
	if b.cells[idx] == Empty && c != Empty {
		b.movesPlayed++
	} else if b.cells[idx] != Empty && c == Empty {
		b.movesPlayed--
	}
	b.cells[idx] = c
}

// IsFull is true when no empty cell remains.
func (b *Board) IsFull() bool {
	return b.movesPlayed == len(b.cells)
}

// ToDisplayText renders the board for logs.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < b.dim; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")
	for r := 0; r < b.dim; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < b.dim; c++ {
			sb.WriteString(" ")
			sb.WriteString(b.At(r, c).String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
