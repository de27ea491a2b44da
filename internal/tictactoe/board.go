package tictactoe

import (
	"fmt"

	"github.com/playforge/tictactoe-live/internal/apperror"
)

const (
	MarkX = "X"
	MarkO = "O"

	// MarkTie is the pseudo-winner Evaluate reports for a full board with no line.
	MarkTie = "-"

	EmptyCell = ""

	BoardSize = 9
)

// WinCombos enumerates the 8 winning lines: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid in row-major order. The zero value is an empty board.
type Board [BoardSize]string

// Apply returns a copy of the board with mark placed at cell. It rejects
// out-of-range and occupied cells; whose turn it is belongs to the session,
// not the board.
func Apply(board Board, cell int, mark string) (Board, error) {
	if cell < 0 || cell >= BoardSize {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if board[cell] != EmptyCell {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	board[cell] = mark

	return board, nil
}

// Evaluate reports the outcome of a position: the winning mark if a line is
// filled, MarkTie if the board is full with no line, EmptyCell while the game
// is still open.
func Evaluate(board Board) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range board {
		if cell == EmptyCell {
			return EmptyCell
		}
	}

	return MarkTie
}
