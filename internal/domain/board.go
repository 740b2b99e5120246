package domain

// BoardPosition indexes a cell on the 3x3 board, flattened row-major.
type BoardPosition int32

// BoardSize is the number of cells on the board.
const BoardSize = 9

// Board holds the marks currently placed on the 3x3 grid. Empty cells hold
// MarkUndefined.
type Board []Mark

// NewBoard returns an empty board.
func NewBoard() Board {
	return make(Board, BoardSize)
}

// winningLines are the 8 triples that complete a game: 3 rows, 3 columns and
// 2 diagonals. WinCheck reports the first matching triple in this order.
var winningLines = [8][3]BoardPosition{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// WinCheck reports whether the given mark holds a complete winning line, and
// returns that line's positions if so.
func WinCheck(b Board, mark Mark) (bool, []BoardPosition) {
	if mark == MarkUndefined {
		return false, nil
	}

line:
	for _, line := range winningLines {
		for _, pos := range line {
			if b[pos] != mark {
				continue line
			}
		}
		return true, []BoardPosition{line[0], line[1], line[2]}
	}

	return false, nil
}

// IsTie reports whether the board is full with no winning line for either
// mark.
func IsTie(b Board) bool {
	for _, mark := range b {
		if mark == MarkUndefined {
			return false
		}
	}
	if won, _ := WinCheck(b, MarkX); won {
		return false
	}
	if won, _ := WinCheck(b, MarkO); won {
		return false
	}
	return true
}
