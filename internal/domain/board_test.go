package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardFrom(marks map[BoardPosition]Mark) Board {
	b := NewBoard()
	for pos, mark := range marks {
		b[pos] = mark
	}
	return b
}

func TestWinCheck(t *testing.T) {
	tests := []struct {
		name     string
		board    Board
		mark     Mark
		won      bool
		wantLine []BoardPosition
	}{
		{
			name:     "TopRow",
			board:    boardFrom(map[BoardPosition]Mark{0: MarkX, 1: MarkX, 2: MarkX, 3: MarkO, 4: MarkO}),
			mark:     MarkX,
			won:      true,
			wantLine: []BoardPosition{0, 1, 2},
		},
		{
			name:     "MiddleRow",
			board:    boardFrom(map[BoardPosition]Mark{3: MarkO, 4: MarkO, 5: MarkO, 0: MarkX, 1: MarkX}),
			mark:     MarkO,
			won:      true,
			wantLine: []BoardPosition{3, 4, 5},
		},
		{
			name:     "LeftColumn",
			board:    boardFrom(map[BoardPosition]Mark{0: MarkX, 3: MarkX, 6: MarkX}),
			mark:     MarkX,
			won:      true,
			wantLine: []BoardPosition{0, 3, 6},
		},
		{
			name:     "Diagonal",
			board:    boardFrom(map[BoardPosition]Mark{0: MarkO, 4: MarkO, 8: MarkO}),
			mark:     MarkO,
			won:      true,
			wantLine: []BoardPosition{0, 4, 8},
		},
		{
			name:     "AntiDiagonal",
			board:    boardFrom(map[BoardPosition]Mark{2: MarkX, 4: MarkX, 6: MarkX}),
			mark:     MarkX,
			won:      true,
			wantLine: []BoardPosition{2, 4, 6},
		},
		{
			name:  "MixedMarksNoLine",
			board: boardFrom(map[BoardPosition]Mark{0: MarkX, 1: MarkO, 2: MarkX}),
			mark:  MarkX,
			won:   false,
		},
		{
			name:  "OpponentHoldsLine",
			board: boardFrom(map[BoardPosition]Mark{0: MarkO, 1: MarkO, 2: MarkO}),
			mark:  MarkX,
			won:   false,
		},
		{
			name:  "EmptyBoard",
			board: NewBoard(),
			mark:  MarkX,
			won:   false,
		},
		{
			name:  "UndefinedMarkNeverWins",
			board: NewBoard(),
			mark:  MarkUndefined,
			won:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			won, line := WinCheck(tt.board, tt.mark)
			require.Equal(t, tt.won, won)
			if tt.won {
				assert.Equal(t, tt.wantLine, line)
			} else {
				assert.Nil(t, line)
			}
		})
	}
}

func TestWinCheck_FirstLineInEnumerationOrder(t *testing.T) {
	// X holds both the top row and the left column; the row enumerates
	// first.
	board := boardFrom(map[BoardPosition]Mark{0: MarkX, 1: MarkX, 2: MarkX, 3: MarkX, 6: MarkX})

	won, line := WinCheck(board, MarkX)
	require.True(t, won)
	assert.Equal(t, []BoardPosition{0, 1, 2}, line)
}

func TestIsTie(t *testing.T) {
	t.Run("FullBoardNoWinner", func(t *testing.T) {
		board := Board{
			MarkX, MarkO, MarkX,
			MarkX, MarkO, MarkO,
			MarkO, MarkX, MarkX,
		}
		assert.True(t, IsTie(board))
	})

	t.Run("FullBoardWithWinner", func(t *testing.T) {
		board := Board{
			MarkX, MarkX, MarkX,
			MarkO, MarkO, MarkX,
			MarkO, MarkX, MarkO,
		}
		assert.False(t, IsTie(board))
	})

	t.Run("BoardNotFull", func(t *testing.T) {
		board := boardFrom(map[BoardPosition]Mark{0: MarkX, 1: MarkO})
		assert.False(t, IsTie(board))
	})

	t.Run("EmptyBoard", func(t *testing.T) {
		assert.False(t, IsTie(NewBoard()))
	})
}

func TestMarkOpponent(t *testing.T) {
	assert.Equal(t, MarkO, MarkX.Opponent())
	assert.Equal(t, MarkX, MarkO.Opponent())
	assert.Equal(t, MarkUndefined, MarkUndefined.Opponent())
}
