package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/internal/domain"
)

func TestDecodeMove(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		move, err := DecodeMove([]byte(`{"position": 4}`))
		require.NoError(t, err)
		assert.Equal(t, domain.BoardPosition(4), move.Position)
	})

	t.Run("ZeroPosition", func(t *testing.T) {
		move, err := DecodeMove([]byte(`{"position": 0}`))
		require.NoError(t, err)
		assert.Equal(t, domain.BoardPosition(0), move.Position)
	})

	t.Run("UnknownField", func(t *testing.T) {
		_, err := DecodeMove([]byte(`{"position": 4, "extra": true}`))
		assert.Error(t, err)
	})

	t.Run("PositionPastBoard", func(t *testing.T) {
		_, err := DecodeMove([]byte(`{"position": 9}`))
		assert.Error(t, err)
	})

	t.Run("NegativePosition", func(t *testing.T) {
		_, err := DecodeMove([]byte(`{"position": -1}`))
		assert.Error(t, err)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := DecodeMove([]byte(`{"position":`))
		assert.Error(t, err)
	})

	t.Run("WrongType", func(t *testing.T) {
		_, err := DecodeMove([]byte(`{"position": "4"}`))
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		// An absent position decodes to the zero value, which is a legal
		// board cell.
		move, err := DecodeMove([]byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, domain.BoardPosition(0), move.Position)
	})
}

func TestMessageFieldNames(t *testing.T) {
	t.Run("Start", func(t *testing.T) {
		data, err := json.Marshal(&Start{
			Board:    domain.NewBoard(),
			Marks:    map[string]domain.Mark{"u1": domain.MarkX},
			Mark:     domain.MarkX,
			Deadline: 42,
		})
		require.NoError(t, err)

		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Contains(t, fields, "board")
		assert.Contains(t, fields, "marks")
		assert.Contains(t, fields, "mark")
		assert.Contains(t, fields, "deadline")
	})

	t.Run("Done", func(t *testing.T) {
		data, err := json.Marshal(&Done{
			Board:           domain.NewBoard(),
			Winner:          domain.MarkO,
			WinnerPositions: []domain.BoardPosition{0, 1, 2},
			NextGameStart:   42,
		})
		require.NoError(t, err)

		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Contains(t, fields, "board")
		assert.Contains(t, fields, "winner")
		assert.Contains(t, fields, "winnerPositions")
		assert.Contains(t, fields, "nextGameStart")
	})
}
