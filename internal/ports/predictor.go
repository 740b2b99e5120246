// Package ports defines the narrow interfaces the match engine needs from
// external collaborators.
package ports

import (
	"context"

	"tictactoe/internal/domain"
)

// MovePredictor produces a board position for the automated player.
type MovePredictor interface {
	// Predict scores the board from the point of view of the given mark and
	// returns the best open position to play.
	Predict(ctx context.Context, board domain.Board, own domain.Mark) (domain.BoardPosition, error)
}
