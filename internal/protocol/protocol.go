// Package protocol defines the wire messages and opcodes exchanged between
// the match engine and its clients. Payloads are JSON; every message carries
// one of the OpCode tags below.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tictactoe/internal/domain"
)

// OpCode tags every realtime message exchanged with match participants.
type OpCode int64

const (
	// OpCodeStart announces a new game round starting.
	OpCodeStart OpCode = 1
	// OpCodeUpdate carries an update to the state of an ongoing round.
	OpCodeUpdate OpCode = 2
	// OpCodeDone announces a completed game round.
	OpCodeDone OpCode = 3
	// OpCodeMove is a move a player wishes to make.
	OpCodeMove OpCode = 4
	// OpCodeRejected tells the sender their last message was not accepted.
	OpCodeRejected OpCode = 5
	// OpCodeOpponentLeft tells the remaining player their opponent has left.
	OpCodeOpponentLeft OpCode = 6
	// OpCodeInviteAI asks the server to seat an automated opponent.
	OpCodeInviteAI OpCode = 7
)

// Start is sent by the server to all clients when a new round begins.
type Start struct {
	Board domain.Board `json:"board"`
	// Marks holds the mark assignment for each player user ID this round.
	Marks map[string]domain.Mark `json:"marks"`
	// Mark is whose turn it is to play.
	Mark domain.Mark `json:"mark"`
	// Deadline is the epoch-seconds time by which the active player must
	// submit their move, or forfeit.
	Deadline int64 `json:"deadline"`
}

// Update is a state refresh for an ongoing round.
type Update struct {
	Board    domain.Board `json:"board"`
	Mark     domain.Mark  `json:"mark"`
	Deadline int64        `json:"deadline"`
}

// Done announces a completed round with its result.
type Done struct {
	Board domain.Board `json:"board"`
	// Winner is MarkUndefined for a tie.
	Winner domain.Mark `json:"winner"`
	// WinnerPositions is nil for a tie or a win by forfeit.
	WinnerPositions []domain.BoardPosition `json:"winnerPositions"`
	// NextGameStart is the epoch-seconds time the next round begins.
	NextGameStart int64 `json:"nextGameStart"`
}

// Move is a player's request to place their mark.
type Move struct {
	Position domain.BoardPosition `json:"position"`
}

// DecodeMove strictly parses a Move payload. Unknown fields, malformed JSON
// and out-of-board positions are all errors; callers map them to the
// rejection path.
func DecodeMove(data []byte) (*Move, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var move Move
	if err := dec.Decode(&move); err != nil {
		return nil, fmt.Errorf("malformed move payload: %w", err)
	}
	if move.Position < 0 || move.Position >= domain.BoardSize {
		return nil, fmt.Errorf("position %d outside the board", move.Position)
	}
	return &move, nil
}
