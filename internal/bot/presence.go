package bot

import (
	"encoding/json"
	"fmt"
	"time"

	"tictactoe/internal/domain"
	"tictactoe/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
)

// UserID is the well-known user id of the automated player. Its presence has
// an empty session id so the match engine can recognise it and never use it
// as a broadcast target.
const UserID = "ai-user-id"

var presenceObj = &aiPresence{}

var (
	_ runtime.Presence  = (*aiPresence)(nil)
	_ runtime.MatchData = (*matchData)(nil)
)

// Presence returns the sentinel presence occupying the automated player's
// seat.
func Presence() runtime.Presence {
	return presenceObj
}

type aiPresence struct{}

func (*aiPresence) GetUserId() string                  { return UserID }
func (*aiPresence) GetSessionId() string               { return "" }
func (*aiPresence) GetNodeId() string                  { return "" }
func (*aiPresence) GetUsername() string                { return "ai-player" }
func (*aiPresence) GetStatus() string                  { return "" }
func (*aiPresence) GetHidden() bool                    { return false }
func (*aiPresence) GetPersistence() bool               { return false }
func (*aiPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

// matchData is a synthetic inbound message attributed to the bot.
type matchData struct {
	opCode protocol.OpCode
	data   []byte
	*aiPresence
}

func (md *matchData) GetOpCode() int64      { return int64(md.opCode) }
func (md *matchData) GetData() []byte       { return md.data }
func (md *matchData) GetReliable() bool     { return true }
func (md *matchData) GetReceiveTime() int64 { return time.Now().UTC().Unix() }

// MoveMessage builds a synthetic MOVE message for the given board position,
// shaped identically to a client-submitted move.
func MoveMessage(pos domain.BoardPosition) (runtime.MatchData, error) {
	data, err := json.Marshal(&protocol.Move{Position: pos})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bot move: %w", err)
	}

	return &matchData{
		opCode:     protocol.OpCodeMove,
		data:       data,
		aiPresence: presenceObj,
	}, nil
}
