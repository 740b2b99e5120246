package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"tictactoe/internal/bot"
	"tictactoe/internal/config"
	"tictactoe/internal/domain"
	"tictactoe/internal/ports"
	"tictactoe/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Compile-time check to make sure all required functions are implemented.
var _ runtime.Match = (*matchHandler)(nil)

// MatchLabel is the externally-indexed matchmaking metadata. Open flips to 0
// as soon as both seats are taken; Fast is fixed at match creation.
type MatchLabel struct {
	Open int `json:"open"`
	Fast int `json:"fast"`
}

type seatStatus int

const (
	// seatOccupied is a seat with a live connection (or the bot sentinel).
	seatOccupied seatStatus = iota
	// seatTombstoned is a seat whose player disconnected mid-round. The seat
	// stays reserved so the player can return to the same game.
	seatTombstoned
)

type seat struct {
	status   seatStatus
	presence runtime.Presence
}

// MatchState is the authoritative per-match record. It is only ever touched
// from the match's own lifecycle callbacks, which the runtime serializes.
type MatchState struct {
	cfg   *config.Match
	label *MatchLabel
	// emptyTicks counts consecutive ticks with no connected humans and no
	// joins in progress.
	emptyTicks int

	seats map[string]*seat
	// joinOrder remembers seat occupation order for mark assignment.
	joinOrder []string
	// joinsInProgress counts users admitted by MatchJoinAttempt whose join
	// has not committed yet.
	joinsInProgress int

	// playing is true while a round is in progress.
	playing bool
	board   domain.Board
	// marks holds the mark assignment for the current round.
	marks map[string]domain.Mark
	// mark is whose turn it currently is.
	mark domain.Mark
	// deadlineRemainingTicks is how long the active player has left to move.
	deadlineRemainingTicks int64
	winner                 domain.Mark
	winnerPositions        []domain.BoardPosition
	// nextGameRemainingTicks is the cool-down before the next round starts.
	nextGameRemainingTicks int64

	aiEnabled bool
	// pendingAIMessage is a single-slot mailbox holding a synthetic bot move
	// until the next tick consumes it.
	pendingAIMessage runtime.MatchData
	predictor        ports.MovePredictor
}

// ConnectedCount returns the number of occupied seats, the bot included.
func (s *MatchState) ConnectedCount() int {
	count := 0
	for _, st := range s.seats {
		if st.status == seatOccupied {
			count++
		}
	}
	return count
}

// SeatCount returns the number of reserved seats, tombstones included.
func (s *MatchState) SeatCount() int {
	return len(s.seats)
}

// connectedHumans returns the live presences of every seated human player.
func (s *MatchState) connectedHumans() []runtime.Presence {
	var humans []runtime.Presence
	for userID, st := range s.seats {
		if userID == bot.UserID || st.status != seatOccupied {
			continue
		}
		humans = append(humans, st.presence)
	}
	return humans
}

func (s *MatchState) removeFromJoinOrder(userID string) {
	for i, id := range s.joinOrder {
		if id == userID {
			s.joinOrder = append(s.joinOrder[:i], s.joinOrder[i+1:]...)
			return
		}
	}
}

// markOrder returns the user IDs to assign marks to, X first. Humans are
// ordered by when they took their seat; the bot always comes last so it
// receives the mark opposite the sole human.
func (s *MatchState) markOrder() []string {
	order := make([]string, 0, 2)
	for _, userID := range s.joinOrder {
		if userID == bot.UserID {
			continue
		}
		if _, ok := s.seats[userID]; ok {
			order = append(order, userID)
		}
	}
	if s.aiEnabled {
		order = append(order, bot.UserID)
	}
	return order
}

func (s *MatchState) deadlineUnix(t time.Time) int64 {
	return t.Add(time.Duration(s.deadlineRemainingTicks/int64(s.cfg.TickRate)) * time.Second).Unix()
}

func (s *MatchState) nextGameStartUnix(t time.Time) int64 {
	return t.Add(time.Duration(s.nextGameRemainingTicks/int64(s.cfg.TickRate)) * time.Second).Unix()
}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	fast, ok := params["fast"].(bool)
	if !ok {
		logger.Error("invalid match init parameter \"fast\"")
		return nil, 0, ""
	}
	ai, _ := params["ai"].(bool)

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg := config.FromEnv(env)

	label := &MatchLabel{Open: 1}
	if fast {
		label.Fast = 1
	}
	labelJSON, err := json.Marshal(label)
	if err != nil {
		logger.WithField("error", err).Error("match init failed")
		labelJSON = []byte("{}")
	}

	state := &MatchState{
		cfg:       cfg,
		label:     label,
		seats:     make(map[string]*seat, 2),
		predictor: bot.NewPredictor(cfg.InferenceAddress, cfg.InferenceTimeout),
	}
	if ai {
		state.aiEnabled = true
		state.seats[bot.UserID] = &seat{status: seatOccupied, presence: bot.Presence()}
		state.joinOrder = append(state.joinOrder, bot.UserID)
	}

	return state, cfg.TickRate, string(labelJSON)
}

// MatchJoinAttempt admits or rejects a user before their socket is connected
// to the match. Capacity is reserved optimistically here so two simultaneous
// attempts cannot both succeed.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	s := state.(*MatchState)

	if st, ok := s.seats[presence.GetUserId()]; ok {
		if st.status == seatTombstoned {
			// User rejoining after a disconnect. Reserve the join slot; the
			// commit happens in MatchJoin.
			s.joinsInProgress++
			return s, false, ""
		}
		// User attempting to join from 2 different devices at the same time.
		return s, false, "already joined"
	}

	if s.ConnectedCount()+s.joinsInProgress >= 2 {
		return s, false, "match full"
	}

	// New player attempting to connect.
	s.joinsInProgress++
	return s, true, ""
}

// MatchJoin commits a batch of admitted joins.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	s := state.(*MatchState)
	t := time.Now().UTC()

	for _, presence := range presences {
		userID := presence.GetUserId()
		s.emptyTicks = 0
		if _, ok := s.seats[userID]; !ok {
			s.joinOrder = append(s.joinOrder, userID)
		}
		s.seats[userID] = &seat{status: seatOccupied, presence: presence}
		s.joinsInProgress--

		// Check if we must send a message to this user to update them on the
		// current game state.
		if s.playing {
			// A game is in progress, the player is rejoining after a
			// disconnect. Give them a state update.
			mh.broadcast(dispatcher, logger, protocol.OpCodeUpdate, &protocol.Update{
				Board:    s.board,
				Mark:     s.mark,
				Deadline: s.deadlineUnix(t),
			}, []runtime.Presence{presence})
		} else if s.board != nil && s.marks[userID] != domain.MarkUndefined {
			// No game in progress but the last completed round involved this
			// user. They likely disconnected before it ended.
			mh.broadcast(dispatcher, logger, protocol.OpCodeDone, &protocol.Done{
				Board:           s.board,
				Winner:          s.winner,
				WinnerPositions: s.winnerPositions,
				NextGameStart:   s.nextGameStartUnix(t),
			}, []runtime.Presence{presence})
		}
	}

	// Check if match was open to new players, but should now be closed.
	if s.SeatCount() >= 2 && s.label.Open != 0 {
		s.label.Open = 0
		mh.updateLabel(s, dispatcher, logger)
	}

	return s
}

// MatchLeave tombstones the seats of leaving players so they can reconnect to
// an in-progress round. Calling it again for an already-tombstoned presence
// is a no-op.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	s := state.(*MatchState)

	changed := false
	for _, presence := range presences {
		st, ok := s.seats[presence.GetUserId()]
		if !ok || st.status == seatTombstoned {
			continue
		}
		st.status = seatTombstoned
		st.presence = nil
		changed = true
	}
	if !changed {
		return s
	}

	humans := s.connectedHumans()
	if len(humans) == 1 {
		mh.broadcast(dispatcher, logger, protocol.OpCodeOpponentLeft, nil, humans)
	}
	if s.aiEnabled && len(humans) == 0 {
		// No one left for the bot to play against.
		delete(s.seats, bot.UserID)
		s.removeFromJoinOrder(bot.UserID)
		s.aiEnabled = false
		s.pendingAIMessage = nil
	}

	return s
}

// MatchLoop advances the match by one tick.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	s := state.(*MatchState)

	if len(s.connectedHumans())+s.joinsInProgress == 0 {
		s.emptyTicks++
		if s.emptyTicks >= s.cfg.MaxEmptyTicks() {
			// Match has been empty for too long, close it.
			logger.Info("closing idle match")
			return nil
		}
	}

	t := time.Now().UTC()

	// AI invitations are valid in any lifecycle state, so handle them before
	// the round logic and keep only the remaining messages.
	messages = mh.processInvites(s, dispatcher, logger, messages)

	// If there's no game in progress check if we can (and should) start one!
	if !s.playing {
		// Between rounds any disconnected users are purged, there's no
		// in-progress game for them to return to anyway.
		for userID, st := range s.seats {
			if st.status == seatTombstoned {
				delete(s.seats, userID)
				s.removeFromJoinOrder(userID)
			}
		}

		// Check if we need to update the label so the match advertises
		// itself as open to join again.
		if s.SeatCount() < 2 && s.label.Open != 1 {
			s.label.Open = 1
			mh.updateLabel(s, dispatcher, logger)
		}

		// Check if we have enough players to start a round.
		if s.SeatCount() < 2 {
			return s
		}

		// Check if enough time has passed since the last round.
		if s.nextGameRemainingTicks > 0 {
			s.nextGameRemainingTicks--
			return s
		}

		mh.startRound(s, dispatcher, logger, t)
		return s
	}

	// A synthetic bot move produced on a previous tick is consumed ahead of
	// this tick's client input.
	if s.pendingAIMessage != nil {
		messages = append([]runtime.MatchData{s.pendingAIMessage}, messages...)
		s.pendingAIMessage = nil
	}

	// There's a game in progress. Check for input, update match state, and
	// send messages to clients.
	for _, message := range messages {
		switch protocol.OpCode(message.GetOpCode()) {
		case protocol.OpCodeMove:
			mh.processMove(s, dispatcher, logger, t, message)
		default:
			// No other opcodes are expected from clients.
			logger.Debug("unexpected opcode %d from user %s", message.GetOpCode(), message.GetUserId())
			mh.reject(dispatcher, message)
		}
	}

	// Keep track of the time remaining for the player to submit their move.
	// Idle players forfeit.
	if s.playing {
		s.deadlineRemainingTicks--
		if s.deadlineRemainingTicks <= 0 {
			// The active player ran out of time and forfeits the round. A
			// forfeit carries no winning line.
			s.playing = false
			s.winner = s.mark.Opponent()
			s.winnerPositions = nil
			s.deadlineRemainingTicks = 0
			s.nextGameRemainingTicks = s.cfg.DelayBetweenGamesTicks()

			mh.broadcast(dispatcher, logger, protocol.OpCodeDone, &protocol.Done{
				Board:         s.board,
				Winner:        s.winner,
				NextGameStart: s.nextGameStartUnix(t),
			}, nil)
		}
	}

	// If it is now the bot's turn, ask the prediction service for a move and
	// park it in the mailbox for the next tick.
	if s.aiEnabled && s.playing && s.marks[bot.UserID] == s.mark && s.pendingAIMessage == nil {
		mh.botTurn(ctx, s, logger)
	}

	return s
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

// startRound resets the board, assigns marks and announces the new round.
func (mh *matchHandler) startRound(s *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, t time.Time) {
	s.playing = true
	s.board = domain.NewBoard()
	s.marks = make(map[string]domain.Mark, 2)
	next := []domain.Mark{domain.MarkX, domain.MarkO}
	for _, userID := range s.markOrder() {
		if len(next) == 0 {
			break
		}
		s.marks[userID] = next[0]
		next = next[1:]
	}
	s.mark = domain.MarkX
	s.winner = domain.MarkUndefined
	s.winnerPositions = nil
	s.deadlineRemainingTicks = s.cfg.TurnDeadlineTicks(s.label.Fast == 1)
	s.nextGameRemainingTicks = 0

	mh.broadcast(dispatcher, logger, protocol.OpCodeStart, &protocol.Start{
		Board:    s.board,
		Marks:    s.marks,
		Mark:     s.mark,
		Deadline: s.deadlineUnix(t),
	}, nil)
}

// processMove validates and applies a single MOVE message. Invalid moves are
// rejected to the sender only; they never change state and never leak to the
// opponent.
func (mh *matchHandler) processMove(s *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, t time.Time, message runtime.MatchData) {
	mark := s.marks[message.GetUserId()]
	if mark == domain.MarkUndefined || s.mark != mark {
		// Sender has no mark this round, or it is not their turn.
		mh.reject(dispatcher, message)
		return
	}

	move, err := protocol.DecodeMove(message.GetData())
	if err != nil {
		logger.Debug("rejected move from user %s: %v", message.GetUserId(), err)
		mh.reject(dispatcher, message)
		return
	}
	if s.board[move.Position] != domain.MarkUndefined {
		// Position has already been played.
		mh.reject(dispatcher, message)
		return
	}

	// Update the game state.
	s.board[move.Position] = mark
	s.mark = mark.Opponent()
	s.deadlineRemainingTicks = s.cfg.TurnDeadlineTicks(s.label.Fast == 1)

	// Check if the round is over through a winning move, or because no more
	// moves are possible.
	if won, line := domain.WinCheck(s.board, mark); won {
		s.winner = mark
		s.winnerPositions = line
		s.playing = false
		s.deadlineRemainingTicks = 0
		s.nextGameRemainingTicks = s.cfg.DelayBetweenGamesTicks()
	} else if domain.IsTie(s.board) {
		s.winner = domain.MarkUndefined
		s.winnerPositions = nil
		s.playing = false
		s.deadlineRemainingTicks = 0
		s.nextGameRemainingTicks = s.cfg.DelayBetweenGamesTicks()
	}

	if s.playing {
		mh.broadcast(dispatcher, logger, protocol.OpCodeUpdate, &protocol.Update{
			Board:    s.board,
			Mark:     s.mark,
			Deadline: s.deadlineUnix(t),
		}, nil)
	} else {
		mh.broadcast(dispatcher, logger, protocol.OpCodeDone, &protocol.Done{
			Board:           s.board,
			Winner:          s.winner,
			WinnerPositions: s.winnerPositions,
			NextGameStart:   s.nextGameStartUnix(t),
		}, nil)
	}
}

// processInvites seats the bot for INVITE_AI requests and returns the
// messages that remain to be processed.
func (mh *matchHandler) processInvites(s *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, messages []runtime.MatchData) []runtime.MatchData {
	remaining := make([]runtime.MatchData, 0, len(messages))
	for _, message := range messages {
		if protocol.OpCode(message.GetOpCode()) != protocol.OpCodeInviteAI {
			remaining = append(remaining, message)
			continue
		}

		if s.aiEnabled || s.SeatCount() >= 2 {
			// Either a bot is already seated or there's no seat to give it.
			mh.reject(dispatcher, message)
			continue
		}

		s.aiEnabled = true
		s.seats[bot.UserID] = &seat{status: seatOccupied, presence: bot.Presence()}
		s.joinOrder = append(s.joinOrder, bot.UserID)
		logger.Debug("user %s invited the bot to the match", message.GetUserId())

		if s.SeatCount() >= 2 && s.label.Open != 0 {
			s.label.Open = 0
			mh.updateLabel(s, dispatcher, logger)
		}
	}
	return remaining
}

// botTurn asks the prediction service for the bot's move. A failed call is
// logged and skipped; the bridge runs again next tick while it is still the
// bot's turn.
func (mh *matchHandler) botTurn(ctx context.Context, s *MatchState, logger runtime.Logger) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()

	pos, err := s.predictor.Predict(ctx, s.board, s.marks[bot.UserID])
	if err != nil {
		logger.Error("error requesting bot move: %v", err)
		return
	}

	message, err := bot.MoveMessage(pos)
	if err != nil {
		logger.Error("error building bot move: %v", err)
		return
	}
	s.pendingAIMessage = message
}

// broadcast marshals msg and sends it to the given presences, or to everyone
// when presences is nil. A nil msg sends an empty body.
func (mh *matchHandler) broadcast(dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode protocol.OpCode, msg interface{}, presences []runtime.Presence) {
	var buf []byte
	if msg != nil {
		var err error
		buf, err = json.Marshal(msg)
		if err != nil {
			logger.Error("error encoding message: %v", err)
			return
		}
	}
	_ = dispatcher.BroadcastMessage(int64(opCode), buf, presences, nil, true)
}

// reject unicasts a REJECTED to the message sender. Synthetic bot messages
// have no socket to answer, so they are dropped silently.
func (mh *matchHandler) reject(dispatcher runtime.MatchDispatcher, message runtime.MatchData) {
	if message.GetUserId() == bot.UserID {
		return
	}
	_ = dispatcher.BroadcastMessage(int64(protocol.OpCodeRejected), nil, []runtime.Presence{message}, nil, true)
}

func (mh *matchHandler) updateLabel(s *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelJSON, err := json.Marshal(s.label)
	if err != nil {
		logger.Error("error encoding label: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelJSON)); err != nil {
		logger.Error("error updating label: %v", err)
	}
}
