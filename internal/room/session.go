package room

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"tinyuno/internal/ai"
	"tinyuno/internal/game"
)

var (
	errMalformed  = &protocolError{class: game.ErrMalformedInput, msg: "Invalid message format"}
	errNotJoined  = &protocolError{class: game.ErrIllegalAction, msg: "Join a room first"}
	errMissingIDs = &protocolError{class: game.ErrMalformedInput, msg: "roomId and playerId are required"}
	errUnknownMsg = &protocolError{class: game.ErrMalformedInput, msg: "Unknown message type"}
)

// protocolError is a frame-level failure reported to the client. It unwraps
// to the same classes as engine errors.
type protocolError struct {
	class error
	msg   string
}

func (e *protocolError) Error() string { return e.msg }
func (e *protocolError) Unwrap() error { return e.class }

// Session is the server side of one connection: it tracks which room and
// player the connection speaks for and dispatches inbound messages.
type Session struct {
	reg    *Registry
	client *Client

	room     *Room
	playerID string
}

// NewSession binds c to the registry. The session has no room until a
// join_room message arrives.
func NewSession(reg *Registry, c *Client) *Session {
	return &Session{reg: reg, client: c}
}

// Client returns the session's outbound side.
func (s *Session) Client() *Client { return s.client }

// PlayerID returns the joined player, or "" before a join.
func (s *Session) PlayerID() string { return s.playerID }

// Handle processes one inbound frame. Errors are reported to the client and
// also returned for logging.
func (s *Session) Handle(ctx context.Context, data []byte) error {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil || in.Type == "" {
		s.reply(failure(errMalformed.Error()))
		return errMalformed
	}

	if in.Type == MsgJoinRoom {
		return s.join(ctx, in)
	}
	if s.room == nil {
		s.reply(failure(errNotJoined.Error()))
		return errNotJoined
	}

	switch in.Type {
	case MsgStartGame:
		return s.room.Start(s.playerID)
	case MsgPlayCard:
		play := game.NewPlay(in.CardID, game.Color(strings.ToLower(in.ChosenColor)))
		return s.room.Act(s.playerID, ai.Action{Kind: ai.ActionPlay, Play: play, DeclareUno: in.SayUno})
	case MsgDrawCard:
		return s.room.Act(s.playerID, ai.Action{Kind: ai.ActionDraw})
	case MsgSayUno:
		return s.room.Act(s.playerID, ai.Action{Kind: ai.ActionUno})
	case MsgChat:
		return s.room.Chat(s.playerID, in.Message, in.MessageType)
	case MsgLeaveGame:
		return s.room.RemovePlayer(s.playerID)
	}
	s.reply(failure(errUnknownMsg.Error()))
	return errUnknownMsg
}

func (s *Session) join(ctx context.Context, in Inbound) error {
	if in.RoomID == "" || in.PlayerID == "" {
		s.reply(failure(errMissingIDs.Error()))
		return errMissingIDs
	}
	rm, err := s.reg.Lookup(ctx, in.RoomID)
	if err != nil {
		s.reply(failure(err.Error()))
		return err
	}
	if s.room != nil && (s.room != rm || s.playerID != in.PlayerID) {
		s.room.Leave(s.client, s.playerID)
	}
	err = rm.Join(s.client, in.PlayerID, in.Username, in.Password)
	if errors.Is(err, ErrRoomClosed) {
		// Swept between lookup and join; the next lookup opens it afresh.
		if rm, err = s.reg.Lookup(ctx, in.RoomID); err == nil {
			err = rm.Join(s.client, in.PlayerID, in.Username, in.Password)
		}
	}
	if err != nil {
		s.room, s.playerID = nil, ""
		s.reply(failure(err.Error()))
		return err
	}
	s.room, s.playerID = rm, in.PlayerID
	return nil
}

// Close detaches the session from its room.
func (s *Session) Close() {
	if s.room != nil {
		s.room.Leave(s.client, s.playerID)
		s.room = nil
	}
	s.client.Close()
}

func (s *Session) reply(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.reg.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if !s.client.trySend(data) {
		s.reg.log.Warn("connection send buffer full", zap.String("player", s.playerID))
	}
}
