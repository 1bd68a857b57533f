package room

import (
	"tinyuno/internal/chat"
	"tinyuno/internal/game"
)

// Inbound message types.
const (
	MsgJoinRoom  = "join_room"
	MsgStartGame = "start_game"
	MsgPlayCard  = "play_card"
	MsgDrawCard  = "draw_card"
	MsgSayUno    = "say_uno"
	MsgChat      = "chat_message"
	MsgLeaveGame = "leave_game"
)

// Outbound event types.
const (
	EvGameState      = "game_state"
	EvGameStarted    = "game_started"
	EvPlayCardResult = "play_card_result"
	EvDrawCardResult = "draw_card_result"
	EvUnoResult      = "uno_result"
	EvUnoCalled      = "uno_called"
	EvPlayerJoined   = "player_joined"
	EvPlayerLeft     = "player_left"
	EvNewChatMessage = "new_chat_message"
	EvChatError      = "chat_error"
	EvError          = "error"
)

// Inbound is a client message. Which fields are read depends on Type.
type Inbound struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	CardID      string `json:"cardId,omitempty"`
	ChosenColor string `json:"chosenColor,omitempty"`
	SayUno      bool   `json:"sayUno,omitempty"`
	Message     string `json:"message,omitempty"`
	MessageType string `json:"messageType,omitempty"`
}

// Event is a server message.
type Event struct {
	Type      string         `json:"type"`
	GameState *game.Snapshot `json:"gameState,omitempty"`
	Success   *bool          `json:"success,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Card      *game.Card     `json:"card,omitempty"`
	PlayerID  string         `json:"playerId,omitempty"`
	Username  string         `json:"username,omitempty"`
	Message   *chat.Message  `json:"message,omitempty"`
}

func result(typ string, err error) Event {
	ok := err == nil
	ev := Event{Type: typ, Success: &ok}
	if err != nil {
		ev.Reason = err.Error()
	}
	return ev
}

func failure(reason string) Event {
	return Event{Type: EvError, Reason: reason}
}
