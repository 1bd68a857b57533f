package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the category of a chat line.
type Kind string

const (
	KindMessage Kind = "message"
	KindEmoji   Kind = "emoji"
	KindSystem  Kind = "system"
)

// SystemAuthor is the author id of server-generated lines.
const SystemAuthor = "system"

var (
	ErrEmpty         = errors.New("Message is empty")
	ErrInappropriate = errors.New("Message not appropriate")
	ErrKind          = errors.New("Unknown message type")
)

// Message is one entry of a room's chat log.
type Message struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"playerId"`
	DisplayName string    `json:"username"`
	Text        string    `json:"message"`
	Kind        Kind      `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
}

// ParseKind validates a kind sent by a client. Clients may not send system
// lines; an empty kind is a plain message.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindMessage:
		return KindMessage, nil
	case KindEmoji:
		return KindEmoji, nil
	}
	return "", ErrKind
}

// Moderate checks text and returns the filtered version to store and relay.
// Rejected text is never filtered or stored.
func Moderate(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	if !IsAcceptable(text) {
		return "", ErrInappropriate
	}
	return FilterProfanity(text), nil
}

// NewMessage stamps a chat line with a fresh id and the current time.
func NewMessage(authorID, displayName, text string, kind Kind) Message {
	return Message{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		DisplayName: displayName,
		Text:        text,
		Kind:        kind,
		Timestamp:   time.Now(),
	}
}

// System builds a server notice.
func System(text string) Message {
	return NewMessage(SystemAuthor, "System", text, KindSystem)
}
