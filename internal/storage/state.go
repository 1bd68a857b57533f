package storage

import (
	"sort"
	"sync"

	"tinyuno/internal/chat"
	"tinyuno/internal/game"
)

// StateStore keeps each room's live game state, chat log and connected
// players in memory. Nothing here survives a restart.
type StateStore struct {
	mu        sync.RWMutex
	games     map[string]*game.GameState
	chats     map[string][]chat.Message
	connected map[string]map[string]struct{}
}

// NewStateStore returns an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{
		games:     make(map[string]*game.GameState),
		chats:     make(map[string][]chat.Message),
		connected: make(map[string]map[string]struct{}),
	}
}

// GameState returns the room's game, if one was started.
func (s *StateStore) GameState(roomID string) (*game.GameState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gs, ok := s.games[roomID]
	return gs, ok
}

// SetGameState stores gs as the room's game.
func (s *StateStore) SetGameState(roomID string, gs *game.GameState) {
	s.mu.Lock()
	s.games[roomID] = gs
	s.mu.Unlock()
}

// AppendChat adds m to the end of the room's chat log.
func (s *StateStore) AppendChat(roomID string, m chat.Message) {
	s.mu.Lock()
	s.chats[roomID] = append(s.chats[roomID], m)
	s.mu.Unlock()
}

// ChatLog returns a copy of the room's chat log, oldest first.
func (s *StateStore) ChatLog(roomID string) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.Message(nil), s.chats[roomID]...)
}

// AddConnected marks playerID as connected to the room.
func (s *StateStore) AddConnected(roomID, playerID string) {
	s.mu.Lock()
	set, ok := s.connected[roomID]
	if !ok {
		set = make(map[string]struct{})
		s.connected[roomID] = set
	}
	set[playerID] = struct{}{}
	s.mu.Unlock()
}

// RemoveConnected clears playerID from the room's connected set.
func (s *StateStore) RemoveConnected(roomID, playerID string) {
	s.mu.Lock()
	if set, ok := s.connected[roomID]; ok {
		delete(set, playerID)
	}
	s.mu.Unlock()
}

// Connected lists the room's connected player ids in sorted order.
func (s *StateStore) Connected(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.connected[roomID]))
	for id := range s.connected[roomID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DeleteRoom drops the room's game state, chat log and connected set.
func (s *StateStore) DeleteRoom(roomID string) {
	s.mu.Lock()
	delete(s.games, roomID)
	delete(s.chats, roomID)
	delete(s.connected, roomID)
	s.mu.Unlock()
}
