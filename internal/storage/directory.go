package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tinyuno/internal/game"
)

// ErrRoomNotFound is returned when a room id is unknown to the directory.
var ErrRoomNotFound = errors.New("room not found")

// RoomInfo is a room's directory entry.
type RoomInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	HasPassword bool          `json:"hasPassword"`
	MaxPlayers  int           `json:"maxPlayers"`
	IsActive    bool          `json:"isActive"`
	Settings    game.Settings `json:"settings"`
	CreatedAt   time.Time     `json:"createdAt"`

	passwordHash string
}

// CheckPassword reports whether pw opens the room. Rooms without a password
// accept anything.
func (r RoomInfo) CheckPassword(pw string) bool {
	if !r.HasPassword {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(r.passwordHash), []byte(pw)) == nil
}

// hashPassword returns the bcrypt hash of pw, or "" for a room without one.
func hashPassword(pw string) (string, error) {
	if pw == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// NewRoom describes a room to create.
type NewRoom struct {
	Name     string
	Password string
	Settings game.Settings
}

// RoundStats is one player's contribution from a finished round.
type RoundStats struct {
	PlayerID        string
	DisplayName     string
	CardsPlayed     int
	UnoCalls        int
	WildCardsPlayed int
	RoundsWon       int
	TournamentWins  int
}

// PlayerTotals are a player's lifetime counters.
type PlayerTotals struct {
	PlayerID        string    `json:"playerId"`
	DisplayName     string    `json:"displayName"`
	RoundsPlayed    int       `json:"roundsPlayed"`
	CardsPlayed     int       `json:"cardsPlayed"`
	UnoCalls        int       `json:"unoCalls"`
	WildCardsPlayed int       `json:"wildCardsPlayed"`
	RoundsWon       int       `json:"roundsWon"`
	TournamentWins  int       `json:"tournamentWins"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Directory is the room and user catalogue the server consults. Store backs
// it with postgres; MemoryDirectory keeps it in process.
type Directory interface {
	CreateRoom(ctx context.Context, r NewRoom) (RoomInfo, error)
	ListRooms(ctx context.Context) ([]RoomInfo, error)
	GetRoom(ctx context.Context, id string) (RoomInfo, error)
	DeleteRoom(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	RecordRound(ctx context.Context, stats []RoundStats) error
	PlayerTotals(ctx context.Context, playerID string) (PlayerTotals, error)
}

// MemoryDirectory is a Directory held in process memory.
type MemoryDirectory struct {
	mu     sync.Mutex
	rooms  map[string]RoomInfo
	totals map[string]PlayerTotals
	now    func() time.Time
}

// NewMemoryDirectory returns an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		rooms:  make(map[string]RoomInfo),
		totals: make(map[string]PlayerTotals),
		now:    time.Now,
	}
}

// CreateRoom adds a new active room.
func (d *MemoryDirectory) CreateRoom(_ context.Context, r NewRoom) (RoomInfo, error) {
	hash, err := hashPassword(r.Password)
	if err != nil {
		return RoomInfo{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	info := RoomInfo{
		ID:           uuid.NewString(),
		Name:         r.Name,
		HasPassword:  r.Password != "",
		MaxPlayers:   r.Settings.MaxPlayers,
		IsActive:     true,
		Settings:     r.Settings,
		CreatedAt:    d.now(),
		passwordHash: hash,
	}
	d.rooms[info.ID] = info
	return info, nil
}

// ListRooms returns active rooms, newest first.
func (d *MemoryDirectory) ListRooms(_ context.Context) ([]RoomInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetRoom returns a room by id, active or not.
func (d *MemoryDirectory) GetRoom(_ context.Context, id string) (RoomInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[id]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	return r, nil
}

// DeleteRoom removes a room.
func (d *MemoryDirectory) DeleteRoom(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(d.rooms, id)
	return nil
}

// SetActive flags whether a room appears in ListRooms.
func (d *MemoryDirectory) SetActive(_ context.Context, id string, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	r.IsActive = active
	d.rooms[id] = r
	return nil
}

// RecordRound adds one round's counters to each player's totals.
func (d *MemoryDirectory) RecordRound(_ context.Context, stats []RoundStats) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range stats {
		t := d.totals[s.PlayerID]
		t.PlayerID = s.PlayerID
		t.DisplayName = s.DisplayName
		t.RoundsPlayed++
		t.CardsPlayed += s.CardsPlayed
		t.UnoCalls += s.UnoCalls
		t.WildCardsPlayed += s.WildCardsPlayed
		t.RoundsWon += s.RoundsWon
		t.TournamentWins += s.TournamentWins
		t.UpdatedAt = d.now()
		d.totals[s.PlayerID] = t
	}
	return nil
}

// PlayerTotals returns a player's counters. Unknown players have zero totals.
func (d *MemoryDirectory) PlayerTotals(_ context.Context, playerID string) (PlayerTotals, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.totals[playerID]
	if !ok {
		return PlayerTotals{PlayerID: playerID}, nil
	}
	return t, nil
}
