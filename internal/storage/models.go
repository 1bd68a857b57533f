package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"tinyuno/internal/game"
)

// Room is a row of the room directory.
type Room struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string
	PasswordHash string
	MaxPlayers   int
	IsActive     bool           `gorm:"index"`
	Settings     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlayerStat holds a player's lifetime counters, keyed by the id the client
// joins with.
type PlayerStat struct {
	PlayerID        string `gorm:"primaryKey"`
	DisplayName     string
	RoundsPlayed    int
	CardsPlayed     int
	UnoCalls        int
	WildCardsPlayed int
	RoundsWon       int
	TournamentWins  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func newRoomRow(r NewRoom) (Room, error) {
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return Room{}, fmt.Errorf("encode settings: %w", err)
	}
	hash, err := hashPassword(r.Password)
	if err != nil {
		return Room{}, err
	}
	return Room{
		ID:           uuid.New(),
		Name:         r.Name,
		PasswordHash: hash,
		MaxPlayers:   r.Settings.MaxPlayers,
		IsActive:     true,
		Settings:     datatypes.JSON(settings),
	}, nil
}

func (r Room) info() (RoomInfo, error) {
	settings := game.DefaultSettings()
	if len(r.Settings) > 0 {
		if err := json.Unmarshal(r.Settings, &settings); err != nil {
			return RoomInfo{}, err
		}
	}
	return RoomInfo{
		ID:           r.ID.String(),
		Name:         r.Name,
		HasPassword:  r.PasswordHash != "",
		MaxPlayers:   r.MaxPlayers,
		IsActive:     r.IsActive,
		Settings:     settings,
		CreatedAt:    r.CreatedAt,
		passwordHash: r.PasswordHash,
	}, nil
}

func (p PlayerStat) totals() PlayerTotals {
	return PlayerTotals{
		PlayerID:        p.PlayerID,
		DisplayName:     p.DisplayName,
		RoundsPlayed:    p.RoundsPlayed,
		CardsPlayed:     p.CardsPlayed,
		UnoCalls:        p.UnoCalls,
		WildCardsPlayed: p.WildCardsPlayed,
		RoundsWon:       p.RoundsWon,
		TournamentWins:  p.TournamentWins,
		UpdatedAt:       p.UpdatedAt,
	}
}
