package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance and implements Directory on postgres.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNoDatabase is returned by writes on a Store without a database.
var ErrNoDatabase = errors.New("no database configured")

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.DB() == nil {
		return ErrNoDatabase
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// CreateRoom inserts a new active room.
func (s *Store) CreateRoom(ctx context.Context, r NewRoom) (RoomInfo, error) {
	if s == nil {
		return RoomInfo{}, ErrNoDatabase
	}
	row, err := newRoomRow(r)
	if err != nil {
		return RoomInfo{}, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return RoomInfo{}, err
	}
	return row.info()
}

// ListRooms returns active rooms, newest first.
func (s *Store) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	if s == nil {
		return nil, nil
	}
	var rows []Room
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]RoomInfo, 0, len(rows))
	for _, r := range rows {
		info, err := r.info()
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", r.ID, err)
		}
		out = append(out, info)
	}
	return out, nil
}

// GetRoom fetches a room by id.
func (s *Store) GetRoom(ctx context.Context, id string) (RoomInfo, error) {
	if s == nil {
		return RoomInfo{}, ErrRoomNotFound
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return RoomInfo{}, ErrRoomNotFound
	}
	var row Room
	if err := s.db.WithContext(ctx).First(&row, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RoomInfo{}, ErrRoomNotFound
		}
		return RoomInfo{}, err
	}
	return row.info()
}

// DeleteRoom removes a room row.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	if s == nil {
		return ErrRoomNotFound
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrRoomNotFound
	}
	res := s.db.WithContext(ctx).Delete(&Room{}, "id = ?", uid)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// SetActive updates the active flag for a room without changing other fields.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	if s == nil {
		return nil
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrRoomNotFound
	}
	return s.db.WithContext(ctx).
		Model(&Room{}).
		Where("id = ?", uid).
		Updates(map[string]any{"is_active": active}).Error
}

// RecordRound adds one round's counters to each player's totals.
func (s *Store) RecordRound(ctx context.Context, stats []RoundStats) error {
	if s == nil {
		return nil
	}
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range stats {
			row := PlayerStat{
				PlayerID:        st.PlayerID,
				DisplayName:     st.DisplayName,
				RoundsPlayed:    1,
				CardsPlayed:     st.CardsPlayed,
				UnoCalls:        st.UnoCalls,
				WildCardsPlayed: st.WildCardsPlayed,
				RoundsWon:       st.RoundsWon,
				TournamentWins:  st.TournamentWins,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "player_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"display_name":      st.DisplayName,
					"rounds_played":     gorm.Expr("player_stats.rounds_played + 1"),
					"cards_played":      gorm.Expr("player_stats.cards_played + ?", st.CardsPlayed),
					"uno_calls":         gorm.Expr("player_stats.uno_calls + ?", st.UnoCalls),
					"wild_cards_played": gorm.Expr("player_stats.wild_cards_played + ?", st.WildCardsPlayed),
					"rounds_won":        gorm.Expr("player_stats.rounds_won + ?", st.RoundsWon),
					"tournament_wins":   gorm.Expr("player_stats.tournament_wins + ?", st.TournamentWins),
					"updated_at":        now,
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("record stats for %s: %w", st.PlayerID, err)
			}
		}
		return nil
	})
}

// PlayerTotals returns a player's lifetime counters. Unknown players have
// all-zero totals.
func (s *Store) PlayerTotals(ctx context.Context, playerID string) (PlayerTotals, error) {
	if s == nil {
		return PlayerTotals{PlayerID: playerID}, nil
	}
	var row PlayerStat
	err := s.db.WithContext(ctx).First(&row, "player_id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PlayerTotals{PlayerID: playerID}, nil
	}
	if err != nil {
		return PlayerTotals{}, err
	}
	return row.totals(), nil
}

var (
	_ Directory = (*Store)(nil)
	_ Directory = (*MemoryDirectory)(nil)
)
