package storage

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyuno/internal/chat"
	"tinyuno/internal/game"
)

func TestStateStoreDeleteCascades(t *testing.T) {
	s := NewStateStore()
	s.SetGameState("a", &game.GameState{RoomID: "a"})
	s.SetGameState("b", &game.GameState{RoomID: "b"})
	s.AppendChat("a", chat.System("hello"))
	s.AddConnected("a", "p1")
	s.AddConnected("b", "p2")

	s.DeleteRoom("a")

	_, ok := s.GameState("a")
	assert.False(t, ok)
	assert.Empty(t, s.ChatLog("a"))
	assert.Empty(t, s.Connected("a"))

	_, ok = s.GameState("b")
	assert.True(t, ok)
	assert.Equal(t, []string{"p2"}, s.Connected("b"))
}

func TestStateStoreChatIsAppendOnly(t *testing.T) {
	s := NewStateStore()
	s.AppendChat("r", chat.System("one"))
	s.AppendChat("r", chat.System("two"))

	log := s.ChatLog("r")
	require.Len(t, log, 2)
	assert.Equal(t, "one", log[0].Text)
	assert.Equal(t, "two", log[1].Text)

	log[0].Text = "edited"
	assert.Equal(t, "one", s.ChatLog("r")[0].Text)
}

func TestStateStoreConnected(t *testing.T) {
	s := NewStateStore()
	s.AddConnected("r", "p2")
	s.AddConnected("r", "p1")
	s.AddConnected("r", "p1")
	assert.Equal(t, []string{"p1", "p2"}, s.Connected("r"))

	s.RemoveConnected("r", "p2")
	s.RemoveConnected("missing", "p2")
	assert.Equal(t, []string{"p1"}, s.Connected("r"))
}

func TestStateStoreConcurrentRooms(t *testing.T) {
	s := NewStateStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := string(rune('a' + i))
			s.SetGameState(room, &game.GameState{RoomID: room})
			s.AppendChat(room, chat.System("x"))
			s.AddConnected(room, "p")
			_, _ = s.GameState(room)
		}(i)
	}
	wg.Wait()
	_, ok := s.GameState("a")
	assert.True(t, ok)
}

func TestMemoryDirectoryRooms(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()
	clock := time.Unix(1000, 0)
	d.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	open, err := d.CreateRoom(ctx, NewRoom{Name: "open", Settings: game.DefaultSettings()})
	require.NoError(t, err)
	locked, err := d.CreateRoom(ctx, NewRoom{Name: "locked", Password: "hunter2", Settings: game.DefaultSettings()})
	require.NoError(t, err)

	assert.False(t, open.HasPassword)
	assert.True(t, open.CheckPassword("anything"))
	assert.True(t, locked.HasPassword)
	assert.True(t, locked.CheckPassword("hunter2"))
	assert.False(t, locked.CheckPassword("wrong"))
	assert.Equal(t, 4, locked.MaxPlayers)

	rooms, err := d.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "locked", rooms[0].Name)

	require.NoError(t, d.SetActive(ctx, locked.ID, false))
	rooms, err = d.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "open", rooms[0].Name)
	assert.ErrorIs(t, d.SetActive(ctx, "missing", true), ErrRoomNotFound)

	got, err := d.GetRoom(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, open, got)

	require.NoError(t, d.DeleteRoom(ctx, open.ID))
	_, err = d.GetRoom(ctx, open.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, d.DeleteRoom(ctx, open.ID), ErrRoomNotFound)
}

func TestRoomPasswordsAreSaltedHashes(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	a, err := d.CreateRoom(ctx, NewRoom{Name: "a", Password: "hunter2"})
	require.NoError(t, err)
	b, err := d.CreateRoom(ctx, NewRoom{Name: "b", Password: "hunter2"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.passwordHash, "$2"), a.passwordHash)
	assert.NotContains(t, a.passwordHash, "hunter2")
	assert.NotEqual(t, a.passwordHash, b.passwordHash)
	assert.True(t, b.CheckPassword("hunter2"))
	assert.False(t, b.CheckPassword(""))

	row, err := newRoomRow(NewRoom{Name: "c"})
	require.NoError(t, err)
	assert.Empty(t, row.PasswordHash)
}

func TestMemoryDirectoryStats(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	require.NoError(t, d.RecordRound(ctx, []RoundStats{
		{PlayerID: "p1", DisplayName: "Ann", CardsPlayed: 5, UnoCalls: 1, RoundsWon: 1},
		{PlayerID: "p2", DisplayName: "Bob", CardsPlayed: 3, WildCardsPlayed: 1},
	}))
	require.NoError(t, d.RecordRound(ctx, []RoundStats{
		{PlayerID: "p1", DisplayName: "Ann", CardsPlayed: 2, TournamentWins: 1},
	}))

	p1, err := d.PlayerTotals(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p1.RoundsPlayed)
	assert.Equal(t, 7, p1.CardsPlayed)
	assert.Equal(t, 1, p1.UnoCalls)
	assert.Equal(t, 1, p1.RoundsWon)
	assert.Equal(t, 1, p1.TournamentWins)

	none, err := d.PlayerTotals(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, PlayerTotals{PlayerID: "nobody"}, none)
}

func TestNilStoreIsSafe(t *testing.T) {
	ctx := context.Background()
	var s *Store

	assert.Nil(t, s.DB())
	_, err := s.CreateRoom(ctx, NewRoom{Name: "x"})
	assert.ErrorIs(t, err, ErrNoDatabase)
	rooms, err := s.ListRooms(ctx)
	assert.NoError(t, err)
	assert.Empty(t, rooms)
	_, err = s.GetRoom(ctx, "x")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, s.RecordRound(ctx, []RoundStats{{PlayerID: "p"}}))
	assert.NoError(t, s.SetActive(ctx, "x", false))
	assert.ErrorIs(t, s.Ping(ctx), ErrNoDatabase)
	assert.Nil(t, NewStore(nil))
}

func TestRoomRowRoundTrip(t *testing.T) {
	settings := game.DefaultSettings()
	settings.TournamentTarget = 3
	settings.EnableChat = false

	row, err := newRoomRow(NewRoom{Name: "r", Password: "pw", Settings: settings})
	require.NoError(t, err)
	info, err := row.info()
	require.NoError(t, err)

	assert.Equal(t, row.ID.String(), info.ID)
	assert.Equal(t, settings, info.Settings)
	assert.True(t, info.CheckPassword("pw"))
}

func TestRoomRowWithoutSettingsUsesDefaults(t *testing.T) {
	info, err := Room{Name: "legacy"}.info()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultSettings(), info.Settings)
}
