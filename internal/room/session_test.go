package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyuno/internal/game"
	"tinyuno/internal/storage"
)

func TestSessionRejectsMalformedFrames(t *testing.T) {
	reg := newTestRegistry(t, slowAI)
	s := NewSession(reg, NewClient(8))
	ctx := context.Background()

	assert.Equal(t, errMalformed, s.Handle(ctx, []byte("{not json")))
	assert.Equal(t, errMalformed, s.Handle(ctx, []byte(`{"roomId":"r1"}`)))
	assert.Equal(t, errNotJoined, s.Handle(ctx, []byte(`{"type":"draw_card"}`)))
	assert.Equal(t, errMissingIDs, s.Handle(ctx, []byte(`{"type":"join_room","roomId":"r1"}`)))

	assert.ErrorIs(t, errMalformed, game.ErrMalformedInput)
	assert.ErrorIs(t, errMissingIDs, game.ErrMalformedInput)
	assert.ErrorIs(t, errUnknownMsg, game.ErrMalformedInput)
	assert.ErrorIs(t, errNotJoined, game.ErrIllegalAction)

	evs := drain(t, s.Client())
	require.Len(t, evs, 4)
	assert.Equal(t, "Invalid message format", evs[0].Reason)
	for _, ev := range evs {
		assert.Equal(t, EvError, ev.Type)
	}
}

func TestSessionPlaysThroughRoom(t *testing.T) {
	reg := newTestRegistry(t, slowAI)
	rm := openRoom(t, reg, twoPlayer())
	ctx := context.Background()

	s1 := NewSession(reg, NewClient(64))
	s2 := NewSession(reg, NewClient(64))
	require.NoError(t, s1.Handle(ctx, []byte(`{"type":"join_room","roomId":"r1","playerId":"p1","username":"Ann"}`)))
	require.NoError(t, s2.Handle(ctx, []byte(`{"type":"join_room","roomId":"r1","playerId":"p2","username":"Bob"}`)))
	assert.Equal(t, "p1", s1.PlayerID())

	require.NoError(t, s1.Handle(ctx, []byte(`{"type":"start_game"}`)))
	table(t, rm, "red-5-1",
		[]string{"red-7-1", "wild-1", "blue-1-1"},
		[]string{"green-2-1", "green-3-1", "green-4-1"})
	drain(t, s1.Client())

	require.NoError(t, s1.Handle(ctx, []byte(`{"type":"play_card","cardId":"red-7-1"}`)))
	require.NoError(t, s2.Handle(ctx, []byte(`{"type":"draw_card"}`)))
	require.NoError(t, s1.Handle(ctx, []byte(`{"type":"play_card","cardId":"wild-1","chosenColor":"GREEN","sayUno":true}`)))

	gs := state(t, rm)
	assert.Equal(t, game.Green, gs.CurrentCard.Color)
	assert.True(t, gs.Players[0].SaidUno)
	assert.Len(t, gs.Players[0].Hand, 1)

	err := s1.Handle(ctx, []byte(`{"type":"say_uno"}`))
	assert.ErrorIs(t, err, game.ErrUnoAlreadyCalled)

	require.NoError(t, s2.Handle(ctx, []byte(`{"type":"chat_message","message":"nice","messageType":"message"}`)))
	log := rm.ChatLog()
	assert.Equal(t, "nice", log[len(log)-1].Text)
	assert.Equal(t, "Bob", log[len(log)-1].DisplayName)

	assert.Equal(t, errUnknownMsg, s1.Handle(ctx, []byte(`{"type":"flip_table"}`)))

	require.NoError(t, s2.Handle(ctx, []byte(`{"type":"leave_game"}`)))
	assert.Equal(t, game.PhaseFinished, state(t, rm).Phase)

	s1.Close()
	assert.Equal(t, []string{"p2"}, rm.Connected())
	select {
	case <-s1.Client().Done():
	default:
		t.Fatal("client not closed")
	}
}

func TestSessionJoinUnknownRoom(t *testing.T) {
	opts := slowAI
	opts.Rooms = storage.NewMemoryDirectory()
	reg := newTestRegistry(t, opts)
	s := NewSession(reg, NewClient(8))

	err := s.Handle(context.Background(), []byte(`{"type":"join_room","roomId":"nope","playerId":"p1"}`))
	assert.ErrorIs(t, err, storage.ErrRoomNotFound)
	assert.Equal(t, "", s.PlayerID())
	ev, ok := find(drain(t, s.Client()), EvError)
	require.True(t, ok)
	assert.Equal(t, "room not found", ev.Reason)
}
