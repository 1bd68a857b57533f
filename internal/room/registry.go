package room

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"tinyuno/internal/ai"
	"tinyuno/internal/chat"
	"tinyuno/internal/game"
	"tinyuno/internal/logging"
	"tinyuno/internal/storage"
)

// ErrRoomClosed is returned for operations on a deleted room.
var ErrRoomClosed = errors.New("Room is closed")

// RoomLookup resolves room ids the registry has not opened yet. Rooms swept
// for idleness are marked inactive so they drop out of the lobby listing.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (storage.RoomInfo, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// StatsRecorder persists per-round player counters.
type StatsRecorder interface {
	RecordRound(ctx context.Context, stats []storage.RoundStats) error
}

// Options tunes a Registry.
type Options struct {
	AIMinDelay time.Duration
	AIMaxDelay time.Duration
	// Defaults fills settings a room does not carry itself.
	Defaults game.Settings
	Stats    StatsRecorder
	Rooms    RoomLookup
	Logger   *zap.Logger
	// Rand drives AI delays. Defaults to a time seed.
	Rand *rand.Rand
}

// Registry owns every open Room.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	store  *storage.StateStore
	engine *game.Engine
	policy *ai.Policy
	opts   Options
	log    *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRegistry wires a registry to its state store, engine and AI policy.
func NewRegistry(store *storage.StateStore, engine *game.Engine, policy *ai.Policy, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = logging.L()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Defaults == (game.Settings{}) {
		opts.Defaults = game.DefaultSettings()
	}
	if opts.AIMaxDelay < opts.AIMinDelay {
		opts.AIMaxDelay = opts.AIMinDelay
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		store:  store,
		engine: engine,
		policy: policy,
		opts:   opts,
		log:    opts.Logger,
		rng:    opts.Rand,
	}
}

// Open returns the room for info, creating it on first use.
func (r *Registry) Open(info storage.RoomInfo) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rm, ok := r.rooms[info.ID]; ok {
		return rm
	}
	rm := newRoom(r, info)
	r.rooms[info.ID] = rm
	r.log.Info("room opened", zap.String("room", info.ID), zap.String("name", info.Name))
	return rm
}

// Get returns an open room.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[id]
	return rm, ok
}

// Lookup returns an open room, or opens it from the room directory.
func (r *Registry) Lookup(ctx context.Context, id string) (*Room, error) {
	if rm, ok := r.Get(id); ok {
		return rm, nil
	}
	if r.opts.Rooms == nil {
		return nil, storage.ErrRoomNotFound
	}
	info, err := r.opts.Rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if !info.IsActive {
		if err := r.opts.Rooms.SetActive(ctx, id, true); err != nil {
			r.log.Warn("reactivate room", zap.String("room", id), zap.Error(err))
		}
		info.IsActive = true
	}
	return r.Open(info), nil
}

// Delete closes a room and drops its game state, chat log and connections.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	rm, ok := r.rooms[id]
	if ok {
		delete(r.rooms, id)
		rm.close()
	}
	r.store.DeleteRoom(id)
	r.mu.Unlock()

	if ok {
		r.log.Info("room deleted", zap.String("room", id))
	}
	return ok
}

// ChatLog returns a room's chat history, oldest first.
func (r *Registry) ChatLog(id string) []chat.Message {
	return r.store.ChatLog(id)
}

// Len reports how many rooms are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Sweep deletes rooms with no connections that have been idle longer than ttl.
// Lock order is r.mu then rm.mu; room code never takes r.mu.
func (r *Registry) Sweep(ttl time.Duration) int {
	r.mu.Lock()
	var idle []string
	for id, rm := range r.rooms {
		if rm.closeIfIdle(ttl) {
			delete(r.rooms, id)
			r.store.DeleteRoom(id)
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	for _, id := range idle {
		r.log.Info("room deleted", zap.String("room", id))
		if r.opts.Rooms != nil {
			r.deactivate(id)
		}
	}
	return len(idle)
}

// deactivate hides a swept room from the directory listing. A player may
// have reopened it in the meantime, in which case it is marked active again.
func (r *Registry) deactivate(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.opts.Rooms.SetActive(ctx, id, false); err != nil {
		if !errors.Is(err, storage.ErrRoomNotFound) {
			r.log.Warn("deactivate room", zap.String("room", id), zap.Error(err))
		}
		return
	}
	if _, reopened := r.Get(id); reopened {
		if err := r.opts.Rooms.SetActive(ctx, id, true); err != nil {
			r.log.Warn("reactivate room", zap.String("room", id), zap.Error(err))
		}
	}
}

// RunJanitor sweeps idle rooms every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, every, ttl time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(ttl); n > 0 {
				r.log.Info("idle rooms removed", zap.Int("count", n))
			}
		}
	}
}

// aiDelay is a random thinking time in [AIMinDelay, AIMaxDelay].
func (r *Registry) aiDelay() time.Duration {
	span := r.opts.AIMaxDelay - r.opts.AIMinDelay
	if span <= 0 {
		return r.opts.AIMinDelay
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.opts.AIMinDelay + time.Duration(r.rng.Int63n(int64(span)+1))
}
