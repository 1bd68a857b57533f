package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tinyuno/internal/ai"
	"tinyuno/internal/chat"
	"tinyuno/internal/game"
	"tinyuno/internal/storage"
	"tinyuno/pkg/utils"
)

// emojiCooldown is the minimum gap between two emoji from one player.
const emojiCooldown = 5 * time.Second

var (
	errChatDisabled  = errors.New("Chat is disabled in this room")
	errInappropriate = errors.New("Message contains inappropriate content and was not sent.")
	errBadPassword   = errors.New("Incorrect room password")
)

// Room coordinates one room's connections and game. mu is the room's
// serialization token: every game mutation happens while holding it.
type Room struct {
	ID   string
	info storage.RoomInfo
	reg  *Registry

	mu        sync.Mutex
	conns     map[string]*Client
	names     map[string]string
	order     []string
	announced map[string]struct{}
	lastReact map[string]time.Time
	recorded  map[string]game.PlayerStats
	lastSeen  time.Time
	aiTimer   *time.Timer
	closed    bool
}

func newRoom(reg *Registry, info storage.RoomInfo) *Room {
	return &Room{
		ID:        info.ID,
		info:      info,
		reg:       reg,
		conns:     make(map[string]*Client),
		names:     make(map[string]string),
		announced: make(map[string]struct{}),
		lastReact: make(map[string]time.Time),
		recorded:  make(map[string]game.PlayerStats),
		lastSeen:  time.Now(),
	}
}

// Info returns the room's directory entry.
func (rm *Room) Info() storage.RoomInfo { return rm.info }

// Join registers c as playerID's connection and sends it the current game.
// A player reconnecting replaces their previous connection.
func (rm *Room) Join(c *Client, playerID, displayName, password string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ErrRoomClosed
	}
	if !rm.info.CheckPassword(password) {
		return errBadPassword
	}
	if displayName == "" {
		displayName = playerID
	}

	if old, ok := rm.conns[playerID]; ok && old != c {
		old.Close()
	}
	rm.conns[playerID] = c
	rm.names[playerID] = displayName
	rm.reg.store.AddConnected(rm.ID, playerID)
	rm.touchLocked()
	rm.reg.log.Info("player joined",
		zap.String("room", rm.ID),
		zap.String("player", playerID),
		zap.Int("connections", len(rm.conns)))

	if _, seen := rm.announced[playerID]; !seen {
		rm.announced[playerID] = struct{}{}
		rm.order = append(rm.order, playerID)
		rm.broadcastLocked(Event{Type: EvPlayerJoined, PlayerID: playerID, Username: displayName})
		rm.noticeLocked(fmt.Sprintf("%s joined the room.", displayName))
	}

	gs, ok := rm.reg.store.GameState(rm.ID)
	if !ok {
		return nil
	}
	if p, seated := gs.Player(playerID); seated && !p.Connected {
		if _, err := rm.reg.engine.SetConnected(rm.ID, playerID, true); err == nil {
			rm.broadcastStateLocked(EvGameState, gs)
			rm.scheduleAILocked()
			return nil
		}
	}
	rm.sendStateLocked(playerID, c, EvGameState, gs)
	return nil
}

// Leave deregisters c. The player keeps their seat, marked disconnected.
func (rm *Room) Leave(c *Client, playerID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed || rm.conns[playerID] != c {
		return
	}
	delete(rm.conns, playerID)
	rm.reg.store.RemoveConnected(rm.ID, playerID)
	rm.touchLocked()
	rm.reg.log.Info("player left", zap.String("room", rm.ID), zap.String("player", playerID))

	out, err := rm.reg.engine.SetConnected(rm.ID, playerID, false)
	switch {
	case err == nil:
		rm.broadcastStateLocked(EvGameState, out.State)
		rm.scheduleAILocked()
	case !errors.Is(err, game.ErrGameNotFound) && !errors.Is(err, game.ErrPlayerNotFound):
		rm.reg.log.Warn("mark disconnected", zap.String("room", rm.ID), zap.Error(err))
	}
	rm.broadcastLocked(Event{Type: EvPlayerLeft, PlayerID: playerID})
}

// Start deals a new tournament: connected humans in join order, then AI
// seats up to the room's player count.
func (rm *Room) Start(playerID string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ErrRoomClosed
	}

	settings := rm.settings()
	var players []*game.Player
	for _, id := range rm.order {
		if _, ok := rm.conns[id]; !ok {
			continue
		}
		if len(players) == settings.MaxPlayers {
			break
		}
		players = append(players, &game.Player{ID: id, DisplayName: rm.names[id], Connected: true})
	}
	if missing := settings.MaxPlayers - len(players); missing > 0 {
		for _, pers := range rm.reg.policy.Draft(missing) {
			players = append(players, &game.Player{
				ID:          "ai_" + utils.RandomHex(6),
				DisplayName: pers.DisplayName(),
				IsAI:        true,
				Personality: pers.ID,
				Connected:   true,
			})
		}
	}

	gs, err := rm.reg.engine.InitializeGame(rm.ID, players, settings)
	if err != nil {
		rm.unicastLocked(playerID, failure(err.Error()))
		return err
	}
	rm.recorded = make(map[string]game.PlayerStats)
	rm.touchLocked()
	rm.reg.log.Info("game started",
		zap.String("room", rm.ID),
		zap.String("by", playerID),
		zap.Int("players", len(players)))

	rm.broadcastStateLocked(EvGameStarted, gs)
	rm.scheduleAILocked()
	return nil
}

// Act applies a player's game action and fans out the result.
func (rm *Room) Act(playerID string, a ai.Action) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ErrRoomClosed
	}
	return rm.performLocked(playerID, a)
}

// RemovePlayer gives up playerID's seat for the rest of the game.
func (rm *Room) RemovePlayer(playerID string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ErrRoomClosed
	}
	out, err := rm.reg.engine.RemovePlayer(rm.ID, playerID)
	if err != nil {
		rm.unicastLocked(playerID, failure(err.Error()))
		return err
	}
	rm.broadcastStateLocked(EvGameState, out.State)
	rm.noticesLocked(out.Notices)
	rm.scheduleAILocked()
	return nil
}

// Chat moderates and relays a player's chat line.
func (rm *Room) Chat(playerID, text, kind string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ErrRoomClosed
	}

	reject := func(err error) error {
		rm.unicastLocked(playerID, Event{Type: EvChatError, Reason: err.Error()})
		return err
	}

	if !rm.settings().EnableChat {
		return reject(errChatDisabled)
	}
	k, err := chat.ParseKind(kind)
	if err != nil {
		return reject(err)
	}
	if k == chat.KindEmoji {
		if ok, wait := rm.canReactLocked(playerID); !ok {
			return reject(fmt.Errorf("Slow down, wait %ds", wait))
		}
	}
	filtered, err := chat.Moderate(text)
	if errors.Is(err, chat.ErrInappropriate) {
		return reject(errInappropriate)
	}
	if err != nil {
		return reject(err)
	}

	m := chat.NewMessage(playerID, rm.names[playerID], filtered, k)
	rm.reg.store.AppendChat(rm.ID, m)
	rm.touchLocked()
	rm.broadcastLocked(Event{Type: EvNewChatMessage, Message: &m})
	return nil
}

// SpectatorSnapshot returns the game as seen by someone without a seat.
func (rm *Room) SpectatorSnapshot() (game.Snapshot, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	gs, ok := rm.reg.store.GameState(rm.ID)
	if !ok {
		return game.Snapshot{}, false
	}
	return gs.SnapshotFor(""), true
}

// ChatLog returns the room's chat history, oldest first.
func (rm *Room) ChatLog() []chat.Message {
	return rm.reg.store.ChatLog(rm.ID)
}

// Connected lists the players with an open connection.
func (rm *Room) Connected() []string {
	return rm.reg.store.Connected(rm.ID)
}

// performLocked runs a against the engine. Humans and AI share this path.
func (rm *Room) performLocked(playerID string, a ai.Action) error {
	var (
		out *game.Outcome
		err error
		typ string
	)
	switch a.Kind {
	case ai.ActionPlay:
		typ = EvPlayCardResult
		out, err = rm.reg.engine.PlayCard(rm.ID, playerID, a.Play, a.DeclareUno)
	case ai.ActionDraw:
		typ = EvDrawCardResult
		out, err = rm.reg.engine.DrawCard(rm.ID, playerID)
	case ai.ActionUno:
		typ = EvUnoResult
		out, err = rm.reg.engine.SayUno(rm.ID, playerID)
	default:
		typ = EvError
		err = game.ErrUnknownPlay
	}
	if err != nil {
		rm.reg.log.Debug("action rejected",
			zap.String("room", rm.ID),
			zap.String("player", playerID),
			zap.String("action", string(a.Kind)),
			zap.Error(err))
		rm.unicastLocked(playerID, result(typ, err))
		return err
	}
	rm.touchLocked()

	rm.broadcastStateLocked(EvGameState, out.State)
	if a.Kind == ai.ActionUno || (a.Kind == ai.ActionPlay && a.DeclareUno) {
		rm.broadcastLocked(Event{Type: EvUnoCalled, PlayerID: playerID})
	}
	rm.noticesLocked(out.Notices)

	ack := result(typ, nil)
	if a.Kind == ai.ActionDraw {
		if len(out.Drawn) > 0 {
			ack.Card = &out.Drawn[0]
		} else {
			ack.Reason = "No cards left to draw"
		}
	}
	rm.unicastLocked(playerID, ack)

	if out.RoundWinner != "" {
		rm.recordRoundLocked(out)
	}
	rm.scheduleAILocked()
	return nil
}

// scheduleAILocked arms the AI timer when an AI seat is up. The timer
// re-checks the game before acting, so a stale timer does nothing.
func (rm *Room) scheduleAILocked() {
	if rm.aiTimer != nil {
		rm.aiTimer.Stop()
		rm.aiTimer = nil
	}
	gs, ok := rm.reg.store.GameState(rm.ID)
	if !ok || gs.Phase != game.PhasePlaying || rm.closed {
		return
	}
	cur := gs.CurrentPlayer()
	if cur == nil || !cur.IsAI {
		return
	}
	version, playerID := gs.Version, cur.ID
	rm.aiTimer = time.AfterFunc(rm.reg.aiDelay(), func() {
		rm.runAI(version, playerID)
	})
}

func (rm *Room) runAI(version int64, playerID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return
	}
	gs, ok := rm.reg.store.GameState(rm.ID)
	if !ok || gs.Phase != game.PhasePlaying || gs.Version != version {
		return
	}
	if cur := gs.CurrentPlayer(); cur == nil || cur.ID != playerID || !cur.IsAI {
		return
	}

	a := rm.reg.policy.Decide(gs, playerID)
	if err := rm.performLocked(playerID, a); err != nil && a.Kind != ai.ActionDraw {
		rm.reg.log.Warn("ai action rejected, drawing instead",
			zap.String("room", rm.ID),
			zap.String("player", playerID),
			zap.Error(err))
		_ = rm.performLocked(playerID, ai.Action{Kind: ai.ActionDraw})
	}
}

// recordRoundLocked sends each human's counters for the round just won to
// the stats recorder in the background.
func (rm *Room) recordRoundLocked(out *game.Outcome) {
	rec := rm.reg.opts.Stats
	if rec == nil {
		return
	}
	var stats []storage.RoundStats
	for _, p := range out.State.Players {
		if p.IsAI {
			continue
		}
		prev := rm.recorded[p.ID]
		st := storage.RoundStats{
			PlayerID:        p.ID,
			DisplayName:     p.DisplayName,
			CardsPlayed:     p.Stats.CardsPlayed - prev.CardsPlayed,
			UnoCalls:        p.Stats.UnoCalls - prev.UnoCalls,
			WildCardsPlayed: p.Stats.WildCardsPlayed - prev.WildCardsPlayed,
			RoundsWon:       p.Stats.RoundsWon - prev.RoundsWon,
		}
		if out.TournamentWinner == p.ID {
			st.TournamentWins = 1
		}
		rm.recorded[p.ID] = p.Stats
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return
	}

	log := rm.reg.log.With(zap.String("room", rm.ID))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rec.RecordRound(ctx, stats); err != nil {
			log.Warn("record round stats", zap.Error(err))
		}
	}()
}

// canReactLocked enforces the emoji cooldown.
func (rm *Room) canReactLocked(playerID string) (bool, int) {
	now := time.Now()
	if t, ok := rm.lastReact[playerID]; ok && now.Sub(t) < emojiCooldown {
		wait := int((emojiCooldown - now.Sub(t)).Seconds()) + 1
		return false, wait
	}
	rm.lastReact[playerID] = now
	return true, 0
}

func (rm *Room) settings() game.Settings {
	s := rm.info.Settings
	d := rm.reg.opts.Defaults
	if s == (game.Settings{}) {
		return d
	}
	if s.MaxPlayers < 2 {
		s.MaxPlayers = d.MaxPlayers
	}
	if s.TournamentTarget < 1 {
		s.TournamentTarget = d.TournamentTarget
	}
	if s.AIDifficulty == "" {
		s.AIDifficulty = d.AIDifficulty
	}
	return s
}

func (rm *Room) noticeLocked(text string) {
	m := chat.System(text)
	rm.reg.store.AppendChat(rm.ID, m)
	rm.broadcastLocked(Event{Type: EvNewChatMessage, Message: &m})
}

func (rm *Room) noticesLocked(notices []string) {
	for _, n := range notices {
		rm.noticeLocked(n)
	}
}

// broadcastStateLocked sends each connection its own view of gs.
func (rm *Room) broadcastStateLocked(typ string, gs *game.GameState) {
	for id, c := range rm.conns {
		rm.sendStateLocked(id, c, typ, gs)
	}
}

func (rm *Room) sendStateLocked(viewerID string, c *Client, typ string, gs *game.GameState) {
	snap := gs.SnapshotFor(viewerID)
	rm.sendLocked(viewerID, c, Event{Type: typ, GameState: &snap})
}

func (rm *Room) broadcastLocked(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		rm.reg.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	for id, c := range rm.conns {
		rm.sendRawLocked(id, c, data)
	}
}

func (rm *Room) unicastLocked(playerID string, ev Event) {
	if c, ok := rm.conns[playerID]; ok {
		rm.sendLocked(playerID, c, ev)
	}
}

func (rm *Room) sendLocked(playerID string, c *Client, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		rm.reg.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	rm.sendRawLocked(playerID, c, data)
}

func (rm *Room) sendRawLocked(playerID string, c *Client, data []byte) {
	if !c.trySend(data) {
		rm.reg.log.Warn("connection send buffer full",
			zap.String("room", rm.ID),
			zap.String("player", playerID))
	}
}

func (rm *Room) touchLocked() {
	rm.lastSeen = time.Now()
}

// closeIfIdle closes the room if nobody is connected and it has been quiet
// for longer than ttl. The check and the close happen under one lock so a
// concurrent Join either lands first and keeps the room open or sees
// ErrRoomClosed.
func (rm *Room) closeIfIdle(ttl time.Duration) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed || len(rm.conns) > 0 || time.Since(rm.lastSeen) <= ttl {
		return false
	}
	rm.closeLocked()
	return true
}

func (rm *Room) close() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.closeLocked()
}

func (rm *Room) closeLocked() {
	rm.closed = true
	if rm.aiTimer != nil {
		rm.aiTimer.Stop()
		rm.aiTimer = nil
	}
	for id, c := range rm.conns {
		c.Close()
		delete(rm.conns, id)
	}
}
