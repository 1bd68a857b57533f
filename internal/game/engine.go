package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Store holds the authoritative GameState of each room.
type Store interface {
	GameState(roomID string) (*GameState, bool)
	SetGameState(roomID string, gs *GameState)
}

// Outcome describes a committed action.
type Outcome struct {
	State *GameState
	// Drawn holds the cards the actor drew by a draw action.
	Drawn []Card
	// Notices are system chat lines produced by the action, in order.
	Notices          []string
	RoundWinner      string
	TournamentWinner string
}

func (o *Outcome) notice(format string, args ...any) {
	o.Notices = append(o.Notices, fmt.Sprintf(format, args...))
}

// Engine applies UNO rules to the game states in a Store.
//
// Engine does not serialize callers: every call for a room must be made while
// holding that room's serialization token. Calls for different rooms may run
// concurrently.
type Engine struct {
	store Store

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine constructs an Engine with the provided rng or a time-seeded default.
func NewEngine(store Store, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{store: store, rng: rng}
}

// InitializeGame deals a fresh tournament for players in seat order.
func (e *Engine) InitializeGame(roomID string, players []*Player, settings Settings) (*GameState, error) {
	if existing, ok := e.store.GameState(roomID); ok && existing.Phase == PhasePlaying {
		return nil, ErrGameInProgress
	}
	if len(players) < 2 {
		return nil, ErrTooFewPlayers
	}

	gs := &GameState{
		RoomID:         roomID,
		Players:        players,
		TournamentWins: make(map[string]int, len(players)),
		Settings:       settings,
		Phase:          PhasePlaying,
	}
	for _, p := range players {
		p.Stats = PlayerStats{}
		gs.TournamentWins[p.ID] = 0
	}
	e.startRound(gs)
	gs.Version = 1

	e.store.SetGameState(roomID, gs)
	return gs, nil
}

// PlayCard plays a card from the player's hand and resolves its effect.
// declareUno calls UNO together with a play that leaves a single card.
func (e *Engine) PlayCard(roomID, playerID string, play Play, declareUno bool) (*Outcome, error) {
	gs, p, err := e.actor(roomID, playerID)
	if err != nil {
		return nil, err
	}
	if gs.CurrentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	if play == nil {
		return nil, ErrUnknownPlay
	}
	idx := p.cardIndex(play.cardID())
	if idx < 0 {
		return nil, ErrCardNotInHand
	}
	card := p.Hand[idx]
	if !card.CanPlayOn(gs.CurrentCard) {
		return nil, ErrIllegalPlay
	}

	color := card.Color
	switch pl := play.(type) {
	case Colored:
		if card.IsWild() {
			return nil, ErrColorRequired
		}
	case WildWithChoice:
		if !card.IsWild() {
			return nil, ErrColorNotAllowed
		}
		if !pl.Color.Valid() {
			return nil, ErrColorRequired
		}
		color = pl.Color
	default:
		return nil, ErrUnknownPlay
	}
	if declareUno && len(p.Hand) != 2 {
		return nil, ErrInvalidUnoCall
	}

	out := &Outcome{State: gs}

	p.Hand = removeAt(p.Hand, idx)
	gs.DiscardPile = append(gs.DiscardPile, gs.CurrentCard.Canonical())
	gs.CurrentCard = card.Resolved(color)
	p.Stats.CardsPlayed++
	if card.IsWild() {
		p.Stats.WildCardsPlayed++
	}

	steps := e.applyEffect(gs, card, out)

	if declareUno && !p.SaidUno {
		callUno(p, out)
	}
	if len(p.Hand) == 1 && !p.SaidUno {
		p.Hand = append(p.Hand, e.drawCards(gs, 2, out)...)
		out.notice("%s forgot to say UNO! Drawing 2 cards.", p.DisplayName)
	}

	if len(p.Hand) == 0 {
		e.handleRoundWin(gs, p, out)
	} else {
		gs.advance(steps)
	}

	e.commit(roomID, gs)
	return out, nil
}

// DrawCard draws one card for the current player and passes the turn.
func (e *Engine) DrawCard(roomID, playerID string) (*Outcome, error) {
	gs, p, err := e.actor(roomID, playerID)
	if err != nil {
		return nil, err
	}
	if gs.CurrentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}

	out := &Outcome{State: gs}
	out.Drawn = e.drawCards(gs, 1, out)
	p.Hand = append(p.Hand, out.Drawn...)
	gs.advance(1)

	e.commit(roomID, gs)
	return out, nil
}

// SayUno records an UNO call. The player must hold exactly one card.
func (e *Engine) SayUno(roomID, playerID string) (*Outcome, error) {
	gs, p, err := e.actor(roomID, playerID)
	if err != nil {
		return nil, err
	}
	if len(p.Hand) != 1 {
		return nil, ErrInvalidUnoCall
	}
	if p.SaidUno {
		return nil, ErrUnoAlreadyCalled
	}

	out := &Outcome{State: gs}
	callUno(p, out)

	e.commit(roomID, gs)
	return out, nil
}

// SetConnected flags a seated player's connection state. The player keeps
// their seat either way.
func (e *Engine) SetConnected(roomID, playerID string, connected bool) (*Outcome, error) {
	gs, ok := e.store.GameState(roomID)
	if !ok {
		return nil, ErrGameNotFound
	}
	p, ok := gs.Player(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if p.Connected == connected {
		return &Outcome{State: gs}, nil
	}
	p.Connected = connected
	e.commit(roomID, gs)
	return &Outcome{State: gs}, nil
}

// RemovePlayer unseats a player. Their hand goes to the bottom of the draw
// pile; a game left with fewer than two players finishes.
func (e *Engine) RemovePlayer(roomID, playerID string) (*Outcome, error) {
	gs, ok := e.store.GameState(roomID)
	if !ok {
		return nil, ErrGameNotFound
	}
	idx := -1
	for i, p := range gs.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}

	out := &Outcome{State: gs}
	p := gs.Players[idx]
	returned := make([]Card, 0, len(p.Hand)+len(gs.DrawPile))
	for _, c := range p.Hand {
		returned = append(returned, c.Canonical())
	}
	gs.DrawPile = append(returned, gs.DrawPile...)
	p.Hand = nil
	gs.Players = append(gs.Players[:idx:idx], gs.Players[idx+1:]...)
	out.notice("%s left the game.", p.DisplayName)

	n := len(gs.Players)
	switch {
	case n == 0:
		gs.CurrentIndex = 0
	case idx < gs.CurrentIndex:
		gs.CurrentIndex--
	case idx == gs.CurrentIndex:
		if gs.Direction < 0 {
			gs.CurrentIndex = (idx - 1 + n) % n
		} else {
			gs.CurrentIndex = idx % n
		}
	}
	if n < 2 && gs.Phase == PhasePlaying {
		gs.Phase = PhaseFinished
	}

	e.commit(roomID, gs)
	return out, nil
}

func callUno(p *Player, out *Outcome) {
	p.SaidUno = true
	p.Stats.UnoCalls++
	out.notice("%s said UNO!", p.DisplayName)
}

func (e *Engine) actor(roomID, playerID string) (*GameState, *Player, error) {
	gs, ok := e.store.GameState(roomID)
	if !ok {
		return nil, nil, ErrGameNotFound
	}
	p, ok := gs.Player(playerID)
	if !ok {
		return nil, nil, ErrPlayerNotFound
	}
	if gs.Phase == PhaseFinished {
		return nil, nil, ErrGameFinished
	}
	if gs.Phase != PhasePlaying {
		return nil, nil, ErrGameNotFound
	}
	return gs, p, nil
}

func (e *Engine) commit(roomID string, gs *GameState) {
	gs.Version++
	e.store.SetGameState(roomID, gs)
}

// applyEffect resolves the played card and returns how many seats the turn
// moves once the play is complete.
func (e *Engine) applyEffect(gs *GameState, card Card, out *Outcome) int {
	switch card.Kind {
	case KindSkip:
		out.notice("%s was skipped!", gs.NextPlayer().DisplayName)
		return 2
	case KindReverse:
		gs.Direction = -gs.Direction
		out.notice("Direction reversed!")
		if len(gs.Players) == 2 {
			return 2
		}
		return 1
	case KindDraw2, KindWild4:
		n := 2
		if card.Kind == KindWild4 {
			n = 4
		}
		victim := gs.NextPlayer()
		victim.Hand = append(victim.Hand, e.drawCards(gs, n, out)...)
		out.notice("%s draws %d cards and is skipped!", victim.DisplayName, n)
		return 2
	}
	return 1
}

func (e *Engine) handleRoundWin(gs *GameState, winner *Player, out *Outcome) {
	winner.Stats.RoundsWon++
	gs.TournamentWins[winner.ID]++
	out.RoundWinner = winner.ID
	out.notice("🎉 %s wins the round!", winner.DisplayName)

	if gs.TournamentWins[winner.ID] >= gs.Settings.target() {
		gs.Phase = PhaseFinished
		out.TournamentWinner = winner.ID
		out.notice("🏆 %s wins the tournament!", winner.DisplayName)
		return
	}
	e.startRound(gs)
	out.notice("New round started!")
}

// startRound deals a new round. Tournament wins and stats carry over.
func (e *Engine) startRound(gs *GameState) {
	deck := e.shuffle(BuildDeck())
	for _, p := range gs.Players {
		p.Hand, deck = Deal(deck, HandSize)
		p.SaidUno = false
	}
	gs.DrawPile = deck
	gs.DiscardPile = nil
	gs.CurrentIndex = 0
	gs.Direction = 1
	gs.Round++
	gs.CurrentCard = flipStartCard(gs)
}

// flipStartCard turns over the first non-wild card. Wilds go under the pile.
func flipStartCard(gs *GameState) Card {
	for i := 0; i < len(gs.DrawPile); i++ {
		top := gs.DrawPile[len(gs.DrawPile)-1]
		gs.DrawPile = gs.DrawPile[:len(gs.DrawPile)-1]
		if !top.IsWild() {
			return top
		}
		gs.DrawPile = append([]Card{top}, gs.DrawPile...)
	}
	if len(gs.DrawPile) == 0 {
		return Card{}
	}
	// Only wilds left: take one anyway and give it a colour.
	var top Card
	top, gs.DrawPile = gs.DrawPile[len(gs.DrawPile)-1], gs.DrawPile[:len(gs.DrawPile)-1]
	return top.Resolved(Red)
}

// drawCards takes up to n cards, reshuffling the discard pile into the draw
// pile when it runs out. The live current card is never reshuffled.
func (e *Engine) drawCards(gs *GameState, n int, out *Outcome) []Card {
	drawn := make([]Card, 0, n)
	for len(drawn) < n {
		if len(gs.DrawPile) == 0 {
			if len(gs.DiscardPile) == 0 {
				break
			}
			gs.DrawPile = e.shuffle(gs.DiscardPile)
			gs.DiscardPile = nil
			out.notice("Reshuffling the discard pile.")
		}
		var hand []Card
		hand, gs.DrawPile = Deal(gs.DrawPile, 1)
		drawn = append(drawn, hand...)
	}
	return drawn
}

func (e *Engine) shuffle(deck []Card) []Card {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return Shuffle(deck, e.rng)
}

func (gs *GameState) advance(steps int) {
	for i := 0; i < steps; i++ {
		gs.CurrentIndex = gs.NextIndex(gs.CurrentIndex)
	}
}

func removeAt(hand []Card, idx int) []Card {
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	return append(out, hand[idx+1:]...)
}
