package ai

import (
	"math/rand"
	"sync"
	"time"

	"tinyuno/internal/game"
)

// ActionKind names what an AI decided to do.
type ActionKind string

const (
	ActionPlay ActionKind = "play"
	ActionDraw ActionKind = "draw"
	ActionUno  ActionKind = "uno"
)

// Action is one AI decision. Play and DeclareUno are set for ActionPlay.
type Action struct {
	Kind       ActionKind
	Play       game.Play
	DeclareUno bool
}

// Policy picks actions for AI seats. The only source of nondeterminism is
// the injected rng, so a fixed seed and state always give the same action.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy returns a Policy drawing from rng, or a time-seeded source if nil.
func NewPolicy(rng *rand.Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{rng: rng}
}

// Decide chooses the next action of playerID. gs is only read.
func (p *Policy) Decide(gs *game.GameState, playerID string) Action {
	me, ok := gs.Player(playerID)
	if !ok {
		return Action{Kind: ActionDraw}
	}
	pers, _ := Lookup(me.Personality)

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(me.Hand) == 1 && !me.SaidUno && p.rng.Float64() < pers.UnoCallTiming {
		return Action{Kind: ActionUno}
	}

	legal := legalCards(me.Hand, gs.CurrentCard)
	if len(legal) == 0 {
		return Action{Kind: ActionDraw}
	}

	var card game.Card
	switch pers.Archetype {
	case Aggressive:
		card = p.aggressive(pers, legal)
	case Defensive:
		card = p.defensive(legal)
	case Strategic:
		card = p.strategic(gs, me, legal)
	default:
		card = p.pick(legal)
	}
	if !contains(legal, card) {
		card = p.pick(legal)
	}

	var color game.Color
	if card.IsWild() {
		color = p.wildColor(pers, me.Hand)
	}
	declare := len(me.Hand) == 2 && !me.SaidUno && p.rng.Float64() < pers.UnoCallTiming

	return Action{
		Kind:       ActionPlay,
		Play:       game.NewPlay(card.ID, color),
		DeclareUno: declare,
	}
}

// Draft picks n personalities at random, without repeats until every
// personality has been used once.
func (p *Policy) Draft(n int) []Personality {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Personality, 0, n)
	var pool []Personality
	for len(out) < n {
		if len(pool) == 0 {
			pool = Personalities()
			p.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		}
		out = append(out, pool[0])
		pool = pool[1:]
	}
	return out
}

func (p *Policy) aggressive(pers Personality, legal []game.Card) game.Card {
	if p.rng.Float64() < pers.RiskTolerance {
		if d := filter(legal, game.Card.IsDisruptive); len(d) > 0 {
			return p.pick(d)
		}
	}
	if p.rng.Float64() < pers.WildCardUsage {
		for _, c := range legal {
			if c.Kind == game.KindWild {
				return c
			}
		}
	}
	return p.pick(legal)
}

func (p *Policy) defensive(legal []game.Card) game.Card {
	if n := filter(legal, isNumber); len(n) > 0 {
		return p.pick(n)
	}
	if n := filter(legal, notWild); len(n) > 0 {
		return p.pick(n)
	}
	return p.pick(legal)
}

func (p *Policy) strategic(gs *game.GameState, me *game.Player, legal []game.Card) game.Card {
	if next := gs.NextPlayer(); next != nil && next.ID != me.ID && len(next.Hand) <= 2 {
		if d := filter(legal, game.Card.IsDisruptive); len(d) > 0 {
			return p.pick(d)
		}
	}
	dominant := mostHeld(me.Hand)
	matching := filter(legal, func(c game.Card) bool {
		return !c.IsWild() && c.Color == dominant
	})
	if len(matching) > 0 {
		return p.pick(matching)
	}
	return p.pick(legal)
}

func (p *Policy) wildColor(pers Personality, hand []game.Card) game.Color {
	if pers.Archetype == Strategic {
		return mostHeld(hand)
	}
	return game.Colors[p.rng.Intn(len(game.Colors))]
}

func (p *Policy) pick(cards []game.Card) game.Card {
	return cards[p.rng.Intn(len(cards))]
}

// mostHeld returns the colour with the most cards in hand. Ties go to the
// earlier colour in game.Colors.
func mostHeld(hand []game.Card) game.Color {
	counts := make(map[game.Color]int, len(game.Colors))
	for _, c := range hand {
		if !c.IsWild() {
			counts[c.Color]++
		}
	}
	best := game.Colors[0]
	for _, c := range game.Colors[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func legalCards(hand []game.Card, current game.Card) []game.Card {
	return filter(hand, func(c game.Card) bool { return c.CanPlayOn(current) })
}

func filter(cards []game.Card, keep func(game.Card) bool) []game.Card {
	var out []game.Card
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func contains(cards []game.Card, card game.Card) bool {
	for _, c := range cards {
		if c.ID == card.ID {
			return true
		}
	}
	return false
}

func isNumber(c game.Card) bool { return c.Kind == game.KindNumber }
func notWild(c game.Card) bool  { return !c.IsWild() }
