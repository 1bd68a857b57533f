package ai

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyuno/internal/game"
)

// seqSource replays a fixed sequence of Int63 values.
type seqSource struct {
	vals []int64
	i    int
}

func (s *seqSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *seqSource) Seed(int64) {}

const (
	// low makes every probability check pass and every pick take index 0.
	low int64 = 0
	// high makes every probability check below 0.99 fail.
	high int64 = math.MaxInt64 / 100 * 99
)

func policyWith(vals ...int64) *Policy {
	return NewPolicy(rand.New(&seqSource{vals: vals}))
}

var deck = func() map[string]game.Card {
	m := make(map[string]game.Card)
	for _, c := range game.BuildDeck() {
		m[c.ID] = c
	}
	return m
}()

func cards(ids ...string) []game.Card {
	out := make([]game.Card, len(ids))
	for i, id := range ids {
		c, ok := deck[id]
		if !ok {
			panic("unknown card " + id)
		}
		out[i] = c
	}
	return out
}

// table seats the AI under test first, followed by a human holding next.
func table(personality, current string, hand, next []string) *game.GameState {
	return &game.GameState{
		RoomID: "r",
		Players: []*game.Player{
			{ID: "bot", DisplayName: "Bot (AI)", IsAI: true, Personality: personality, Hand: cards(hand...)},
			{ID: "human", DisplayName: "Human", Hand: cards(next...)},
		},
		Direction:   1,
		CurrentCard: deck[current],
		Phase:       game.PhasePlaying,
	}
}

var sevenCards = []string{"blue-1-1", "blue-2-1", "blue-3-1", "blue-4-1", "blue-5-1", "blue-6-1", "blue-7-1"}

func playedID(t *testing.T, a Action) string {
	t.Helper()
	require.Equal(t, ActionPlay, a.Kind)
	require.NotNil(t, a.Play)
	switch pl := a.Play.(type) {
	case game.Colored:
		return pl.CardID
	case game.WildWithChoice:
		return pl.CardID
	}
	t.Fatalf("unexpected play %T", a.Play)
	return ""
}

func TestPersonalityTable(t *testing.T) {
	all := Personalities()
	require.Len(t, all, 6)

	krabs, ok := Lookup("krabs")
	require.True(t, ok)
	assert.Equal(t, Aggressive, krabs.Archetype)
	assert.Equal(t, "Mr. Krabs (AI)", krabs.DisplayName())

	fallback, ok := Lookup("nobody")
	assert.False(t, ok)
	assert.Equal(t, "spongebob", fallback.ID)
}

func TestDrawWhenNothingIsLegal(t *testing.T) {
	gs := table("sandy", "red-5-1", []string{"blue-7-1", "green-2-1"}, sevenCards)
	a := policyWith(low).Decide(gs, "bot")
	assert.Equal(t, ActionDraw, a.Kind)
}

func TestUnknownPlayerDraws(t *testing.T) {
	gs := table("sandy", "red-5-1", []string{"red-7-1"}, sevenCards)
	assert.Equal(t, ActionDraw, policyWith(low).Decide(gs, "ghost").Kind)
}

func TestUnoCall(t *testing.T) {
	gs := table("squidward", "red-5-1", []string{"red-7-1"}, sevenCards)
	assert.Equal(t, ActionUno, policyWith(low).Decide(gs, "bot").Kind)

	// Missing the roll means playing instead.
	assert.Equal(t, ActionPlay, policyWith(high).Decide(gs, "bot").Kind)

	gs.Players[0].SaidUno = true
	assert.Equal(t, ActionPlay, policyWith(low).Decide(gs, "bot").Kind)
}

func TestDeclareUnoWithSecondToLastCard(t *testing.T) {
	gs := table("squidward", "red-5-1", []string{"red-7-1", "blue-9-1"}, sevenCards)
	a := policyWith(low).Decide(gs, "bot")
	assert.Equal(t, "red-7-1", playedID(t, a))
	assert.True(t, a.DeclareUno)

	a = policyWith(high).Decide(gs, "bot")
	assert.False(t, a.DeclareUno)
}

func TestAggressivePrefersDisruptive(t *testing.T) {
	gs := table("krabs", "red-5-1", []string{"red-3-1", "red-skip-1", "wild-1", "blue-1-1"}, sevenCards)
	a := policyWith(low).Decide(gs, "bot")
	assert.Equal(t, "red-skip-1", playedID(t, a))
}

func TestAggressiveFallsBackToWild(t *testing.T) {
	gs := table("krabs", "red-5-1", []string{"red-3-1", "red-skip-1", "wild-1", "blue-1-1"}, sevenCards)
	// Fail the risk roll, pass the wild roll.
	a := policyWith(high, low).Decide(gs, "bot")
	assert.Equal(t, "wild-1", playedID(t, a))
	_, isWild := a.Play.(game.WildWithChoice)
	assert.True(t, isWild)
}

func TestDefensivePrefersNumbers(t *testing.T) {
	gs := table("squidward", "red-5-1", []string{"red-skip-1", "wild4-1", "red-3-1", "blue-1-1"}, sevenCards)
	for _, src := range []int64{low, high} {
		a := policyWith(src).Decide(gs, "bot")
		assert.Equal(t, "red-3-1", playedID(t, a))
	}

	gs = table("squidward", "red-5-1", []string{"wild4-1", "red-skip-1", "blue-1-1"}, sevenCards)
	a := policyWith(high).Decide(gs, "bot")
	assert.Equal(t, "red-skip-1", playedID(t, a))
}

func TestStrategicBlocksNearlyWinningOpponent(t *testing.T) {
	gs := table("sandy", "red-5-1", []string{"red-3-1", "red-draw2-1", "blue-1-1"}, []string{"green-1-1", "green-2-1"})
	a := policyWith(high).Decide(gs, "bot")
	assert.Equal(t, "red-draw2-1", playedID(t, a))
}

func TestStrategicFollowsDominantColor(t *testing.T) {
	gs := table("plankton", "red-3-1", []string{"red-7-1", "blue-3-1", "blue-8-1", "blue-9-1"}, sevenCards)
	for _, src := range []int64{low, high} {
		a := policyWith(src).Decide(gs, "bot")
		assert.Equal(t, "blue-3-1", playedID(t, a))
	}
}

func TestStrategicWildColor(t *testing.T) {
	gs := table("sandy", "yellow-5-1", []string{"green-1-1", "wild-1", "green-2-1", "red-1-1"}, sevenCards)
	a := policyWith(high).Decide(gs, "bot")
	require.Equal(t, game.WildWithChoice{CardID: "wild-1", Color: game.Green}, a.Play)
}

func TestWildColorIsAlwaysValid(t *testing.T) {
	gs := table("spongebob", "yellow-5-1", []string{"wild4-1", "green-2-1"}, sevenCards)
	rng := rand.New(rand.NewSource(3))
	p := NewPolicy(rng)
	for i := 0; i < 50; i++ {
		a := p.Decide(gs, "bot")
		w, ok := a.Play.(game.WildWithChoice)
		require.True(t, ok)
		assert.True(t, w.Color.Valid())
	}
}

func TestDecisionsAreLegalForEveryPersonality(t *testing.T) {
	hand := []string{"red-3-1", "red-skip-1", "wild-1", "wild4-1", "blue-5-1", "green-5-1", "yellow-9-1"}
	for _, pers := range Personalities() {
		t.Run(pers.ID, func(t *testing.T) {
			p := NewPolicy(rand.New(rand.NewSource(11)))
			for i := 0; i < 100; i++ {
				gs := table(pers.ID, "red-5-1", hand, []string{"green-1-1"})
				a := p.Decide(gs, "bot")
				id := playedID(t, a)
				assert.True(t, deck[id].CanPlayOn(gs.CurrentCard), id)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	hand := []string{"red-3-1", "red-skip-1", "wild-1", "wild4-1", "blue-5-1", "green-5-1", "yellow-9-1"}
	for _, pers := range Personalities() {
		for seed := int64(0); seed < 20; seed++ {
			gs := table(pers.ID, "red-5-1", hand, sevenCards)
			a := NewPolicy(rand.New(rand.NewSource(seed))).Decide(gs, "bot")
			b := NewPolicy(rand.New(rand.NewSource(seed))).Decide(gs, "bot")
			assert.Equal(t, a, b, "%s seed %d", pers.ID, seed)
		}
	}
}

func TestDraftAvoidsRepeats(t *testing.T) {
	p := NewPolicy(rand.New(rand.NewSource(5)))

	seen := make(map[string]bool)
	for _, pers := range p.Draft(6) {
		assert.False(t, seen[pers.ID], "repeat %s", pers.ID)
		seen[pers.ID] = true
	}
	assert.Len(t, p.Draft(9), 9)
}
