package game

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeckComposition(t *testing.T) {
	deck := BuildDeck()
	require.Len(t, deck, DeckSize)

	ids := make(map[string]struct{}, len(deck))
	kinds := make(map[Kind]int)
	zeros := 0
	for _, c := range deck {
		_, dup := ids[c.ID]
		require.False(t, dup, "duplicate card id %s", c.ID)
		ids[c.ID] = struct{}{}
		kinds[c.Kind]++
		if c.Value == "0" {
			zeros++
		}
		if c.IsWild() {
			assert.Equal(t, Wild, c.Color, c.ID)
		} else {
			assert.True(t, c.Color.Valid(), c.ID)
		}
	}

	assert.Equal(t, 76, kinds[KindNumber])
	assert.Equal(t, 8, kinds[KindSkip])
	assert.Equal(t, 8, kinds[KindReverse])
	assert.Equal(t, 8, kinds[KindDraw2])
	assert.Equal(t, 4, kinds[KindWild])
	assert.Equal(t, 4, kinds[KindWild4])
	assert.Equal(t, 4, zeros)
}

func TestShuffleKeepsCards(t *testing.T) {
	deck := Shuffle(BuildDeck(), rand.New(rand.NewSource(7)))
	require.Len(t, deck, DeckSize)
	assert.ElementsMatch(t, BuildDeck(), deck)
}

func TestShuffleIsUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := BuildDeck()[:4]
	const rounds = 24000

	counts := make(map[string]int)
	for i := 0; i < rounds; i++ {
		d := append([]Card(nil), base...)
		Shuffle(d, rng)
		key := make([]string, len(d))
		for j, c := range d {
			key[j] = c.ID
		}
		counts[strings.Join(key, ",")]++
	}

	// 4! orderings, ~1000 each.
	require.Len(t, counts, 24)
	for perm, n := range counts {
		assert.InDelta(t, rounds/24, n, 200, "permutation %s", perm)
	}
}

func TestDealTakesFromTop(t *testing.T) {
	deck := BuildDeck()
	top := append([]Card(nil), deck[len(deck)-HandSize:]...)

	hand, rest := Deal(deck, HandSize)
	assert.Equal(t, top, hand)
	assert.Len(t, rest, DeckSize-HandSize)
}

func TestDealShortDeck(t *testing.T) {
	deck := BuildDeck()[:3]
	hand, rest := Deal(deck, 5)
	assert.Len(t, hand, 3)
	assert.Empty(t, rest)
}

func TestCanPlayOn(t *testing.T) {
	red5 := Card{ID: "red-5-1", Color: Red, Value: "5", Kind: KindNumber}
	cases := []struct {
		name string
		card Card
		want bool
	}{
		{"same color", Card{Color: Red, Value: "9", Kind: KindNumber}, true},
		{"same value", Card{Color: Blue, Value: "5", Kind: KindNumber}, true},
		{"no match", Card{Color: Blue, Value: "7", Kind: KindNumber}, false},
		{"action no match", Card{Color: Green, Value: "skip", Kind: KindSkip}, false},
		{"wild", Card{Color: Wild, Value: "wild", Kind: KindWild}, true},
		{"wild4", Card{Color: Wild, Value: "wild4", Kind: KindWild4}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.card.CanPlayOn(red5))
		})
	}
}

func TestResolvedWildMatchesChosenColor(t *testing.T) {
	w := Card{ID: "wild-1", Color: Wild, Value: "wild", Kind: KindWild}
	played := w.Resolved(Green)
	assert.Equal(t, Green, played.Color)
	assert.Equal(t, Wild, played.Canonical().Color)
	assert.True(t, Card{Color: Green, Value: "3", Kind: KindNumber}.CanPlayOn(played))
	assert.False(t, Card{Color: Red, Value: "3", Kind: KindNumber}.CanPlayOn(played))

	red := Card{ID: "red-1-1", Color: Red, Value: "1", Kind: KindNumber}
	assert.Equal(t, red, red.Resolved(Blue))
}

func TestNewPlay(t *testing.T) {
	assert.Equal(t, Colored{CardID: "red-1-1"}, NewPlay("red-1-1", ""))
	assert.Equal(t, WildWithChoice{CardID: "wild-1", Color: Blue}, NewPlay("wild-1", Blue))
}
