package game

import (
	"fmt"
	"math/rand"
	"strconv"
)

// DeckSize is the number of cards in a full UNO deck.
const DeckSize = 108

// HandSize is the number of cards dealt to each player per round.
const HandSize = 7

// BuildDeck returns the canonical 108-card deck in a fixed order.
func BuildDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		deck = append(deck, Card{ID: fmt.Sprintf("%s-0", color), Color: color, Value: "0", Kind: KindNumber})
		for n := 1; n <= 9; n++ {
			v := strconv.Itoa(n)
			for copyN := 1; copyN <= 2; copyN++ {
				deck = append(deck, Card{ID: fmt.Sprintf("%s-%s-%d", color, v, copyN), Color: color, Value: v, Kind: KindNumber})
			}
		}
		for _, kind := range []Kind{KindSkip, KindReverse, KindDraw2} {
			for copyN := 1; copyN <= 2; copyN++ {
				deck = append(deck, Card{ID: fmt.Sprintf("%s-%s-%d", color, kind, copyN), Color: color, Value: string(kind), Kind: kind})
			}
		}
	}
	for copyN := 1; copyN <= 4; copyN++ {
		deck = append(deck, Card{ID: fmt.Sprintf("wild-%d", copyN), Color: Wild, Value: string(KindWild), Kind: KindWild})
		deck = append(deck, Card{ID: fmt.Sprintf("wild4-%d", copyN), Color: Wild, Value: string(KindWild4), Kind: KindWild4})
	}
	return deck
}

// Shuffle permutes deck in place with Fisher-Yates and returns it.
func Shuffle(deck []Card, rng *rand.Rand) []Card {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// Deal takes n cards from the top (end) of deck. It returns fewer than n
// cards when the deck runs out.
func Deal(deck []Card, n int) (hand, rest []Card) {
	if n > len(deck) {
		n = len(deck)
	}
	cut := len(deck) - n
	hand = make([]Card, n)
	copy(hand, deck[cut:])
	return hand, deck[:cut]
}
