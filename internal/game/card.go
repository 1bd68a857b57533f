package game

// Color is a card colour. Wild cards carry ColorWild until played.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	Wild   Color = "wild"
)

// Colors lists the four playable colours in a fixed order.
var Colors = []Color{Red, Blue, Green, Yellow}

// Valid reports whether c is one of the four colours a wild may resolve to.
func (c Color) Valid() bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	}
	return false
}

// Kind is the behavioural class of a card.
type Kind string

const (
	KindNumber  Kind = "number"
	KindSkip    Kind = "skip"
	KindReverse Kind = "reverse"
	KindDraw2   Kind = "draw2"
	KindWild    Kind = "wild"
	KindWild4   Kind = "wild4"
)

// Card is an immutable UNO card. Value is the face used for matching:
// "0".."9" for number cards, otherwise the kind name.
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Value string `json:"value"`
	Kind  Kind   `json:"kind"`
}

// IsWild reports whether the card lets the player choose a colour.
func (c Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWild4
}

// IsDisruptive reports whether the card skips, reverses or forces draws.
func (c Card) IsDisruptive() bool {
	switch c.Kind {
	case KindSkip, KindReverse, KindDraw2, KindWild4:
		return true
	}
	return false
}

// Resolved returns the played copy of a wild card with its colour set.
// Non-wild cards are returned unchanged.
func (c Card) Resolved(color Color) Card {
	if c.IsWild() {
		c.Color = color
	}
	return c
}

// Canonical returns the deck copy of c: wild cards go back to ColorWild.
func (c Card) Canonical() Card {
	if c.IsWild() {
		c.Color = Wild
	}
	return c
}

// CanPlayOn reports whether c is a legal play against the current card.
func (c Card) CanPlayOn(current Card) bool {
	if c.IsWild() {
		return true
	}
	return c.Color == current.Color || c.Value == current.Value
}

// Play is what a player puts on the pile: either a coloured card or a wild
// with the colour it resolves to.
type Play interface {
	cardID() string
}

// Colored plays a non-wild card.
type Colored struct {
	CardID string
}

// WildWithChoice plays a wild or wild4 and names the colour to continue with.
type WildWithChoice struct {
	CardID string
	Color  Color
}

func (p Colored) cardID() string        { return p.CardID }
func (p WildWithChoice) cardID() string { return p.CardID }

// NewPlay builds a Play from wire fields: an empty colour means Colored.
func NewPlay(cardID string, chosen Color) Play {
	if chosen == "" {
		return Colored{CardID: cardID}
	}
	return WildWithChoice{CardID: cardID, Color: chosen}
}
