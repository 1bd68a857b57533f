package ai

import "fmt"

// Archetype is the selection strategy a personality plays with.
type Archetype int

const (
	Random Archetype = iota
	Aggressive
	Defensive
	Strategic
)

func (a Archetype) String() string {
	switch a {
	case Aggressive:
		return "aggressive"
	case Defensive:
		return "defensive"
	case Strategic:
		return "strategic"
	default:
		return "random"
	}
}

// Personality is a named AI profile. Traits are probabilities in [0, 1].
type Personality struct {
	ID            string
	Name          string
	Archetype     Archetype
	RiskTolerance float64
	WildCardUsage float64
	UnoCallTiming float64
}

// DisplayName is the seat name shown for an AI player.
func (p Personality) DisplayName() string {
	return fmt.Sprintf("%s (AI)", p.Name)
}

var personalities = []Personality{
	{ID: "spongebob", Name: "SpongeBob", Archetype: Random, RiskTolerance: 0.8, WildCardUsage: 0.7, UnoCallTiming: 0.9},
	{ID: "patrick", Name: "Patrick", Archetype: Random, RiskTolerance: 0.9, WildCardUsage: 0.8, UnoCallTiming: 0.3},
	{ID: "squidward", Name: "Squidward", Archetype: Defensive, RiskTolerance: 0.2, WildCardUsage: 0.3, UnoCallTiming: 0.95},
	{ID: "krabs", Name: "Mr. Krabs", Archetype: Aggressive, RiskTolerance: 0.6, WildCardUsage: 0.5, UnoCallTiming: 0.85},
	{ID: "sandy", Name: "Sandy", Archetype: Strategic, RiskTolerance: 0.4, WildCardUsage: 0.6, UnoCallTiming: 0.9},
	{ID: "plankton", Name: "Plankton", Archetype: Strategic, RiskTolerance: 0.7, WildCardUsage: 0.9, UnoCallTiming: 0.8},
}

// Personalities returns every known personality in a fixed order.
func Personalities() []Personality {
	return append([]Personality(nil), personalities...)
}

// Lookup finds a personality by id. Unknown ids fall back to the first
// personality and report false.
func Lookup(id string) (Personality, bool) {
	for _, p := range personalities {
		if p.ID == id {
			return p, true
		}
	}
	return personalities[0], false
}
