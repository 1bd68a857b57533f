package game

// Phase is the lifecycle stage of a room's game.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Settings configures a tournament. Room settings override DefaultSettings.
type Settings struct {
	MaxPlayers         int    `json:"maxPlayers"`
	TournamentMode     bool   `json:"tournamentMode"`
	TournamentTarget   int    `json:"tournamentTarget"`
	AIDifficulty       string `json:"aiDifficulty"`
	EnableChat         bool   `json:"enableChat"`
	EnableAchievements bool   `json:"enableAchievements"`
}

// DefaultSettings returns the settings used when a room does not override them.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:         4,
		TournamentMode:     true,
		TournamentTarget:   6,
		AIDifficulty:       "medium",
		EnableChat:         true,
		EnableAchievements: true,
	}
}

// target is the number of round wins that ends the game.
func (s Settings) target() int {
	if !s.TournamentMode || s.TournamentTarget < 1 {
		return 1
	}
	return s.TournamentTarget
}

// PlayerStats are per-player counters kept for the lifetime of a game.
type PlayerStats struct {
	CardsPlayed     int `json:"cardsPlayed"`
	UnoCalls        int `json:"unoCalls"`
	WildCardsPlayed int `json:"wildCardsPlayed"`
	RoundsWon       int `json:"roundsWon"`
}

// Player is a seat in a game. Only the Engine mutates players.
type Player struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	Hand        []Card      `json:"hand"`
	IsAI        bool        `json:"isAI"`
	Personality string      `json:"aiPersonality,omitempty"`
	SaidUno     bool        `json:"saidUno"`
	Connected   bool        `json:"isConnected"`
	Stats       PlayerStats `json:"stats"`
}

// GameState is the authoritative state of one room's game.
type GameState struct {
	RoomID         string         `json:"id"`
	Players        []*Player      `json:"players"`
	CurrentIndex   int            `json:"currentPlayer"`
	Direction      int            `json:"direction"`
	DrawPile       []Card         `json:"deck"`
	DiscardPile    []Card         `json:"discardPile"`
	CurrentCard    Card           `json:"currentCard"`
	Phase          Phase          `json:"gamePhase"`
	TournamentWins map[string]int `json:"tournamentWins"`
	Settings       Settings       `json:"settings"`
	Round          int            `json:"round"`
	// Version increases with every committed mutation.
	Version int64 `json:"version"`
}

// Player returns the seat with the given id.
func (gs *GameState) Player(id string) (*Player, bool) {
	for _, p := range gs.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CurrentPlayer returns the player whose turn it is.
func (gs *GameState) CurrentPlayer() *Player {
	if len(gs.Players) == 0 {
		return nil
	}
	return gs.Players[gs.CurrentIndex]
}

// NextIndex returns the seat after from in the current direction.
func (gs *GameState) NextIndex(from int) int {
	n := len(gs.Players)
	return ((from+gs.Direction)%n + n) % n
}

// NextPlayer returns the player who would act after the current one.
func (gs *GameState) NextPlayer() *Player {
	if len(gs.Players) == 0 {
		return nil
	}
	return gs.Players[gs.NextIndex(gs.CurrentIndex)]
}

// CardCount counts every card in the game, the live current card included.
// It equals DeckSize for any consistent state.
func (gs *GameState) CardCount() int {
	n := len(gs.DrawPile) + len(gs.DiscardPile) + 1
	for _, p := range gs.Players {
		n += len(p.Hand)
	}
	return n
}

// Clone returns a deep copy safe to hand to another goroutine.
func (gs *GameState) Clone() *GameState {
	out := *gs
	out.Players = make([]*Player, len(gs.Players))
	for i, p := range gs.Players {
		cp := *p
		cp.Hand = append([]Card(nil), p.Hand...)
		out.Players[i] = &cp
	}
	out.DrawPile = append([]Card(nil), gs.DrawPile...)
	out.DiscardPile = append([]Card(nil), gs.DiscardPile...)
	out.TournamentWins = make(map[string]int, len(gs.TournamentWins))
	for k, v := range gs.TournamentWins {
		out.TournamentWins[k] = v
	}
	return &out
}

func (p *Player) cardIndex(id string) int {
	for i, c := range p.Hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}
