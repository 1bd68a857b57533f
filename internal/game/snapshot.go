package game

// PlayerView is a seat as seen by one viewer. Hand is set only for the
// viewer's own seat.
type PlayerView struct {
	ID             string      `json:"id"`
	DisplayName    string      `json:"displayName"`
	HandSize       int         `json:"handSize"`
	Hand           []Card      `json:"hand,omitempty"`
	IsAI           bool        `json:"isAI"`
	Personality    string      `json:"aiPersonality,omitempty"`
	SaidUno        bool        `json:"saidUno"`
	Connected      bool        `json:"isConnected"`
	Stats          PlayerStats `json:"stats"`
	TournamentWins int         `json:"tournamentWins"`
}

// Snapshot is the observable game state sent to clients.
type Snapshot struct {
	RoomID          string         `json:"id"`
	Players         []PlayerView   `json:"players"`
	CurrentPlayer   int            `json:"currentPlayer"`
	CurrentPlayerID string         `json:"currentPlayerId"`
	Direction       int            `json:"direction"`
	CurrentCard     Card           `json:"currentCard"`
	DrawPileCount   int            `json:"deckCount"`
	DiscardCount    int            `json:"discardCount"`
	Phase           Phase          `json:"gamePhase"`
	TournamentWins  map[string]int `json:"tournamentWins"`
	Settings        Settings       `json:"settings"`
	Round           int            `json:"round"`
	Version         int64          `json:"version"`
}

// SnapshotFor builds the view of viewerID. An unknown or empty viewer gets
// the spectator view with no hands revealed.
func (gs *GameState) SnapshotFor(viewerID string) Snapshot {
	s := Snapshot{
		RoomID:         gs.RoomID,
		Players:        make([]PlayerView, 0, len(gs.Players)),
		CurrentPlayer:  gs.CurrentIndex,
		Direction:      gs.Direction,
		CurrentCard:    gs.CurrentCard,
		DrawPileCount:  len(gs.DrawPile),
		DiscardCount:   len(gs.DiscardPile),
		Phase:          gs.Phase,
		TournamentWins: make(map[string]int, len(gs.TournamentWins)),
		Settings:       gs.Settings,
		Round:          gs.Round,
		Version:        gs.Version,
	}
	if cur := gs.CurrentPlayer(); cur != nil {
		s.CurrentPlayerID = cur.ID
	}
	for k, v := range gs.TournamentWins {
		s.TournamentWins[k] = v
	}
	for _, p := range gs.Players {
		v := PlayerView{
			ID:             p.ID,
			DisplayName:    p.DisplayName,
			HandSize:       len(p.Hand),
			IsAI:           p.IsAI,
			Personality:    p.Personality,
			SaidUno:        p.SaidUno,
			Connected:      p.Connected,
			Stats:          p.Stats,
			TournamentWins: gs.TournamentWins[p.ID],
		}
		if viewerID != "" && p.ID == viewerID {
			v.Hand = append([]Card{}, p.Hand...)
		}
		s.Players = append(s.Players, v)
	}
	return s
}
