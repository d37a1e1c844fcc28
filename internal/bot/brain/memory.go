package brain

import (
	"shithead/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown  CardStatus = iota // We don't know where it is
	StatusMine                       // In the bot's hand or face-up zone
	StatusPlayed                     // On the pile or burned
	StatusOpponent                   // Known to sit with an opponent
)

const deckSize = 54

// deckIndex maps every card of the 54-card deck to a stable slot.
var deckIndex = func() map[domain.Card]int {
	idx := make(map[domain.Card]int, deckSize)
	for i, c := range domain.NewDeck() {
		idx[c] = i
	}
	return idx
}()

// GameMemory stores the bot's private "view" of the game.
type GameMemory struct {
	// Self is the player id the memory belongs to.
	Self int
	// DeckStatus tracks all 54 cards by deck index.
	DeckStatus [deckSize]CardStatus
	// Opponents tracks known cards by player id.
	Opponents map[int]*OpponentProfile
	// Table mirrors the current play pile.
	Table []domain.Card
}

// NewMemory initializes a fresh memory state for player self.
func NewMemory(self int) *GameMemory {
	return &GameMemory{
		Self:      self,
		Opponents: make(map[int]*OpponentProfile),
	}
}

// Reset clears the memory for a new game.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
	m.Opponents = make(map[int]*OpponentProfile)
	m.Table = nil
}

// MarkMine records cards held by the bot.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	m.mark(cards, StatusMine)
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	m.mark(cards, StatusPlayed)
}

// MarkOpponent records cards known to be with opponents.
func (m *GameMemory) MarkOpponent(cards []domain.Card) {
	m.mark(cards, StatusOpponent)
}

func (m *GameMemory) mark(cards []domain.Card, status CardStatus) {
	for _, c := range cards {
		if i, ok := deckIndex[c]; ok {
			m.DeckStatus[i] = status
		}
	}
}

// Status returns what the bot knows about a card. Hidden placeholders are unknown.
func (m *GameMemory) Status(c domain.Card) CardStatus {
	i, ok := deckIndex[c]
	if !ok {
		return StatusUnknown
	}
	return m.DeckStatus[i]
}

// Observe synchronizes memory with what is visible in state: the bot's own
// hand and face-up cards, every face-up card on the table, and the pile.
// Blind cards stay unknown, including the bot's own.
func (m *GameMemory) Observe(state *domain.GameState) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	for _, p := range state.Players {
		if p.ID == m.Self {
			m.MarkMine(p.Hand)
			m.MarkMine(p.FaceUp)
			continue
		}
		m.MarkOpponent(p.FaceUp)
		profile := m.profile(p.ID)
		profile.FaceUp = append(profile.FaceUp[:0], p.FaceUp...)
	}
	m.Table = append(m.Table[:0], state.PlayPile...)
	m.MarkPlayed(m.Table)
}

// RecordPlay logs that a player put cards on the pile.
func (m *GameMemory) RecordPlay(playerID int, cards []domain.Card) {
	if len(cards) == 0 {
		return
	}
	if playerID != m.Self {
		m.profile(playerID).RecordPlay(cards)
	}
	m.Table = append(m.Table, cards...)
	m.MarkPlayed(cards)
}

// RecordBurn notes that the pile left the game.
func (m *GameMemory) RecordBurn() {
	m.Table = nil
}

// RecordPickup notes that a player took every card on the table into hand.
func (m *GameMemory) RecordPickup(playerID int) {
	if playerID == m.Self {
		m.MarkMine(m.Table)
	} else {
		m.MarkOpponent(m.Table)
		m.profile(playerID).RecordPickup(m.Table)
	}
	m.Table = nil
}

// Unaccounted returns every card the bot cannot rule out of an opponent's reach.
func (m *GameMemory) Unaccounted() []domain.Card {
	var out []domain.Card
	for _, c := range domain.NewDeck() {
		switch m.Status(c) {
		case StatusUnknown, StatusOpponent:
			out = append(out, c)
		}
	}
	return out
}

// Profile returns the profile of an opponent, if one has been seen.
func (m *GameMemory) Profile(playerID int) (*OpponentProfile, bool) {
	p, ok := m.Opponents[playerID]
	return p, ok
}

func (m *GameMemory) profile(playerID int) *OpponentProfile {
	p, ok := m.Opponents[playerID]
	if !ok {
		p = NewOpponentProfile(playerID)
		m.Opponents[playerID] = p
	}
	return p
}
