package brain

import (
	"shithead/internal/domain"
)

// OpponentProfile tracks what the bot has seen of a specific player.
type OpponentProfile struct {
	PlayerID int
	// KnownHand holds cards the player picked up from the pile and has not played since.
	KnownHand []domain.Card
	// FaceUp mirrors the player's visible face-up zone.
	FaceUp     []domain.Card
	PilesTaken int
	CardsShed  int
}

// NewOpponentProfile initializes a profile for a specific player.
func NewOpponentProfile(playerID int) *OpponentProfile {
	return &OpponentProfile{PlayerID: playerID}
}

// RecordPlay logs cards played by this opponent.
func (p *OpponentProfile) RecordPlay(cards []domain.Card) {
	p.KnownHand = domain.RemoveCards(p.KnownHand, cards)
	p.CardsShed += len(cards)
}

// RecordPickup logs the pile cards this opponent was made to take.
func (p *OpponentProfile) RecordPickup(cards []domain.Card) {
	p.KnownHand = append(p.KnownHand, cards...)
	p.PilesTaken++
}

// CanBeat reports whether any card known to be in the opponent's hand could
// be played on a pile showing top. Without evidence it returns false.
func (p *OpponentProfile) CanBeat(top domain.Rank) bool {
	for _, c := range p.KnownHand {
		if domain.IsValidPlay(c, top) {
			return true
		}
	}
	return false
}
