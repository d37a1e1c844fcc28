package domain

import "errors"

var (
	ErrInvalidCard    = errors.New("invalid card")
	ErrPlayerCount    = errors.New("player count out of range")
	ErrNotEnoughCards = errors.New("not enough cards to deal")
)

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ContainsAll reports whether every card in cards is present in zone,
// counting duplicates.
func ContainsAll(zone []Card, cards []Card) bool {
	available := make(map[Card]int, len(zone))
	for _, c := range zone {
		available[c]++
	}
	for _, c := range cards {
		if available[c] == 0 {
			return false
		}
		available[c]--
	}
	return true
}

// IndexOf returns the position of card in cards, or -1.
func IndexOf(cards []Card, card Card) int {
	for i, c := range cards {
		if c == card {
			return i
		}
	}
	return -1
}

// LowestCard returns the index of the first lowest-valued card, or -1 for an empty slice.
func LowestCard(cards []Card) int {
	best := -1
	for i, c := range cards {
		if best == -1 || c.Value() < cards[best].Value() {
			best = i
		}
	}
	return best
}

// CountPlayersWithCards returns the number of players that have not finished.
func CountPlayersWithCards(state *GameState) int {
	count := 0
	for _, player := range state.Players {
		if !player.IsFinished {
			count++
		}
	}
	return count
}
