package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// NewDeck returns the ordered 54-card deck: 52 suited cards plus two Jokers.
func NewDeck() []Card {
	deck := make([]Card, 0, 54)
	for _, s := range StandardSuits {
		for _, r := range StandardRanks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return append(deck, Card{Rank: RankJoker, Suit: SuitRed}, Card{Rank: RankJoker, Suit: SuitBlack})
}

// ShuffleDeck returns a shuffled copy of the given deck. A nil rng uses the
// package-level source.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}

// NewShuffledDeck returns a uniformly shuffled 54-card deck.
func NewShuffledDeck(rng *rand.Rand) []Card {
	return ShuffleDeck(NewDeck(), rng)
}

// SortHand orders cards by ascending value, keeping equal values in place.
func SortHand(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Value() < cards[j].Value()
	})
}

// Deal deals three blind, three face-up and three hand cards to each player
// in order and returns the players plus the remaining draw pile.
func Deal(deck []Card, numPlayers int) ([]*Player, []Card, error) {
	if numPlayers < MinPlayers || numPlayers > MaxPlayers {
		return nil, nil, fmt.Errorf("%w: %d", ErrPlayerCount, numPlayers)
	}
	if numPlayers*CardsPerPlayer > len(deck) {
		return nil, nil, fmt.Errorf("%w: %d players need %d cards, deck has %d",
			ErrNotEnoughCards, numPlayers, numPlayers*CardsPerPlayer, len(deck))
	}

	players := make([]*Player, numPlayers)
	idx := 0
	take := func() []Card {
		out := append([]Card{}, deck[idx:idx+ZoneSize]...)
		idx += ZoneSize
		return out
	}
	for id := range players {
		p := &Player{ID: id}
		p.Blind = take()
		p.FaceUp = take()
		p.Hand = take()
		SortHand(p.Hand)
		SortHand(p.FaceUp)
		players[id] = p
	}

	remaining := append([]Card{}, deck[idx:]...)
	return players, remaining, nil
}
