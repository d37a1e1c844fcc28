package domain

const (
	// MinPlayers is the smallest table a game can be dealt for.
	MinPlayers = 2
	// MaxPlayers is bounded by the 54-card deck and nine cards per player.
	MaxPlayers = 6

	// ZoneSize is the number of cards dealt into each zone.
	ZoneSize = 3
	// CardsPerPlayer is the number of cards dealt to each player.
	CardsPerPlayer = 3 * ZoneSize
	// HandSize is the hand size players draw back up to while the deck lasts.
	HandSize = 3

	// BurnCount is the number of same-value cards on top of the pile that burns it.
	BurnCount = 4

	// NoPlayer marks an unset player reference (winner, loser, joker player).
	NoPlayer = -1
)
