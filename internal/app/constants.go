package app

import "shithead/internal/domain"

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStartGame = domain.MinPlayers

// MaxPlayersPerGame is the largest table the 54-card deck can deal for.
const MaxPlayersPerGame = domain.MaxPlayers

// StartingPileTop is the pile value of an empty or reset pile.
const StartingPileTop = domain.RankTwo
