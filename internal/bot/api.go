package bot

import (
	"context"
	"errors"

	"shithead/internal/app"
	"shithead/internal/domain"
)

// Move represents the decision made by the AI.
type Move = domain.Move

var (
	ErrNoState       = errors.New("no game state")
	ErrNotInGame     = errors.New("player is not part of this game")
	ErrNoJokerTarget = errors.New("no opponent left to target")
)

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	CalculateMove(state *domain.GameState, playerID int) (Move, error)
	SelectJokerTarget(state *domain.GameState, playerID int) (int, error)
	OnEvent(event app.Event)
}

// ContextBrain is implemented by brains whose search can be cancelled.
type ContextBrain interface {
	Brain
	CalculateMoveContext(ctx context.Context, state *domain.GameState, playerID int) (Move, error)
}
