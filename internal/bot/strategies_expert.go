package bot

import (
	"context"

	"shithead/internal/app"
	"shithead/internal/domain"
)

// Evaluator is a search-based move engine, such as a tree search or a
// playout engine, that an expert bot can delegate to.
type Evaluator interface {
	Evaluate(ctx context.Context, state *domain.GameState, playerID int) (Move, error)
}

// ExpertBot plays with an Evaluator when one is installed and otherwise
// falls back to the card-counting heuristic.
type ExpertBot struct {
	Evaluator Evaluator
	Fallback  Brain
}

func (b *ExpertBot) CalculateMove(state *domain.GameState, playerID int) (Move, error) {
	return b.CalculateMoveContext(context.Background(), state, playerID)
}

func (b *ExpertBot) CalculateMoveContext(ctx context.Context, state *domain.GameState, playerID int) (Move, error) {
	if b.Evaluator == nil {
		return b.Fallback.CalculateMove(state, playerID)
	}
	if state == nil {
		return domain.TakePileMove(), ErrNoState
	}
	return b.Evaluator.Evaluate(ctx, state.Clone(), playerID)
}

func (b *ExpertBot) SelectJokerTarget(state *domain.GameState, playerID int) (int, error) {
	return b.Fallback.SelectJokerTarget(state, playerID)
}

func (b *ExpertBot) OnEvent(event app.Event) {
	b.Fallback.OnEvent(event)
}
