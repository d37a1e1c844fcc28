package bot

import (
	"context"
	"fmt"
	"math/rand"

	"shithead/internal/app"
	"shithead/internal/domain"
)

// Agent represents an autonomous bot player seated in a game.
type Agent struct {
	PlayerID   int
	Identity   BotIdentity
	Difficulty Difficulty
	Strategy   Brain
}

// NewAgent seats a bot of the given difficulty as playerID.
func NewAgent(playerID int, level Difficulty, rng *rand.Rand) (*Agent, error) {
	strategy, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{
		PlayerID:   playerID,
		Identity:   NewIdentity(playerID, level),
		Difficulty: level,
		Strategy:   strategy,
	}, nil
}

// GetMove asks the agent to calculate its move based on the current game state.
func (a *Agent) GetMove(ctx context.Context, state *domain.GameState) (Move, error) {
	if err := ctx.Err(); err != nil {
		return domain.TakePileMove(), err
	}
	if cb, ok := a.Strategy.(ContextBrain); ok {
		return cb.CalculateMoveContext(ctx, state, a.PlayerID)
	}
	return a.Strategy.CalculateMove(state, a.PlayerID)
}

// SelectJokerTarget picks the opponent that takes the pile after this agent's Joker.
func (a *Agent) SelectJokerTarget(state *domain.GameState) (int, error) {
	return a.Strategy.SelectJokerTarget(state, a.PlayerID)
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event app.Event) {
	a.Strategy.OnEvent(event)
}

// Act resolves this agent's pending decision in state through svc: a Joker
// target when one is owed, otherwise a move. The agent only sees its own
// player view.
func (a *Agent) Act(ctx context.Context, svc *app.Service, state *domain.GameState) ([]app.Event, error) {
	view := svc.PlayerView(state, a.PlayerID)
	if state.PendingJokerTarget && state.JokerPlayerID == a.PlayerID {
		target, err := a.SelectJokerTarget(view)
		if err != nil {
			return nil, fmt.Errorf("agent %d joker target: %w", a.PlayerID, err)
		}
		return svc.SelectJokerTarget(state, a.PlayerID, target)
	}

	move, err := a.GetMove(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("agent %d move: %w", a.PlayerID, err)
	}
	if move.Type == domain.MoveTakePile {
		return svc.TakePile(state, a.PlayerID)
	}
	return svc.PlayCards(state, a.PlayerID, move.Cards, move.From)
}
