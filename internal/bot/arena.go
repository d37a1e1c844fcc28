package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shithead/internal/app"
	"shithead/internal/domain"
)

// ErrTurnLimit is returned when a game runs past the arena's turn budget.
var ErrTurnLimit = errors.New("turn limit reached")

// Arena plays a complete game between seated agents. Agent i plays as
// player i and only ever sees its own player view.
type Arena struct {
	Service  *app.Service
	Agents   []*Agent
	MaxTurns int
	Logger   *zap.Logger
}

// ArenaResult summarizes a finished (or abandoned) arena game.
type ArenaResult struct {
	State  *domain.GameState
	Turns  int
	Burned int
	Events int
}

// Play deals a new game, skips swapping, and drives every agent until the
// game ends, ctx is cancelled, or MaxTurns actions have been applied.
func (a *Arena) Play(ctx context.Context) (ArenaResult, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var res ArenaResult
	state, err := a.Service.NewGame(len(a.Agents))
	if err != nil {
		return res, err
	}
	res.State = state

	events, err := a.Service.StartMainGame(state)
	if err != nil {
		return res, err
	}
	a.dispatch(&res, events)

	for state.Phase == domain.PhaseMainPlay {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if a.MaxTurns > 0 && res.Turns >= a.MaxTurns {
			logger.Warn("arena game abandoned",
				zap.String("game_id", state.ID),
				zap.Int("turns", res.Turns),
			)
			return res, ErrTurnLimit
		}

		events, err := a.step(ctx, state)
		if err != nil {
			return res, err
		}
		res.Turns++
		a.dispatch(&res, events)
	}

	logger.Info("arena game finished",
		zap.String("game_id", state.ID),
		zap.Int("turns", res.Turns),
		zap.Int("winner", state.Winner),
		zap.Int("loser", state.Loser),
	)
	return res, nil
}

func (a *Arena) step(ctx context.Context, state *domain.GameState) ([]app.Event, error) {
	acting := state.CurrentPlayer
	if state.PendingJokerTarget {
		acting = state.JokerPlayerID
	}
	agent, err := a.agent(acting)
	if err != nil {
		return nil, err
	}
	return agent.Act(ctx, a.Service, state)
}

func (a *Arena) agent(playerID int) (*Agent, error) {
	if playerID < 0 || playerID >= len(a.Agents) {
		return nil, fmt.Errorf("no agent seated as player %d", playerID)
	}
	return a.Agents[playerID], nil
}

// dispatch forwards events to every agent allowed to see them.
func (a *Arena) dispatch(res *ArenaResult, events []app.Event) {
	for _, ev := range events {
		res.Events++
		if p, ok := ev.Payload.(app.PileBurnedPayload); ok {
			res.Burned += p.Burned
		}
		for _, agent := range a.Agents {
			if ev.IsPrivate() && !containsInt(ev.Recipients, agent.PlayerID) {
				continue
			}
			agent.OnGameEvent(ev)
		}
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
