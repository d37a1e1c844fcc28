package bot

import (
	"math/rand"

	"shithead/internal/app"
	"shithead/internal/bot/brain"
	botinternal "shithead/internal/bot/internal"
	"shithead/internal/domain"
)

// HeuristicBot scores every legal move and plays the best one. Selection
// rules may then override the choice, and an optional memory adds an
// opponent-modeling term.
type HeuristicBot struct {
	Tuning botinternal.Weights
	Rules  []SelectionRule
	// Memory is only set for bots that count cards.
	Memory *brain.GameMemory
}

// NewHeuristicBot builds the bot for a heuristic difficulty level.
func NewHeuristicBot(level Difficulty, rng *rand.Rand) *HeuristicBot {
	b := &HeuristicBot{
		Tuning: DefaultTuning,
		Rules:  []SelectionRule{&HighestScoreRule{}},
	}
	switch level {
	case DifficultyEasy:
		b.Rules = append(b.Rules, &RandomSubstitutionRule{Rng: rng, Probability: easyRandomPlay})
	case DifficultyHard, DifficultyExpert:
		b.Memory = brain.NewMemory(domain.NoPlayer)
	}
	return b
}

func (b *HeuristicBot) CalculateMove(state *domain.GameState, playerID int) (Move, error) {
	if state == nil {
		return domain.TakePileMove(), ErrNoState
	}
	if _, ok := state.Player(playerID); !ok {
		return domain.TakePileMove(), ErrNotInGame
	}

	moves := domain.ValidMoves(state, playerID)
	if len(moves) == 1 {
		return moves[0], nil
	}

	ctx := botinternal.Context{
		State:    state,
		PlayerID: playerID,
		Moves:    moves,
		Weights:  b.Tuning,
	}

	var extra func(domain.Move) float64
	if b.Memory != nil {
		b.Memory.Self = playerID
		b.Memory.Observe(state)
		extra = func(m domain.Move) float64 {
			return b.scoreOpponentModeling(state, playerID, m)
		}
	}

	scored := botinternal.BuildScoredMoves(ctx, extra)
	return scored[runPipeline(scored, b.Rules)].Move, nil
}

// scoreOpponentModeling rewards plays the next player is unlikely to answer.
func (b *HeuristicBot) scoreOpponentModeling(state *domain.GameState, playerID int, move domain.Move) float64 {
	top, ok := botinternal.ResultingPileTop(state, move)
	if !ok {
		return 0
	}
	est := brain.NewEstimator(b.Memory)
	score := b.Tuning.OpponentBlockWeight * (1 - est.BeatProbability(top))

	if next := domain.NextPlayer(state, playerID); next != playerID && est.HoldsKnownBeater(next, top) {
		score -= b.Tuning.KnownBeaterPenalty
	}
	return score
}

func (b *HeuristicBot) SelectJokerTarget(state *domain.GameState, playerID int) (int, error) {
	if state == nil {
		return domain.NoPlayer, ErrNoState
	}
	target := botinternal.JokerTarget(state, playerID)
	if target == domain.NoPlayer {
		return domain.NoPlayer, ErrNoJokerTarget
	}
	return target, nil
}

// OnEvent feeds card memory. Bots without memory ignore events.
func (b *HeuristicBot) OnEvent(event app.Event) {
	if b.Memory == nil {
		return
	}
	switch p := event.Payload.(type) {
	case app.CardsPlayedPayload:
		b.Memory.RecordPlay(p.PlayerID, p.Cards)
	case app.PileBurnedPayload:
		b.Memory.RecordBurn()
	case app.PileTakenPayload:
		b.Memory.RecordPickup(p.PlayerID)
	case app.JokerTargetSelectedPayload:
		b.Memory.RecordPickup(p.TargetID)
	case app.MainPlayStartedPayload:
		self := b.Memory.Self
		b.Memory.Reset()
		b.Memory.Self = self
	}
}
