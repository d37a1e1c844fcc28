package bot

import (
	"math/rand"

	botinternal "shithead/internal/bot/internal"
)

// SelectionContext holds the state for the move selection pipeline.
type SelectionContext struct {
	Candidates    []botinternal.ScoredMove
	SelectedIndex int
}

// SelectionRule represents a logic unit that can influence which move is chosen.
type SelectionRule interface {
	Name() string
	Apply(ctx *SelectionContext)
}

// HighestScoreRule picks the first candidate with the maximum score.
type HighestScoreRule struct{}

func (r *HighestScoreRule) Name() string { return "HighestScore" }

func (r *HighestScoreRule) Apply(ctx *SelectionContext) {
	best := 0
	for i, c := range ctx.Candidates {
		if c.Score > ctx.Candidates[best].Score {
			best = i
		}
	}
	ctx.SelectedIndex = best
}

// RandomSubstitutionRule replaces the selection with a uniformly random
// candidate with the given probability.
type RandomSubstitutionRule struct {
	Rng         *rand.Rand
	Probability float64
}

func (r *RandomSubstitutionRule) Name() string { return "RandomSubstitution" }

func (r *RandomSubstitutionRule) Apply(ctx *SelectionContext) {
	if len(ctx.Candidates) == 0 || r.Rng == nil {
		return
	}
	if r.Rng.Float64() < r.Probability {
		ctx.SelectedIndex = r.Rng.Intn(len(ctx.Candidates))
	}
}

func runPipeline(candidates []botinternal.ScoredMove, rules []SelectionRule) int {
	ctx := &SelectionContext{Candidates: candidates}
	for _, rule := range rules {
		rule.Apply(ctx)
	}
	return ctx.SelectedIndex
}
