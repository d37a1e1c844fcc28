package bot

import (
	"fmt"
	"math/rand"
	"time"
)

// NewBrain creates a new AI brain based on the specified level. A nil rng is
// replaced with a time-seeded source.
func NewBrain(level Difficulty, rng *rand.Rand) (Brain, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	switch level {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return NewHeuristicBot(level, rng), nil
	case DifficultyExpert:
		return NewExpertBrain(nil, rng), nil
	default:
		return nil, fmt.Errorf("unknown bot level: %q", level)
	}
}

// NewExpertBrain creates an expert brain around eval. A nil eval plays the
// hard heuristic.
func NewExpertBrain(eval Evaluator, rng *rand.Rand) *ExpertBot {
	return &ExpertBot{
		Evaluator: eval,
		Fallback:  NewHeuristicBot(DifficultyExpert, rng),
	}
}
