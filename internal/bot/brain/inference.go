package brain

import (
	"shithead/internal/domain"
)

// Estimator provides probabilistic insights based on memory.
type Estimator struct {
	Memory *GameMemory
}

// NewEstimator creates a new reasoning engine.
func NewEstimator(m *GameMemory) *Estimator {
	return &Estimator{Memory: m}
}

// BeatProbability returns the share of unaccounted cards that could legally
// be played on a pile showing top. It is 1 when nothing is unaccounted.
func (e *Estimator) BeatProbability(top domain.Rank) float64 {
	unaccounted := e.Memory.Unaccounted()
	if len(unaccounted) == 0 {
		return 1
	}
	beaters := 0
	for _, c := range unaccounted {
		if domain.IsValidPlay(c, top) {
			beaters++
		}
	}
	return float64(beaters) / float64(len(unaccounted))
}

// HoldsKnownBeater reports whether playerID is known to hold a card that
// answers top.
func (e *Estimator) HoldsKnownBeater(playerID int, top domain.Rank) bool {
	p, ok := e.Memory.Profile(playerID)
	if !ok {
		return false
	}
	return p.CanBeat(top)
}
