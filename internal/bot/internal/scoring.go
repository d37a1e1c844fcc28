package internal

import "shithead/internal/domain"

// Weights tune move scoring for a difficulty.
type Weights struct {
	TakePile     float64
	ImmediateWin float64
	ForcedBurn   float64
	MultiCard    float64
	MagicBase    float64

	BurnPileSize   float64
	BurnHighCard   float64
	HighCardValue  int
	NearWinCards   int
	NearWinBonus   float64
	ForceInverse   float64
	LowerHighValue int
	LowerSelfTrap  float64

	ResetBonus     float64
	InvisibleBonus float64
	ReverseBonus   float64

	FaceUpMatchPenalty float64
	FaceUpSetPenalty   float64

	// Opponent modeling, only applied by brains that track cards.
	OpponentBlockWeight float64
	KnownBeaterPenalty  float64
}

// Context is the position a set of candidate moves is scored in.
type Context struct {
	State    *domain.GameState
	PlayerID int
	// Moves holds every legal move in the position, used to detect forced plays.
	Moves   []domain.Move
	Weights Weights
}

// ScoredMove holds a move with its computed score.
type ScoredMove struct {
	Move  domain.Move
	Score float64
}

// BuildScoredMoves scores each candidate. extra, when non-nil, adds a
// brain-specific term to every card play.
func BuildScoredMoves(ctx Context, extra func(domain.Move) float64) []ScoredMove {
	scored := make([]ScoredMove, 0, len(ctx.Moves))
	for _, move := range ctx.Moves {
		score := ScoreMove(ctx, move)
		if extra != nil && move.Type == domain.MovePlayCards && score != ctx.Weights.ImmediateWin {
			score += extra(move)
		}
		scored = append(scored, ScoredMove{Move: move, Score: score})
	}
	return scored
}

// ScoreMove evaluates a single move. Higher is better.
func ScoreMove(ctx Context, move domain.Move) float64 {
	w := ctx.Weights
	if move.Type == domain.MoveTakePile || len(move.Cards) == 0 {
		return w.TakePile
	}
	player, ok := ctx.State.Player(ctx.PlayerID)
	if !ok {
		return w.TakePile
	}

	if player.CardCount() == len(move.Cards) {
		return w.ImmediateWin
	}

	score := 0.0
	if len(move.Cards) > 1 {
		score += float64(len(move.Cards)) * w.MultiCard
	}

	card := move.Cards[0]
	if card.IsMagic() {
		score += scoreMagic(ctx, player, card.Effect())
	} else {
		score += float64(card.Value())
	}

	score += scoreZoneTransition(player, move.From, card, w)
	return score
}

func scoreMagic(ctx Context, player *domain.Player, effect domain.Effect) float64 {
	w := ctx.Weights
	state := ctx.State
	score := w.MagicBase
	nextCards := nextPlayerCards(state, player.ID)

	switch effect {
	case domain.EffectBurn:
		if IsForcedBurn(ctx.Moves) {
			return w.ForcedBurn
		}
		score += float64(len(state.PlayPile)) * w.BurnPileSize
		score += float64(countAtLeast(state.PlayPile, w.HighCardValue)) * w.BurnHighCard
		if nextCards >= 0 && nextCards <= w.NearWinCards {
			score += w.NearWinBonus
		}
	case domain.EffectForce:
		target := JokerTarget(state, player.ID)
		if target == domain.NoPlayer {
			break
		}
		tp, _ := state.Player(target)
		count := tp.CardCount()
		if count <= w.NearWinCards {
			score += 2 * w.NearWinBonus
		}
		score += w.ForceInverse / float64(count+1)
	case domain.EffectLower:
		score += float64(state.PileTopValue.Value())
		if nextCards >= 0 && nextCards <= w.NearWinCards {
			score += w.NearWinBonus
		}
		score -= float64(countAtLeast(player.Hand, w.LowerHighValue)) * w.LowerSelfTrap
	case domain.EffectReset:
		score += w.ResetBonus
	case domain.EffectInvisible:
		score += w.InvisibleBonus
	case domain.EffectReverse:
		score += w.ReverseBonus
	case domain.EffectNone:
		return 0
	}
	return score
}

func scoreZoneTransition(player *domain.Player, from domain.Zone, card domain.Card, w Weights) float64 {
	switch from {
	case domain.ZoneHand:
		for _, c := range player.FaceUp {
			if c.Rank == card.Rank {
				return -w.FaceUpMatchPenalty
			}
		}
	case domain.ZoneFaceUp:
		if countRank(player.FaceUp, card.Rank) > 1 {
			return -w.FaceUpSetPenalty
		}
	}
	return 0
}

// IsForcedBurn reports whether burning is the only way to avoid the pile:
// there is at least one card play and every card play is a ten.
func IsForcedBurn(moves []domain.Move) bool {
	plays := 0
	for _, m := range moves {
		if m.Type != domain.MovePlayCards {
			continue
		}
		if len(m.Cards) == 0 || m.Cards[0].Effect() != domain.EffectBurn {
			return false
		}
		plays++
	}
	return plays > 0
}

// JokerTarget returns the unfinished opponent holding the fewest cards,
// preferring the lowest id on ties, or domain.NoPlayer when nobody is left.
func JokerTarget(state *domain.GameState, playerID int) int {
	best := domain.NoPlayer
	bestCount := 0
	for _, p := range state.Players {
		if p.ID == playerID || p.IsFinished {
			continue
		}
		if best == domain.NoPlayer || p.CardCount() < bestCount {
			best = p.ID
			bestCount = p.CardCount()
		}
	}
	return best
}

// ResultingPileTop predicts the pile value the next player faces after move.
// It reports false when the move leaves no pile for an opponent to answer:
// a burn, a Joker, or picking up the pile.
func ResultingPileTop(state *domain.GameState, move domain.Move) (domain.Rank, bool) {
	if move.Type != domain.MovePlayCards || len(move.Cards) == 0 {
		return "", false
	}
	pile := append(append([]domain.Card(nil), state.PlayPile...), move.Cards...)
	if domain.ShouldBurnPile(move.Cards, pile) {
		return "", false
	}

	last := move.Cards[len(move.Cards)-1]
	switch last.Effect() {
	case domain.EffectForce, domain.EffectBurn:
		return "", false
	case domain.EffectReset:
		return domain.RankTwo, true
	case domain.EffectInvisible, domain.EffectReverse:
		if top := state.PileTopCard(); top != nil {
			return top.Rank, true
		}
		return domain.RankTwo, true
	case domain.EffectNone, domain.EffectLower:
		return last.Rank, true
	}
	return last.Rank, true
}

// nextPlayerCards returns the card count of the player after playerID, or -1
// when nobody else is left.
func nextPlayerCards(state *domain.GameState, playerID int) int {
	next := domain.NextPlayer(state, playerID)
	if next == playerID {
		return -1
	}
	p, ok := state.Player(next)
	if !ok {
		return -1
	}
	return p.CardCount()
}

func countAtLeast(cards []domain.Card, value int) int {
	count := 0
	for _, c := range cards {
		if c.Value() >= value {
			count++
		}
	}
	return count
}

func countRank(cards []domain.Card, rank domain.Rank) int {
	count := 0
	for _, c := range cards {
		if c.Rank == rank {
			count++
		}
	}
	return count
}
