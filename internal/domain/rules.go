package domain

// Effect is the special rule triggered by playing a magic card.
type Effect int

const (
	EffectNone Effect = iota
	EffectReset
	EffectLower
	EffectInvisible
	EffectBurn
	EffectReverse
	EffectForce
)

var magicCards = map[Rank]Effect{
	RankTwo:   EffectReset,
	RankSeven: EffectLower,
	RankEight: EffectInvisible,
	RankTen:   EffectBurn,
	RankJack:  EffectReverse,
	RankJoker: EffectForce,
}

func (e Effect) String() string {
	switch e {
	case EffectReset:
		return "reset"
	case EffectLower:
		return "lower"
	case EffectInvisible:
		return "invisible"
	case EffectBurn:
		return "burn"
	case EffectReverse:
		return "reverse"
	case EffectForce:
		return "force"
	default:
		return "none"
	}
}

// MarshalText encodes the effect by name.
func (e Effect) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// IsValidPlay reports whether a single card may be played on a pile whose
// required value is pileTop.
func IsValidPlay(card Card, pileTop Rank) bool {
	// Magic cards bypass the pile, except the 7 which obeys ordering.
	if card.IsMagic() && card.Rank != RankSeven {
		return true
	}

	// Seven rule: a 7 caps the next play at 7.
	if pileTop == RankSeven {
		return card.Value() <= RankSeven.Value()
	}

	return card.Value() >= pileTop.Value()
}

// ShouldBurnPile reports whether the pile burns after played was added to it.
// pile is the pile after the play.
func ShouldBurnPile(played []Card, pile []Card) bool {
	if len(played) == 0 {
		return false
	}
	if played[0].Rank == RankTen {
		return true
	}

	// Four of a kind: the newly played card plus the three beneath it.
	if len(pile) < BurnCount {
		return false
	}
	value := played[0].Value()
	for _, c := range pile[len(pile)-BurnCount:] {
		if c.Value() != value {
			return false
		}
	}
	return true
}

// ActiveZone returns the zone a player must currently play from.
func ActiveZone(p *Player) Zone {
	switch {
	case len(p.Hand) > 0:
		return ZoneHand
	case len(p.FaceUp) > 0:
		return ZoneFaceUp
	case len(p.Blind) > 0:
		return ZoneBlind
	default:
		return ZoneNone
	}
}

// ValidMoves returns every legal move for the player. The result is never
// empty: when no card can be played it holds exactly one take-pile move.
func ValidMoves(state *GameState, playerID int) []Move {
	player, ok := state.Player(playerID)
	if !ok {
		return []Move{TakePileMove()}
	}

	var moves []Move
	switch zone := ActiveZone(player); zone {
	case ZoneHand:
		moves = append(moves, singleMoves(player.Hand, zone, state.PileTopValue)...)
		for _, group := range groupByRank(player.Hand) {
			if len(group) > 1 && IsValidPlay(group[0], state.PileTopValue) {
				moves = append(moves, PlayMove(zone, group...))
			}
		}
	case ZoneFaceUp:
		moves = append(moves, singleMoves(player.FaceUp, zone, state.PileTopValue)...)
	case ZoneBlind:
		// Blind cards are unknown until revealed, so the play is not validated.
		moves = append(moves, PlayMove(zone, player.Blind[0]))
	}

	if len(moves) == 0 {
		moves = append(moves, TakePileMove())
	}
	return moves
}

func singleMoves(cards []Card, zone Zone, pileTop Rank) []Move {
	var moves []Move
	for _, c := range cards {
		if IsValidPlay(c, pileTop) {
			moves = append(moves, PlayMove(zone, c))
		}
	}
	return moves
}

// groupByRank groups cards by rank, ordered by each rank's first appearance.
func groupByRank(cards []Card) [][]Card {
	index := make(map[Rank]int)
	var groups [][]Card
	for _, c := range cards {
		i, ok := index[c.Rank]
		if !ok {
			i = len(groups)
			index[c.Rank] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}

// CanPlay reports whether cards exactly match one of the player's legal card plays.
func CanPlay(state *GameState, playerID int, cards []Card) bool {
	for _, move := range ValidMoves(state, playerID) {
		if move.Type == MovePlayCards && len(move.Cards) == len(cards) && ContainsAll(move.Cards, cards) {
			return true
		}
	}
	return false
}

// NextPlayer returns the next unfinished player after from in turn direction.
// It returns from when nobody else is left.
func NextPlayer(state *GameState, from int) int {
	n := len(state.Players)
	if n == 0 {
		return from
	}
	dir := state.TurnDirection
	if dir == 0 {
		dir = 1
	}
	for step := 1; step <= n; step++ {
		id := ((from+step*dir)%n + n) % n
		if !state.Players[id].IsFinished {
			return id
		}
	}
	return from
}
