package domain

import (
	"fmt"
	"strings"
)

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	// PhaseSetup is the pre-game state where players may swap hand and face-up cards.
	PhaseSetup Phase = "setup"
	// PhaseMainPlay is the active game state where cards are played.
	PhaseMainPlay Phase = "mainPlay"
	// PhaseEndGame is the terminal state after a loser has been determined.
	PhaseEndGame Phase = "endGame"
)

// Rank is a card rank label. The pile's required value is also a Rank because
// a 2 resets it to a rank that has no card instance on the pile.
type Rank string

const (
	RankTwo    Rank = "2"
	RankThree  Rank = "3"
	RankFour   Rank = "4"
	RankFive   Rank = "5"
	RankSix    Rank = "6"
	RankSeven  Rank = "7"
	RankEight  Rank = "8"
	RankNine   Rank = "9"
	RankTen    Rank = "10"
	RankJack   Rank = "J"
	RankQueen  Rank = "Q"
	RankKing   Rank = "K"
	RankAce    Rank = "A"
	RankJoker  Rank = "Joker"
	RankHidden Rank = "hidden"
)

// StandardRanks lists the thirteen suited ranks in deck order.
var StandardRanks = []Rank{
	RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight, RankNine,
	RankTen, RankJack, RankQueen, RankKing, RankAce, RankTwo,
}

var rankValues = map[Rank]int{
	RankThree: 3,
	RankFour:  4,
	RankFive:  5,
	RankSix:   6,
	RankSeven: 7,
	RankEight: 8,
	RankNine:  9,
	RankTen:   10,
	RankJack:  11,
	RankQueen: 12,
	RankKing:  13,
	RankAce:   14,
}

// Value returns the numeric comparison value of the rank. Twos and Jokers
// have no ordinary value and return 0.
func (r Rank) Value() int {
	return rankValues[r]
}

// Effect returns the magic effect bound to the rank.
func (r Rank) Effect() Effect {
	return magicCards[r]
}

// Suit is a card suit, or the colour tag of a Joker.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
	SuitRed      Suit = "red"
	SuitBlack    Suit = "black"
)

// StandardSuits lists the four suits of the 52 standard cards.
var StandardSuits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Card is a single playing card. Cards are immutable values compared by rank and suit.
type Card struct {
	Rank Rank
	Suit Suit
}

// HiddenCard stands in for a card whose identity the viewer may not see.
var HiddenCard = Card{Rank: RankHidden}

// Value returns the numeric value of the card (0 for twos and Jokers).
func (c Card) Value() int {
	return c.Rank.Value()
}

// Effect returns the magic effect of the card, or EffectNone.
func (c Card) Effect() Effect {
	return c.Rank.Effect()
}

// IsMagic reports whether playing the card triggers a special effect.
func (c Card) IsMagic() bool {
	return c.Effect() != EffectNone
}

// IsHidden reports whether the card is a redaction placeholder.
func (c Card) IsHidden() bool {
	return c.Rank == RankHidden
}

// String renders the card as "rank_suit", e.g. "10_hearts" or "Joker_red".
func (c Card) String() string {
	if c.IsHidden() {
		return string(RankHidden)
	}
	return string(c.Rank) + "_" + string(c.Suit)
}

// MarshalText encodes the card in its "rank_suit" form.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card from its "rank_suit" form.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses the "rank_suit" form produced by Card.String.
func ParseCard(s string) (Card, error) {
	if s == string(RankHidden) {
		return HiddenCard, nil
	}
	rank, suit, ok := strings.Cut(s, "_")
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	c := Card{Rank: Rank(rank), Suit: Suit(suit)}
	if !c.valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return c, nil
}

func (c Card) valid() bool {
	if c.Rank == RankJoker {
		return c.Suit == SuitRed || c.Suit == SuitBlack
	}
	if c.Rank != RankTwo && c.Rank.Value() == 0 {
		return false
	}
	switch c.Suit {
	case SuitHearts, SuitDiamonds, SuitClubs, SuitSpades:
		return true
	}
	return false
}

// Zone names one of a player's three card groups.
type Zone string

const (
	// ZoneNone means the player holds no cards at all.
	ZoneNone   Zone = ""
	ZoneHand   Zone = "hand"
	ZoneFaceUp Zone = "faceUp"
	ZoneBlind  Zone = "blind"
)

// Player holds one participant's card zones.
type Player struct {
	ID         int    `json:"id"`
	Hand       []Card `json:"hand"`
	FaceUp     []Card `json:"face_up"`
	Blind      []Card `json:"blind"`
	IsFinished bool   `json:"is_finished"`
}

// Zone returns the cards held in the named zone.
func (p *Player) Zone(z Zone) []Card {
	switch z {
	case ZoneHand:
		return p.Hand
	case ZoneFaceUp:
		return p.FaceUp
	case ZoneBlind:
		return p.Blind
	}
	return nil
}

// SetZone replaces the cards held in the named zone.
func (p *Player) SetZone(z Zone, cards []Card) {
	switch z {
	case ZoneHand:
		p.Hand = cards
	case ZoneFaceUp:
		p.FaceUp = cards
	case ZoneBlind:
		p.Blind = cards
	}
}

// CardCount returns the number of cards across all three zones.
func (p *Player) CardCount() int {
	return len(p.Hand) + len(p.FaceUp) + len(p.Blind)
}

// MoveType distinguishes playing cards from picking up the pile.
type MoveType string

const (
	MovePlayCards MoveType = "playCards"
	MoveTakePile  MoveType = "takePile"
)

// Move is a candidate action for a player.
type Move struct {
	Type  MoveType `json:"type"`
	Cards []Card   `json:"cards,omitempty"`
	From  Zone     `json:"from,omitempty"`
}

// PlayMove builds a move playing the given cards from a zone.
func PlayMove(from Zone, cards ...Card) Move {
	return Move{Type: MovePlayCards, Cards: cards, From: from}
}

// TakePileMove builds the fallback move that picks up the pile.
func TakePileMove() Move {
	return Move{Type: MoveTakePile}
}

// GameState is the authoritative state of a single game.
type GameState struct {
	ID            string `json:"id"`
	CurrentPlayer int    `json:"current_player"`
	TurnDirection int    `json:"turn_direction"` // 1 or -1
	Phase         Phase  `json:"phase"`

	PlayPile     []Card `json:"play_pile"`
	PileTopValue Rank   `json:"pile_top_value"`
	Deck         []Card `json:"deck"`

	Players []*Player `json:"players"` // indexed by player id

	Winner      int   `json:"winner"`
	Loser       int   `json:"loser"`
	FinishOrder []int `json:"finish_order"`

	PendingJokerTarget bool `json:"pending_joker_target"`
	JokerPlayerID      int  `json:"joker_player_id"`
}

// Player returns the player with the given id.
func (s *GameState) Player(id int) (*Player, bool) {
	if id < 0 || id >= len(s.Players) || s.Players[id] == nil {
		return nil, false
	}
	return s.Players[id], true
}

// PileTopCard returns the most recently played card, or nil for an empty pile.
func (s *GameState) PileTopCard() *Card {
	if len(s.PlayPile) == 0 {
		return nil
	}
	top := s.PlayPile[len(s.PlayPile)-1]
	return &top
}

// ActivePlayers returns the ids of players that have not finished, in id order.
func (s *GameState) ActivePlayers() []int {
	ids := make([]int, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsFinished {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.PlayPile = cloneCards(s.PlayPile)
	out.Deck = cloneCards(s.Deck)
	if s.FinishOrder != nil {
		out.FinishOrder = append(make([]int, 0, len(s.FinishOrder)), s.FinishOrder...)
	}
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Hand = cloneCards(p.Hand)
		cp.FaceUp = cloneCards(p.FaceUp)
		cp.Blind = cloneCards(p.Blind)
		out.Players[i] = &cp
	}
	return &out
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	return append(make([]Card, 0, len(cards)), cards...)
}
