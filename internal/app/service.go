package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shithead/internal/domain"
)

// Service contains Shithead use-cases operating on domain state. It holds no
// game state of its own; every operation works on the state passed in and
// either mutates it completely or returns an error without touching it.
type Service struct {
	rng    *rand.Rand
	logger *zap.Logger
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand, logger *zap.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{rng: rng, logger: logger}
}

var (
	ErrWrongPhase     = errors.New("action not allowed in current phase")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrUnknownPlayer  = errors.New("player not found")
	ErrCardsNotInZone = errors.New("cards not found in zone")
	ErrMultipleBlind  = errors.New("can only play one blind card at a time")
	ErrNoCards        = errors.New("no cards supplied")
	ErrJokerPending   = errors.New("must select joker target first")
	ErrNoJokerPending = errors.New("no pending joker target selection")
	ErrNotJokerPlayer = errors.New("player did not play the joker")
	ErrTargetFinished = errors.New("cannot target finished player")
	ErrInvalidTarget  = errors.New("invalid joker target")
	ErrPlayerFinished = errors.New("player already finished")
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrTooManyPlayers = errors.New("too many players for one deck")
)

// NewGame shuffles a fresh deck, deals it to numPlayers players and returns
// the game in the setup phase.
func (s *Service) NewGame(numPlayers int) (*domain.GameState, error) {
	if numPlayers < MinPlayersToStartGame {
		return nil, ErrTooFewPlayers
	}
	if numPlayers > MaxPlayersPerGame {
		return nil, ErrTooManyPlayers
	}

	players, deck, err := domain.Deal(domain.NewShuffledDeck(s.rng), numPlayers)
	if err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}

	state := &domain.GameState{
		ID:            uuid.NewString(),
		CurrentPlayer: 0,
		TurnDirection: 1,
		Phase:         domain.PhaseSetup,
		PlayPile:      []domain.Card{},
		PileTopValue:  StartingPileTop,
		Deck:          deck,
		Players:       players,
		Winner:        domain.NoPlayer,
		Loser:         domain.NoPlayer,
		FinishOrder:   []int{},
		JokerPlayerID: domain.NoPlayer,
	}

	s.logger.Debug("game dealt",
		zap.String("game_id", state.ID),
		zap.Int("players", numPlayers),
		zap.Int("deck", len(deck)),
	)
	return state, nil
}

// SwapCards exchanges a hand card with a face-up card during setup.
func (s *Service) SwapCards(state *domain.GameState, playerID int, handCard, faceUpCard domain.Card) ([]Event, error) {
	if state.Phase != domain.PhaseSetup {
		return nil, ErrWrongPhase
	}
	pl, ok := state.Player(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	handIdx := domain.IndexOf(pl.Hand, handCard)
	faceUpIdx := domain.IndexOf(pl.FaceUp, faceUpCard)
	if handIdx == -1 || faceUpIdx == -1 {
		return nil, fmt.Errorf("%w: swap %s for %s", ErrCardsNotInZone, handCard, faceUpCard)
	}

	pl.Hand[handIdx] = faceUpCard
	pl.FaceUp[faceUpIdx] = handCard

	return []Event{{
		Kind: EventCardsSwapped,
		Payload: CardsSwappedPayload{
			PlayerID:   playerID,
			HandCard:   faceUpCard,
			FaceUpCard: handCard,
		},
	}}, nil
}

// StartMainGame leaves setup and hands the first turn to the player holding
// the lowest card of value three or more. Hand cards are considered, or
// face-up cards when the hand is empty. Ties go to the lower player id.
func (s *Service) StartMainGame(state *domain.GameState) ([]Event, error) {
	if state.Phase != domain.PhaseSetup {
		return nil, ErrWrongPhase
	}

	starting := 0
	lowest := -1
	for _, pl := range state.Players {
		candidates := pl.Hand
		if len(candidates) == 0 {
			candidates = pl.FaceUp
		}
		for _, c := range candidates {
			v := c.Value()
			if v < 3 {
				continue
			}
			if lowest == -1 || v < lowest {
				lowest = v
				starting = pl.ID
			}
		}
	}

	state.Phase = domain.PhaseMainPlay
	state.CurrentPlayer = starting

	s.logger.Debug("main play started",
		zap.String("game_id", state.ID),
		zap.Int("starting_player", starting),
	)
	return []Event{{
		Kind:    EventMainPlayStarted,
		Payload: MainPlayStartedPayload{StartingPlayer: starting},
	}}, nil
}

// PlayCards moves cards from one of the player's zones onto the pile and
// resolves the effect of the last card. Legality against the pile is not
// checked here; callers that need it use CanPlay first.
func (s *Service) PlayCards(state *domain.GameState, playerID int, cards []domain.Card, from domain.Zone) ([]Event, error) {
	pl, err := s.actingPlayer(state, playerID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	if from == domain.ZoneBlind && len(cards) > 1 {
		return nil, ErrMultipleBlind
	}
	zone := pl.Zone(from)
	if zone == nil || !domain.ContainsAll(zone, cards) {
		return nil, fmt.Errorf("%w: %s", ErrCardsNotInZone, from)
	}

	beneath := state.PileTopCard()
	played := append([]domain.Card(nil), cards...)
	pl.SetZone(from, domain.RemoveCards(zone, played))
	state.PlayPile = append(state.PlayPile, played...)

	last := played[len(played)-1]
	effect := last.Effect()
	continuing := false

	switch effect {
	case domain.EffectNone, domain.EffectLower:
		state.PileTopValue = last.Rank
	case domain.EffectReset:
		state.PileTopValue = StartingPileTop
	case domain.EffectInvisible:
		state.PileTopValue = rankOf(beneath)
	case domain.EffectReverse:
		state.TurnDirection = -state.TurnDirection
		state.PileTopValue = rankOf(beneath)
	case domain.EffectBurn:
		// Cleared by the burn check below, which always fires for a ten.
	case domain.EffectForce:
		state.PendingJokerTarget = true
		state.JokerPlayerID = playerID
		s.logger.Debug("joker played",
			zap.String("game_id", state.ID),
			zap.Int("player", playerID),
		)
		return []Event{
			s.playedEvent(state, playerID, played, from, effect, playerID),
			{Kind: EventJokerTargetPending, Payload: JokerTargetPendingPayload{PlayerID: playerID}},
		}, nil
	}

	var events []Event
	var burnEvent *Event
	if domain.ShouldBurnPile(played, state.PlayPile) {
		burnEvent = &Event{
			Kind:    EventPileBurned,
			Payload: PileBurnedPayload{PlayerID: playerID, Burned: len(state.PlayPile)},
		}
		state.PlayPile = []domain.Card{}
		state.PileTopValue = StartingPileTop
		continuing = true
	}

	drawEvents := s.drawUp(state, pl)
	finishEvents := s.markFinished(state, pl)

	if (!continuing || pl.IsFinished) && state.Phase != domain.PhaseEndGame {
		state.CurrentPlayer = domain.NextPlayer(state, state.CurrentPlayer)
	}

	events = append(events, s.playedEvent(state, playerID, played, from, effect, state.CurrentPlayer))
	if burnEvent != nil {
		events = append(events, *burnEvent)
	}
	events = append(events, drawEvents...)
	events = append(events, finishEvents...)

	s.logger.Debug("cards played",
		zap.String("game_id", state.ID),
		zap.Int("player", playerID),
		zap.Stringers("cards", played),
		zap.Stringer("effect", effect),
		zap.Bool("burned", burnEvent != nil),
		zap.Int("next_player", state.CurrentPlayer),
	)
	return events, nil
}

// SelectJokerTarget resolves a pending Joker: the target picks up the whole
// pile. The Joker player keeps the turn unless the Joker was their last card.
func (s *Service) SelectJokerTarget(state *domain.GameState, playerID, targetID int) ([]Event, error) {
	if state.Phase != domain.PhaseMainPlay {
		return nil, ErrWrongPhase
	}
	if !state.PendingJokerTarget {
		return nil, ErrNoJokerPending
	}
	if playerID != state.JokerPlayerID {
		return nil, ErrNotJokerPlayer
	}
	pl, ok := state.Player(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	target, ok := state.Player(targetID)
	if !ok || targetID == playerID {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTarget, targetID)
	}
	if target.IsFinished {
		return nil, ErrTargetFinished
	}

	taken := len(state.PlayPile)
	target.Hand = append(target.Hand, state.PlayPile...)
	state.PlayPile = []domain.Card{}
	state.PileTopValue = StartingPileTop
	state.PendingJokerTarget = false
	state.JokerPlayerID = domain.NoPlayer

	events := []Event{{
		Kind:    EventJokerTargetSelected,
		Payload: JokerTargetSelectedPayload{PlayerID: playerID, TargetID: targetID, Cards: taken},
	}}
	events = append(events, s.drawUp(state, pl)...)
	events = append(events, s.markFinished(state, pl)...)
	if pl.IsFinished && state.Phase != domain.PhaseEndGame {
		state.CurrentPlayer = domain.NextPlayer(state, state.CurrentPlayer)
	}

	s.logger.Debug("joker target selected",
		zap.String("game_id", state.ID),
		zap.Int("player", playerID),
		zap.Int("target", targetID),
		zap.Int("cards", taken),
	)
	return events, nil
}

// TakePile moves the whole pile into the player's hand and passes the turn.
// A player already on face-up cards first takes their lowest face-up card
// into hand.
func (s *Service) TakePile(state *domain.GameState, playerID int) ([]Event, error) {
	pl, err := s.actingPlayer(state, playerID)
	if err != nil {
		return nil, err
	}

	if len(pl.Hand) == 0 && len(pl.FaceUp) > 0 {
		idx := domain.LowestCard(pl.FaceUp)
		lowest := pl.FaceUp[idx]
		pl.FaceUp = append(pl.FaceUp[:idx:idx], pl.FaceUp[idx+1:]...)
		pl.Hand = append(pl.Hand, lowest)
	}

	taken := len(state.PlayPile)
	pl.Hand = append(pl.Hand, state.PlayPile...)
	state.PlayPile = []domain.Card{}
	state.PileTopValue = StartingPileTop
	state.CurrentPlayer = domain.NextPlayer(state, state.CurrentPlayer)

	s.logger.Debug("pile taken",
		zap.String("game_id", state.ID),
		zap.Int("player", playerID),
		zap.Int("cards", taken),
		zap.Int("next_player", state.CurrentPlayer),
	)
	return []Event{{
		Kind:    EventPileTaken,
		Payload: PileTakenPayload{PlayerID: playerID, Cards: taken, NextPlayer: state.CurrentPlayer},
	}}, nil
}

// ValidMoves lists the legal moves for a player.
func (s *Service) ValidMoves(state *domain.GameState, playerID int) []domain.Move {
	return domain.ValidMoves(state, playerID)
}

// CanPlay reports whether cards form one of the player's legal plays.
func (s *Service) CanPlay(state *domain.GameState, playerID int, cards []domain.Card) bool {
	return domain.CanPlay(state, playerID, cards)
}

// Snapshot returns an unredacted deep copy of the game.
func (s *Service) Snapshot(state *domain.GameState) *domain.GameState {
	return state.Clone()
}

// PlayerView returns the game as seen by one player.
func (s *Service) PlayerView(state *domain.GameState, playerID int) *domain.GameState {
	return domain.PlayerView(state, playerID)
}

// actingPlayer validates that playerID may take a main-play action now.
func (s *Service) actingPlayer(state *domain.GameState, playerID int) (*domain.Player, error) {
	if state.Phase != domain.PhaseMainPlay {
		return nil, ErrWrongPhase
	}
	pl, ok := state.Player(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if state.CurrentPlayer != playerID {
		return nil, ErrNotYourTurn
	}
	if state.PendingJokerTarget {
		return nil, ErrJokerPending
	}
	if pl.IsFinished {
		return nil, ErrPlayerFinished
	}
	return pl, nil
}

// drawUp refills the player's hand from the draw pile up to HandSize.
func (s *Service) drawUp(state *domain.GameState, pl *domain.Player) []Event {
	var drawn []domain.Card
	for len(state.Deck) > 0 && len(pl.Hand) < domain.HandSize {
		top := state.Deck[len(state.Deck)-1]
		state.Deck = state.Deck[:len(state.Deck)-1]
		pl.Hand = append(pl.Hand, top)
		drawn = append(drawn, top)
	}
	if len(drawn) == 0 {
		return nil
	}
	return []Event{{
		Kind:       EventCardsDrawn,
		Payload:    CardsDrawnPayload{PlayerID: pl.ID, Cards: drawn},
		Recipients: []int{pl.ID},
	}}
}

// markFinished records a player who has run out of cards and ends the game
// when a single player is left holding cards.
func (s *Service) markFinished(state *domain.GameState, pl *domain.Player) []Event {
	if pl.IsFinished || pl.CardCount() > 0 {
		return nil
	}
	pl.IsFinished = true
	state.FinishOrder = append(state.FinishOrder, pl.ID)
	events := []Event{{
		Kind:    EventPlayerFinished,
		Payload: PlayerFinishedPayload{PlayerID: pl.ID, Position: len(state.FinishOrder)},
	}}

	active := state.ActivePlayers()
	switch {
	case len(active) <= 1:
		if len(active) == 1 {
			state.Loser = active[0]
		}
		state.Winner = state.FinishOrder[0]
		state.Phase = domain.PhaseEndGame
		events = append(events, Event{
			Kind: EventGameEnded,
			Payload: GameEndedPayload{
				Winner:      state.Winner,
				Loser:       state.Loser,
				FinishOrder: append([]int(nil), state.FinishOrder...),
			},
		})
		s.logger.Info("game ended",
			zap.String("game_id", state.ID),
			zap.Int("winner", state.Winner),
			zap.Int("loser", state.Loser),
		)
	case len(state.FinishOrder) == 1:
		state.Winner = pl.ID
	}
	return events
}

func (s *Service) playedEvent(state *domain.GameState, playerID int, cards []domain.Card, from domain.Zone, effect domain.Effect, next int) Event {
	return Event{
		Kind: EventCardsPlayed,
		Payload: CardsPlayedPayload{
			PlayerID:     playerID,
			Cards:        cards,
			From:         from,
			Effect:       effect,
			PileTopValue: state.PileTopValue,
			NextPlayer:   next,
		},
	}
}

// rankOf returns the rank a see-through card exposes: the card beneath it,
// or the reset value when there is none.
func rankOf(beneath *domain.Card) domain.Rank {
	if beneath == nil {
		return StartingPileTop
	}
	return beneath.Rank
}
