package nakama

import (
	"encoding/json"
	"errors"

	"shithead/internal/app"
	"shithead/internal/domain"
)

// SwapCardsRequest is the OpSwapCards payload.
type SwapCardsRequest struct {
	HandCard   domain.Card `json:"hand_card"`
	FaceUpCard domain.Card `json:"face_up_card"`
}

// PlayCardsRequest is the OpPlayCards payload. A blind play may leave Cards
// empty since the player cannot know which card they hold.
type PlayCardsRequest struct {
	Cards []domain.Card `json:"cards"`
	From  domain.Zone   `json:"from"`
}

// SelectJokerTargetRequest is the OpSelectJokerTarget payload.
type SelectJokerTargetRequest struct {
	TargetPlayer int `json:"target_player"`
}

// SeatState describes one seat of the table.
type SeatState struct {
	Seat        int    `json:"seat"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsBot       bool   `json:"is_bot"`
	IsOwner     bool   `json:"is_owner"`
	// PlayerID is the seat's id inside the current game, or -1.
	PlayerID int `json:"player_id"`
}

// LobbySnapshot is broadcast with OpPlayerJoined whenever seating changes.
type LobbySnapshot struct {
	Seats     []SeatState `json:"seats"`
	OwnerSeat int         `json:"owner_seat"`
	Tick      int64       `json:"tick"`
}

// StateMessage is the per-presence OpState payload.
type StateMessage struct {
	LobbySnapshot
	// You is the receiving player's id inside the game, or -1.
	You        int               `json:"you"`
	Game       *domain.GameState `json:"game,omitempty"`
	Events     []app.Event       `json:"events,omitempty"`
	ValidMoves []domain.Move     `json:"valid_moves,omitempty"`
}

// GameEndedMessage is the OpGameEnded payload, keyed by user id.
type GameEndedMessage struct {
	Winner      string   `json:"winner"`
	Loser       string   `json:"loser"`
	FinishOrder []string `json:"finish_order"`
}

// ErrorMessage is the OpError payload.
type ErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var errEmptyPayload = errors.New("empty payload")

func decodeRequest(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyPayload
	}
	return json.Unmarshal(data, v)
}

// redactOwnBlind hides the viewer's blind cards, which nobody may see.
func redactOwnBlind(view *domain.GameState, playerID int) {
	p, ok := view.Player(playerID)
	if !ok {
		return
	}
	for i := range p.Blind {
		p.Blind[i] = domain.HiddenCard
	}
}

// redactMoves hides the card a blind move would reveal.
func redactMoves(moves []domain.Move) []domain.Move {
	out := make([]domain.Move, len(moves))
	for i, m := range moves {
		out[i] = m
		if m.From == domain.ZoneBlind {
			out[i].Cards = []domain.Card{domain.HiddenCard}
		}
	}
	return out
}

// visibleEvents filters events down to those playerID may receive.
func visibleEvents(events []app.Event, playerID int) []app.Event {
	var out []app.Event
	for _, ev := range events {
		if ev.IsPrivate() && !containsPlayer(ev.Recipients, playerID) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func containsPlayer(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
