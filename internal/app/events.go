package app

import "shithead/internal/domain"

// EventKind identifies emitted game events for dispatch.
type EventKind string

const (
	EventCardsSwapped        EventKind = "cards_swapped"
	EventMainPlayStarted     EventKind = "main_play_started"
	EventCardsPlayed         EventKind = "cards_played"
	EventPileBurned          EventKind = "pile_burned"
	EventJokerTargetPending  EventKind = "joker_target_pending"
	EventJokerTargetSelected EventKind = "joker_target_selected"
	EventPileTaken           EventKind = "pile_taken"
	EventCardsDrawn          EventKind = "cards_drawn"
	EventPlayerFinished      EventKind = "player_finished"
	EventGameEnded           EventKind = "game_ended"
)

// Event is a game event with optional targeted recipients.
type Event struct {
	Kind       EventKind `json:"kind"`
	Payload    any       `json:"payload"`
	Recipients []int     `json:"-"` // player IDs; empty means broadcast
}

// IsPrivate reports whether the event is addressed to specific players only.
func (e Event) IsPrivate() bool {
	return len(e.Recipients) > 0
}

type CardsSwappedPayload struct {
	PlayerID   int         `json:"player_id"`
	HandCard   domain.Card `json:"hand_card"`
	FaceUpCard domain.Card `json:"face_up_card"`
}

type MainPlayStartedPayload struct {
	StartingPlayer int `json:"starting_player"`
}

type CardsPlayedPayload struct {
	PlayerID     int           `json:"player_id"`
	Cards        []domain.Card `json:"cards"`
	From         domain.Zone   `json:"from"`
	Effect       domain.Effect `json:"effect"`
	PileTopValue domain.Rank   `json:"pile_top_value"`
	NextPlayer   int           `json:"next_player"`
}

type PileBurnedPayload struct {
	PlayerID int `json:"player_id"`
	Burned   int `json:"burned"`
}

type JokerTargetPendingPayload struct {
	PlayerID int `json:"player_id"`
}

type JokerTargetSelectedPayload struct {
	PlayerID int `json:"player_id"`
	TargetID int `json:"target_id"`
	Cards    int `json:"cards"`
}

type PileTakenPayload struct {
	PlayerID   int `json:"player_id"`
	Cards      int `json:"cards"`
	NextPlayer int `json:"next_player"`
}

// CardsDrawnPayload is only sent to the drawing player.
type CardsDrawnPayload struct {
	PlayerID int           `json:"player_id"`
	Cards    []domain.Card `json:"cards"`
}

type PlayerFinishedPayload struct {
	PlayerID int `json:"player_id"`
	Position int `json:"position"`
}

type GameEndedPayload struct {
	Winner      int   `json:"winner"`
	Loser       int   `json:"loser"`
	FinishOrder []int `json:"finish_order"`
}
