package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"shithead/internal/app"
	"shithead/internal/bot"
	"shithead/internal/config"
	"shithead/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type mockPresence struct {
	userID   string
	username string
}

func (p *mockPresence) GetHidden() bool                   { return false }
func (p *mockPresence) GetPersistence() bool              { return false }
func (p *mockPresence) GetUsername() string               { return p.username }
func (p *mockPresence) GetStatus() string                 { return "" }
func (p *mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p *mockPresence) GetUserId() string                 { return p.userID }
func (p *mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p *mockPresence) GetNodeId() string                 { return "node" }

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) count(opCode int64) int {
	n := 0
	for _, m := range md.messages {
		if m.opCode == opCode {
			n++
		}
	}
	return n
}

// lastFor returns the latest message with opCode addressed to userID.
func (md *mockDispatcher) lastFor(t *testing.T, opCode int64, userID string) []byte {
	t.Helper()
	for i := len(md.messages) - 1; i >= 0; i-- {
		m := md.messages[i]
		if m.opCode != opCode {
			continue
		}
		if m.presences == nil {
			return m.data
		}
		for _, p := range m.presences {
			if p.GetUserId() == userID {
				return m.data
			}
		}
	}
	t.Fatalf("no message with opcode %d for %s", opCode, userID)
	return nil
}

func newTestMatchState(t *testing.T, players int) *MatchState {
	t.Helper()
	return newMatchState(&config.Config{
		Game: config.GameConfig{PlayerCount: players, Seed: 7},
		AI: config.AIConfig{
			DefaultDifficulty:    string(bot.DifficultyMedium),
			AutoFill:             true,
			AutoFillDelaySeconds: 2,
		},
	})
}

func mustCards(t *testing.T, ss ...string) []domain.Card {
	t.Helper()
	out := make([]domain.Card, 0, len(ss))
	for _, s := range ss {
		c, err := domain.ParseCard(s)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

// seatGame seats a human as player 0 and a medium bot as player 1 in a
// main-play game built from the given players.
func seatGame(t *testing.T, mh *matchHandler, pileTop domain.Rank, pile []domain.Card, p0, p1 *domain.Player) (*MatchState, *mockPresence, *bot.Agent) {
	t.Helper()
	state := newTestMatchState(t, 2)
	human := &mockPresence{userID: "user-1", username: "alice"}
	agent, err := mh.newAgent(state, 1, "medium")
	require.NoError(t, err)

	state.Seats[0] = human.userID
	state.Seats[1] = agent.Identity.UserID
	state.OwnerSeat = 0
	state.Presences[human.userID] = human
	state.Players = []string{human.userID, agent.Identity.UserID}

	p0.ID, p1.ID = 0, 1
	state.Game = &domain.GameState{
		ID:            "game-1",
		Phase:         domain.PhaseMainPlay,
		TurnDirection: 1,
		PlayPile:      pile,
		PileTopValue:  pileTop,
		Deck:          []domain.Card{},
		Players:       []*domain.Player{p0, p1},
		Winner:        domain.NoPlayer,
		Loser:         domain.NoPlayer,
		FinishOrder:   []int{},
		JokerPlayerID: domain.NoPlayer,
	}
	return state, human, agent
}

func TestFindFirstHumanSeat(t *testing.T) {
	bot1 := bot.NewIdentity(0, bot.DifficultyEasy).UserID
	bot2 := bot.NewIdentity(1, bot.DifficultyHard).UserID

	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{
			name:  "FirstHumanAfterBot",
			seats: []string{bot1, "user-1", "", ""},
			want:  1,
		},
		{
			name:  "AllBots",
			seats: []string{bot1, bot2, "", ""},
			want:  -1,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  -1,
		},
		{
			name:  "FirstHumanIsSeatZero",
			seats: []string{"user-1", bot1, "user-2", ""},
			want:  0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, findFirstHumanSeat(test.seats))
			assert.Equal(t, test.want == -1, shouldTerminateNoHumans(test.seats))
		})
	}
}

func TestMatchLabel(t *testing.T) {
	state := newTestMatchState(t, 2)
	state.Seats[0] = "user-1"

	label, err := matchLabel(state)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(label), &got))
	assert.Equal(t, map[string]interface{}{
		"game":   "shithead",
		"open":   float64(domain.MaxPlayers - 1),
		"phase":  "lobby",
		"humans": float64(1),
	}, got)

	state.Game = &domain.GameState{Phase: domain.PhaseSetup}
	label, err = matchLabel(state)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(label), &got))
	assert.Equal(t, "setup", got["phase"])

	state.Game.Phase = domain.PhaseEndGame
	label, err = matchLabel(state)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(label), &got))
	assert.Equal(t, "lobby", got["phase"])
}

func TestQuickMatchQuery(t *testing.T) {
	assert.Equal(t, "+label.game:shithead +label.phase:lobby +label.open:>=1", quickMatchQuery())
}

func TestStartGame_FillsSeatsAndSendsRedactedViews(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatchState(t, 3)
	human := &mockPresence{userID: "user-1", username: "alice"}

	mh.MatchJoin(ctx, noopLogger{}, nil, nil, d, 1, state, []runtime.Presence{human})
	require.Equal(t, 0, state.OwnerSeat)
	require.Equal(t, 1, d.count(OpPlayerJoined))

	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpStartGame, nil)
	require.NotNil(t, state.Game)
	assert.Equal(t, domain.PhaseSetup, state.Game.Phase)
	require.Len(t, state.Players, 3)
	assert.Equal(t, human.userID, state.Players[0])
	for id := 1; id < 3; id++ {
		agent, ok := state.Bots[state.Players[id]]
		require.True(t, ok, "player %d should be a bot", id)
		assert.Equal(t, id, agent.PlayerID)
	}

	var msg StateMessage
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpState, human.userID), &msg))
	assert.Equal(t, 0, msg.You)
	require.NotNil(t, msg.Game)
	for _, c := range msg.Game.Players[1].Hand {
		assert.True(t, c.IsHidden())
	}
	for _, c := range msg.Game.Players[0].Blind {
		assert.True(t, c.IsHidden(), "own blind cards must stay hidden")
	}
	assert.Equal(t, state.Game.Players[0].Hand, msg.Game.Players[0].Hand)

	var label map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(d.lastLabel), &label))
	assert.Equal(t, "setup", label["phase"])
}

func TestStartGame_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatchState(t, 2)
	owner := &mockPresence{userID: "user-1"}
	guest := &mockPresence{userID: "user-2"}

	mh.MatchJoin(ctx, noopLogger{}, nil, nil, d, 1, state, []runtime.Presence{owner, guest})
	mh.handleMessage(ctx, state, d, noopLogger{}, guest.userID, OpStartGame, nil)

	assert.Nil(t, state.Game)
	var msg ErrorMessage
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpError, guest.userID), &msg))
	assert.Equal(t, ErrCodeForbidden, msg.Code)
}

func TestStartGame_WithoutAutoFillNeedsTwoPlayers(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatchState(t, 2)
	state.AI.AutoFill = false
	owner := &mockPresence{userID: "user-1"}

	mh.MatchJoin(ctx, noopLogger{}, nil, nil, d, 1, state, []runtime.Presence{owner})
	mh.handleMessage(ctx, state, d, noopLogger{}, owner.userID, OpStartGame, nil)

	assert.Nil(t, state.Game)
	var msg ErrorMessage
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpError, owner.userID), &msg))
	assert.Equal(t, app.ErrTooFewPlayers.Error(), msg.Message)
}

func TestPlayCards_RejectsIllegalPlay(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state, human, _ := seatGame(t, mh, domain.RankKing, mustCards(t, "K_hearts"),
		&domain.Player{Hand: mustCards(t, "4_clubs", "A_spades")},
		&domain.Player{Hand: mustCards(t, "5_clubs", "6_clubs")},
	)

	data, _ := json.Marshal(PlayCardsRequest{Cards: mustCards(t, "4_clubs"), From: domain.ZoneHand})
	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpPlayCards, data)

	var msg ErrorMessage
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpError, human.userID), &msg))
	assert.Equal(t, ErrCodeRejected, msg.Code)
	assert.Equal(t, 0, state.Game.CurrentPlayer)
	assert.Len(t, state.Game.Players[0].Hand, 2)

	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpPlayCards, []byte("{not json"))
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpError, human.userID), &msg))
	assert.Equal(t, ErrCodeBadRequest, msg.Code)
}

func TestPlayCards_LegalPlayThenBotAnswers(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state, human, agent := seatGame(t, mh, domain.RankKing, mustCards(t, "K_hearts"),
		&domain.Player{Hand: mustCards(t, "4_clubs", "A_spades")},
		&domain.Player{Hand: mustCards(t, "5_clubs", "6_clubs")},
	)
	state.AI.MinDelaySeconds = 1
	state.AI.MaxDelaySeconds = 1

	data, _ := json.Marshal(PlayCardsRequest{Cards: mustCards(t, "A_spades"), From: domain.ZoneHand})
	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpPlayCards, data)
	require.Zero(t, d.count(OpError))
	assert.Equal(t, 1, state.Game.CurrentPlayer)

	var msg StateMessage
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpState, human.userID), &msg))
	require.NotEmpty(t, msg.Events)
	assert.Equal(t, app.EventCardsPlayed, msg.Events[0].Kind)
	assert.Empty(t, msg.ValidMoves, "not the human's turn")

	// The bot waits one tick, then must pick up the pile.
	state.Tick = 10
	mh.processBots(ctx, state, d, noopLogger{})
	assert.Equal(t, int64(11), state.BotWaitUntil)
	assert.Equal(t, 1, state.Game.CurrentPlayer)

	state.Tick = 11
	mh.processBots(ctx, state, d, noopLogger{})
	assert.Equal(t, 0, state.Game.CurrentPlayer)
	assert.Len(t, state.Game.Players[1].Hand, 4)
	assert.Zero(t, state.BotWaitUntil)
	assert.Equal(t, 1, agent.PlayerID)

	require.NoError(t, json.Unmarshal(d.lastFor(t, OpState, human.userID), &msg))
	assert.Equal(t, app.EventPileTaken, msg.Events[0].Kind)
	assert.NotEmpty(t, msg.ValidMoves)
}

func TestPlayCards_BlindWithoutNamingCard(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state, human, _ := seatGame(t, mh, domain.RankFive, mustCards(t, "5_hearts"),
		&domain.Player{Blind: mustCards(t, "9_clubs", "3_hearts")},
		&domain.Player{Hand: mustCards(t, "5_clubs", "6_clubs")},
	)

	var msg StateMessage
	mh.sendStates(state, d, noopLogger{}, nil)
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpState, human.userID), &msg))
	require.Len(t, msg.ValidMoves, 1)
	assert.True(t, msg.ValidMoves[0].Cards[0].IsHidden())

	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpPlayCards, []byte(`{"from":"blind"}`))
	require.Zero(t, d.count(OpError))
	assert.Equal(t, mustCards(t, "3_hearts"), state.Game.Players[0].Blind)
	assert.Equal(t, domain.RankNine, state.Game.PileTopValue)
}

func TestTakePileAndJokerTarget(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state, human, _ := seatGame(t, mh, domain.RankTwo, []domain.Card{},
		&domain.Player{Hand: mustCards(t, "Joker_red", "4_clubs")},
		&domain.Player{Hand: mustCards(t, "5_clubs", "6_clubs")},
	)

	data, _ := json.Marshal(PlayCardsRequest{Cards: mustCards(t, "Joker_red"), From: domain.ZoneHand})
	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpPlayCards, data)
	require.True(t, state.Game.PendingJokerTarget)

	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpTakePile, nil)
	var msg ErrorMessage
	require.NoError(t, json.Unmarshal(d.lastFor(t, OpError, human.userID), &msg))
	assert.Equal(t, app.ErrJokerPending.Error(), msg.Message)

	data, _ = json.Marshal(SelectJokerTargetRequest{TargetPlayer: 1})
	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpSelectJokerTarget, data)
	assert.False(t, state.Game.PendingJokerTarget)
	assert.Len(t, state.Game.Players[1].Hand, 3)
	assert.Equal(t, 0, state.Game.CurrentPlayer)
}

func TestMatchLeave_BotTakesOverMidGame(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state, human, agent := seatGame(t, mh, domain.RankTwo, []domain.Card{},
		&domain.Player{Hand: mustCards(t, "4_clubs")},
		&domain.Player{Hand: mustCards(t, "5_clubs")},
	)
	guest := &mockPresence{userID: "user-2"}
	state.Seats[1] = guest.userID
	state.Players[1] = guest.userID
	state.Presences[guest.userID] = guest
	delete(state.Bots, agent.Identity.UserID)

	result := mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 3, state, []runtime.Presence{guest})
	require.NotNil(t, result)

	replacement := state.Players[1]
	assert.True(t, isBotUserId(replacement))
	assert.Equal(t, replacement, state.Seats[1])
	require.Contains(t, state.Bots, replacement)
	assert.Equal(t, 1, state.Bots[replacement].PlayerID)

	// The last human leaving ends the match.
	assert.Nil(t, mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 4, state, []runtime.Presence{human}))
}

func TestMatchJoinAttempt(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	state := newTestMatchState(t, 2)
	state.Seats[0] = "user-1"

	_, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, nil, 0, state, &mockPresence{userID: "user-2"}, nil)
	assert.True(t, ok)

	state.Game = &domain.GameState{Phase: domain.PhaseMainPlay}
	_, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, nil, 0, state, &mockPresence{userID: "user-2"}, nil)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	_, ok, _ = mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, nil, 0, state, &mockPresence{userID: "user-1"}, nil)
	assert.True(t, ok, "seated players may reconnect")
}

func TestProcessBots_AutoFillsSoloLobby(t *testing.T) {
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatchState(t, 3)
	state.Seats[0] = "user-1"
	state.LastSinglePlayerTick = 8
	state.Tick = 10

	mh.processBots(context.Background(), state, d, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}
	assert.Equal(t, 2, botCount)
	assert.Equal(t, domain.MaxPlayers-3, state.GetOpenSeatsCount())
	assert.Zero(t, state.LastSinglePlayerTick)
	assert.NotZero(t, d.count(OpPlayerJoined))
	assert.NotZero(t, d.labelUpdates)
}

func TestFullGameAgainstBots(t *testing.T) {
	ctx := context.Background()
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatchState(t, 3)
	human := &mockPresence{userID: "user-1", username: "alice"}

	mh.MatchJoin(ctx, noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{human})
	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpStartGame, nil)
	mh.handleMessage(ctx, state, d, noopLogger{}, human.userID, OpStartMainGame, nil)
	require.Equal(t, domain.PhaseMainPlay, state.Game.Phase)

	for tick := int64(1); tick < 5000 && state.Game.Phase == domain.PhaseMainPlay; tick++ {
		state.Tick = tick
		if state.actingPlayer() == 0 {
			humanTurn(t, ctx, mh, state, d, human.userID)
			continue
		}
		mh.processBots(ctx, state, d, noopLogger{})
	}

	assert.Zero(t, d.count(OpError))
	if state.Game.Phase == domain.PhaseEndGame {
		assert.Equal(t, 1, d.count(OpGameEnded))
	}
}

func humanTurn(t *testing.T, ctx context.Context, mh *matchHandler, state *MatchState, d *mockDispatcher, userID string) {
	t.Helper()
	if state.Game.PendingJokerTarget {
		for _, p := range state.Game.Players {
			if p.ID != 0 && !p.IsFinished {
				data, _ := json.Marshal(SelectJokerTargetRequest{TargetPlayer: p.ID})
				mh.handleMessage(ctx, state, d, noopLogger{}, userID, OpSelectJokerTarget, data)
				return
			}
		}
	}
	move := state.App.ValidMoves(state.Game, 0)[0]
	if move.Type == domain.MoveTakePile {
		mh.handleMessage(ctx, state, d, noopLogger{}, userID, OpTakePile, nil)
		return
	}
	data, _ := json.Marshal(PlayCardsRequest{Cards: move.Cards, From: move.From})
	mh.handleMessage(ctx, state, d, noopLogger{}, userID, OpPlayCards, data)
}
