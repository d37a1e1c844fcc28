package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"time"

	"shithead/internal/app"
	"shithead/internal/bot"
	"shithead/internal/config"
	"shithead/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	MatchLabelKey_OpenSeats = "open"  // Key for the open seats in the match label
	MatchLabelKey_Phase     = "phase" // lobby, setup or mainPlay
	MatchLabelKey_Game      = "game"
)

const labelPhaseLobby = "lobby"

var (
	errNotSeated = errors.New("you are not seated in this match")
	errNotOwner  = errors.New("only the match owner can do that")
	errNoGame    = errors.New("no game in progress")
	errInGame    = errors.New("a game is already in progress")
	errIllegal   = errors.New("those cards cannot be played on the pile")
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     [domain.MaxPlayers]string   `json:"seats"`      // Array of user IDs, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"`
	Game      *domain.GameState           `json:"-"` // nil until the first game is dealt
	// Players maps game player ids to the user ids seated when the game was dealt.
	Players []string `json:"players"`

	AI                   config.AIConfig       `json:"-"`
	TargetPlayers        int                   `json:"target_players"` // Table size auto-fill aims for
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`
	Rng                  *rand.Rand            `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// InProgress reports whether a dealt game has not ended yet.
func (ms *MatchState) InProgress() bool {
	return ms.Game != nil && ms.Game.Phase != domain.PhaseEndGame
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

// playerOf returns the game player id of userID, or -1.
func (ms *MatchState) playerOf(userID string) int {
	for id, uid := range ms.Players {
		if uid == userID {
			return id
		}
	}
	return -1
}

func (ms *MatchState) userOf(playerID int) string {
	if playerID < 0 || playerID >= len(ms.Players) {
		return ""
	}
	return ms.Players[playerID]
}

// actingPlayer is the player the game is waiting on, or domain.NoPlayer.
func (ms *MatchState) actingPlayer() int {
	if ms.Game == nil || ms.Game.Phase != domain.PhaseMainPlay {
		return domain.NoPlayer
	}
	if ms.Game.PendingJokerTarget {
		return ms.Game.JokerPlayerID
	}
	return ms.Game.CurrentPlayer
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// newMatchState builds an empty lobby from cfg.
func newMatchState(cfg *config.Config) *MatchState {
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &MatchState{
		OwnerSeat:     -1,
		Presences:     make(map[string]runtime.Presence),
		App:           app.NewService(rng, nil),
		AI:            cfg.AI,
		TargetPlayers: cfg.Game.PlayerCount,
		Bots:          make(map[string]*bot.Agent),
		Rng:           rng,
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.LoadRuntimeEnv(env)
	if err != nil {
		logger.Error("MatchInit: Invalid configuration: %v", err)
		return nil, 0, ""
	}

	state := newMatchState(cfg)
	if n, ok := intParam(params, "players"); ok && n >= domain.MinPlayers && n <= domain.MaxPlayers {
		state.TargetPlayers = n
	}

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: lobby for %d players (auto_fill=%t)", state.TargetPlayers, state.AI.AutoFill)
	return state, tickRate, label
}

// intParam reads a numeric match param, which arrives as float64 from JSON
// clients and as int from Go callers.
func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Reconnects keep their seat.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.InProgress() {
		return state, false, "Game in progress"
	}

	// Allow join if there is an empty seat OR a bot to replace
	if matchState.GetOpenSeatsCount() <= 0 {
		for _, seat := range matchState.Seats {
			if isBotUserId(seat) {
				return state, true, ""
			}
		}
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		if matchState.seatOf(p.GetUserId()) >= 0 {
			logger.Debug("MatchJoin: User %s reconnected.", p.GetUserId())
			continue
		}
		if !mh.seatHuman(matchState, logger, p.GetUserId()) {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", p.GetUserId())
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	mh.sendStates(matchState, dispatcher, logger, nil)
	return matchState
}

// seatHuman places userID in the first empty seat, or in place of a lobby bot.
func (mh *matchHandler) seatHuman(state *MatchState, logger runtime.Logger, userID string) bool {
	for i, seatUserId := range state.Seats {
		if seatUserId == "" {
			state.Seats[i] = userID
			return true
		}
	}
	if state.InProgress() {
		return false
	}
	for i, seatUserId := range state.Seats {
		if isBotUserId(seatUserId) {
			logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
			delete(state.Bots, seatUserId)
			state.Seats[i] = userID
			return true
		}
	}
	return false
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		playerID := matchState.playerOf(userID)
		if matchState.InProgress() && playerID >= 0 {
			// An AI takes over the player's cards so the game can finish.
			agent, err := mh.newAgent(matchState, playerID, matchState.AI.DefaultDifficulty)
			if err != nil {
				logger.Error("MatchLeave: Failed to create replacement bot: %v", err)
				matchState.Seats[seat] = ""
				continue
			}
			matchState.Seats[seat] = agent.Identity.UserID
			matchState.Players[playerID] = agent.Identity.UserID
			logger.Info("MatchLeave: User %s left mid-game, bot %s took seat %d.", userID, agent.Identity.UserID, seat)
			continue
		}
		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	}

	if newOwnerSeat := findFirstHumanSeat(matchState.Seats[:]); newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		logger.Debug("MatchLeave: Owner set to seat %d.", newOwnerSeat)
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), msg.GetData())
	}

	mh.processBots(ctx, matchState, dispatcher, logger)
	return matchState
}

// handleMessage routes one client message. Failures are reported to the
// sender only.
func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, opCode int64, data []byte) {
	var (
		events []app.Event
		err    error
	)
	switch opCode {
	case OpStartGame:
		err = mh.handleStartGame(state, dispatcher, logger, senderID)
		if err == nil {
			mh.updateLabel(state, dispatcher, logger)
			mh.broadcastMatchState(state, dispatcher, logger)
			mh.sendStates(state, dispatcher, logger, nil)
		}
	case OpSwapCards:
		events, err = mh.handleSwapCards(state, senderID, data)
	case OpStartMainGame:
		events, err = mh.handleStartMainGame(state, senderID)
	case OpPlayCards:
		events, err = mh.handlePlayCards(state, senderID, data)
	case OpTakePile:
		events, err = mh.handleTakePile(state, senderID)
	case OpSelectJokerTarget:
		events, err = mh.handleSelectJokerTarget(state, senderID, data)
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", opCode)
		return
	}

	if err != nil {
		logger.Warn("MatchLoop: op %d from %s rejected: %v", opCode, senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	if events != nil {
		mh.applyEvents(ctx, state, dispatcher, logger, events)
	}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, errNotOwner), errors.Is(err, errNotSeated):
		return ErrCodeForbidden
	case errors.Is(err, errEmptyPayload):
		return ErrCodeBadRequest
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrCodeBadRequest
	}
	return ErrCodeRejected
}

// handleStartGame deals a new game for the seated players. With auto-fill
// on, empty seats are first given to bots up to the target table size.
func (mh *matchHandler) handleStartGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) error {
	senderSeat := state.seatOf(senderID)
	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		return errNotOwner
	}
	if state.InProgress() {
		return errInGame
	}
	if state.AI.AutoFill {
		mh.fillSeats(state, logger)
	}
	if n := state.GetOccupiedSeatCount(); n < app.MinPlayersToStartGame {
		return app.ErrTooFewPlayers
	}

	players := make([]string, 0, len(state.Seats))
	for _, uid := range state.Seats {
		if uid != "" {
			players = append(players, uid)
		}
	}
	game, err := state.App.NewGame(len(players))
	if err != nil {
		return err
	}

	state.Game = game
	state.Players = players
	state.BotWaitUntil = 0
	for id, uid := range players {
		if !isBotUserId(uid) {
			continue
		}
		agent, ok := state.Bots[uid]
		if !ok {
			var err error
			if agent, err = mh.newAgent(state, id, state.AI.DefaultDifficulty); err != nil {
				return err
			}
			// Keep the seat's user id stable for clients.
			delete(state.Bots, agent.Identity.UserID)
			agent.Identity.UserID = uid
			state.Bots[uid] = agent
		}
		agent.PlayerID = id
	}

	logger.Info("StartGame: Game %s dealt for %d players.", game.ID, len(players))
	return nil
}

func (mh *matchHandler) handleSwapCards(state *MatchState, senderID string, data []byte) ([]app.Event, error) {
	playerID, err := mh.requirePlayer(state, senderID)
	if err != nil {
		return nil, err
	}
	var req SwapCardsRequest
	if err := decodeRequest(data, &req); err != nil {
		return nil, err
	}
	return state.App.SwapCards(state.Game, playerID, req.HandCard, req.FaceUpCard)
}

func (mh *matchHandler) handleStartMainGame(state *MatchState, senderID string) ([]app.Event, error) {
	if state.Game == nil {
		return nil, errNoGame
	}
	if seat := state.seatOf(senderID); seat < 0 || seat != state.OwnerSeat {
		return nil, errNotOwner
	}
	return state.App.StartMainGame(state.Game)
}

func (mh *matchHandler) handlePlayCards(state *MatchState, senderID string, data []byte) ([]app.Event, error) {
	playerID, err := mh.requirePlayer(state, senderID)
	if err != nil {
		return nil, err
	}
	var req PlayCardsRequest
	if err := decodeRequest(data, &req); err != nil {
		return nil, err
	}

	// Clients cannot name their blind card; an empty or hidden card means the top one.
	if req.From == domain.ZoneBlind && (len(req.Cards) == 0 || req.Cards[0].IsHidden()) {
		if p, ok := state.Game.Player(playerID); ok && len(p.Blind) > 0 {
			req.Cards = []domain.Card{p.Blind[0]}
		}
	}
	if state.Game.Phase == domain.PhaseMainPlay && state.actingPlayer() == playerID &&
		!state.App.CanPlay(state.Game, playerID, req.Cards) {
		return nil, errIllegal
	}
	return state.App.PlayCards(state.Game, playerID, req.Cards, req.From)
}

func (mh *matchHandler) handleTakePile(state *MatchState, senderID string) ([]app.Event, error) {
	playerID, err := mh.requirePlayer(state, senderID)
	if err != nil {
		return nil, err
	}
	return state.App.TakePile(state.Game, playerID)
}

func (mh *matchHandler) handleSelectJokerTarget(state *MatchState, senderID string, data []byte) ([]app.Event, error) {
	playerID, err := mh.requirePlayer(state, senderID)
	if err != nil {
		return nil, err
	}
	var req SelectJokerTargetRequest
	if err := decodeRequest(data, &req); err != nil {
		return nil, err
	}
	return state.App.SelectJokerTarget(state.Game, playerID, req.TargetPlayer)
}

func (mh *matchHandler) requirePlayer(state *MatchState, senderID string) (int, error) {
	if state.Game == nil {
		return domain.NoPlayer, errNoGame
	}
	playerID := state.playerOf(senderID)
	if playerID < 0 {
		return domain.NoPlayer, errNotSeated
	}
	return playerID, nil
}

// applyEvents feeds bots, pushes fresh views to every presence, and closes
// out the game when it ended.
func (mh *matchHandler) applyEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		for _, agent := range state.Bots {
			if state.userOf(agent.PlayerID) != agent.Identity.UserID {
				continue
			}
			if ev.IsPrivate() && !containsPlayer(ev.Recipients, agent.PlayerID) {
				continue
			}
			agent.OnGameEvent(ev)
		}
	}

	mh.sendStates(state, dispatcher, logger, events)

	for _, ev := range events {
		if ev.Kind != app.EventGameEnded {
			continue
		}
		p, ok := ev.Payload.(app.GameEndedPayload)
		if !ok {
			continue
		}
		mh.broadcastGameEnded(state, dispatcher, logger, p)
		mh.updateLabel(state, dispatcher, logger)
	}
	if len(events) > 0 && events[0].Kind == app.EventMainPlayStarted {
		mh.updateLabel(state, dispatcher, logger)
	}
}

// fillSeats seats bots in empty seats until the table reaches TargetPlayers.
func (mh *matchHandler) fillSeats(state *MatchState, logger runtime.Logger) bool {
	added := false
	for i, seat := range state.Seats {
		if state.GetOccupiedSeatCount() >= state.TargetPlayers {
			break
		}
		if seat != "" {
			continue
		}
		agent, err := mh.newAgent(state, i, string(state.AI.Difficulty(i)))
		if err != nil {
			logger.Error("Failed to create bot agent for seat %d: %v", i, err)
			continue
		}
		state.Seats[i] = agent.Identity.UserID
		logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Identity.Username, agent.Identity.UserID, i)
		added = true
	}
	return added
}

func (mh *matchHandler) newAgent(state *MatchState, playerID int, level string) (*bot.Agent, error) {
	difficulty, err := bot.ParseDifficulty(level)
	if err != nil {
		return nil, err
	}
	agent, err := bot.NewAgent(playerID, difficulty, rand.New(rand.NewSource(state.Rng.Int63())))
	if err != nil {
		return nil, err
	}
	state.Bots[agent.Identity.UserID] = agent
	return agent, nil
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if !state.InProgress() && state.AI.AutoFill {
		if state.GetHumanPlayerCount() == 1 && state.GetOccupiedSeatCount() < state.TargetPlayers {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.AI.AutoFillDelaySeconds) {
				if mh.fillSeats(state, logger) {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastMatchState(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
	}

	// 2. Handle bot turns in-game
	acting := state.actingPlayer()
	userID := state.userOf(acting)
	if acting == domain.NoPlayer || !isBotUserId(userID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + mh.botDelay(state)
		logger.Debug("processBots: Bot %s (player %d) will act at tick %d (current %d)", userID, acting, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, ok := state.Bots[userID]
	if !ok {
		var err error
		if agent, err = mh.newAgent(state, acting, state.AI.DefaultDifficulty); err != nil {
			logger.Error("processBots: Failed to create fallback agent: %v", err)
			return
		}
		delete(state.Bots, agent.Identity.UserID)
		agent.Identity.UserID = userID
		state.Bots[userID] = agent
	}

	events, err := agent.Act(ctx, state.App, state.Game)
	if err != nil {
		logger.Error("processBots: Bot %s failed to act: %v", userID, err)
		return
	}
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

// botDelay draws the ticks a bot waits before acting, within the configured range.
func (mh *matchHandler) botDelay(state *MatchState) int64 {
	lo, hi := state.AI.MinDelaySeconds, state.AI.MaxDelaySeconds
	seconds := lo
	if hi > lo {
		seconds += state.Rng.Float64() * (hi - lo)
	}
	return int64(math.Ceil(seconds * tickRate))
}

func (mh *matchHandler) seatStates(state *MatchState) []SeatState {
	seats := make([]SeatState, 0, len(state.Seats))
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}
		displayName := userId
		if p, exists := state.Presences[userId]; exists {
			displayName = p.GetUsername()
		} else if agent, ok := state.Bots[userId]; ok {
			displayName = agent.Identity.DisplayName
		}
		seats = append(seats, SeatState{
			Seat:        i,
			UserID:      userId,
			DisplayName: displayName,
			IsBot:       isBotUserId(userId),
			IsOwner:     i == state.OwnerSeat,
			PlayerID:    state.playerOf(userId),
		})
	}
	return seats
}

func (mh *matchHandler) lobbySnapshot(state *MatchState) LobbySnapshot {
	return LobbySnapshot{
		Seats:     mh.seatStates(state),
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
	}
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	data, err := json.Marshal(mh.lobbySnapshot(state))
	if err != nil {
		logger.Error("Failed to marshal lobby snapshot: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpPlayerJoined, data, nil, nil, true)
}

// sendStates sends every connected human their own redacted view of the game
// together with the events they may see.
func (mh *matchHandler) sendStates(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	lobby := mh.lobbySnapshot(state)
	for userID, presence := range state.Presences {
		playerID := state.playerOf(userID)
		msg := StateMessage{LobbySnapshot: lobby, You: playerID}

		if state.Game != nil && playerID >= 0 {
			view := state.App.PlayerView(state.Game, playerID)
			redactOwnBlind(view, playerID)
			msg.Game = view
			msg.Events = visibleEvents(events, playerID)
			if state.actingPlayer() == playerID && !state.Game.PendingJokerTarget {
				msg.ValidMoves = redactMoves(state.App.ValidMoves(state.Game, playerID))
			}
		}

		data, err := json.Marshal(msg)
		if err != nil {
			logger.Error("Failed to marshal state for %s: %v", userID, err)
			continue
		}
		dispatcher.BroadcastMessage(OpState, data, []runtime.Presence{presence}, nil, true)
	}
}

func (mh *matchHandler) broadcastGameEnded(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p app.GameEndedPayload) {
	msg := GameEndedMessage{
		Winner:      state.userOf(p.Winner),
		Loser:       state.userOf(p.Loser),
		FinishOrder: make([]string, 0, len(p.FinishOrder)),
	}
	for _, id := range p.FinishOrder {
		msg.FinishOrder = append(msg.FinishOrder, state.userOf(id))
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal game ended: %v", err)
		return
	}
	logger.Info("Game %s ended: winner=%s loser=%s", state.Game.ID, msg.Winner, msg.Loser)
	dispatcher.BroadcastMessage(OpGameEnded, data, nil, nil, true)
}

// sendError sends an ErrorMessage to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	data, err := json.Marshal(ErrorMessage{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal error message: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{presence}, nil, true)
}

// matchLabel renders the searchable label as a protobuf Struct in JSON form.
func matchLabel(state *MatchState) (string, error) {
	phase := labelPhaseLobby
	if state.InProgress() {
		phase = string(state.Game.Phase)
	}
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKey_Game:      labelGame,
		MatchLabelKey_OpenSeats: state.GetOpenSeatsCount(),
		MatchLabelKey_Phase:     phase,
		"humans":                state.GetHumanPlayerCount(),
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
