package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchRequest optionally asks for a table size when a new match must be created.
type QuickMatchRequest struct {
	Players int `json:"players,omitempty"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch)
}

// quickMatchQuery finds our open lobbies.
func quickMatchQuery() string {
	return fmt.Sprintf("+label.%s:%s +label.%s:%s +label.%s:>=1",
		MatchLabelKey_Game, labelGame,
		MatchLabelKey_Phase, labelPhaseLobby,
		MatchLabelKey_OpenSeats)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req QuickMatchRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			logger.Warn("RpcQuickMatch [User:%s]: bad payload: %v", userID, err)
			return "", runtime.NewError("invalid payload", 3)
		}
	}

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := 5 // a lobby with six presences has no seat left

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery())
	if err != nil {
		logger.Error("RpcQuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", err
	}

	resp := QuickMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
		logger.Info("RpcQuickMatch [User:%s]: Found existing match %s", userID, resp.MatchID)
	} else {
		// Seat and owner assignment happen in MatchJoin.
		params := map[string]interface{}{}
		if req.Players > 0 {
			params["players"] = req.Players
		}
		resp.MatchID, err = nk.MatchCreate(ctx, MatchNameShithead, params)
		if err != nil {
			logger.Error("RpcQuickMatch [User:%s]: MatchCreate error: %v", userID, err)
			return "", err
		}
		resp.IsNew = true
		logger.Info("RpcQuickMatch [User:%s]: Created new match %s", userID, resp.MatchID)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
