package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// FindMatchRequest is the payload clients send to find or create a match.
type FindMatchRequest struct {
	// Fast selects the short turn timer.
	Fast bool `json:"fast"`
	// AI requests a fresh match against the automated opponent.
	AI bool `json:"ai"`
}

// FindMatchResponse lists match IDs the user can join.
type FindMatchResponse struct {
	MatchIDs []string `json:"matchIds"`
}

// RpcFindMatch returns open matches that fit the request, creating a new one
// when none exist. Matches against the bot are always created fresh so the
// bot seat is reserved before anyone else can take it.
func RpcFindMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if _, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); !ok {
		return "", errNoUserIdFound
	}

	var request FindMatchRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", errUnmarshal
	}

	matchIDs := make([]string, 0, 10)
	if request.AI {
		matchID, err := nk.MatchCreate(ctx, MatchName, map[string]interface{}{"fast": request.Fast, "ai": true})
		if err != nil {
			logger.Error("error creating ai match: %v", err)
			return "", errInternalError
		}
		matchIDs = append(matchIDs, matchID)
		return marshalFindMatchResponse(logger, matchIDs)
	}

	fast := 0
	if request.Fast {
		fast = 1
	}
	query := fmt.Sprintf("+label.open:1 +label.fast:%d", fast)

	maxSize := 1
	matches, err := nk.MatchList(ctx, 10, true, "", nil, &maxSize, query)
	if err != nil {
		logger.Error("error listing matches: %v", err)
		return "", errInternalError
	}
	if len(matches) > 0 {
		// There are one or more ongoing matches the user could join.
		for _, match := range matches {
			matchIDs = append(matchIDs, match.MatchId)
		}
	} else {
		// No available matches found, create a new one.
		matchID, err := nk.MatchCreate(ctx, MatchName, map[string]interface{}{"fast": request.Fast})
		if err != nil {
			logger.Error("error creating match: %v", err)
			return "", errInternalError
		}
		matchIDs = append(matchIDs, matchID)
	}

	return marshalFindMatchResponse(logger, matchIDs)
}

func marshalFindMatchResponse(logger runtime.Logger, matchIDs []string) (string, error) {
	response, err := json.Marshal(&FindMatchResponse{MatchIDs: matchIDs})
	if err != nil {
		logger.Error("error marshaling response payload: %v", err)
		return "", errMarshal
	}
	return string(response), nil
}
