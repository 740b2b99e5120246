package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	rewardCoins            = 500
	notificationCodeReward = 1001
)

// dailyReward is the per-user storage object tracking reward claims.
type dailyReward struct {
	// LastClaimUnix is the last time the user claimed the reward, in UNIX
	// time.
	LastClaimUnix int64 `json:"last_claim_unix"`
}

// rewardsResponse is returned to the client on every call; CoinsReceived is
// zero when the reward was already claimed today.
type rewardsResponse struct {
	CoinsReceived int64 `json:"coins_received"`
}

// claimAvailable reports whether a reward last claimed at lastClaim can be
// claimed again at now. A new reward unlocks at local midnight.
func claimAvailable(lastClaim, now time.Time) bool {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return lastClaim.Before(midnight)
}

// RpcRewards grants the player their daily reward. If a new reward is
// available the wallet is credited and the player notified; the storage
// object is written back with its version for optimistic concurrency.
func RpcRewards(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok {
		return "", errNoUserIdFound
	}

	if len(payload) > 0 {
		return "", errNoInputAllowed
	}

	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: "reward",
		Key:        "daily",
		UserID:     userID,
	}})
	if err != nil {
		logger.Error("StorageRead error: %v", err)
		return "", errInternalError
	}

	reward := &dailyReward{}
	for _, object := range objects {
		if object.GetKey() != "daily" {
			continue
		}
		if err := json.Unmarshal([]byte(object.GetValue()), reward); err != nil {
			logger.Error("Unmarshal error: %v", err)
			return "", errUnmarshal
		}
	}

	resp := rewardsResponse{}

	now := time.Now()
	if claimAvailable(time.Unix(reward.LastClaimUnix, 0), now) {
		resp.CoinsReceived = rewardCoins

		changeset := map[string]int64{"coins": resp.CoinsReceived}
		if _, _, err := nk.WalletUpdate(ctx, userID, changeset, map[string]interface{}{}, false); err != nil {
			logger.Error("WalletUpdate error: %v", err)
			return "", errInternalError
		}

		err := nk.NotificationsSend(ctx, []*runtime.NotificationSend{{
			Code: notificationCodeReward,
			Content: map[string]interface{}{
				"coins": changeset["coins"],
			},
			Persistent: true,
			Sender:     "", // Server sent.
			Subject:    "You've received your daily reward!",
			UserID:     userID,
		}})
		if err != nil {
			logger.Error("NotificationsSend error: %v", err)
			return "", errInternalError
		}

		reward.LastClaimUnix = now.Unix()

		object, err := json.Marshal(reward)
		if err != nil {
			logger.Error("Marshal error: %v", err)
			return "", errInternalError
		}

		version := ""
		if len(objects) > 0 {
			// Use OCC to prevent concurrent writes.
			version = objects[0].GetVersion()
		}

		_, err = nk.StorageWrite(ctx, []*runtime.StorageWrite{{
			Collection:      "reward",
			Key:             "daily",
			PermissionRead:  1,
			PermissionWrite: 0, // No client write.
			Value:           string(object),
			Version:         version,
			UserID:          userID,
		}})
		if err != nil {
			logger.Error("StorageWrite error: %v", err)
			return "", errInternalError
		}
	}

	out, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Marshal error: %v", err)
		return "", errMarshal
	}

	return string(out), nil
}
