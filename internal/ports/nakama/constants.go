package nakama

const (
	// MatchName is the authoritative match handler name registered with the
	// runtime, and the module name used when creating matches.
	MatchName = "tic-tac-toe"

	// RpcIDFindMatch is the RPC id clients call to find or create a match.
	RpcIDFindMatch = "find_match"
	// RpcIDRewards is the RPC id clients call to claim the daily reward.
	RpcIDRewards = "rewards"
)
