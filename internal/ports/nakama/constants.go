package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// MatchNameShithead is the authoritative match handler name registered with Nakama.
	MatchNameShithead = "shithead_match"

	// labelGame tags our matches in the label so list queries skip other modes.
	labelGame = "shithead"

	// tickRate is one tick per second, so AI delays are counted in ticks.
	tickRate = 1
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame         int64 = 1
	OpSwapCards         int64 = 2
	OpStartMainGame     int64 = 3
	OpPlayCards         int64 = 4
	OpTakePile          int64 = 5
	OpSelectJokerTarget int64 = 6

	// Server -> Client events
	OpState        int64 = 100 // sent per presence
	OpPlayerJoined int64 = 101
	OpGameEnded    int64 = 102
	OpError        int64 = 110 // sent to the offending presence only
)

// Error codes carried by OpError messages.
const (
	ErrCodeBadRequest = 400
	ErrCodeForbidden  = 403
	ErrCodeRejected   = 409
)
