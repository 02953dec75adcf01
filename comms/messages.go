package comms

import (
	"github.com/undeconstructed/ludogo/game"
)

// ConnectRequest opens a session. The token is the JWT issued by the join
// endpoint; it names the match and player so the socket carries neither.
type ConnectRequest struct {
	Token string `json:"token"`
}

// ConnectResponse answers a connect. On success State holds a full
// authoritative snapshot to (re)start from.
type ConnectResponse struct {
	Err   *WireError `json:"error,omitempty"`
	State *StatePush `json:"state,omitempty"`
}

// ActionRequest submits one player action.
type ActionRequest struct {
	Action game.PlayerAction `json:"action"`
}

// ActionResponse answers one action request: either a wire error, or the
// resulting authoritative snapshot plus what happened.
type ActionResponse struct {
	Err       *WireError `json:"error,omitempty"`
	State     *StatePush `json:"state,omitempty"`
	Dice      int        `json:"dice,omitempty"`
	Movable   []int      `json:"movable,omitempty"`
	Forfeited bool       `json:"forfeited,omitempty"`
	Move      *game.Move `json:"move,omitempty"`
	BonusTurn bool       `json:"bonusTurn,omitempty"`
	Won       bool       `json:"won,omitempty"`
}

// StatePush is a versioned snapshot pushed by the host. RequiresResync
// tells the client its local history is not contiguous with this state
// and any pending optimism must be dropped.
type StatePush struct {
	Version        int64      `json:"version"`
	State          game.State `json:"state"`
	RequiresResync bool       `json:"requiresResync,omitempty"`
	News           []string   `json:"news,omitempty"`
}

// Heartbeat is a liveness ping; it never touches game state.
type Heartbeat struct {
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
}
