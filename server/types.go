package server

import (
	"github.com/undeconstructed/ludogo/comms"
	"github.com/undeconstructed/ludogo/game"
)

// PlayerInput describes one seat when creating a match. An empty colour
// takes the next free one in board order.
type PlayerInput struct {
	ID       string `json:"id"`
	Colour   string `json:"colour,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// CreateMatchInput is the REST body for starting a match.
type CreateMatchInput struct {
	Players []PlayerInput `json:"players"`
}

// MatchSummary is the listing view of a match.
type MatchSummary struct {
	ID          string          `json:"id"`
	Status      game.GameStatus `json:"status"`
	Version     int64           `json:"version"`
	CurrentTurn string          `json:"currentTurnPlayerId"`
	WinnerID    string          `json:"winnerId,omitempty"`
	Players     []string        `json:"players"`
}

// clientBundle is one connected socket's downstream channel. The gateway
// goroutine drains it; the core never blocks on it.
type clientBundle struct {
	downCh chan comms.Message
}

// messages into the core loop

type listMatchesMsg struct {
	Rep chan []MatchSummary
}

type createMatchMsg struct {
	In  CreateMatchInput
	Rep chan createMatchRes
}

type createMatchRes struct {
	Summary MatchSummary
	Err     error
}

type queryMatchMsg struct {
	ID  string
	Rep chan *comms.StatePush
}

type deleteMatchMsg struct {
	ID  string
	Rep chan error
}

type joinMatchMsg struct {
	MatchID  string
	PlayerID string
	Rep      chan joinMatchRes
}

type joinMatchRes struct {
	Token string
	Err   error
}

type connectMsg struct {
	MatchID  string
	PlayerID string
	Client   clientBundle
	Rep      chan connectRes
}

type connectRes struct {
	Push *comms.StatePush
	Err  error
}

// disconnectMsg carries the gateway's own bundle so a disconnect racing a
// reconnect cannot tear down the replacement connection.
type disconnectMsg struct {
	MatchID  string
	PlayerID string
	Client   clientBundle
}

type actionFromUser struct {
	MatchID  string
	PlayerID string
	ReqID    string
	Action   game.PlayerAction
}

type resyncFromUser struct {
	MatchID  string
	PlayerID string
	ReqID    string
}

type heartbeatFromUser struct {
	MatchID  string
	PlayerID string
}

type botMoveMsg struct {
	MatchID  string
	PlayerID string
}
