package game

import "time"

// ActionType is what a client is asking for.
type ActionType string

const (
	ActionRollDice  ActionType = "ROLL_DICE"
	ActionMoveToken ActionType = "MOVE_TOKEN"
	ActionHeartbeat ActionType = "HEARTBEAT"
)

// PlayerAction is an unvalidated client intent, exactly as it arrives off
// the wire. DiceValue and TargetPosition exist only so that a forged one
// can be seen and rejected; a well-behaved client never sets them.
type PlayerAction struct {
	Type           ActionType `json:"type"`
	PlayerID       string     `json:"playerId"`
	TokenID        *int       `json:"tokenId,omitempty"`
	DiceValue      *int       `json:"diceValue,omitempty"`
	TargetPosition *int       `json:"targetPosition,omitempty"`
	Timestamp      int64      `json:"timestamp"`
}

// NewAction builds a legitimate client action. Privileged fields stay nil.
func NewAction(t ActionType, playerID string, tokenID *int) PlayerAction {
	return PlayerAction{
		Type:      t,
		PlayerID:  playerID,
		TokenID:   tokenID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Validate checks a candidate action against the current authoritative
// state, failing on the first problem. It is stateless and runs on both
// sides: the client calls it to save a round trip, the host calls it as
// the only check that counts. The host rolls all dice and computes all
// destinations, so an action carrying either field is a forgery no matter
// whose turn it is.
func Validate(s *State, a PlayerAction) error {
	if s == nil {
		return ErrNoGameState
	}
	if a.PlayerID != s.CurrentTurn {
		return ErrNotYourTurn
	}
	if a.DiceValue != nil {
		return ErrDiceValueNotAllowed
	}
	if a.TargetPosition != nil {
		return ErrPositionNotAllowed
	}
	if a.Type == ActionMoveToken {
		if a.TokenID == nil || *a.TokenID < 0 || *a.TokenID >= TokensPerPlayer {
			return ErrTokenNotFound
		}
		if s.DiceValue != 0 {
			p := s.Player(a.PlayerID)
			if p == nil {
				return ErrNoGameState
			}
			if !CanMove(p.Tokens[*a.TokenID], s.DiceValue) {
				return ErrTokenCannotMove
			}
		}
	}
	return nil
}
