package game

// GameError is a rule violation: an expected, user-facing reason why a
// request cannot be honoured. It is never a crash and it never leaves the
// state half-applied.
type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) ErrorCode() string { return e.Code }
func (e *GameError) Error() string     { return e.Msg }

var (
	// ErrNoGameState means there is no match state to act on
	ErrNoGameState = &GameError{"NO_GAME_STATE", "no game state"}
	// ErrNotYourTurn means the acting player does not own the turn
	ErrNotYourTurn = &GameError{"NOT_YOUR_TURN", "it's not your turn"}
	// ErrDiceValueNotAllowed means a client tried to supply its own die value
	ErrDiceValueNotAllowed = &GameError{"DICE_VALUE_NOT_ALLOWED", "clients do not roll their own dice"}
	// ErrPositionNotAllowed means a client tried to supply a destination
	ErrPositionNotAllowed = &GameError{"POSITION_NOT_ALLOWED", "clients do not choose destinations"}
	// ErrTokenNotFound means the referenced token does not exist
	ErrTokenNotFound = &GameError{"TOKEN_NOT_FOUND", "no such token"}
	// ErrTokenCannotMove means the token cannot legally move with this dice
	ErrTokenCannotMove = &GameError{"TOKEN_CANNOT_MOVE", "token cannot move"}
	// ErrInvalidState means the operation does not fit the current phase
	ErrInvalidState = &GameError{"INVALID_STATE", "invalid state for this action"}
)

var errsByCode = map[string]*GameError{}

func init() {
	for _, e := range []*GameError{
		ErrNoGameState, ErrNotYourTurn, ErrDiceValueNotAllowed,
		ErrPositionNotAllowed, ErrTokenNotFound, ErrTokenCannotMove,
		ErrInvalidState,
	} {
		errsByCode[e.Code] = e
	}
}

// ErrorByCode recovers the sentinel for a wire error code, or nil if the
// code is not one of ours.
func ErrorByCode(code string) *GameError {
	return errsByCode[code]
}
