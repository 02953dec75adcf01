package comms

import (
	"errors"

	"github.com/undeconstructed/ludogo/game"
)

// WireError carries a rule violation across the network by code.
type WireError struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

// WrapError turns an error into its wire form, nil for nil.
func WrapError(err error) *WireError {
	if err == nil {
		return nil
	}
	ge := &game.GameError{}
	if errors.As(err, &ge) {
		return &WireError{Code: ge.Code, Msg: ge.Msg}
	}
	return &WireError{Code: "ERROR", Msg: err.Error()}
}

// ReError reconstructs an error from its wire form, preferring the game
// sentinel so callers can compare directly.
func ReError(w *WireError) error {
	if w == nil {
		return nil
	}
	if e := game.ErrorByCode(w.Code); e != nil {
		return e
	}
	return &game.GameError{Code: w.Code, Msg: w.Msg}
}

// NetworkFault is a transport failure kind. These are infrastructure
// outcomes, disjoint from rule violations.
type NetworkFault string

const (
	FaultTimeout        NetworkFault = "TIMEOUT"
	FaultConnectionLost NetworkFault = "CONNECTION_LOST"
)

// NetworkError is a transport failure. Timeout leaves everything intact
// and retryable; connection loss blocks submission until a reconnect
// re-establishes an authoritative snapshot.
type NetworkError struct {
	Fault NetworkFault
}

func (e *NetworkError) Error() string {
	return "network: " + string(e.Fault)
}

var (
	ErrTimeout        = &NetworkError{FaultTimeout}
	ErrConnectionLost = &NetworkError{FaultConnectionLost}
)
