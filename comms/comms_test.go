package comms

import (
	"bytes"
	"errors"
	"testing"

	"github.com/undeconstructed/ludogo/game"
)

func TestEncDec(t *testing.T) {
	var network bytes.Buffer
	enc := NewEncoder(&network)
	dec := NewDecoder(&network)

	err := enc.Encode("test", "data")
	if err != nil {
		t.Errorf("enc error: %v", err)
	}

	msg, err := dec.Decode()
	if err != nil {
		t.Errorf("dec error: %v", err)
	}
	if t0 := msg.Type(); t0 != "test" {
		t.Errorf("bad decode: %v", t0)
	}
	if string(msg.Data) != "\"data\"" {
		t.Errorf("bad decode: %v", msg.Data)
	}
}

func TestHeadFields(t *testing.T) {
	h := For("request", "7", "action")
	f := h.Fields()
	if len(f) != 3 || f[0] != "request" || f[1] != "7" || f[2] != "action" {
		t.Errorf("fields = %v", f)
	}
}

func TestEncDec_action(t *testing.T) {
	var network bytes.Buffer
	enc := NewEncoder(&network)
	dec := NewDecoder(&network)

	a := game.NewAction(game.ActionRollDice, "p1", nil)
	if err := enc.Encode("request:1:action", ActionRequest{Action: a}); err != nil {
		t.Fatalf("enc: %v", err)
	}

	msg, err := dec.Decode()
	if err != nil {
		t.Fatalf("dec: %v", err)
	}
	req := ActionRequest{}
	if err := Decode(msg, &req); err != nil {
		t.Fatalf("body: %v", err)
	}
	if req.Action.Type != game.ActionRollDice || req.Action.PlayerID != "p1" {
		t.Errorf("action = %+v", req.Action)
	}
	if req.Action.DiceValue != nil || req.Action.TargetPosition != nil {
		t.Errorf("privileged fields appeared from nowhere")
	}
}

func TestWrapReError(t *testing.T) {
	if WrapError(nil) != nil {
		t.Errorf("nil should wrap to nil")
	}
	w := WrapError(game.ErrNotYourTurn)
	if w.Code != "NOT_YOUR_TURN" {
		t.Errorf("code = %s", w.Code)
	}
	if ReError(w) != game.ErrNotYourTurn {
		t.Errorf("sentinel lost on the way back")
	}

	w2 := WrapError(errors.New("boom"))
	if w2.Code != "ERROR" {
		t.Errorf("code = %s", w2.Code)
	}
	if ReError(w2) == nil {
		t.Errorf("error lost")
	}
	if ReError(nil) != nil {
		t.Errorf("nil should re-error to nil")
	}
}

func TestNetworkError_distinct(t *testing.T) {
	var err error = ErrTimeout
	ne := &NetworkError{}
	if !errors.As(err, &ne) || ne.Fault != FaultTimeout {
		t.Errorf("timeout not recognized")
	}
	ge := &game.GameError{}
	if errors.As(err, &ge) {
		t.Errorf("network error masquerading as a rule violation")
	}
}
