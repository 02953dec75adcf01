package game

import (
	"testing"
)

func intp(v int) *int { return &v }

func TestValidate_noState(t *testing.T) {
	a := NewAction(ActionRollDice, "p1", nil)
	if err := Validate(nil, a); err != ErrNoGameState {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_turnOwnership(t *testing.T) {
	s := mustState(t, fourPlayers())
	if err := Validate(&s, NewAction(ActionRollDice, "p2", nil)); err != ErrNotYourTurn {
		t.Errorf("err = %v", err)
	}
	if err := Validate(&s, NewAction(ActionRollDice, "nobody", nil)); err != ErrNotYourTurn {
		t.Errorf("err = %v", err)
	}
	if err := Validate(&s, NewAction(ActionRollDice, "p1", nil)); err != nil {
		t.Errorf("legitimate roll rejected: %v", err)
	}
}

// Forged privileged fields are rejected even when the player does own the
// turn.
func TestValidate_forgedDice(t *testing.T) {
	s := mustState(t, fourPlayers())
	a := NewAction(ActionRollDice, "p1", nil)
	a.DiceValue = intp(6)
	if err := Validate(&s, a); err != ErrDiceValueNotAllowed {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_forgedPosition(t *testing.T) {
	s := mustState(t, fourPlayers())
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 6

	a := NewAction(ActionMoveToken, "p1", intp(0))
	a.TargetPosition = intp(30)
	if err := Validate(&s, a); err != ErrPositionNotAllowed {
		t.Errorf("err = %v", err)
	}

	// same for a roll
	s2 := mustState(t, fourPlayers())
	b := NewAction(ActionRollDice, "p1", nil)
	b.TargetPosition = intp(0)
	if err := Validate(&s2, b); err != ErrPositionNotAllowed {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_moveToken(t *testing.T) {
	s := mustState(t, fourPlayers())
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3
	setToken(&s, "p1", 1, TokenActive, 10)

	if err := Validate(&s, NewAction(ActionMoveToken, "p1", nil)); err != ErrTokenNotFound {
		t.Errorf("missing token id: %v", err)
	}
	if err := Validate(&s, NewAction(ActionMoveToken, "p1", intp(7))); err != ErrTokenNotFound {
		t.Errorf("out of range: %v", err)
	}
	// token 0 is home and 3 is not a six
	if err := Validate(&s, NewAction(ActionMoveToken, "p1", intp(0))); err != ErrTokenCannotMove {
		t.Errorf("immovable token: %v", err)
	}
	if err := Validate(&s, NewAction(ActionMoveToken, "p1", intp(1))); err != nil {
		t.Errorf("legitimate move rejected: %v", err)
	}
}

// With no dice committed yet, move legality cannot be judged, so only the
// token's existence is checked.
func TestValidate_moveWithoutDice(t *testing.T) {
	s := mustState(t, fourPlayers())
	if err := Validate(&s, NewAction(ActionMoveToken, "p1", intp(0))); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_checkOrder(t *testing.T) {
	s := mustState(t, fourPlayers())
	// wrong turn beats forged dice
	a := NewAction(ActionRollDice, "p2", nil)
	a.DiceValue = intp(6)
	if err := Validate(&s, a); err != ErrNotYourTurn {
		t.Errorf("err = %v", err)
	}
	// forged dice beats forged position
	b := NewAction(ActionRollDice, "p1", nil)
	b.DiceValue = intp(6)
	b.TargetPosition = intp(3)
	if err := Validate(&s, b); err != ErrDiceValueNotAllowed {
		t.Errorf("err = %v", err)
	}
}

func TestParse_failsClosed(t *testing.T) {
	if _, err := ParseGameStatus("in_progress"); err != nil {
		t.Errorf("known status rejected: %v", err)
	}
	if _, err := ParseGameStatus("paused"); err == nil {
		t.Errorf("unknown status accepted")
	}
	if _, err := ParseTokenState("active"); err != nil {
		t.Errorf("known token state rejected: %v", err)
	}
	if _, err := ParseTokenState("limbo"); err == nil {
		t.Errorf("unknown token state accepted")
	}
}
