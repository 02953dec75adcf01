package game

import (
	"testing"
)

func fourPlayers() []Player {
	return []Player{
		NewPlayer("p1", ColourRed, false),
		NewPlayer("p2", ColourBlue, false),
		NewPlayer("p3", ColourGreen, false),
		NewPlayer("p4", ColourYellow, false),
	}
}

func mustState(t *testing.T, players []Player) State {
	t.Helper()
	s, err := NewState(players)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

// setToken places a token directly, for building scenarios.
func setToken(s *State, playerID string, tokenID int, st TokenState, pos int) {
	tok := &s.Player(playerID).Tokens[tokenID]
	tok.State = st
	tok.Position = pos
}

func TestCanMove(t *testing.T) {
	home := Token{State: TokenHome, Position: HomePosition}
	for d := 1; d <= 5; d++ {
		if CanMove(home, d) {
			t.Errorf("home token moved with %d", d)
		}
	}
	if !CanMove(home, 6) {
		t.Errorf("home token stuck on a 6")
	}

	at55 := Token{State: TokenActive, Position: 55}
	if !CanMove(at55, 1) || !CanMove(at55, 2) {
		t.Errorf("55 should move with 1 or 2")
	}
	for d := 3; d <= 6; d++ {
		if CanMove(at55, d) {
			t.Errorf("55 overshot with %d", d)
		}
	}

	done := Token{State: TokenFinished, Position: FinishPosition}
	if CanMove(done, 1) {
		t.Errorf("finished token moved")
	}
}

func TestRollDice_noMovableAdvances(t *testing.T) {
	s := mustState(t, fourPlayers())

	res, err := RollDice(s, 3)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if !res.TurnEnded {
		t.Errorf("turn should end, nothing can move on a 3")
	}
	if res.State.CurrentTurn != "p2" {
		t.Errorf("turn on %s", res.State.CurrentTurn)
	}
	if !res.State.CanRollDice || res.State.MustSelectToken || res.State.DiceValue != 0 {
		t.Errorf("bad turn fields after advance")
	}
	// input untouched
	if s.CurrentTurn != "p1" {
		t.Errorf("input state mutated")
	}
}

func TestRollDice_sixEntersSelection(t *testing.T) {
	s := mustState(t, fourPlayers())

	res, err := RollDice(s, 6)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if res.TurnEnded {
		t.Errorf("six should offer exits")
	}
	if len(res.Movable) != 4 {
		t.Errorf("movable = %v", res.Movable)
	}
	if !res.State.MustSelectToken || res.State.CanRollDice || res.State.DiceValue != 6 {
		t.Errorf("bad selection fields")
	}
	if res.State.ConsecutiveSixes != 1 {
		t.Errorf("sixes = %d", res.State.ConsecutiveSixes)
	}
}

func TestRollDice_thirdSixForfeits(t *testing.T) {
	s := mustState(t, fourPlayers())
	s.ConsecutiveSixes = 2
	setToken(&s, "p1", 0, TokenActive, 10)

	res, err := RollDice(s, 6)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if !res.Forfeited || !res.TurnEnded {
		t.Errorf("third six should forfeit")
	}
	if res.State.CurrentTurn != "p2" {
		t.Errorf("turn on %s", res.State.CurrentTurn)
	}
	if res.State.ConsecutiveSixes != 0 {
		t.Errorf("sixes = %d", res.State.ConsecutiveSixes)
	}
	if res.State.MustSelectToken {
		t.Errorf("no selection phase after a forfeit")
	}
}

func TestRollDice_requiresRollPhase(t *testing.T) {
	s := mustState(t, fourPlayers())
	s.CanRollDice = false
	if _, err := RollDice(s, 4); err != ErrInvalidState {
		t.Errorf("err = %v", err)
	}
	if _, err := RollDice(mustState(t, fourPlayers()), 7); err != ErrInvalidState {
		t.Errorf("bad dice accepted")
	}
}

// Scenario A: opening six exits token 0 onto the start cell with a bonus.
func TestMoveToken_exitHome(t *testing.T) {
	s := mustState(t, fourPlayers())

	rolled, err := RollDice(s, 6)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	res, err := MoveToken(rolled.State, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	tok := res.State.Player("p1").Tokens[0]
	if tok.State != TokenActive || tok.Position != 0 {
		t.Errorf("token = %+v", tok)
	}
	if res.Move.Type != MoveExitHome {
		t.Errorf("move type = %s", res.Move.Type)
	}
	if !res.BonusTurn {
		t.Errorf("six should grant a bonus turn")
	}
	if res.State.CurrentTurn != "p1" || !res.State.CanRollDice {
		t.Errorf("turn should stay with p1")
	}
}

// Scenario B: 55 + 2 finishes exactly; a fourth finish wins the match.
func TestMoveToken_finishAndWin(t *testing.T) {
	s := mustState(t, fourPlayers())
	setToken(&s, "p1", 0, TokenFinished, FinishPosition)
	setToken(&s, "p1", 1, TokenFinished, FinishPosition)
	setToken(&s, "p1", 2, TokenFinished, FinishPosition)
	setToken(&s, "p1", 3, TokenActive, 55)
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 2

	res, err := MoveToken(s, 3)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Move.Type != MoveFinish {
		t.Errorf("move type = %s", res.Move.Type)
	}
	if !res.Won {
		t.Errorf("should have won")
	}
	if res.State.Status != StatusFinished || res.State.WinnerID != "p1" {
		t.Errorf("status %s winner %s", res.State.Status, res.State.WinnerID)
	}
	if res.BonusTurn {
		t.Errorf("no bonus after winning")
	}
	if res.State.CurrentTurn != "p1" {
		t.Errorf("turn advanced after game end")
	}
}

// Scenario C: landing on a lone defender on a plain cell sends it home
// and earns a bonus, six or not.
func TestMoveToken_capture(t *testing.T) {
	s := mustState(t, fourPlayers())
	// red relative 18 is absolute 18, not safe
	setToken(&s, "p1", 0, TokenActive, 15)
	// blue relative 5 is absolute (5+13) = 18
	setToken(&s, "p2", 2, TokenActive, 5)
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3

	res, err := MoveToken(s, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Move.Type != MoveCapture {
		t.Errorf("move type = %s", res.Move.Type)
	}
	if res.Move.Captured == nil || res.Move.Captured.PlayerID != "p2" || res.Move.Captured.TokenID != 2 {
		t.Errorf("captured = %+v", res.Move.Captured)
	}
	victim := res.State.Player("p2").Tokens[2]
	if victim.State != TokenHome || victim.Position != HomePosition || victim.ID != 2 {
		t.Errorf("victim = %+v", victim)
	}
	if !res.BonusTurn {
		t.Errorf("capture should grant a bonus turn")
	}
	if res.State.CurrentTurn != "p1" {
		t.Errorf("turn should stay with p1")
	}
}

func TestMoveToken_noCaptureOnSafeCell(t *testing.T) {
	s := mustState(t, fourPlayers())
	// absolute 13 is blue's start cell, safe
	setToken(&s, "p1", 0, TokenActive, 10)
	setToken(&s, "p2", 0, TokenActive, 0) // blue relative 0 = absolute 13
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3

	res, err := MoveToken(s, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Move.Type != MoveNormal {
		t.Errorf("move type = %s", res.Move.Type)
	}
	blue := res.State.Player("p2").Tokens[0]
	if blue.State != TokenActive || blue.Position != 0 {
		t.Errorf("defender moved: %+v", blue)
	}
	if res.BonusTurn {
		t.Errorf("no capture means no bonus on a 3")
	}
}

func TestMoveToken_noCaptureOfPair(t *testing.T) {
	s := mustState(t, fourPlayers())
	setToken(&s, "p1", 0, TokenActive, 15)
	// two blue tokens both on absolute 18 form a block
	setToken(&s, "p2", 1, TokenActive, 5)
	setToken(&s, "p2", 2, TokenActive, 5)
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3

	res, err := MoveToken(s, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Move.Type != MoveNormal || res.Move.Captured != nil {
		t.Errorf("pair should not be captured: %+v", res.Move)
	}
}

func TestMoveToken_sameColourNeverCaptures(t *testing.T) {
	s := mustState(t, fourPlayers())
	setToken(&s, "p1", 0, TokenActive, 15)
	setToken(&s, "p1", 1, TokenActive, 18)
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3

	res, err := MoveToken(s, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	mate := res.State.Player("p1").Tokens[1]
	if mate.State != TokenActive || mate.Position != 18 {
		t.Errorf("own token disturbed: %+v", mate)
	}
	if res.Move.Captured != nil {
		t.Errorf("captured own colour")
	}
}

func TestMoveToken_laneIsPrivate(t *testing.T) {
	s := mustState(t, fourPlayers())
	// red moving to relative 53 is in its lane, off the ring
	setToken(&s, "p1", 0, TokenActive, 50)
	// blue anywhere cannot be hit
	setToken(&s, "p2", 0, TokenActive, 40)
	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3

	res, err := MoveToken(s, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Move.Captured != nil {
		t.Errorf("capture in a private lane")
	}
	if res.State.Player("p1").Tokens[0].Position != 53 {
		t.Errorf("position = %d", res.State.Player("p1").Tokens[0].Position)
	}
}

func TestMoveToken_rejectsBadSelection(t *testing.T) {
	s := mustState(t, fourPlayers())
	if _, err := MoveToken(s, 0); err != ErrInvalidState {
		t.Errorf("moved without a committed roll: %v", err)
	}

	s.CanRollDice = false
	s.MustSelectToken = true
	s.DiceValue = 3
	if _, err := MoveToken(s, 9); err != ErrTokenNotFound {
		t.Errorf("err = %v", err)
	}
	// all tokens home, 3 moves nothing
	if _, err := MoveToken(s, 0); err != ErrTokenCannotMove {
		t.Errorf("err = %v", err)
	}
}

func TestAdvance_cyclesInOrder(t *testing.T) {
	s := mustState(t, fourPlayers())
	order := []string{"p2", "p3", "p4", "p1"}
	for _, want := range order {
		res, err := RollDice(s, 2)
		if err != nil {
			t.Fatalf("roll: %v", err)
		}
		s = res.State
		if s.CurrentTurn != want {
			t.Errorf("turn = %s, want %s", s.CurrentTurn, want)
		}
	}
}

func TestNewState_invariants(t *testing.T) {
	if _, err := NewState([]Player{NewPlayer("p1", ColourRed, false)}); err == nil {
		t.Errorf("one player accepted")
	}
	dup := []Player{
		NewPlayer("p1", ColourRed, false),
		NewPlayer("p1", ColourBlue, false),
	}
	if _, err := NewState(dup); err == nil {
		t.Errorf("duplicate id accepted")
	}
	clash := []Player{
		NewPlayer("p1", ColourRed, false),
		NewPlayer("p2", ColourRed, false),
	}
	if _, err := NewState(clash); err == nil {
		t.Errorf("duplicate colour accepted")
	}

	s := mustState(t, fourPlayers())
	if s.CurrentTurn != "p1" || !s.CanRollDice || s.MustSelectToken {
		t.Errorf("bad initial state")
	}
	for _, p := range s.Players {
		for _, tok := range p.Tokens {
			if tok.State != TokenHome || tok.Position != HomePosition {
				t.Errorf("token not home: %+v", tok)
			}
		}
	}
}

func TestSetPlayerOnline(t *testing.T) {
	s := mustState(t, fourPlayers())
	out, changed := SetPlayerOnline(s, "p2", true)
	if !changed || !out.Player("p2").IsOnline {
		t.Errorf("presence not applied")
	}
	if s.Player("p2").IsOnline {
		t.Errorf("input state mutated")
	}
	if _, changed := SetPlayerOnline(out, "p2", true); changed {
		t.Errorf("no-op reported a change")
	}
}
