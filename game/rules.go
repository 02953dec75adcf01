package game

// The rules engine is pure: every function takes a state value and gives
// back a new one, or a GameError. The host owns the only state that
// matters; anything here can run anywhere, including client-side for
// optimistic prediction.
//
// A turn is a two-step machine. AWAITING_ROLL (CanRollDice) accepts a
// roll, which either ends the turn on the spot (nothing can move, or a
// third six) or moves to AWAITING_SELECTION (MustSelectToken). Selecting
// a token applies the move and hands the turn on, unless a six or a
// capture earns the same player another roll.

// RollResult is the outcome of an accepted dice roll.
type RollResult struct {
	State State
	Dice  int
	// Movable lists token ids that may be selected, empty if the turn
	// ended immediately.
	Movable []int
	// Forfeited is set when a third consecutive six threw the roll away.
	Forfeited bool
	// TurnEnded is set when the turn passed on without a selection phase.
	TurnEnded bool
}

// MoveResult is the outcome of an accepted token move.
type MoveResult struct {
	State     State
	Move      Move
	BonusTurn bool
	Won       bool
}

// CanMove reports whether a token may move with this dice value. Finished
// tokens never move, home tokens need a six, active tokens may not
// overshoot the finish.
func CanMove(t Token, dice int) bool {
	switch t.State {
	case TokenFinished:
		return false
	case TokenHome:
		return dice == 6
	default:
		return t.Position+dice <= FinishPosition
	}
}

// MovableTokens lists the ids of a player's tokens that can move.
func MovableTokens(p Player, dice int) []int {
	var out []int
	for _, t := range p.Tokens {
		if CanMove(t, dice) {
			out = append(out, t.ID)
		}
	}
	return out
}

// RollDice commits a host-rolled die to the state. A third consecutive
// six forfeits the whole roll: no selection, counter reset, next player.
// Otherwise the turn either enters token selection or, with nothing
// movable, passes straight on.
func RollDice(s State, dice int) (RollResult, error) {
	if s.Status != StatusInProgress {
		return RollResult{}, ErrInvalidState
	}
	if !s.CanRollDice {
		return RollResult{}, ErrInvalidState
	}
	if dice < 1 || dice > 6 {
		return RollResult{}, ErrInvalidState
	}

	s = s.clone()
	res := RollResult{Dice: dice}

	if dice == 6 {
		s.ConsecutiveSixes++
		if s.ConsecutiveSixes >= 3 {
			res.Forfeited = true
			res.TurnEnded = true
			res.State = advanceTurn(s)
			return res, nil
		}
	} else {
		s.ConsecutiveSixes = 0
	}

	movable := MovableTokens(*s.Player(s.CurrentTurn), dice)
	if len(movable) == 0 {
		res.TurnEnded = true
		res.State = advanceTurn(s)
		return res, nil
	}

	s.DiceValue = dice
	s.CanRollDice = false
	s.MustSelectToken = true
	res.Movable = movable
	res.State = s
	return res, nil
}

// MoveToken applies the committed dice value to one of the current
// player's tokens.
func MoveToken(s State, tokenID int) (MoveResult, error) {
	if s.Status != StatusInProgress {
		return MoveResult{}, ErrInvalidState
	}
	if !s.MustSelectToken || s.DiceValue == 0 {
		return MoveResult{}, ErrInvalidState
	}
	if tokenID < 0 || tokenID >= TokensPerPlayer {
		return MoveResult{}, ErrTokenNotFound
	}

	s = s.clone()
	dice := s.DiceValue
	p := s.Player(s.CurrentTurn)
	tok := &p.Tokens[tokenID]

	if !CanMove(*tok, dice) {
		return MoveResult{}, ErrTokenCannotMove
	}

	move := Move{
		PlayerID:  p.ID,
		TokenID:   tokenID,
		DiceValue: dice,
		From:      tok.Position,
	}

	if tok.State == TokenHome {
		tok.Position = 0
		tok.State = TokenActive
		move.Type = MoveExitHome
	} else {
		tok.Position += dice
		move.Type = MoveNormal
		if tok.Position == FinishPosition {
			tok.State = TokenFinished
			move.Type = MoveFinish
		}
	}
	move.To = tok.Position

	captured := false
	if tok.State == TokenActive {
		if victim := captureAt(&s, p, tok.Position); victim != nil {
			move.Type = MoveCapture
			move.Captured = victim
			captured = true
		}
	}

	res := MoveResult{Move: move}
	res.BonusTurn = dice == 6 || captured
	res.Won = allFinished(*p)

	s.DiceValue = 0
	s.MustSelectToken = false

	switch {
	case res.Won:
		s.Status = StatusFinished
		s.WinnerID = p.ID
		s.CanRollDice = false
		res.BonusTurn = false
	case res.BonusTurn:
		s.CanRollDice = true
	default:
		s = advanceTurn(s)
	}

	res.State = s
	return res, nil
}

// captureAt sends home the single opposing token sharing the mover's
// absolute cell, if the cell is capturable. Safe cells block capture
// entirely and lane cells can never be shared.
func captureAt(s *State, mover *Player, rel int) *CapturedToken {
	abs := ToAbsolute(rel, mover.Colour)
	if abs == OffRing || IsSafeCell(abs) {
		return nil
	}

	var victim *Token
	var owner *Player
	count := 0
	for i := range s.Players {
		p := &s.Players[i]
		if p.ID == mover.ID {
			continue
		}
		for j := range p.Tokens {
			t := &p.Tokens[j]
			if t.State == TokenActive && ToAbsolute(t.Position, p.Colour) == abs {
				victim = t
				owner = p
				count++
			}
		}
	}
	// two or more defenders form a block and nothing happens to them
	if count != 1 {
		return nil
	}

	out := &CapturedToken{PlayerID: owner.ID, TokenID: victim.ID, FromPosition: victim.Position}
	victim.State = TokenHome
	victim.Position = HomePosition
	return out
}

func allFinished(p Player) bool {
	for _, t := range p.Tokens {
		if t.State != TokenFinished {
			return false
		}
	}
	return true
}

// advanceTurn hands the turn to the next player in fixed seat order and
// resets the per-turn fields. The six streak belongs to the player, so it
// resets too.
func advanceTurn(s State) State {
	idx := 0
	for i := range s.Players {
		if s.Players[i].ID == s.CurrentTurn {
			idx = i
			break
		}
	}
	s.CurrentTurn = s.Players[(idx+1)%len(s.Players)].ID
	s.DiceValue = 0
	s.CanRollDice = true
	s.MustSelectToken = false
	s.ConsecutiveSixes = 0
	return s
}
