// Package bot provides move selection for computer-controlled seats. A
// strategy only ever picks a token id; the host feeds the pick through the
// same validator and rules path as a human action, so a buggy strategy can
// annoy nobody but itself.
package bot

import (
	"github.com/undeconstructed/ludogo/game"
)

// Strategy chooses which token to move for a given dice value. The second
// return is false when no legal move exists.
type Strategy interface {
	ChooseToken(p game.Player, dice int) (int, bool)
}

// FirstMovable picks the lowest-numbered token that can move. Dumb,
// predictable, fine for filling seats.
type FirstMovable struct{}

func (FirstMovable) ChooseToken(p game.Player, dice int) (int, bool) {
	movable := game.MovableTokens(p, dice)
	if len(movable) == 0 {
		return 0, false
	}
	return movable[0], true
}

// Runner pushes its most advanced token, finishing where it can and
// bringing a fresh token out only when nothing else moves.
type Runner struct{}

func (Runner) ChooseToken(p game.Player, dice int) (int, bool) {
	movable := game.MovableTokens(p, dice)
	if len(movable) == 0 {
		return 0, false
	}

	best := -1
	bestDist := game.DistanceToFinish(game.HomePosition) + 1
	for _, id := range movable {
		tok := p.Tokens[id]
		// exact finishes always win the argument
		if tok.State == game.TokenActive && tok.Position+dice == game.FinishPosition {
			return id, true
		}
		d := game.DistanceToFinish(tok.Position)
		if d < bestDist {
			bestDist = d
			best = id
		}
	}
	return best, true
}

// ForName maps a stored strategy name to an implementation. Unknown names
// get FirstMovable so an old save file still plays.
func ForName(name string) Strategy {
	switch name {
	case "runner":
		return Runner{}
	default:
		return FirstMovable{}
	}
}

// Name is the inverse of ForName, for persistence.
func Name(s Strategy) string {
	if _, ok := s.(Runner); ok {
		return "runner"
	}
	return "first"
}
