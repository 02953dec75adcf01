package game

// The board is a 52-cell ring shared by everyone, plus a private 6-cell
// lane per colour. Positions are colour-relative: 0 is the cell a colour
// enters the ring on, 51 is the last ring cell before its lane, 52..56 are
// lane cells and 57 is the finish. Home is -1 and is not a cell at all.

const (
	// RingSize is the number of shared ring cells.
	RingSize = 52
	// LanePosition is the first colour-private lane position.
	LanePosition = 52
	// FinishPosition is the relative position of a finished token.
	FinishPosition = 57
	// HomePosition is the relative position of a token still at home.
	HomePosition = -1

	// OffRing is returned by ToAbsolute for positions that are not on the
	// shared ring, so can never collide with another colour.
	OffRing = -1

	// TokensPerPlayer is fixed by the game.
	TokensPerPlayer = 4
)

// Colour identifies one of the four players.
type Colour string

const (
	ColourRed    Colour = "red"
	ColourBlue   Colour = "blue"
	ColourGreen  Colour = "green"
	ColourYellow Colour = "yellow"
)

// Colours lists the four colours in clockwise board order.
var Colours = [4]Colour{ColourRed, ColourBlue, ColourGreen, ColourYellow}

var startIndexes = map[Colour]int{
	ColourRed:    0,
	ColourBlue:   13,
	ColourGreen:  26,
	ColourYellow: 39,
}

// ParseColour maps a wire string to a Colour, or fails on anything else.
func ParseColour(s string) (Colour, error) {
	c := Colour(s)
	if _, ok := startIndexes[c]; !ok {
		return "", &GameError{"BAD_COLOUR", "unknown colour: " + s}
	}
	return c, nil
}

// StartIndex is the absolute ring index where a colour's tokens enter.
func StartIndex(c Colour) int {
	return startIndexes[c]
}

// ToAbsolute converts a colour-relative ring position to the shared
// absolute index. Lane and home positions are off the ring and come back
// as OffRing.
func ToAbsolute(rel int, c Colour) int {
	if rel < 0 || rel >= RingSize {
		return OffRing
	}
	return (rel + startIndexes[c]) % RingSize
}

// IsSafeCell reports whether capture is blocked on an absolute ring index.
// The 8 safe cells are every colour's start cell and the cell 8 past it.
func IsSafeCell(abs int) bool {
	for _, start := range startIndexes {
		if abs == start || abs == (start+8)%RingSize {
			return true
		}
	}
	return false
}

// DistanceToFinish is the number of steps a token still needs. A token at
// home reports 58, one more than any token on the board can need, because
// it must first roll a 6 just to come out.
func DistanceToFinish(rel int) int {
	if rel == HomePosition {
		return FinishPosition + 1
	}
	return FinishPosition - rel
}

// LaneEntryIndex is the absolute ring index just before a colour's lane.
// A token standing there leaves the ring on its next step.
func LaneEntryIndex(c Colour) int {
	return (startIndexes[c] - 1 + RingSize) % RingSize
}
