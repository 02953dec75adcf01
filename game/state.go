package game

// TokenState is where a token is in its one-way life: home, on the board,
// or finished. Capture is the only way back, and only from active.
type TokenState string

const (
	TokenHome     TokenState = "home"
	TokenActive   TokenState = "active"
	TokenFinished TokenState = "finished"
)

// ParseTokenState maps a wire string to a TokenState. Unknown strings are
// an error, never silently defaulted.
func ParseTokenState(s string) (TokenState, error) {
	switch st := TokenState(s); st {
	case TokenHome, TokenActive, TokenFinished:
		return st, nil
	}
	return "", &GameError{"BAD_TOKEN_STATE", "unknown token state: " + s}
}

// Token is one game piece. Position is colour-relative: -1 at home, 0..56
// on the board, 57 finished.
type Token struct {
	ID       int        `json:"id"`
	State    TokenState `json:"state"`
	Position int        `json:"position"`
}

// Player is one participant. The fixed-size token array keeps players
// copyable by value.
type Player struct {
	ID       string                 `json:"id"`
	Colour   Colour                 `json:"colour"`
	Tokens   [TokensPerPlayer]Token `json:"tokens"`
	IsBot    bool                   `json:"isBot"`
	IsOnline bool                   `json:"isOnline"`
}

// NewPlayer makes a player with all tokens at home. Bots count as always
// online; humans go online when their connection arrives.
func NewPlayer(id string, colour Colour, isBot bool) Player {
	p := Player{ID: id, Colour: colour, IsBot: isBot, IsOnline: isBot}
	for i := range p.Tokens {
		p.Tokens[i] = Token{ID: i, State: TokenHome, Position: HomePosition}
	}
	return p
}

// GameStatus is the lifecycle of a match.
type GameStatus string

const (
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"
)

// ParseGameStatus maps a wire string to a GameStatus. Unknown strings are
// an error, never silently defaulted.
func ParseGameStatus(s string) (GameStatus, error) {
	switch st := GameStatus(s); st {
	case StatusInProgress, StatusFinished:
		return st, nil
	}
	return "", &GameError{"BAD_GAME_STATUS", "unknown game status: " + s}
}

// State is one full authoritative snapshot. It is a value: every accepted
// transition produces a fresh one and the old one is never touched. A
// DiceValue of 0 means no roll is committed.
type State struct {
	Players          []Player   `json:"players"`
	CurrentTurn      string     `json:"currentTurnPlayerId"`
	DiceValue        int        `json:"diceValue,omitempty"`
	CanRollDice      bool       `json:"canRollDice"`
	MustSelectToken  bool       `json:"mustSelectToken"`
	ConsecutiveSixes int        `json:"consecutiveSixes"`
	Status           GameStatus `json:"gameStatus"`
	WinnerID         string     `json:"winnerId,omitempty"`
}

// NewState starts a match: all tokens home, first player's turn, waiting
// for a roll.
func NewState(players []Player) (State, error) {
	if len(players) < 2 || len(players) > len(Colours) {
		return State{}, ErrInvalidState
	}
	seenID := map[string]bool{}
	seenColour := map[Colour]bool{}
	for _, p := range players {
		if p.ID == "" || seenID[p.ID] {
			return State{}, ErrInvalidState
		}
		if _, ok := startIndexes[p.Colour]; !ok || seenColour[p.Colour] {
			return State{}, ErrInvalidState
		}
		seenID[p.ID] = true
		seenColour[p.Colour] = true
	}

	ps := make([]Player, len(players))
	copy(ps, players)

	return State{
		Players:     ps,
		CurrentTurn: ps[0].ID,
		CanRollDice: true,
		Status:      StatusInProgress,
	}, nil
}

// Player finds a player by id, or nil.
func (s *State) Player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// clone copies the state deeply enough that mutating the copy's players
// cannot reach the original. Tokens are arrays, so copying the player
// slice is the whole job.
func (s State) clone() State {
	ps := make([]Player, len(s.Players))
	copy(ps, s.Players)
	s.Players = ps
	return s
}

// SetPlayerOnline returns a new state with one player's presence changed,
// and whether anything actually changed.
func SetPlayerOnline(s State, id string, online bool) (State, bool) {
	p := s.Player(id)
	if p == nil || p.IsOnline == online {
		return s, false
	}
	out := s.clone()
	out.Player(id).IsOnline = online
	return out, true
}

// MoveType classifies one applied move.
type MoveType string

const (
	MoveExitHome MoveType = "exit_home"
	MoveNormal   MoveType = "normal"
	MoveCapture  MoveType = "capture"
	MoveFinish   MoveType = "finish"
)

// CapturedToken records the victim of a capture.
type CapturedToken struct {
	PlayerID     string `json:"playerId"`
	TokenID      int    `json:"tokenId"`
	FromPosition int    `json:"fromPosition"`
}

// Move is the record of one applied transition. Captured is set only for
// MoveCapture.
type Move struct {
	PlayerID  string         `json:"playerId"`
	TokenID   int            `json:"tokenId"`
	DiceValue int            `json:"diceValue"`
	From      int            `json:"fromPosition"`
	To        int            `json:"toPosition"`
	Type      MoveType       `json:"moveType"`
	Captured  *CapturedToken `json:"captured,omitempty"`
}
