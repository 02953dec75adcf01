package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/undeconstructed/ludogo/bot"
	"github.com/undeconstructed/ludogo/comms"
	"github.com/undeconstructed/ludogo/game"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config is everything the server needs from outside.
type Config struct {
	Addr        string
	TCPAddr     string
	StateDir    string
	TokenSecret string
	TokenTTL    time.Duration
	BotDelay    time.Duration
}

// Server hosts matches. It is the single authority: every action funnels
// through one goroutine, in submission order, so the rules engine only
// ever sees one "current state" per match.
type Server interface {
	Run(ctx context.Context) error
}

// oneMatch is the authority's view of one match: the committed state, its
// version, and who is listening.
type oneMatch struct {
	id         string
	state      *game.State
	version    int64
	clients    map[string]clientBundle
	strategies map[string]bot.Strategy
	dirty      bool
	botPending bool
	log        zerolog.Logger
}

func (m *oneMatch) push(requiresResync bool, news []string) *comms.StatePush {
	// state values are never mutated in place, so sharing is fine
	return &comms.StatePush{
		Version:        m.version,
		State:          *m.state,
		RequiresResync: requiresResync,
		News:           news,
	}
}

func (m *oneMatch) summary() MatchSummary {
	var ids []string
	for _, p := range m.state.Players {
		ids = append(ids, p.ID)
	}
	return MatchSummary{
		ID:          m.id,
		Status:      m.state.Status,
		Version:     m.version,
		CurrentTurn: m.state.CurrentTurn,
		WinnerID:    m.state.WinnerID,
		Players:     ids,
	}
}

type server struct {
	cfg     Config
	matches map[string]*oneMatch
	coreCh  chan interface{}
	store   *fileStore
	metrics *metrics

	// rollDice is swappable so tests can load the dice
	rollDice func() int
}

// NewServer makes a server and restores any matches saved in the state
// directory.
func NewServer(cfg Config) Server {
	if cfg.Addr == "" {
		cfg.Addr = "0.0.0.0:1235"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "."
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BotDelay == 0 {
		cfg.BotDelay = time.Second
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	s := &server{
		cfg:      cfg,
		matches:  map[string]*oneMatch{},
		coreCh:   make(chan interface{}, 100),
		store:    newFileStore(cfg.StateDir),
		metrics:  newMetrics(),
		rollDice: func() int { return rng.Intn(6) + 1 },
	}

	saved, err := s.store.loadAll()
	if err != nil {
		log.Error().Err(err).Msg("not loading anything")
	}
	for _, sm := range saved {
		st := sm.State
		m := &oneMatch{
			id:         sm.ID,
			state:      &st,
			version:    sm.Version,
			clients:    map[string]clientBundle{},
			strategies: map[string]bot.Strategy{},
			log:        log.With().Str("match", sm.ID).Logger(),
		}
		for id, name := range sm.Strategies {
			m.strategies[id] = bot.ForName(name)
		}
		s.matches[sm.ID] = m
		m.log.Info().Int64("version", sm.Version).Msg("loaded state")
	}

	return s
}

func (s *server) Run(ctx context.Context) error {
	log.Info().Msg("server running")
	defer log.Info().Msg("server stopping")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runWebGateway(ctx, s, s.cfg.Addr)
	})

	if s.cfg.TCPAddr != "" {
		g.Go(func() error {
			return runTCPGateway(ctx, s, s.cfg.TCPAddr)
		})
	}

	g.Go(func() error {
		// restored matches may already be waiting on a bot
		s.resumeBots()

		// this is the authority's single-writer loop
		for {
			select {
			case <-ctx.Done():
				return nil
			case in := <-s.coreCh:
				m := s.processMessage(in)
				if m != nil && m.dirty {
					if err := s.store.save(s.saveView(m)); err != nil {
						m.log.Error().Err(err).Msg("cannot save state")
					} else {
						m.dirty = false
					}
				}
				// wake any bot that now owns the turn
				if m != nil {
					s.scheduleBot(m)
				}
			}
		}
	})

	return g.Wait()
}

func (s *server) saveView(m *oneMatch) savedMatch {
	strategies := map[string]string{}
	for id, st := range m.strategies {
		strategies[id] = bot.Name(st)
	}
	return savedMatch{ID: m.id, Version: m.version, State: *m.state, Strategies: strategies}
}

func (s *server) processMessage(in interface{}) *oneMatch {
	switch msg := in.(type) {
	case listMatchesMsg:
		list := []MatchSummary{}
		for _, m := range s.matches {
			list = append(list, m.summary())
		}
		msg.Rep <- list
		return nil
	case createMatchMsg:
		m, err := s.createMatch(msg.In)
		if err != nil {
			msg.Rep <- createMatchRes{Err: err}
			return nil
		}
		msg.Rep <- createMatchRes{Summary: m.summary()}
		return m
	case queryMatchMsg:
		m, exists := s.matches[msg.ID]
		if !exists {
			msg.Rep <- nil
			return nil
		}
		msg.Rep <- m.push(false, nil)
		return nil
	case deleteMatchMsg:
		m, exists := s.matches[msg.ID]
		if !exists {
			msg.Rep <- errors.New("no such match")
			return nil
		}
		delete(s.matches, msg.ID)
		if err := s.store.remove(m.id); err != nil {
			m.log.Error().Err(err).Msg("cannot remove state file")
		}
		m.log.Info().Msg("deleted")
		msg.Rep <- nil
		return nil
	case joinMatchMsg:
		msg.Rep <- s.joinMatch(msg.MatchID, msg.PlayerID)
		return nil
	case connectMsg:
		return s.connect(msg)
	case disconnectMsg:
		return s.disconnect(msg)
	case actionFromUser:
		m, exists := s.matches[msg.MatchID]
		if !exists {
			return nil
		}
		res := s.applyAction(m, msg.Action)
		s.respond(m, msg.PlayerID, msg.ReqID, res)
		return m
	case resyncFromUser:
		m, exists := s.matches[msg.MatchID]
		if !exists {
			return nil
		}
		s.respond(m, msg.PlayerID, msg.ReqID, comms.ActionResponse{State: m.push(false, nil)})
		return nil
	case heartbeatFromUser:
		m, exists := s.matches[msg.MatchID]
		if exists {
			m.log.Debug().Str("player", msg.PlayerID).Msg("heartbeat")
		}
		return nil
	case botMoveMsg:
		return s.botMove(msg)
	default:
		log.Warn().Msgf("unknown core message: %T", in)
		return nil
	}
}

func (s *server) createMatch(in CreateMatchInput) (*oneMatch, error) {
	if len(in.Players) < 2 || len(in.Players) > len(game.Colours) {
		return nil, fmt.Errorf("need 2 to %d players", len(game.Colours))
	}

	used := map[game.Colour]bool{}
	nextFree := func() game.Colour {
		for _, c := range game.Colours {
			if !used[c] {
				return c
			}
		}
		return ""
	}

	var players []game.Player
	strategies := map[string]bot.Strategy{}
	for _, pi := range in.Players {
		colour := nextFree()
		if pi.Colour != "" {
			c, err := game.ParseColour(pi.Colour)
			if err != nil {
				return nil, err
			}
			colour = c
		}
		if used[colour] {
			return nil, fmt.Errorf("colour taken: %s", colour)
		}
		used[colour] = true

		id := pi.ID
		if id == "" {
			id = uuid.NewString()
		}
		players = append(players, game.NewPlayer(id, colour, pi.Bot))
		if pi.Bot {
			strategies[id] = bot.ForName(pi.Strategy)
		}
	}

	state, err := game.NewState(players)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	m := &oneMatch{
		id:         id,
		state:      &state,
		version:    1,
		clients:    map[string]clientBundle{},
		strategies: strategies,
		dirty:      true,
		log:        log.With().Str("match", id).Logger(),
	}
	s.matches[id] = m
	s.metrics.matchesCreated.Inc()
	m.log.Info().Int("players", len(players)).Msg("created")

	return m, nil
}

func (s *server) joinMatch(matchID, playerID string) joinMatchRes {
	m, exists := s.matches[matchID]
	if !exists {
		return joinMatchRes{Err: errors.New("no such match")}
	}
	p := m.state.Player(playerID)
	if p == nil {
		return joinMatchRes{Err: errors.New("no such player")}
	}
	if p.IsBot {
		return joinMatchRes{Err: errors.New("bots do not get tokens")}
	}
	token, err := issueToken([]byte(s.cfg.TokenSecret), matchID, playerID, s.cfg.TokenTTL)
	if err != nil {
		return joinMatchRes{Err: err}
	}
	return joinMatchRes{Token: token}
}

func (s *server) connect(msg connectMsg) *oneMatch {
	m, exists := s.matches[msg.MatchID]
	if !exists {
		msg.Rep <- connectRes{Err: errors.New("no such match")}
		return nil
	}
	p := m.state.Player(msg.PlayerID)
	if p == nil {
		msg.Rep <- connectRes{Err: errors.New("no such player")}
		return nil
	}

	if old, ok := m.clients[msg.PlayerID]; ok {
		close(old.downCh)
	}
	m.clients[msg.PlayerID] = msg.Client

	if next, changed := game.SetPlayerOnline(*m.state, msg.PlayerID, true); changed {
		m.state = &next
		m.version++
		m.dirty = true
		s.broadcast(m, m.push(false, []string{msg.PlayerID + " is back"}), msg.PlayerID)
	}

	m.log.Info().Str("player", msg.PlayerID).Msg("connected")
	// a (re)connecting client always restarts from a full snapshot
	msg.Rep <- connectRes{Push: m.push(true, nil)}
	return m
}

func (s *server) disconnect(msg disconnectMsg) *oneMatch {
	m, exists := s.matches[msg.MatchID]
	if !exists {
		return nil
	}
	c, ok := m.clients[msg.PlayerID]
	if !ok || c != msg.Client {
		// the seat was already re-taken by a newer connection
		return nil
	}
	delete(m.clients, msg.PlayerID)
	close(c.downCh)

	if next, changed := game.SetPlayerOnline(*m.state, msg.PlayerID, false); changed {
		m.state = &next
		m.version++
		m.dirty = true
		s.broadcast(m, m.push(false, []string{msg.PlayerID + " went away"}), "")
	}

	m.log.Info().Str("player", msg.PlayerID).Msg("disconnected")
	return m
}

// applyAction is the whole authority path for one action: validate,
// transition, commit, tell everyone.
func (s *server) applyAction(m *oneMatch, action game.PlayerAction) comms.ActionResponse {
	if err := game.Validate(m.state, action); err != nil {
		ge := &game.GameError{}
		if errors.As(err, &ge) {
			s.metrics.actionsRejected.WithLabelValues(ge.Code).Inc()
		}
		m.log.Info().Str("player", action.PlayerID).Str("type", string(action.Type)).Err(err).Msg("rejected")
		return comms.ActionResponse{Err: comms.WrapError(err)}
	}

	switch action.Type {
	case game.ActionRollDice:
		dice := s.rollDice()
		res, err := game.RollDice(*m.state, dice)
		if err != nil {
			return comms.ActionResponse{Err: comms.WrapError(err)}
		}
		m.commit(res.State)
		s.metrics.actionsApplied.WithLabelValues(string(action.Type)).Inc()

		news := rollNews(action.PlayerID, res)
		s.broadcast(m, m.push(false, news), "")
		return comms.ActionResponse{
			State:     m.push(false, nil),
			Dice:      res.Dice,
			Movable:   res.Movable,
			Forfeited: res.Forfeited,
		}

	case game.ActionMoveToken:
		res, err := game.MoveToken(*m.state, *action.TokenID)
		if err != nil {
			return comms.ActionResponse{Err: comms.WrapError(err)}
		}
		m.commit(res.State)
		s.metrics.actionsApplied.WithLabelValues(string(action.Type)).Inc()
		if res.Won {
			s.metrics.matchesFinished.Inc()
		}

		news := moveNews(res)
		s.broadcast(m, m.push(false, news), "")
		return comms.ActionResponse{
			State:     m.push(false, nil),
			Move:      &res.Move,
			BonusTurn: res.BonusTurn,
			Won:       res.Won,
		}

	default:
		// heartbeats never reach here
		return comms.ActionResponse{Err: comms.WrapError(game.ErrInvalidState)}
	}
}

func (m *oneMatch) commit(next game.State) {
	m.state = &next
	m.version++
	m.dirty = true
}

func rollNews(playerID string, res game.RollResult) []string {
	news := []string{fmt.Sprintf("%s rolls a %d", playerID, res.Dice)}
	if res.Forfeited {
		news = append(news, fmt.Sprintf("%s loses the roll to a third six", playerID))
	} else if res.TurnEnded {
		news = append(news, fmt.Sprintf("%s has nothing to move", playerID))
	}
	return news
}

func moveNews(res game.MoveResult) []string {
	mv := res.Move
	var news []string
	switch mv.Type {
	case game.MoveExitHome:
		news = append(news, fmt.Sprintf("%s brings token %d out", mv.PlayerID, mv.TokenID))
	case game.MoveCapture:
		news = append(news, fmt.Sprintf("%s captures %s's token %d", mv.PlayerID, mv.Captured.PlayerID, mv.Captured.TokenID))
	case game.MoveFinish:
		news = append(news, fmt.Sprintf("%s gets token %d home", mv.PlayerID, mv.TokenID))
	default:
		news = append(news, fmt.Sprintf("%s moves token %d to %d", mv.PlayerID, mv.TokenID, mv.To))
	}
	if res.Won {
		news = append(news, fmt.Sprintf("%s wins the game!", mv.PlayerID))
	} else if res.BonusTurn {
		news = append(news, fmt.Sprintf("%s goes again", mv.PlayerID))
	}
	return news
}

// broadcast pushes a snapshot to every connected client except skip.
// Slow clients miss updates rather than stall the authority; they catch
// up through the version gap and a resync.
func (s *server) broadcast(m *oneMatch, push *comms.StatePush, skip string) {
	msg, err := comms.Encode("update", push)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to encode update")
		return
	}
	for id, c := range m.clients {
		if id == skip {
			continue
		}
		select {
		case c.downCh <- msg:
		default:
			m.log.Info().Msgf("client lagging: %s", id)
		}
	}
}

func (s *server) respond(m *oneMatch, playerID, reqID string, res comms.ActionResponse) {
	c, ok := m.clients[playerID]
	if !ok {
		return
	}
	msg, err := comms.Encode(string(comms.For("response", reqID)), res)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to encode response")
		return
	}
	select {
	case c.downCh <- msg:
	default:
		m.log.Info().Msgf("client lagging: %s", playerID)
	}
}

// resumeBots kicks every match whose current player is a bot, so a
// restart picks up where the loaded states left off.
func (s *server) resumeBots() {
	for _, m := range s.matches {
		s.scheduleBot(m)
	}
}

// scheduleBot arranges a bot action when the turn belongs to one.
func (s *server) scheduleBot(m *oneMatch) {
	if m.botPending || m.state.Status != game.StatusInProgress {
		return
	}
	p := m.state.Player(m.state.CurrentTurn)
	if p == nil || !p.IsBot {
		return
	}
	m.botPending = true
	matchID, playerID := m.id, p.ID
	time.AfterFunc(s.cfg.BotDelay, func() {
		s.coreCh <- botMoveMsg{MatchID: matchID, PlayerID: playerID}
	})
}

func (s *server) botMove(msg botMoveMsg) *oneMatch {
	m, exists := s.matches[msg.MatchID]
	if !exists {
		return nil
	}
	m.botPending = false

	st := m.state
	if st.Status != game.StatusInProgress || st.CurrentTurn != msg.PlayerID {
		return nil
	}
	p := st.Player(msg.PlayerID)
	if p == nil || !p.IsBot {
		return nil
	}

	switch {
	case st.CanRollDice:
		res := s.applyAction(m, game.NewAction(game.ActionRollDice, p.ID, nil))
		if res.Err != nil {
			m.log.Error().Str("code", res.Err.Code).Msg("bot roll rejected")
		}
	case st.MustSelectToken:
		strat, ok := m.strategies[p.ID]
		if !ok {
			strat = bot.FirstMovable{}
		}
		tokenID, ok := strat.ChooseToken(*p, st.DiceValue)
		if !ok {
			// the engine never leaves a selection phase without a move
			m.log.Error().Msg("bot found no move in selection phase")
			return m
		}
		res := s.applyAction(m, game.NewAction(game.ActionMoveToken, p.ID, &tokenID))
		if res.Err != nil {
			m.log.Error().Str("code", res.Err.Code).Msg("bot move rejected")
		}
	}

	return m
}

// thread-safe front door for the gateways

func (s *server) ListMatches() []MatchSummary {
	rep := make(chan []MatchSummary, 1)
	s.coreCh <- listMatchesMsg{Rep: rep}
	return <-rep
}

func (s *server) CreateMatch(in CreateMatchInput) (MatchSummary, error) {
	rep := make(chan createMatchRes, 1)
	s.coreCh <- createMatchMsg{In: in, Rep: rep}
	res := <-rep
	return res.Summary, res.Err
}

func (s *server) QueryMatch(id string) *comms.StatePush {
	rep := make(chan *comms.StatePush, 1)
	s.coreCh <- queryMatchMsg{ID: id, Rep: rep}
	return <-rep
}

func (s *server) DeleteMatch(id string) error {
	rep := make(chan error, 1)
	s.coreCh <- deleteMatchMsg{ID: id, Rep: rep}
	return <-rep
}

func (s *server) JoinMatch(matchID, playerID string) (string, error) {
	rep := make(chan joinMatchRes, 1)
	s.coreCh <- joinMatchMsg{MatchID: matchID, PlayerID: playerID, Rep: rep}
	res := <-rep
	return res.Token, res.Err
}

func (s *server) Connect(matchID, playerID string, c clientBundle) (*comms.StatePush, error) {
	rep := make(chan connectRes, 1)
	s.coreCh <- connectMsg{MatchID: matchID, PlayerID: playerID, Client: c, Rep: rep}
	res := <-rep
	return res.Push, res.Err
}
