package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/undeconstructed/ludogo/comms"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

const requestTimeout = 10 * time.Second
const heartbeatEvery = 15 * time.Second
const maxBackoff = 30 * time.Second

type Client interface {
	Run() error
}

// NewClient makes a client for one seat. The token comes from the join
// endpoint and names the match and player.
func NewClient(server, token, playerID string) Client {
	return &client{
		server:   server,
		token:    token,
		playerID: playerID,
		sync:     NewSyncHandler(),
		locCh:    make(chan reqRep),
		updateCh: make(chan string),
		reqs:     map[string]reqRep{},
	}
}

type reqRep struct {
	head string
	body interface{}
	rep  chan repOrErr
}

type repOrErr struct {
	res comms.ActionResponse
	err error
}

type client struct {
	server   string
	token    string
	playerID string

	sync *SyncHandler

	locCh chan reqRep
	upCh  chan comms.Message

	updateCh  chan string
	updatesMu sync.Mutex
	updates   []string

	reqNo int
	reqs  map[string]reqRep
}

func (c *client) Run() error {
	proxy := NewGameProxy(c)

	stopUI, uiDone, err := c.startUI(proxy)
	if err != nil {
		return err
	}
	defer stopUI()

	// reconnect loop, the REPL keeps running across drops
	backoff := time.Second
	for {
		err := c.runConnection(uiDone)
		select {
		case <-uiDone:
			return nil
		default:
		}
		if err != nil {
			log.Info().Err(err).Msg("connection lost")
		}
		c.sync.HandleNetworkError(comms.ErrConnectionLost)
		c.failAllPending()

		fmt.Printf("\ndisconnected, retrying in %v\n", backoff)
		select {
		case <-uiDone:
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *client) failAllPending() {
	for id, rr := range c.reqs {
		delete(c.reqs, id)
		rr.rep <- repOrErr{err: comms.ErrConnectionLost}
	}
}

// runConnection holds one websocket session from dial to failure.
func (c *client) runConnection(uiDone <-chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := fmt.Sprintf("ws://%s/ws?token=%s", c.server, c.token)
	socket, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"comms"},
	})
	if err != nil {
		return err
	}
	defer socket.Close(websocket.StatusInternalError, "going away")

	msg, err := readMessageWs(ctx, socket)
	if err != nil {
		return err
	}
	if msg.Type() != "connected" {
		return fmt.Errorf("expected connected, got %s", msg.Head)
	}
	var conRes comms.ConnectResponse
	if err := comms.Decode(msg, &conRes); err != nil {
		return err
	}
	if err := comms.ReError(conRes.Err); err != nil {
		return err
	}
	// the handshake snapshot replaces everything we thought we knew
	c.sync.Seed(conRes.State)
	c.pushUpdate("connected")

	c.upCh = make(chan comms.Message, 1)
	defer close(c.upCh)
	downCh := make(chan comms.Message, 1)

	go func() {
		// read upCh, write to conn
		for msg := range c.upCh {
			if err := sendUpWs(ctx, socket, msg); err != nil {
				log.Info().Err(err).Msg("send error")
				return
			}
		}
	}()

	readErr := make(chan error, 1)
	go func() {
		defer close(downCh)
		// read conn, write to downCh
		for {
			msg, err := readMessageWs(ctx, socket)
			if err != nil {
				readErr <- err
				return
			}
			downCh <- msg
		}
	}()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	// this is the client's main loop
	for {
		select {
		case <-uiDone:
			socket.Close(websocket.StatusNormalClosure, "bye")
			return nil
		case rr := <-c.locCh:
			c.reqNo++
			id := strconv.Itoa(c.reqNo)
			msg, err := comms.Encode(string(comms.For("request", id, rr.head)), rr.body)
			if err != nil {
				rr.rep <- repOrErr{err: err}
				continue
			}
			c.reqs[id] = rr
			c.upCh <- msg
		case <-heartbeat.C:
			hb := comms.Heartbeat{PlayerID: c.playerID, Timestamp: time.Now().UnixMilli()}
			msg, _ := comms.Encode("heartbeat", hb)
			c.upCh <- msg
		case msg, ok := <-downCh:
			if !ok {
				return <-readErr
			}
			c.handleDown(msg)
		}
	}
}

func (c *client) handleDown(msg comms.Message) {
	f := msg.Head.Fields()
	switch f[0] {
	case "update":
		var push comms.StatePush
		if err := comms.Decode(msg, &push); err != nil {
			log.Info().Err(err).Msg("bad update")
			return
		}
		needResync := c.sync.HandleStateUpdate(&push)
		for _, n := range push.News {
			c.pushUpdate(n)
		}
		if needResync {
			go func() {
				res, err := c.doRequest("resync", nil)
				if err == nil && res.State != nil {
					c.sync.Seed(res.State)
				}
			}()
		}
	case "response":
		if len(f) < 2 {
			return
		}
		id := f[1]
		rr, ok := c.reqs[id]
		if !ok {
			return
		}
		delete(c.reqs, id)
		var res comms.ActionResponse
		if err := comms.Decode(msg, &res); err != nil {
			rr.rep <- repOrErr{err: err}
			return
		}
		rr.rep <- repOrErr{res: res}
	default:
		log.Info().Msgf("junk from server: %v", f)
	}
}

// doRequest sends one correlated request and waits for its response or a
// timeout.
func (c *client) doRequest(head string, body interface{}) (comms.ActionResponse, error) {
	rr := reqRep{head: head, body: body, rep: make(chan repOrErr, 1)}
	select {
	case c.locCh <- rr:
	case <-time.After(requestTimeout):
		return comms.ActionResponse{}, comms.ErrTimeout
	}
	select {
	case r := <-rr.rep:
		return r.res, r.err
	case <-time.After(requestTimeout):
		return comms.ActionResponse{}, comms.ErrTimeout
	}
}

// pushUpdate hands a news line to a following UI, or banks it for the
// next prompt. The bank is shared with the REPL goroutine.
func (c *client) pushUpdate(text string) {
	select {
	case c.updateCh <- text:
		// if ui is following
	default:
		c.updatesMu.Lock()
		c.updates = append(c.updates, text)
		c.updatesMu.Unlock()
	}
}

func (c *client) takeUpdates() []string {
	c.updatesMu.Lock()
	defer c.updatesMu.Unlock()
	out := c.updates
	c.updates = nil
	return out
}

func sendUpWs(ctx context.Context, ws *websocket.Conn, msg comms.Message) error {
	w, err := ws.Writer(ctx, websocket.MessageText)
	if err != nil {
		return err
	}
	defer w.Close()

	jmsg := struct {
		Head string          `json:"head"`
		Data json.RawMessage `json:"data"`
	}{Head: string(msg.Head), Data: msg.Data}

	tmsg, _ := json.Marshal(jmsg)
	if _, err := w.Write(tmsg); err != nil {
		return err
	}
	return w.Close()
}

func readMessageWs(ctx context.Context, ws *websocket.Conn) (comms.Message, error) {
	typ, r, err := ws.Reader(ctx)
	if err != nil {
		return comms.Message{}, err
	}
	if typ != websocket.MessageText {
		return comms.Message{}, fmt.Errorf("server sent a %v", typ)
	}
	bytes, err := io.ReadAll(r)
	if err != nil {
		return comms.Message{}, err
	}
	var jmsg struct {
		Head string          `json:"head"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(bytes, &jmsg); err != nil {
		return comms.Message{}, err
	}
	return comms.Message{Head: comms.Head(jmsg.Head), Data: jmsg.Data}, nil
}
