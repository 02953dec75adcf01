package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/undeconstructed/ludogo/comms"
	"github.com/undeconstructed/ludogo/game"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

type WsJSONMessage struct {
	Head string          `json:"head"`
	Data json.RawMessage `json:"data"`
}

func runWebGateway(ctx context.Context, server *server, addr string) error {
	log := log.With().Str("gw", "web").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("web listening on http://%v", ln.Addr())

	rh := restHandler{
		server: server,
		log:    log,
	}

	ch := commsHandler{
		server: server,
		log:    log,
	}

	r := gin.Default()
	a := r.Group("/api")
	a.GET("/matches", rh.getMatches)
	a.POST("/matches", rh.makeMatch)
	a.GET("/matches/:id", rh.getMatch)
	a.DELETE("/matches/:id", rh.deleteMatch)
	a.POST("/matches/:id/join", rh.joinMatch)
	r.GET("/ws", ch.serveWS)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(server.metrics.registry, promhttp.HandlerOpts{})))

	s := &http.Server{
		Handler:     r,
		ReadTimeout: time.Second * 10,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
		return nil
	case err := <-errCh:
		return err
	}
}

type restHandler struct {
	server *server
	log    zerolog.Logger
}

func (rh *restHandler) getMatches(c *gin.Context) {
	list := rh.server.ListMatches()
	c.JSON(http.StatusOK, list)
}

func (rh *restHandler) makeMatch(c *gin.Context) {
	var in CreateMatchInput
	if err := c.BindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, "bad body: %v", err)
		return
	}

	summary, err := rh.server.CreateMatch(in)
	if err != nil {
		rh.log.Error().Err(err).Msg("create match error")
		c.String(http.StatusBadRequest, "error: %v", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (rh *restHandler) getMatch(c *gin.Context) {
	id := c.Param("id")

	res := rh.server.QueryMatch(id)
	if res == nil {
		c.JSON(http.StatusNotFound, nil)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (rh *restHandler) deleteMatch(c *gin.Context) {
	id := c.Param("id")

	err := rh.server.DeleteMatch(id)
	if err != nil {
		rh.log.Error().Err(err).Msg("delete match error")
		c.String(http.StatusNotFound, "error: %v", err)
		return
	}

	c.String(http.StatusOK, "ok: %s", id)
}

func (rh *restHandler) joinMatch(c *gin.Context) {
	id := c.Param("id")

	var in struct {
		PlayerID string `json:"playerId"`
	}
	if err := c.BindJSON(&in); err != nil || in.PlayerID == "" {
		c.String(http.StatusBadRequest, "missing playerId")
		return
	}

	token, err := rh.server.JoinMatch(id, in.PlayerID)
	if err != nil {
		rh.log.Info().Err(err).Msg("join match refused")
		c.String(http.StatusForbidden, "error: %v", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type commsHandler struct {
	server *server
	log    zerolog.Logger
}

func (ch *commsHandler) serveWS(c *gin.Context) {
	addr := c.Request.RemoteAddr

	log := ch.log.With().Str("client", addr).Logger()
	log.Info().Msgf("connecting")

	token := c.Query("token")
	if token == "" {
		c.String(http.StatusBadRequest, "missing token")
		return
	}
	matchID, playerID, err := parseToken([]byte(ch.server.cfg.TokenSecret), token)
	if err != nil {
		log.Info().Err(err).Msg("bad token")
		c.String(http.StatusForbidden, "bad token")
		return
	}

	server := ch.server

	// ws stuff

	socket, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		Subprotocols:       []string{"comms"},
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Info().Err(err).Msg("websocket accept error")
		return
	}
	defer socket.Close(websocket.StatusInternalError, "the sky is falling")

	if socket.Subprotocol() != "comms" {
		socket.Close(websocket.StatusPolicyViolation, "client must speak the comms subprotocol")
		return
	}

	// start real work

	downCh := make(chan comms.Message, 100)
	bundle := clientBundle{downCh}

	push, err := server.Connect(matchID, playerID, bundle)
	if err != nil {
		log.Info().Msgf("refusing: %s", addr)
		msg, _ := comms.Encode("connected", comms.ConnectResponse{Err: comms.WrapError(err)})
		sendDownWs(socket, msg)
		socket.Close(websocket.StatusNormalClosure, "cannot connect")
		return
	}

	msg, _ := comms.Encode("connected", comms.ConnectResponse{State: push})
	sendDownWs(socket, msg)

	go func() {
		// read downCh, write to conn
		for down := range downCh {
			err := sendDownWs(socket, down)
			if err != nil {
				log.Info().Err(err).Msg("send error")
				break
			}
		}
	}()

	for {
		// read conn, despatch into server
		msg, err = readMessageWs(socket)
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			server.coreCh <- disconnectMsg{MatchID: matchID, PlayerID: playerID, Client: bundle}
			return
		}
		if err != nil {
			log.Info().Err(err).Msgf("client read error: %v", addr)
			server.coreCh <- disconnectMsg{MatchID: matchID, PlayerID: playerID, Client: bundle}
			return
		}
		log.Debug().Msgf("received from: %s %s", msg.Head, string(msg.Data))

		f := msg.Head.Fields()
		switch f[0] {
		case "heartbeat":
			var hb comms.Heartbeat
			if err := comms.Decode(msg, &hb); err != nil {
				log.Info().Err(err).Msg("decode heartbeat error")
				continue
			}
			server.coreCh <- heartbeatFromUser{MatchID: matchID, PlayerID: playerID}
		case "request":
			if len(f) < 3 {
				log.Info().Msgf("short request head: %v", f)
				continue
			}
			reqID := f[1]
			switch f[2] {
			case "action":
				var req comms.ActionRequest
				if err := comms.Decode(msg, &req); err != nil {
					log.Info().Err(err).Msg("decode action error")
					continue
				}
				// the socket identity wins over whatever the body claims
				req.Action.PlayerID = playerID
				if req.Action.Type == game.ActionHeartbeat {
					server.coreCh <- heartbeatFromUser{MatchID: matchID, PlayerID: playerID}
					continue
				}
				server.coreCh <- actionFromUser{MatchID: matchID, PlayerID: playerID, ReqID: reqID, Action: req.Action}
			case "resync":
				server.coreCh <- resyncFromUser{MatchID: matchID, PlayerID: playerID, ReqID: reqID}
			default:
				log.Info().Msgf("junk request from client: %v", f)
			}
		default:
			log.Info().Msgf("junk from client: %v", f)
		}
	}
}

func sendDownWs(ws *websocket.Conn, msg comms.Message) error {
	w, err := ws.Writer(context.TODO(), websocket.MessageText)
	if err != nil {
		return err
	}
	defer w.Close()

	jmsg := WsJSONMessage{
		Head: string(msg.Head),
		Data: msg.Data,
	}

	tmsg, _ := json.Marshal(jmsg)

	_, err = w.Write(tmsg)
	if err != nil {
		return err
	}

	return w.Close()
}

func readMessageWs(c *websocket.Conn) (comms.Message, error) {
	typ, r, err := c.Reader(context.TODO())
	if err != nil {
		return comms.Message{}, err
	}

	if typ == websocket.MessageText {
		// text type means fully encapsulated in JSON
		bytes, err := io.ReadAll(r)
		if err != nil {
			return comms.Message{}, err
		}
		msg := WsJSONMessage{}
		err = json.Unmarshal(bytes, &msg)
		if err != nil {
			return comms.Message{}, err
		}

		return comms.Message{Head: comms.Head(msg.Head), Data: msg.Data}, nil
	}

	return comms.Message{}, fmt.Errorf("client sent a %v", typ)
}
