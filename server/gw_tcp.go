package server

import (
	"context"
	"io"
	"net"

	"github.com/undeconstructed/ludogo/comms"
	"github.com/undeconstructed/ludogo/game"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// The TCP gateway speaks raw comms frames over a stream, for clients that
// have no use for HTTP. Same handshake, same heads as the websocket path.
func runTCPGateway(ctx context.Context, server *server, addr string) error {
	log := log.With().Str("gw", "tcp").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("comms listening on tcp:%v", ln.Addr())

	m := &tcpManager{
		server: server,
		log:    log,
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go m.manageConn(conn)
	}
}

type tcpManager struct {
	server *server
	log    zerolog.Logger
}

func (m *tcpManager) manageConn(conn net.Conn) {
	defer conn.Close()

	log := m.log.With().Str("client", conn.RemoteAddr().String()).Logger()
	log.Info().Msgf("connecting")

	server := m.server

	upStream := comms.NewDecoder(conn)
	dnStream := comms.NewEncoder(conn)

	msg1, err := upStream.Decode()
	if err != nil {
		log.Info().Err(err).Msg("first message error")
		return
	}
	if msg1.Type() != "connect" {
		log.Info().Msg("bad first message head")
		return
	}
	var conReq comms.ConnectRequest
	if err := comms.Decode(msg1, &conReq); err != nil {
		log.Info().Err(err).Msg("bad connect body")
		return
	}
	matchID, playerID, err := parseToken([]byte(server.cfg.TokenSecret), conReq.Token)
	if err != nil {
		log.Info().Err(err).Msg("bad token")
		dnStream.Encode("connected", comms.ConnectResponse{Err: comms.WrapError(err)})
		return
	}

	downCh := make(chan comms.Message, 100)
	bundle := clientBundle{downCh}

	push, err := server.Connect(matchID, playerID, bundle)
	if err != nil {
		log.Info().Err(err).Msg("connect error")
		dnStream.Encode("connected", comms.ConnectResponse{Err: comms.WrapError(err)})
		return
	}

	dnStream.Encode("connected", comms.ConnectResponse{State: push})

	go func() {
		// read downCh, write to conn
		for down := range downCh {
			if err := dnStream.Send(down); err != nil {
				log.Info().Err(err).Msg("send error")
				break
			}
		}
	}()

	for {
		// read conn, despatch into server
		msg, err := upStream.Decode()
		if err != nil {
			if err != io.EOF {
				log.Info().Err(err).Msg("decode error")
			}
			break
		}
		log.Debug().Msgf("received: %s %s", msg.Head, string(msg.Data))

		f := msg.Head.Fields()
		switch f[0] {
		case "heartbeat":
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

	server.coreCh <- disconnectMsg{MatchID: matchID, PlayerID: playerID, Client: bundle}
}
