package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/undeconstructed/ludogo/client"
	"github.com/undeconstructed/ludogo/server"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "server":
		err = runServer(os.Args[2:])
	case "create":
		err = runCreate(os.Args[2:])
	case "client":
		err = runClient(os.Args[2:])
	default:
		usage()
	}

	if err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s server|create|client [options]\n", os.Args[0])
	os.Exit(2)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	addr := fs.String("addr", envOr("LUDO_ADDR", "0.0.0.0:1235"), "listen address")
	tcpAddr := fs.String("tcp", os.Getenv("LUDO_TCP_ADDR"), "raw comms listen address, empty to disable")
	dir := fs.String("dir", envOr("LUDO_STATE_DIR", "."), "state directory")
	secret := fs.String("secret", os.Getenv("LUDO_SECRET"), "token signing secret")
	fs.Parse(args)

	if *secret == "" {
		return fmt.Errorf("a token secret is required, set LUDO_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := server.NewServer(server.Config{
		Addr:        *addr,
		TCPAddr:     *tcpAddr,
		StateDir:    *dir,
		TokenSecret: *secret,
	})
	return s.Run(ctx)
}

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	addr := fs.String("server", envOr("LUDO_SERVER", "localhost:1235"), "server address")
	players := fs.String("players", "", "players as JSON, e.g. [{\"id\":\"alice\"},{\"id\":\"bot1\",\"bot\":true}]")
	fs.Parse(args)

	var in server.CreateMatchInput
	if err := json.Unmarshal([]byte(*players), &in.Players); err != nil {
		return fmt.Errorf("bad players: %w", err)
	}

	body, _ := json.Marshal(in)
	res, err := http.Post(fmt.Sprintf("http://%s/api/matches", *addr), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("create failed: %s", res.Status)
	}

	var summary server.MatchSummary
	if err := json.NewDecoder(res.Body).Decode(&summary); err != nil {
		return err
	}
	fmt.Printf("match: %s\n", summary.ID)
	return nil
}

func runClient(args []string) error {
	fs := flag.NewFlagSet("client", flag.ExitOnError)
	addr := fs.String("server", envOr("LUDO_SERVER", "localhost:1235"), "server address")
	match := fs.String("match", "", "match id")
	player := fs.String("player", "", "player id")
	fs.Parse(args)

	if *match == "" || *player == "" {
		return fmt.Errorf("both -match and -player are required")
	}

	token, err := join(*addr, *match, *player)
	if err != nil {
		return err
	}

	c := client.NewClient(*addr, token, *player)
	return c.Run()
}

// join trades a seat claim for a connect token over REST.
func join(addr, match, player string) (string, error) {
	body, _ := json.Marshal(map[string]string{"playerId": player})
	hc := &http.Client{Timeout: 10 * time.Second}
	res, err := hc.Post(fmt.Sprintf("http://%s/api/matches/%s/join", addr, match), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("join refused: %s", res.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
