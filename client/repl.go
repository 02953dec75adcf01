package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/undeconstructed/ludogo/game"

	rl "github.com/chzyer/readline"
)

const (
	RED    = "[31m"
	GREEN  = "[32m"
	YELLOW = "[33m"
	BLUE   = "[34m"
	WHITE  = "[37m"
)

func col(c game.Colour) string {
	switch c {
	case game.ColourRed:
		return RED
	case game.ColourGreen:
		return GREEN
	case game.ColourYellow:
		return YELLOW
	case game.ColourBlue:
		return BLUE
	default:
		return "[0m"
	}
}

func (c *client) printUpdates() {
	for _, u := range c.takeUpdates() {
		fmt.Println(">", u)
	}
}

func (c *client) followUpdates() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	for {
		select {
		case m := <-c.updateCh:
			fmt.Println(">", m)
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) startUI(g GameClient) (func() error, <-chan struct{}, error) {
	completer := rl.NewPrefixCompleter(
		rl.PcItem("roll"),
		rl.PcItem("move"),
		rl.PcItem("state"),
		rl.PcItem("resync"),
		rl.PcItem("follow"),
	)

	l, err := rl.NewEx(&rl.Config{
		Prompt:            "» ",
		HistoryFile:       "hist.txt",
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer l.Close()
		c.gameRepl(l, g)
	}()

	return l.Close, done, nil
}

func printToken(t game.Token) string {
	switch t.State {
	case game.TokenHome:
		return "home"
	case game.TokenFinished:
		return "done"
	default:
		return strconv.Itoa(t.Position)
	}
}

func printState(s game.State, version int64) {
	fmt.Printf("Version: %d\n", version)
	fmt.Printf("Status:  %s\n", s.Status)
	if s.WinnerID != "" {
		fmt.Printf("Winner:  %s\n", s.WinnerID)
	}
	fmt.Printf("Turn:    %s\n", s.CurrentTurn)
	if s.DiceValue != 0 {
		fmt.Printf("Dice:    %d\n", s.DiceValue)
	}
	for _, p := range s.Players {
		presence := ""
		if !p.IsOnline {
			presence = " (offline)"
		}
		var toks []string
		for _, t := range p.Tokens {
			toks = append(toks, printToken(t))
		}
		fmt.Printf("  %s %s%s: %s\n", p.Colour, p.ID, presence, strings.Join(toks, " "))
	}
}

func (c *client) gameRepl(l *rl.Instance, g GameClient) error {

	doPrompt := func() {
		s, _, err := g.State()
		if err != nil {
			l.SetPrompt("» ")
			return
		}
		me := s.Player(c.playerID)
		if me == nil {
			l.SetPrompt("» ")
			return
		}
		colour := col(me.Colour)
		if s.CurrentTurn == c.playerID {
			phase := "roll"
			if s.MustSelectToken {
				phase = fmt.Sprintf("move %d", s.DiceValue)
			}
			l.SetPrompt(fmt.Sprintf("\033%s%s|%s»\033[0m ", colour, c.playerID, phase))
		} else {
			l.SetPrompt(fmt.Sprintf("\033%s%s|waiting»\033[0m ", colour, c.playerID))
		}
	}

	for {
		doPrompt()
		c.printUpdates()

		line, err := l.Readline()
		if err == rl.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
		cmd := parts[0]
		rest := ""
		if len(parts) == 2 {
			rest = parts[1]
		}

		switch cmd {
		case "roll":
			res, err := g.Roll()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Rolled a %d\n", res.Dice)
			if res.Forfeited {
				fmt.Printf("Third six, turn forfeited\n")
			} else if len(res.Movable) > 0 {
				fmt.Printf("Movable tokens: %v\n", res.Movable)
			} else {
				fmt.Printf("Nothing can move\n")
			}
		case "move":
			tokenID, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Printf("move <token>\n")
				continue
			}
			res, err := g.Move(tokenID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if res.Move != nil {
				fmt.Printf("Moved token %d to %d (%s)\n", res.Move.TokenID, res.Move.To, res.Move.Type)
				if res.Move.Captured != nil {
					fmt.Printf("Captured %s's token %d\n", res.Move.Captured.PlayerID, res.Move.Captured.TokenID)
				}
			}
			if res.Won {
				fmt.Printf("You won!\n")
			} else if res.BonusTurn {
				fmt.Printf("Roll again\n")
			}
		case "state", "":
			s, version, err := g.State()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printState(s, version)
		case "resync":
			if err := g.Resync(); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("ok\n")
		case "follow":
			c.printUpdates()
			c.followUpdates()
		default:
			fmt.Printf("unknown\n")
		}
	}

	return nil
}
