package client

import (
	"github.com/undeconstructed/ludogo/comms"
	"github.com/undeconstructed/ludogo/game"
)

// GameClient is what the UI plays through. Every call goes to the host
// and settles through the sync handler.
type GameClient interface {
	Roll() (comms.ActionResponse, error)
	Move(tokenID int) (comms.ActionResponse, error)
	Resync() error
	State() (game.State, int64, error)
}

type gameProxy struct {
	client *client
}

func NewGameProxy(client *client) GameClient {
	return &gameProxy{client: client}
}

func (gp *gameProxy) Roll() (comms.ActionResponse, error) {
	c := gp.client
	action := game.NewAction(game.ActionRollDice, c.playerID, nil)
	return gp.submit(action)
}

func (gp *gameProxy) Move(tokenID int) (comms.ActionResponse, error) {
	c := gp.client
	action := game.NewAction(game.ActionMoveToken, c.playerID, &tokenID)
	if err := c.sync.CreateRequest(action); err != nil {
		return comms.ActionResponse{}, err
	}

	// the same rules run here, so the move can show before the host
	// confirms it
	if cur, _, err := c.sync.State(); err == nil {
		if predicted, err := game.MoveToken(cur, tokenID); err == nil {
			c.sync.ApplyOptimisticUpdate(predicted.State)
		}
	}

	return gp.send(action)
}

func (gp *gameProxy) submit(action game.PlayerAction) (comms.ActionResponse, error) {
	if err := gp.client.sync.CreateRequest(action); err != nil {
		return comms.ActionResponse{}, err
	}
	return gp.send(action)
}

func (gp *gameProxy) send(action game.PlayerAction) (comms.ActionResponse, error) {
	c := gp.client
	res, err := c.doRequest("action", comms.ActionRequest{Action: action})
	if err != nil {
		c.sync.HandleNetworkError(err)
		retry, ok := c.sync.RetryPending()
		if !ok {
			c.sync.AbandonPending()
			return comms.ActionResponse{}, err
		}
		res, err = c.doRequest("action", comms.ActionRequest{Action: retry})
		if err != nil {
			c.sync.HandleNetworkError(err)
			c.sync.AbandonPending()
			return comms.ActionResponse{}, err
		}
	}
	if err := c.sync.HandleResponse(res); err != nil {
		return comms.ActionResponse{}, err
	}
	return res, nil
}

func (gp *gameProxy) Resync() error {
	c := gp.client
	res, err := c.doRequest("resync", nil)
	if err != nil {
		c.sync.HandleNetworkError(err)
		return err
	}
	if res.State == nil {
		return errNoState
	}
	c.sync.Seed(res.State)
	return nil
}

func (gp *gameProxy) State() (game.State, int64, error) {
	return gp.client.sync.State()
}
