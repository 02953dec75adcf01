package client

import (
	"errors"
	"sync"

	"github.com/undeconstructed/ludogo/comms"
	"github.com/undeconstructed/ludogo/game"
)

var (
	errNoState      = errors.New("no state yet")
	errBusy         = errors.New("a request is already in flight")
	errDisconnected = errors.New("not connected")
)

// SyncHandler keeps the client's copy of the match in step with the host.
// The host is always right: anything applied locally is a prediction that
// survives only until the host confirms or contradicts it.
type SyncHandler struct {
	mu sync.Mutex

	current *game.State
	version int64

	// pending is the one action awaiting a host verdict
	pending *game.PlayerAction
	// rollback is the confirmed state from before the optimistic overlay
	rollback *game.State

	disconnected bool
	retryPending bool
}

func NewSyncHandler() *SyncHandler {
	return &SyncHandler{}
}

// Seed adopts a full snapshot and forgets everything local. Used for the
// connect handshake and for resync responses.
func (h *SyncHandler) Seed(push *comms.StatePush) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := push.State
	h.current = &st
	h.version = push.Version
	h.pending = nil
	h.rollback = nil
	h.disconnected = false
	h.retryPending = false
}

// State returns a copy of the local view, which may be optimistic.
func (h *SyncHandler) State() (game.State, int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return game.State{}, 0, errNoState
	}
	return *h.current, h.version, nil
}

// CanPerformAction reports whether a new action may be submitted now.
func (h *SyncHandler) CanPerformAction() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil && h.pending == nil && !h.disconnected
}

// CreateRequest checks an action against the local view and marks it
// pending. The local check only saves a doomed round trip; the host
// repeats it.
func (h *SyncHandler) CreateRequest(a game.PlayerAction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disconnected {
		return errDisconnected
	}
	if h.pending != nil {
		return errBusy
	}
	if err := game.Validate(h.current, a); err != nil {
		return err
	}
	h.pending = &a
	return nil
}

// ApplyOptimisticUpdate overlays a predicted state so the UI does not
// wait a round trip. Ignored unless a request is pending.
func (h *SyncHandler) ApplyOptimisticUpdate(predicted game.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return
	}
	if h.rollback == nil {
		h.rollback = h.current
	}
	h.current = &predicted
}

// HandleResponse settles the pending request with the host's verdict. On
// rejection the overlay is rolled back and the game error returned.
func (h *SyncHandler) HandleResponse(res comms.ActionResponse) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rollback != nil {
		h.current = h.rollback
		h.rollback = nil
	}
	h.pending = nil
	h.retryPending = false

	if res.Err != nil {
		return comms.ReError(res.Err)
	}
	if res.State != nil && res.State.Version >= h.version {
		st := res.State.State
		h.current = &st
		h.version = res.State.Version
	}
	return nil
}

// HandleStateUpdate takes a pushed snapshot. Stale pushes are dropped.
// The returned flag asks the caller to request a resync, because the
// push says so or because versions were skipped.
func (h *SyncHandler) HandleStateUpdate(push *comms.StatePush) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if push.Version <= h.version {
		return false
	}
	gap := h.current != nil && push.Version > h.version+1

	st := push.State
	h.current = &st
	h.version = push.Version
	// the authoritative state supersedes any local overlay
	h.rollback = nil

	return gap || push.RequiresResync
}

// HandleNetworkError reacts to a transport failure on the pending
// request. A timeout leaves the request retryable; a lost connection
// abandons it, the reconnect snapshot will tell us what really happened.
func (h *SyncHandler) HandleNetworkError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rollback != nil {
		h.current = h.rollback
		h.rollback = nil
	}

	ne := &comms.NetworkError{}
	if errors.As(err, &ne) && ne.Fault == comms.FaultTimeout {
		if h.pending != nil {
			h.retryPending = true
		}
		return
	}
	h.pending = nil
	h.retryPending = false
	h.disconnected = true
}

// AbandonPending gives up on a request that could not be delivered.
func (h *SyncHandler) AbandonPending() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = nil
	h.retryPending = false
}

// RetryPending hands back an action that timed out, once.
func (h *SyncHandler) RetryPending() (game.PlayerAction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.retryPending || h.pending == nil {
		return game.PlayerAction{}, false
	}
	h.retryPending = false
	return *h.pending, true
}

func (h *SyncHandler) Disconnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disconnected
}
