package model

import (
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

// ViewStatus is the load status of one view
type ViewStatus string

const (
	ViewLoading ViewStatus = "loading"
	ViewReady   ViewStatus = "ready"
	ViewError   ViewStatus = "error"
)

// ViewState is the status of one view for one load attempt. Generation
// identifies the attempt; events of older attempts are ignored.
type ViewState struct {
	ID         types.ViewID `json:"id"`
	Status     ViewStatus   `json:"status"`
	Generation uint64       `json:"generation"`
}

func (s ViewState) Loading() bool { return s.Status == ViewLoading }
func (s ViewState) Failed() bool  { return s.Status == ViewError }

// TabSnapshot is a consistent copy of a TabHost
type TabSnapshot struct {
	Active types.ViewID `json:"active"`
	Direct bool         `json:"direct"`
	Views  []ViewState  `json:"views"`
}

// Visible reports whether id is part of the snapshot
func (s TabSnapshot) Visible(id types.ViewID) bool {
	return slices.ContainsFunc(s.Views, func(v ViewState) bool { return v.ID == id })
}

// State returns the state of id in the snapshot
func (s TabSnapshot) State(id types.ViewID) (ViewState, bool) {
	for _, v := range s.Views {
		if v.ID == id {
			return v, true
		}
	}
	return ViewState{}, false
}

// VisibleViews returns the tab set for a session. Direct access and any
// non-admin identity only see preparation.
func VisibleViews(identity *auth.Identity, direct bool) []types.ViewID {
	if !direct && identity.IsAdmin() {
		return types.AllViews()
	}
	return []types.ViewID{types.ViewPreparation}
}

// TabHost tracks which view is active and the load status of every visible view
type TabHost struct {
	mu      sync.Mutex
	direct  bool
	visible []types.ViewID
	active  types.ViewID
	states  map[types.ViewID]*ViewState
}

// NewTabHost creates a host for the session. hint selects the initial view
// when it is visible; otherwise preparation is active.
func NewTabHost(identity *auth.Identity, direct bool, hint types.ViewID) *TabHost {
	h := &TabHost{
		direct:  direct,
		visible: VisibleViews(identity, direct),
		active:  types.ViewPreparation,
		states:  make(map[types.ViewID]*ViewState),
	}
	for _, id := range h.visible {
		h.states[id] = &ViewState{ID: id, Status: ViewLoading, Generation: 1}
	}
	if slices.Contains(h.visible, hint) {
		h.active = hint
	}
	return h
}

// Fits reports whether the host was built for the same tab set
func (h *TabHost) Fits(identity *auth.Identity, direct bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.direct == direct && slices.Equal(h.visible, VisibleViews(identity, direct))
}

// Serves reports whether identity would get the same tab set from this host
func (h *TabHost) Serves(identity *auth.Identity) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Equal(h.visible, VisibleViews(identity, h.direct))
}

func (h *TabHost) lookup(id types.ViewID) (*ViewState, error) {
	state, ok := h.states[id]
	if !ok {
		return nil, goerr.Wrap(ErrViewNotVisible, "view is not visible", goerr.V(ViewKey, id))
	}
	return state, nil
}

// Select makes id the active view. The status of other views is kept.
func (h *TabHost) Select(id types.ViewID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.lookup(id); err != nil {
		return err
	}
	h.active = id
	return nil
}

// MarkLoaded completes the load attempt gen of id. It returns false when the
// event belongs to a superseded attempt or the attempt already completed.
func (h *TabHost) MarkLoaded(id types.ViewID, gen uint64) (bool, error) {
	return h.complete(id, gen, ViewReady)
}

// MarkFailed fails the load attempt gen of id. See MarkLoaded.
func (h *TabHost) MarkFailed(id types.ViewID, gen uint64) (bool, error) {
	return h.complete(id, gen, ViewError)
}

func (h *TabHost) complete(id types.ViewID, gen uint64, status ViewStatus) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, err := h.lookup(id)
	if err != nil {
		return false, err
	}
	if state.Generation != gen || state.Status != ViewLoading {
		return false, nil
	}
	state.Status = status
	return true, nil
}

// Reset discards the load state of id and starts a new attempt. The caller
// must recreate the frame of the view with the returned generation.
func (h *TabHost) Reset(id types.ViewID) (ViewState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reset(id)
}

// RefreshActive resets the active view
func (h *TabHost) RefreshActive() ViewState {
	h.mu.Lock()
	defer h.mu.Unlock()

	// active is always visible
	state, _ := h.reset(h.active)
	return state
}

func (h *TabHost) reset(id types.ViewID) (ViewState, error) {
	state, err := h.lookup(id)
	if err != nil {
		return ViewState{}, err
	}
	state.Generation++
	state.Status = ViewLoading
	return *state, nil
}

// Mount starts a new attempt for every visible view. A full page render
// recreates every frame, so every earlier attempt is superseded.
func (h *TabHost) Mount() TabSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range h.visible {
		state := h.states[id]
		state.Generation++
		state.Status = ViewLoading
	}
	return h.snapshot()
}

// Snapshot returns a copy of the current state
func (h *TabHost) Snapshot() TabSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

func (h *TabHost) snapshot() TabSnapshot {
	snap := TabSnapshot{
		Active: h.active,
		Direct: h.direct,
		Views:  make([]ViewState, 0, len(h.visible)),
	}
	for _, id := range h.visible {
		snap.Views = append(snap.Views, *h.states[id])
	}
	return snap
}
