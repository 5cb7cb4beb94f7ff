package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

// DefaultViewerTTL is how long an idle tab host is kept
const DefaultViewerTTL = 12 * time.Hour

// DefaultMaxViewers bounds the number of tab hosts kept at once
const DefaultMaxViewers = 10000

// ViewerID identifies the tab host of one browser
type ViewerID string

func NewViewerID() ViewerID {
	return ViewerID(uuid.New().String())
}

func (id ViewerID) String() string {
	return string(id)
}

func (id ViewerID) Validate() error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(model.ErrUnknownViewer, "viewer ID is not a UUID", goerr.V(ViewerIDKey, string(id)))
	}
	return nil
}

type viewer struct {
	host    *model.TabHost
	touched time.Time
}

// ViewUseCase keeps the tab host of every browser in process memory
type ViewUseCase struct {
	catalog *model.ViewCatalog
	bus     *EventBus
	ttl     time.Duration
	max     int

	mu      sync.Mutex
	viewers map[ViewerID]*viewer
}

type ViewOption func(*ViewUseCase)

// WithViewerTTL sets how long an idle tab host is kept
func WithViewerTTL(ttl time.Duration) ViewOption {
	return func(uc *ViewUseCase) {
		uc.ttl = ttl
	}
}

// WithMaxViewers sets how many tab hosts are kept. The least recently used
// host is evicted when a new one would exceed it.
func WithMaxViewers(n int) ViewOption {
	return func(uc *ViewUseCase) {
		uc.max = n
	}
}

// WithViewEventBus publishes view events to bus
func WithViewEventBus(bus *EventBus) ViewOption {
	return func(uc *ViewUseCase) {
		uc.bus = bus
	}
}

func NewViewUseCase(catalog *model.ViewCatalog, opts ...ViewOption) *ViewUseCase {
	uc := &ViewUseCase{
		catalog: catalog,
		ttl:     DefaultViewerTTL,
		max:     DefaultMaxViewers,
		viewers: make(map[ViewerID]*viewer),
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.ttl <= 0 {
		uc.ttl = DefaultViewerTTL
	}
	if uc.max <= 0 {
		uc.max = DefaultMaxViewers
	}
	return uc
}

func (uc *ViewUseCase) Catalog() *model.ViewCatalog {
	return uc.catalog
}

// Open returns the tab host for a page render. The host of id is reused when
// it was built for the same tab set; otherwise a new one replaces it. A
// malformed id gets a fresh ViewerID. Every frame is recreated by the page,
// so every view starts a new load attempt.
func (uc *ViewUseCase) Open(ctx context.Context, id ViewerID, identity *auth.Identity, direct bool, hint types.ViewID) (ViewerID, model.TabSnapshot) {
	if id.Validate() != nil {
		id = NewViewerID()
	}

	uc.mu.Lock()
	v, ok := uc.viewers[id]
	if !ok || !v.host.Fits(identity, direct) {
		if !ok && len(uc.viewers) >= uc.max {
			uc.evictOldest(ctx)
		}
		v = &viewer{host: model.NewTabHost(identity, direct, hint)}
		uc.viewers[id] = v
		logging.From(ctx).Debug("tab host created", "viewer_id", id, "direct", direct)
	} else if hint != "" {
		// Selecting a hidden view is not an error for a page render
		_ = v.host.Select(hint)
	}
	v.touched = time.Now()
	uc.mu.Unlock()

	return id, v.host.Mount()
}

// evictOldest drops the least recently used host. uc.mu must be held.
func (uc *ViewUseCase) evictOldest(ctx context.Context) {
	var (
		oldest ViewerID
		at     time.Time
	)
	for id, v := range uc.viewers {
		if oldest == "" || v.touched.Before(at) {
			oldest, at = id, v.touched
		}
	}
	if oldest != "" {
		delete(uc.viewers, oldest)
		logging.From(ctx).Debug("tab host evicted", "viewer_id", oldest, "touched", at)
	}
}

// get returns the host of id if identity may still use it
func (uc *ViewUseCase) get(id ViewerID, identity *auth.Identity) (*model.TabHost, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	v, ok := uc.viewers[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrUnknownViewer, "no tab host", goerr.V(ViewerIDKey, id))
	}
	if !v.host.Serves(identity) {
		return nil, goerr.Wrap(model.ErrUnknownViewer, "tab host belongs to another session", goerr.V(ViewerIDKey, id))
	}
	v.touched = time.Now()
	return v.host, nil
}

func (uc *ViewUseCase) Snapshot(ctx context.Context, id ViewerID, identity *auth.Identity) (model.TabSnapshot, error) {
	host, err := uc.get(id, identity)
	if err != nil {
		return model.TabSnapshot{}, err
	}
	return host.Snapshot(), nil
}

func (uc *ViewUseCase) Select(ctx context.Context, id ViewerID, identity *auth.Identity, view types.ViewID) (model.TabSnapshot, error) {
	host, err := uc.get(id, identity)
	if err != nil {
		return model.TabSnapshot{}, err
	}
	if err := host.Select(view); err != nil {
		return model.TabSnapshot{}, err
	}
	return host.Snapshot(), nil
}

// MarkLoaded records a successful load attempt. It reports false for a stale event.
func (uc *ViewUseCase) MarkLoaded(ctx context.Context, id ViewerID, identity *auth.Identity, view types.ViewID, gen uint64) (bool, error) {
	return uc.complete(ctx, id, identity, view, gen, model.ViewReady)
}

// MarkFailed records a failed load attempt. It reports false for a stale event.
func (uc *ViewUseCase) MarkFailed(ctx context.Context, id ViewerID, identity *auth.Identity, view types.ViewID, gen uint64) (bool, error) {
	return uc.complete(ctx, id, identity, view, gen, model.ViewError)
}

func (uc *ViewUseCase) complete(ctx context.Context, id ViewerID, identity *auth.Identity, view types.ViewID, gen uint64, status model.ViewStatus) (bool, error) {
	host, err := uc.get(id, identity)
	if err != nil {
		return false, err
	}

	var applied bool
	if status == model.ViewReady {
		applied, err = host.MarkLoaded(view, gen)
	} else {
		applied, err = host.MarkFailed(view, gen)
	}
	if err != nil {
		return false, err
	}

	if !applied {
		logging.From(ctx).Debug("stale view event ignored", "viewer_id", id, "view", view, "generation", gen)
		return false, nil
	}

	Publish(ctx, uc.bus, ViewStatusChanged{Viewer: id, View: view, Status: status, Generation: gen})
	return true, nil
}

// Retry resets view. The page must recreate its frame with the returned generation.
func (uc *ViewUseCase) Retry(ctx context.Context, id ViewerID, identity *auth.Identity, view types.ViewID) (model.ViewState, error) {
	host, err := uc.get(id, identity)
	if err != nil {
		return model.ViewState{}, err
	}
	state, err := host.Reset(view)
	if err != nil {
		return model.ViewState{}, err
	}
	Publish(ctx, uc.bus, ViewReset{Viewer: id, View: state.ID, Generation: state.Generation})
	return state, nil
}

// Refresh resets the active view
func (uc *ViewUseCase) Refresh(ctx context.Context, id ViewerID, identity *auth.Identity) (model.ViewState, error) {
	host, err := uc.get(id, identity)
	if err != nil {
		return model.ViewState{}, err
	}
	state := host.RefreshActive()
	Publish(ctx, uc.bus, ViewReset{Viewer: id, View: state.ID, Generation: state.Generation})
	return state, nil
}

// Sweep evicts hosts idle since before now minus the TTL and returns how many were evicted
func (uc *ViewUseCase) Sweep(now time.Time) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	var evicted int
	for id, v := range uc.viewers {
		if now.Sub(v.touched) > uc.ttl {
			delete(uc.viewers, id)
			evicted++
		}
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is done
func (uc *ViewUseCase) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := uc.Sweep(now); n > 0 {
				logging.From(ctx).Debug("idle tab hosts evicted", "count", n)
			}
		}
	}
}
