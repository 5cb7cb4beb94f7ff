package usecase

import (
	"context"
	"reflect"
	"sync"

	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

// UserAction names a directory mutation
type UserAction string

const (
	UserAdded   UserAction = "add"
	UserUpdated UserAction = "update"
	UserDeleted UserAction = "delete"
)

// UserDirectoryChanged is published after a successful directory mutation
type UserDirectoryChanged struct {
	Action   UserAction
	Username string
	Role     types.Role
	// PreviousRole is empty when the role before the update is unknown
	PreviousRole types.Role
}

// RevokesSessions reports whether sessions of the user must end
func (e UserDirectoryChanged) RevokesSessions() bool {
	switch e.Action {
	case UserDeleted:
		return true
	case UserUpdated:
		return e.PreviousRole != e.Role
	default:
		return false
	}
}

// SessionStarted is published after a successful login
type SessionStarted struct {
	Username string
	Role     types.Role
}

// SessionEnded is published after a logout
type SessionEnded struct {
	Username string
}

// ViewReset is published when a view frame must be recreated
type ViewReset struct {
	Viewer     ViewerID
	View       types.ViewID
	Generation uint64
}

// ViewStatusChanged is published when a load attempt of a view completes
type ViewStatusChanged struct {
	Viewer     ViewerID
	View       types.ViewID
	Status     model.ViewStatus
	Generation uint64
}

// EventBus dispatches typed events to subscribers synchronously, in
// subscription order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(ctx context.Context, event any)
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[reflect.Type][]func(ctx context.Context, event any)),
	}
}

// Subscribe registers fn for events of type E
func Subscribe[E any](bus *EventBus, fn func(ctx context.Context, event E)) {
	key := reflect.TypeFor[E]()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[key] = append(bus.handlers[key], func(ctx context.Context, event any) {
		fn(ctx, event.(E))
	})
}

// Publish delivers event to every subscriber of E. A nil bus drops the event.
func Publish[E any](ctx context.Context, bus *EventBus, event E) {
	if bus == nil {
		return
	}

	bus.mu.RLock()
	handlers := bus.handlers[reflect.TypeFor[E]()]
	bus.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}
