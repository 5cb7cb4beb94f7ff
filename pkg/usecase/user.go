package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

const userListCacheTTL = 30 * time.Second

const (
	msgAddFieldsRequired    = "Todos los campos son obligatorios"
	msgUpdateFieldsRequired = "Nombre, usuario y rol son obligatorios"
	msgDeleteUnconfirmed    = "Confirma la eliminación del usuario"
	msgUsernameRequired     = "El usuario es obligatorio"
	msgRequestInFlight      = "Ya hay una operación en curso para este usuario"
)

// UserUseCase manages directory users on behalf of an admin
type UserUseCase struct {
	directory interfaces.Directory
	bus       *EventBus

	group    singleflight.Group
	inflight sync.Map

	mu       sync.RWMutex
	cached   *model.UserList
	cachedAt time.Time
	// version changes on every invalidation so a list fetched before a
	// mutation is not cached after it
	version uint64
}

// NewUserUseCase creates a UserUseCase. The list cache is dropped on every
// UserDirectoryChanged event published to bus.
func NewUserUseCase(directory interfaces.Directory, bus *EventBus) *UserUseCase {
	uc := &UserUseCase{
		directory: directory,
		bus:       bus,
	}

	if bus != nil {
		Subscribe(bus, func(ctx context.Context, e UserDirectoryChanged) {
			uc.invalidate()
		})
	}

	return uc
}

// List returns the directory users. Concurrent calls share one remote request.
func (uc *UserUseCase) List(ctx context.Context) *model.UserList {
	if list, ok := uc.fromCache(); ok {
		return list
	}

	// The shared load outlives the caller that started it
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := uc.group.Do("list", func() (any, error) {
		uc.mu.RLock()
		version := uc.version
		uc.mu.RUnlock()

		list := uc.directory.ListUsers(loadCtx)
		if list != nil && list.Success {
			uc.mu.Lock()
			if uc.version == version {
				uc.cached = list
				uc.cachedAt = time.Now()
			}
			uc.mu.Unlock()
		}
		return list, nil
	})

	return copyUserList(v.(*model.UserList))
}

// Lookup finds username in the directory list
func (uc *UserUseCase) Lookup(ctx context.Context, username string) (*model.User, bool) {
	list := uc.List(ctx)
	if !list.Success {
		return nil, false
	}
	for _, u := range list.Users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return &u, true
		}
	}
	return nil, false
}

func (uc *UserUseCase) Add(ctx context.Context, input model.NewUser) *model.Result {
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)
	if err := input.Validate(); err != nil {
		return model.Failed(err, msgAddFieldsRequired)
	}

	release, ok := uc.acquire(UserAdded, input.Username)
	if !ok {
		return inFlight(UserAdded, input.Username)
	}
	defer release()

	result := uc.directory.AddUser(ctx, input)
	if result.Success {
		uc.changed(ctx, UserDirectoryChanged{
			Action:   UserAdded,
			Username: input.Username,
			Role:     input.Role,
		})
	}
	return result
}

func (uc *UserUseCase) Update(ctx context.Context, input model.UserUpdate) *model.Result {
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)
	if err := input.Validate(); err != nil {
		return model.Failed(err, msgUpdateFieldsRequired)
	}

	release, ok := uc.acquire(UserUpdated, input.Username)
	if !ok {
		return inFlight(UserUpdated, input.Username)
	}
	defer release()

	previous := uc.cachedRole(input.Username)

	result := uc.directory.UpdateUser(ctx, input)
	if result.Success {
		uc.changed(ctx, UserDirectoryChanged{
			Action:       UserUpdated,
			Username:     input.Username,
			Role:         input.Role,
			PreviousRole: previous,
		})
	}
	return result
}

// Delete removes username. Nothing is sent unless confirmed is true.
func (uc *UserUseCase) Delete(ctx context.Context, username string, confirmed bool) *model.Result {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.Failed(goerr.Wrap(model.ErrValidation, "username is empty",
			goerr.V(model.FieldKey, "username")), msgUsernameRequired)
	}
	if !confirmed {
		return model.Failed(goerr.Wrap(model.ErrConfirmationRequired, "delete is not confirmed",
			goerr.V(model.UsernameKey, username)), msgDeleteUnconfirmed)
	}

	release, ok := uc.acquire(UserDeleted, username)
	if !ok {
		return inFlight(UserDeleted, username)
	}
	defer release()

	result := uc.directory.DeleteUser(ctx, username)
	if result.Success {
		uc.changed(ctx, UserDirectoryChanged{
			Action:   UserDeleted,
			Username: username,
		})
	}
	return result
}

func (uc *UserUseCase) changed(ctx context.Context, event UserDirectoryChanged) {
	logging.From(ctx).Info("user directory changed",
		"action", event.Action,
		"username", event.Username,
		"role", event.Role,
	)
	// Invalidate directly as well, the bus is optional
	uc.invalidate()
	Publish(ctx, uc.bus, event)
}

func (uc *UserUseCase) acquire(action UserAction, username string) (func(), bool) {
	key := string(action) + ":" + strings.ToUpper(username)
	if _, loaded := uc.inflight.LoadOrStore(key, struct{}{}); loaded {
		return nil, false
	}
	return func() { uc.inflight.Delete(key) }, true
}

func inFlight(action UserAction, username string) *model.Result {
	return model.Failed(goerr.Wrap(model.ErrRequestInFlight, "duplicated submission",
		goerr.V(model.ActionKey, action), goerr.V(model.UsernameKey, username)), msgRequestInFlight)
}

func (uc *UserUseCase) fromCache() (*model.UserList, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if uc.cached == nil || time.Since(uc.cachedAt) > userListCacheTTL {
		return nil, false
	}
	return copyUserList(uc.cached), true
}

// cachedRole returns the role of username in the last list, or empty when unknown
func (uc *UserUseCase) cachedRole(username string) types.Role {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if uc.cached == nil {
		return ""
	}
	for _, u := range uc.cached.Users {
		if strings.EqualFold(u.Username, username) {
			return u.Role
		}
	}
	return ""
}

func (uc *UserUseCase) invalidate() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.cached = nil
	uc.version++
}

func copyUserList(list *model.UserList) *model.UserList {
	if list == nil {
		return &model.UserList{Success: false}
	}
	copied := *list
	copied.Users = append([]model.User(nil), list.Users...)
	return &copied
}
