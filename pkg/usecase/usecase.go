package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/utils/errutil"
)

type UseCases struct {
	repo       interfaces.Repository
	directory  interfaces.Directory
	viewerTTL  time.Duration
	maxViewers int
	tokenTTL   time.Duration

	Bus  *EventBus
	Auth AuthUseCaseInterface
	User *UserUseCase
	View *ViewUseCase
}

type Option func(*UseCases)

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

// WithEventBus shares bus between the use cases. A new bus is created otherwise.
func WithEventBus(bus *EventBus) Option {
	return func(uc *UseCases) {
		uc.Bus = bus
	}
}

// WithSessionTTL sets the lifetime of session tokens issued by the default AuthUseCase
func WithSessionTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.tokenTTL = ttl
	}
}

func WithViewerIdleTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.viewerTTL = ttl
	}
}

// WithViewerLimit bounds how many tab hosts are kept at once
func WithViewerLimit(n int) Option {
	return func(uc *UseCases) {
		uc.maxViewers = n
	}
}

// New wires the use cases. Without WithAuth, sessions are verified against
// directory and stored in repo. Sessions of a user are revoked when the user
// is deleted or gets another role.
func New(repo interfaces.Repository, directory interfaces.Directory, catalog *model.ViewCatalog, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		directory: directory,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.Bus == nil {
		uc.Bus = NewEventBus()
	}
	if uc.Auth == nil {
		uc.Auth = NewAuthUseCase(repo, directory,
			WithAuthEventBus(uc.Bus),
			WithTokenTTL(uc.tokenTTL),
		)
	}

	uc.User = NewUserUseCase(directory, uc.Bus)
	uc.View = NewViewUseCase(catalog, WithViewerTTL(uc.viewerTTL), WithMaxViewers(uc.maxViewers), WithViewEventBus(uc.Bus))

	Subscribe(uc.Bus, func(ctx context.Context, e UserDirectoryChanged) {
		if !e.RevokesSessions() {
			return
		}
		if err := uc.Auth.RevokeUser(ctx, e.Username); err != nil {
			errutil.Handle(ctx, goerr.Wrap(err, "failed to revoke sessions of changed user",
				goerr.V(UsernameKey, e.Username), goerr.V("action", e.Action)), "session revocation failed")
		}
	})

	return uc
}
