package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/errutil"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

// AuthUseCaseInterface is the session store seen by the HTTP layer
type AuthUseCaseInterface interface {
	// Login verifies credentials and issues a session token. The error is
	// reserved for storage failures; a rejected login is reported in the
	// LoginResult Outcome.
	Login(ctx context.Context, username, password string, previous auth.TokenID) (*LoginResult, error)
	ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error)
	Logout(ctx context.Context, tokenID auth.TokenID) error
	// RevokeUser ends every session of username
	RevokeUser(ctx context.Context, username string) error
	IsNoAuthn() bool
}

// LoginResult is the answer of Login. Token is nil unless Outcome succeeded.
type LoginResult struct {
	Token   *auth.Token
	Outcome *model.Outcome
}

type AuthUseCase struct {
	repo      interfaces.Repository
	directory interfaces.Directory
	bus       *EventBus
	tokenTTL  time.Duration
	cache     *authCache
}

var _ AuthUseCaseInterface = &AuthUseCase{}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithTokenTTL sets the lifetime of issued session tokens
func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(uc *AuthUseCase) {
		uc.tokenTTL = ttl
	}
}

// WithAuthEventBus publishes session events to bus
func WithAuthEventBus(bus *EventBus) AuthOption {
	return func(uc *AuthUseCase) {
		uc.bus = bus
	}
}

func NewAuthUseCase(repo interfaces.Repository, directory interfaces.Directory, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		repo:      repo,
		directory: directory,
		tokenTTL:  auth.DefaultTokenTTL,
		cache:     newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}
	if uc.tokenTTL <= 0 {
		uc.tokenTTL = auth.DefaultTokenTTL
	}

	return uc
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// Login upper-cases username before verification, as the directory stores
// usernames in upper case.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string, previous auth.TokenID) (*LoginResult, error) {
	identity := auth.NewIdentity(username, "", "")
	outcome := uc.directory.VerifyCredentials(ctx, identity.Username, password)
	if outcome == nil || !outcome.Success {
		return &LoginResult{Outcome: outcome}, nil
	}

	role, err := types.ParseRole(outcome.Role)
	if err != nil {
		logging.From(ctx).Warn("directory returned unknown role, falling back to picker",
			"username", identity.Username,
			"role", outcome.Role,
		)
		role = types.RolePicker
	}
	identity = auth.NewIdentity(identity.Username, outcome.Name, role)

	token := auth.NewToken(identity, uc.tokenTTL)
	if err := uc.repo.PutToken(ctx, token); err != nil {
		return nil, goerr.Wrap(err, "failed to store token", goerr.V(UsernameKey, identity.Username))
	}

	if previous != "" && previous != token.ID {
		uc.cache.remove(previous)
		if err := uc.repo.DeleteToken(ctx, previous); err != nil && !isNotFound(err) {
			errutil.Handle(ctx, goerr.Wrap(err, "failed to delete previous token",
				goerr.V(TokenIDKey, previous)), "failed to replace previous session")
		}
	}

	Publish(ctx, uc.bus, SessionStarted{Username: identity.Username, Role: identity.Role})
	logging.From(ctx).Info("user logged in", "username", identity.Username, "role", identity.Role)

	return &LoginResult{Token: token, Outcome: outcome}, nil
}

// ValidateToken validates the token and returns the session it carries.
// Every failure means the session is anonymous.
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSession, "malformed token ID", goerr.V(TokenIDKey, tokenID))
	}
	if tokenSecret == "" {
		return nil, goerr.Wrap(ErrInvalidSession, "token secret is empty", goerr.V(TokenIDKey, tokenID))
	}
	return uc.validateTokenWithCache(ctx, tokenID, tokenSecret)
}

// Logout deletes the token. An unknown token is not an error.
func (uc *AuthUseCase) Logout(ctx context.Context, tokenID auth.TokenID) error {
	if tokenID == "" {
		return nil
	}
	if err := tokenID.Validate(); err != nil {
		return nil
	}

	var username string
	if token, ok := uc.cache.get(tokenID); ok {
		username = token.Username
	}

	// Remove from cache first
	uc.cache.remove(tokenID)

	// Then remove from repository
	if err := uc.repo.DeleteToken(ctx, tokenID); err != nil && !isNotFound(err) {
		return goerr.Wrap(err, "failed to delete token", goerr.V(TokenIDKey, tokenID))
	}

	Publish(ctx, uc.bus, SessionEnded{Username: username})
	return nil
}

func (uc *AuthUseCase) RevokeUser(ctx context.Context, username string) error {
	identity := auth.NewIdentity(username, "", "")
	if identity.Username == "" {
		return goerr.Wrap(model.ErrValidation, "username is empty")
	}

	uc.cache.removeUser(identity.Username)

	removed, err := uc.repo.DeleteTokensByUsername(ctx, identity.Username)
	// A validation running during the delete may have cached a record again
	uc.cache.removeUser(identity.Username)
	if err != nil {
		return goerr.Wrap(err, "failed to revoke sessions", goerr.V(UsernameKey, identity.Username))
	}

	logging.From(ctx).Info("sessions revoked", "username", identity.Username, "count", removed)
	return nil
}

// discard deletes a record that can never become a valid session
func (uc *AuthUseCase) discard(ctx context.Context, tokenID auth.TokenID, cause error) {
	uc.cache.remove(tokenID)
	if err := uc.repo.DeleteToken(ctx, tokenID); err != nil && !isNotFound(err) {
		errutil.Handle(ctx, goerr.Wrap(err, "failed to delete token",
			goerr.V(TokenIDKey, tokenID)), "failed to discard session record")
		return
	}
	logging.From(ctx).Warn("discarded session record", "token_id", tokenID, "cause", cause.Error())
}

func secretEqual(a, b auth.TokenSecret) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrNotFound)
}
