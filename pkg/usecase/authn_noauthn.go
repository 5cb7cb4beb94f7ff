package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
)

// NoAuthnUseCase provides authentication using a specified user (for development/testing)
type NoAuthnUseCase struct {
	identity auth.Identity
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance with specified user info
func NewNoAuthnUseCase(identity auth.Identity) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		identity: identity,
	}
}

func (uc *NoAuthnUseCase) token() *auth.Token {
	return auth.NewToken(uc.identity, 24*time.Hour)
}

// Login ignores the credentials and returns a token for the specified user
func (uc *NoAuthnUseCase) Login(ctx context.Context, username, password string, previous auth.TokenID) (*LoginResult, error) {
	return &LoginResult{
		Token: uc.token(),
		Outcome: &model.Outcome{
			Success: true,
			Role:    uc.identity.Role.String(),
			Name:    uc.identity.DisplayName,
		},
	}, nil
}

// ValidateToken always returns a token for the specified user
func (uc *NoAuthnUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	return uc.token(), nil
}

// Logout does nothing in no-auth mode
func (uc *NoAuthnUseCase) Logout(ctx context.Context, tokenID auth.TokenID) error {
	return nil
}

// RevokeUser does nothing in no-auth mode
func (uc *NoAuthnUseCase) RevokeUser(ctx context.Context, username string) error {
	return nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
