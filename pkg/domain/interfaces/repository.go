package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
)

// ErrNotFound is wrapped by every backend when a record does not exist
var ErrNotFound = goerr.New("not found")

// Repository persists session tokens
type Repository interface {
	PutToken(ctx context.Context, token *auth.Token) error
	GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error)
	DeleteToken(ctx context.Context, tokenID auth.TokenID) error
	// DeleteTokensByUsername revokes every session of a user and returns how many were removed
	DeleteTokensByUsername(ctx context.Context, username string) (int, error)

	Close() error
}
