package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

// DefaultTokenTTL is the lifetime of a session token when none is configured
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken   = goerr.New("invalid token")
	ErrInvalidTokenID = goerr.New("invalid token ID")
)

type TokenID string

func NewTokenID() TokenID {
	return TokenID(uuid.New().String())
}

func (id TokenID) String() string {
	return string(id)
}

func (id TokenID) Validate() error {
	if id == "" {
		return goerr.Wrap(ErrInvalidTokenID, "token ID is empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(ErrInvalidTokenID, "token ID is not a UUID", goerr.V("token_id", string(id)))
	}
	return nil
}

type TokenSecret string

func NewTokenSecret() TokenSecret {
	b := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return TokenSecret(hex.EncodeToString(b))
}

func (s TokenSecret) String() string {
	return string(s)
}

// Token is the single session record of one browser. It is replaced wholesale
// on login and removed on logout.
type Token struct {
	ID          TokenID     `firestore:"id" json:"id"`
	Secret      TokenSecret `firestore:"secret" json:"-"`
	Username    string      `firestore:"username" json:"username"`
	DisplayName string      `firestore:"display_name" json:"display_name"`
	Role        types.Role  `firestore:"role" json:"role"`
	ExpiresAt   time.Time   `firestore:"expires_at" json:"expires_at"`
	CreatedAt   time.Time   `firestore:"created_at" json:"created_at"`
}

// NewToken issues a fresh token for identity. A non-positive ttl falls back to DefaultTokenTTL.
func NewToken(identity Identity, ttl time.Duration) *Token {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	return &Token{
		ID:          NewTokenID(),
		Secret:      NewTokenSecret(),
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
}

func (t *Token) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}
	if t.Secret == "" {
		return goerr.Wrap(ErrInvalidToken, "secret is empty", goerr.V("token_id", t.ID))
	}
	if err := t.Identity().Validate(); err != nil {
		return goerr.Wrap(err, "invalid token identity", goerr.V("token_id", t.ID))
	}
	if t.ExpiresAt.IsZero() {
		return goerr.Wrap(ErrInvalidToken, "expires_at is zero", goerr.V("token_id", t.ID))
	}
	return nil
}

func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Identity returns the identity carried by the token
func (t *Token) Identity() Identity {
	return Identity{
		Username:    t.Username,
		DisplayName: t.DisplayName,
		Role:        t.Role,
	}
}
