package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
)

const (
	authCacheTTL = 5 * time.Minute
)

type cachedToken struct {
	token     *auth.Token
	expiresAt time.Time
}

type authCache struct {
	cache sync.Map
}

func newAuthCache() *authCache {
	return &authCache{}
}

func (c *authCache) get(tokenID auth.TokenID) (*auth.Token, bool) {
	val, ok := c.cache.Load(tokenID)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedToken)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(tokenID)
		return nil, false
	}

	return cached.token, true
}

func (c *authCache) set(token *auth.Token) {
	cached := &cachedToken{
		token:     token,
		expiresAt: time.Now().Add(authCacheTTL),
	}
	c.cache.Store(token.ID, cached)
}

func (c *authCache) remove(tokenID auth.TokenID) {
	c.cache.Delete(tokenID)
}

// removeUser drops every cached session of username
func (c *authCache) removeUser(username string) {
	c.cache.Range(func(key, val any) bool {
		if val.(*cachedToken).token.Username == username {
			c.cache.Delete(key)
		}
		return true
	})
}

// validateTokenWithCache validates token with cache
func (uc *AuthUseCase) validateTokenWithCache(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	// Check cache first
	if token, ok := uc.cache.get(tokenID); ok {
		if !secretEqual(token.Secret, tokenSecret) {
			return nil, goerr.Wrap(ErrInvalidSession, "invalid token secret", goerr.V(TokenIDKey, tokenID))
		}
		if token.IsExpired() {
			uc.discard(ctx, tokenID, ErrSessionExpired)
			return nil, goerr.Wrap(ErrSessionExpired, "token expired", goerr.V(TokenIDKey, tokenID))
		}
		return token, nil
	}

	// Cache miss, get from repository
	token, err := uc.repo.GetToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			uc.discard(ctx, tokenID, err)
			return nil, goerr.Wrap(ErrCorruptSession, "undecodable token record", goerr.V(TokenIDKey, tokenID))
		}
		return nil, goerr.Wrap(ErrInvalidSession, "failed to get token from repository",
			goerr.V(TokenIDKey, tokenID), goerr.V("error", err.Error()))
	}

	if err := token.Validate(); err != nil {
		uc.discard(ctx, tokenID, err)
		return nil, goerr.Wrap(ErrCorruptSession, "invalid token record",
			goerr.V(TokenIDKey, tokenID), goerr.V("error", err.Error()))
	}

	if !secretEqual(token.Secret, tokenSecret) {
		return nil, goerr.Wrap(ErrInvalidSession, "invalid token secret", goerr.V(TokenIDKey, tokenID))
	}

	if token.IsExpired() {
		uc.discard(ctx, tokenID, ErrSessionExpired)
		return nil, goerr.Wrap(ErrSessionExpired, "token expired", goerr.V(TokenIDKey, tokenID))
	}

	// Cache the token
	uc.cache.set(token)

	return token, nil
}
