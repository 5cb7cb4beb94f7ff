package auth

import "context"

type ctxIdentityKey struct{}
type ctxTokenIDKey struct{}

// ContextWithIdentity binds the session identity to ctx
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, identity)
}

// IdentityFromContext returns the session identity, or nil for an anonymous session
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(ctxIdentityKey{}).(*Identity)
	return identity
}

// ContextWithTokenID binds the ID of the session token to ctx
func ContextWithTokenID(ctx context.Context, id TokenID) context.Context {
	return context.WithValue(ctx, ctxTokenIDKey{}, id)
}

// TokenIDFromContext returns the ID of the session token, or empty for an anonymous session
func TokenIDFromContext(ctx context.Context) TokenID {
	id, _ := ctx.Value(ctxTokenIDKey{}).(TokenID)
	return id
}
