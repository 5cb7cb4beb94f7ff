package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// Session errors. The HTTP layer treats all of them as an anonymous session.
	ErrInvalidSession = goerr.New("invalid session")
	ErrSessionExpired = goerr.New("session expired")
	ErrCorruptSession = goerr.New("corrupt session record")
)

// Context keys for error values
const (
	TokenIDKey  = "token_id"
	UsernameKey = "username"
	ViewerIDKey = "viewer_id"
)
