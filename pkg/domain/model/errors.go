package model

import "github.com/m-mizutani/goerr/v2"

// Failure classes. Every failed Outcome or Result wraps exactly one of them.
var (
	// ErrValidation is a missing or malformed local input, detected before any remote call
	ErrValidation = goerr.New("validation error")
	// ErrAuth is a rejected credential or an insufficient role
	ErrAuth = goerr.New("authentication error")
	// ErrNetwork is a failed request, a non-success HTTP status or an unreadable response
	ErrNetwork = goerr.New("network error")
	// ErrRemoteRejection is a well-formed remote response reporting success=false
	ErrRemoteRejection = goerr.New("remote rejection")
)

var (
	ErrRequestInFlight      = goerr.New("request already in flight")
	ErrConfirmationRequired = goerr.New("confirmation required")
	ErrViewNotVisible       = goerr.New("view is not visible for this session")
	ErrUnknownViewer        = goerr.New("unknown viewer")
)

// Context keys for error values
const (
	ActionKey   = "action"
	UsernameKey = "username"
	FieldKey    = "field"
	ViewKey     = "view"
	StatusKey   = "status"
)
