package auth

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

var ErrInvalidIdentity = goerr.New("invalid identity")

// Identity is the authenticated user of a session. An absent identity (nil)
// means the session is anonymous.
type Identity struct {
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        types.Role `json:"role"`
}

// NewIdentity normalizes the casing conventions of the directory service:
// username upper-cased, role lower-cased. An empty display name falls back
// to the username.
func NewIdentity(username, displayName string, role types.Role) Identity {
	username = strings.ToUpper(strings.TrimSpace(username))
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	return Identity{
		Username:    username,
		DisplayName: displayName,
		Role:        types.Role(strings.ToLower(string(role))),
	}
}

func (x Identity) Validate() error {
	if x.Username == "" {
		return goerr.Wrap(ErrInvalidIdentity, "username is empty")
	}
	if !x.Role.IsValid() {
		return goerr.Wrap(ErrInvalidIdentity, "role is invalid",
			goerr.V("username", x.Username), goerr.V("role", x.Role))
	}
	return nil
}

// Name returns the name to show for the identity
func (x *Identity) Name() string {
	if x == nil {
		return ""
	}
	if x.DisplayName != "" {
		return x.DisplayName
	}
	return x.Username
}

// IsAdmin reports whether the identity holds the admin role. Anonymous is never admin.
func (x *Identity) IsAdmin() bool {
	return x != nil && x.Role.IsAdmin()
}
