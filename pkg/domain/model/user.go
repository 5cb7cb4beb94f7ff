package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

// User is a directory record. The password never leaves the directory service.
type User struct {
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
}

// NewUser is the input of an add operation. All fields are mandatory.
type NewUser struct {
	Name     string
	Username string
	Password string
	Role     types.Role
}

func (x NewUser) Validate() error {
	switch {
	case strings.TrimSpace(x.Name) == "":
		return goerr.Wrap(ErrValidation, "name is empty", goerr.V(FieldKey, "name"))
	case strings.TrimSpace(x.Username) == "":
		return goerr.Wrap(ErrValidation, "username is empty", goerr.V(FieldKey, "username"))
	case x.Password == "":
		return goerr.Wrap(ErrValidation, "password is empty", goerr.V(FieldKey, "password"))
	case x.Role == "":
		return goerr.Wrap(ErrValidation, "role is empty", goerr.V(FieldKey, "role"))
	case !x.Role.IsValid():
		return goerr.Wrap(ErrValidation, "role is invalid", goerr.V(FieldKey, "role"), goerr.V("role", x.Role))
	}
	return nil
}

// UserUpdate is the input of an update operation. Username identifies the
// record and cannot change. A blank Password leaves the stored one untouched.
type UserUpdate struct {
	Username string
	Name     string
	Password string
	Role     types.Role
}

func (x UserUpdate) Validate() error {
	switch {
	case strings.TrimSpace(x.Name) == "":
		return goerr.Wrap(ErrValidation, "name is empty", goerr.V(FieldKey, "name"))
	case strings.TrimSpace(x.Username) == "":
		return goerr.Wrap(ErrValidation, "username is empty", goerr.V(FieldKey, "username"))
	case x.Role == "":
		return goerr.Wrap(ErrValidation, "role is empty", goerr.V(FieldKey, "role"))
	case !x.Role.IsValid():
		return goerr.Wrap(ErrValidation, "role is invalid", goerr.V(FieldKey, "role"), goerr.V("role", x.Role))
	}
	return nil
}

// ChangesPassword reports whether the update carries a new password
func (x UserUpdate) ChangesPassword() bool {
	return strings.TrimSpace(x.Password) != ""
}
