package interfaces

import (
	"context"

	"github.com/secmon-lab/portalos/pkg/domain/model"
)

// Directory is the remote user directory. Implementations never return
// transport errors; every failure is folded into the returned value.
type Directory interface {
	VerifyCredentials(ctx context.Context, username, password string) *model.Outcome
	ListUsers(ctx context.Context) *model.UserList
	AddUser(ctx context.Context, input model.NewUser) *model.Result
	UpdateUser(ctx context.Context, input model.UserUpdate) *model.Result
	DeleteUser(ctx context.Context, username string) *model.Result
}
