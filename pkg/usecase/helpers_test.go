package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

// fakeDirectory is an in-process directory. Calls are counted; block, when
// set, holds every mutation until it is closed.
type fakeDirectory struct {
	mu       sync.Mutex
	users    map[string]model.User
	password map[string]string
	// role overrides the role reported by VerifyCredentials when set
	role *string

	block chan struct{}

	verifyCalls atomic.Int32
	listCalls   atomic.Int32
	addCalls    atomic.Int32
	updateCalls atomic.Int32
	deleteCalls atomic.Int32

	lastUpdate model.UserUpdate
}

var _ interfaces.Directory = &fakeDirectory{}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[string]model.User{
			"ANA":  {Name: "Ana", Username: "ANA", Role: types.RoleAdmin},
			"PEPE": {Name: "Pepe", Username: "PEPE", Role: types.RolePicker},
		},
		password: map[string]string{
			"ANA":  "admin123",
			"PEPE": "picker123",
		},
	}
}

func (d *fakeDirectory) wait() {
	if d.block != nil {
		<-d.block
	}
}

func (d *fakeDirectory) VerifyCredentials(ctx context.Context, username, password string) *model.Outcome {
	d.verifyCalls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[username]
	if !ok || d.password[username] != password {
		return &model.Outcome{Success: false, Message: "Credenciales inválidas", Err: model.ErrAuth}
	}
	role := u.Role.String()
	if d.role != nil {
		role = *d.role
	}
	return &model.Outcome{Success: true, Role: role, Name: u.Name}
}

func (d *fakeDirectory) ListUsers(ctx context.Context) *model.UserList {
	d.listCalls.Add(1)
	d.wait()
	d.mu.Lock()
	defer d.mu.Unlock()

	list := &model.UserList{Success: true}
	for _, u := range d.users {
		list.Users = append(list.Users, u)
	}
	return list
}

func (d *fakeDirectory) AddUser(ctx context.Context, input model.NewUser) *model.Result {
	d.addCalls.Add(1)
	d.wait()
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[input.Username]; ok {
		return model.Failed(model.ErrRemoteRejection, "El usuario ya existe")
	}
	d.users[input.Username] = model.User{Name: input.Name, Username: input.Username, Role: input.Role}
	d.password[input.Username] = input.Password
	return model.Succeeded("El usuario se ha añadido correctamente")
}

func (d *fakeDirectory) UpdateUser(ctx context.Context, input model.UserUpdate) *model.Result {
	d.updateCalls.Add(1)
	d.wait()
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastUpdate = input
	if _, ok := d.users[input.Username]; !ok {
		return model.Failed(model.ErrRemoteRejection, "Usuario no encontrado")
	}
	d.users[input.Username] = model.User{Name: input.Name, Username: input.Username, Role: input.Role}
	if input.ChangesPassword() {
		d.password[input.Username] = input.Password
	}
	return model.Succeeded("El usuario se ha actualizado correctamente")
}

func (d *fakeDirectory) DeleteUser(ctx context.Context, username string) *model.Result {
	d.deleteCalls.Add(1)
	d.wait()
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[username]; !ok {
		return model.Failed(model.ErrRemoteRejection, "Usuario no encontrado")
	}
	delete(d.users, username)
	return model.Succeeded("El usuario se ha eliminado correctamente")
}

// countingRepo counts writes to the wrapped repository
type countingRepo struct {
	interfaces.Repository
	puts atomic.Int32
}

func (r *countingRepo) PutToken(ctx context.Context, token *auth.Token) error {
	r.puts.Add(1)
	return r.Repository.PutToken(ctx, token)
}

// cancelAwareDirectory fails ListUsers when the request context is done
type cancelAwareDirectory struct {
	*fakeDirectory
}

func (d *cancelAwareDirectory) ListUsers(ctx context.Context) *model.UserList {
	d.wait()
	if ctx.Err() != nil {
		return &model.UserList{Success: false, Message: "Error al obtener usuarios", Err: model.ErrNetwork}
	}
	return d.fakeDirectory.ListUsers(ctx)
}

// revokeHookRepo runs beforeRevoke ahead of the wrapped DeleteTokensByUsername
type revokeHookRepo struct {
	interfaces.Repository
	beforeRevoke func(ctx context.Context)
}

func (r *revokeHookRepo) DeleteTokensByUsername(ctx context.Context, username string) (int, error) {
	if r.beforeRevoke != nil {
		r.beforeRevoke(ctx)
	}
	return r.Repository.DeleteTokensByUsername(ctx, username)
}

func newCatalog(t *testing.T, dashboardURL, adminURL, prepURL string) *model.ViewCatalog {
	t.Helper()
	catalog, err := model.NewViewCatalog(
		model.ViewSpec{ID: types.ViewDashboard, Label: "Dashboard", URL: dashboardURL},
		model.ViewSpec{ID: types.ViewAdministration, Label: "Administración", URL: adminURL},
		model.ViewSpec{ID: types.ViewPreparation, Label: "Preparación", URL: prepURL},
	)
	gt.NoError(t, err).Required()
	return catalog
}

func testCatalog(t *testing.T) *model.ViewCatalog {
	return newCatalog(t, "https://example.com/dashboard", "https://example.com/admin", "https://example.com/prep")
}
