package directory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/service/directory"
)

// fakeDirectory records every query and answers with a fixed status and body
type fakeDirectory struct {
	mu      sync.Mutex
	queries []url.Values
	status  int
	body    any
	raw     string
}

func (f *fakeDirectory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	if f.raw != "" {
		_, _ = w.Write([]byte(f.raw))
		return
	}
	_ = json.NewEncoder(w).Encode(f.body)
}

func (f *fakeDirectory) calls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.queries...)
}

func newClient(t *testing.T, fake *fakeDirectory) *directory.Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := directory.New(srv.URL, directory.WithTimeout(5*time.Second))
	gt.NoError(t, err).Required()
	return client
}

func TestNew(t *testing.T) {
	c, err := directory.New("")
	gt.NoError(t, err).Required()
	gt.Value(t, c.Endpoint()).Equal(directory.DefaultEndpoint)

	_, err = directory.New("not a url")
	gt.Value(t, err).NotNil()
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input makes no request", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": true}}
		client := newClient(t, fake)

		for _, in := range [][2]string{{"", "secret"}, {"ANA", ""}, {"  ", "secret"}} {
			outcome := client.VerifyCredentials(ctx, in[0], in[1])
			gt.B(t, outcome.Success).False()
			gt.Error(t, outcome.Err).Is(model.ErrValidation)
		}
		gt.Array(t, fake.calls()).Length(0)
	})

	t.Run("success carries role and name", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": true, "role": "ADMIN", "name": "Ana"}}
		client := newClient(t, fake)

		outcome := client.VerifyCredentials(ctx, "ANA", "admin123")
		gt.B(t, outcome.Success).True()
		gt.Value(t, outcome.Role).Equal("ADMIN")
		gt.Value(t, outcome.Name).Equal("Ana")

		calls := fake.calls()
		gt.Array(t, calls).Length(1)
		gt.Value(t, calls[0].Get("action")).Equal("verifyCredentials")
		gt.Value(t, calls[0].Get("username")).Equal("ANA")
		gt.Value(t, calls[0].Get("passwordHash")).
			Equal("240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9")
	})

	t.Run("rejection uses remote message", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": false, "message": "Usuario bloqueado"}}
		outcome := newClient(t, fake).VerifyCredentials(ctx, "ANA", "wrong")
		gt.B(t, outcome.Success).False()
		gt.Value(t, outcome.Message).Equal("Usuario bloqueado")
		gt.Error(t, outcome.Err).Is(model.ErrAuth)
	})

	t.Run("rejection without message uses default", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": false}}
		outcome := newClient(t, fake).VerifyCredentials(ctx, "ANA", "wrong")
		gt.Value(t, outcome.Message).Equal("Credenciales inválidas")
		gt.Value(t, outcome.Role).Equal("")
	})

	t.Run("non-OK status is a network failure", func(t *testing.T) {
		fake := &fakeDirectory{status: http.StatusBadGateway, raw: "upstream error"}
		outcome := newClient(t, fake).VerifyCredentials(ctx, "ANA", "admin123")
		gt.B(t, outcome.Success).False()
		gt.Value(t, outcome.Message).Equal("Error al verificar credenciales")
		gt.Error(t, outcome.Err).Is(model.ErrNetwork)
	})

	t.Run("malformed body is a network failure", func(t *testing.T) {
		fake := &fakeDirectory{raw: "<html>not json</html>"}
		outcome := newClient(t, fake).VerifyCredentials(ctx, "ANA", "admin123")
		gt.Error(t, outcome.Err).Is(model.ErrNetwork)
		gt.Value(t, outcome.Message).Equal("Error al verificar credenciales")
	})

	t.Run("unreachable endpoint is a network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		endpoint := srv.URL
		srv.Close()

		client, err := directory.New(endpoint)
		gt.NoError(t, err).Required()
		outcome := client.VerifyCredentials(ctx, "ANA", "admin123")
		gt.B(t, outcome.Success).False()
		gt.Error(t, outcome.Err).Is(model.ErrNetwork)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("validates records", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{
			"success": true,
			"users": []map[string]string{
				{"name": "Ana", "username": "ANA", "role": "ADMIN"},
				{"name": "Luis", "username": "LUIS", "role": "picker"},
				{"name": "Ghost", "username": "", "role": "picker"},
				{"name": "Root", "username": "ROOT", "role": "superuser"},
			},
		}}
		list := newClient(t, fake).ListUsers(ctx)
		gt.B(t, list.Success).True()
		gt.Array(t, list.Users).Length(2)
		gt.Value(t, list.Users[0]).Equal(model.User{Name: "Ana", Username: "ANA", Role: types.RoleAdmin})
		gt.Value(t, list.Users[1].Role).Equal(types.RolePicker)
		gt.Value(t, fake.calls()[0].Get("action")).Equal("getUsers")
	})

	t.Run("remote rejection", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": false}}
		list := newClient(t, fake).ListUsers(ctx)
		gt.B(t, list.Success).False()
		gt.Value(t, list.Message).Equal("No se pudieron cargar los usuarios")
		gt.Error(t, list.Err).Is(model.ErrRemoteRejection)
	})

	t.Run("server error", func(t *testing.T) {
		fake := &fakeDirectory{status: http.StatusInternalServerError}
		list := newClient(t, fake).ListUsers(ctx)
		gt.Value(t, list.Message).Equal("Error al obtener usuarios")
		gt.Error(t, list.Err).Is(model.ErrNetwork)
	})
}

func TestAddUser(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDirectory{body: map[string]any{"success": true}}
	client := newClient(t, fake)

	result := client.AddUser(ctx, model.NewUser{Name: "Luis", Username: "LUIS", Password: "picker123", Role: types.RolePicker})
	gt.B(t, result.Success).True()
	gt.Value(t, result.Message).Equal("El usuario se ha añadido correctamente")

	q := fake.calls()[0]
	gt.Value(t, q.Get("action")).Equal("addUser")
	gt.Value(t, q.Get("name")).Equal("Luis")
	gt.Value(t, q.Get("username")).Equal("LUIS")
	gt.Value(t, q.Get("role")).Equal("picker")
	gt.Value(t, q.Get("passwordHash")).Equal(directory.HashPassword("picker123"))
	gt.B(t, q.Has("password")).False()
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("blank password omits passwordHash", func(t *testing.T) {
		for _, password := range []string{"", "   "} {
			fake := &fakeDirectory{body: map[string]any{"success": true}}
			result := newClient(t, fake).UpdateUser(ctx, model.UserUpdate{
				Username: "LUIS", Name: "Luis M.", Password: password, Role: types.RoleAdmin,
			})
			gt.B(t, result.Success).True()

			q := fake.calls()[0]
			gt.Value(t, q.Get("action")).Equal("updateUser")
			gt.Value(t, q.Get("role")).Equal("admin")
			gt.B(t, q.Has("passwordHash")).False()
		}
	})

	t.Run("new password is hashed", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": true}}
		newClient(t, fake).UpdateUser(ctx, model.UserUpdate{
			Username: "LUIS", Name: "Luis", Password: "n3w", Role: types.RolePicker,
		})
		gt.Value(t, fake.calls()[0].Get("passwordHash")).Equal(directory.HashPassword("n3w"))
	})

	t.Run("failure uses generic message", func(t *testing.T) {
		fake := &fakeDirectory{status: http.StatusServiceUnavailable}
		result := newClient(t, fake).UpdateUser(ctx, model.UserUpdate{Username: "LUIS", Name: "Luis", Role: types.RolePicker})
		gt.B(t, result.Success).False()
		gt.Value(t, result.Message).Equal("Error al actualizar usuario")
		gt.Error(t, result.Err).Is(model.ErrNetwork)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": true}}
		result := newClient(t, fake).DeleteUser(ctx, "LUIS")
		gt.B(t, result.Success).True()
		q := fake.calls()[0]
		gt.Value(t, q.Get("action")).Equal("deleteUser")
		gt.Value(t, q.Get("username")).Equal("LUIS")
	})

	t.Run("remote rejection keeps remote message", func(t *testing.T) {
		fake := &fakeDirectory{body: map[string]any{"success": false, "message": "Usuario no encontrado"}}
		result := newClient(t, fake).DeleteUser(ctx, "NADIE")
		gt.B(t, result.Success).False()
		gt.Value(t, result.Message).Equal("Usuario no encontrado")
		gt.Error(t, result.Err).Is(model.ErrRemoteRejection)
	})

	t.Run("network failure", func(t *testing.T) {
		fake := &fakeDirectory{status: http.StatusNotFound}
		result := newClient(t, fake).DeleteUser(ctx, "LUIS")
		gt.Value(t, result.Message).Equal("Error al eliminar usuario")
	})
}
