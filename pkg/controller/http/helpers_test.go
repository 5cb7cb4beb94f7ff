package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/portalos/pkg/controller/http"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/repository/memory"
	"github.com/secmon-lab/portalos/pkg/service/directory"
	"github.com/secmon-lab/portalos/pkg/usecase"
)

type sheetUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	hash     string
}

// sheet speaks the directory protocol over an in-memory user sheet and
// records every query it receives
type sheet struct {
	mu      sync.Mutex
	users   map[string]sheetUser
	queries []url.Values
}

func newSheet() *sheet {
	return &sheet{
		users: map[string]sheetUser{
			"ANA":  {Name: "Ana", Username: "ANA", Role: "Admin", hash: directory.HashPassword("admin123")},
			"PEPE": {Name: "Pepe", Username: "PEPE", Role: "Picker", hash: directory.HashPassword("picker123")},
		},
	}
}

func (s *sheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)

	var resp map[string]any
	username := q.Get("username")

	switch q.Get("action") {
	case "verifyCredentials":
		u, ok := s.users[username]
		if !ok || u.hash != q.Get("passwordHash") {
			resp = map[string]any{"success": false, "message": "Credenciales inválidas"}
			break
		}
		resp = map[string]any{"success": true, "role": u.Role, "name": u.Name}

	case "getUsers":
		users := make([]sheetUser, 0, len(s.users))
		for _, u := range s.users {
			users = append(users, u)
		}
		resp = map[string]any{"success": true, "users": users}

	case "addUser":
		if _, ok := s.users[username]; ok {
			resp = map[string]any{"success": false, "message": "El usuario ya existe"}
			break
		}
		s.users[username] = sheetUser{Name: q.Get("name"), Username: username, Role: q.Get("role"), hash: q.Get("passwordHash")}
		resp = map[string]any{"success": true}

	case "updateUser":
		u, ok := s.users[username]
		if !ok {
			resp = map[string]any{"success": false, "message": "Usuario no encontrado"}
			break
		}
		u.Name = q.Get("name")
		u.Role = q.Get("role")
		if q.Has("passwordHash") {
			u.hash = q.Get("passwordHash")
		}
		s.users[username] = u
		resp = map[string]any{"success": true}

	case "deleteUser":
		if _, ok := s.users[username]; !ok {
			resp = map[string]any{"success": false, "message": "Usuario no encontrado"}
			break
		}
		delete(s.users, username)
		resp = map[string]any{"success": true}

	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *sheet) calls(action string) []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []url.Values
	for _, q := range s.queries {
		if q.Get("action") == action {
			result = append(result, q)
		}
	}
	return result
}

func (s *sheet) has(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

type testEnv struct {
	sheet  *sheet
	uc     *usecase.UseCases
	server *httptest.Server
}

func setup(t *testing.T, opts ...httpctrl.Options) *testEnv {
	t.Helper()

	sh := newSheet()
	dirSrv := httptest.NewServer(sh)
	t.Cleanup(dirSrv.Close)

	client, err := directory.New(dirSrv.URL, directory.WithTimeout(5*time.Second))
	gt.NoError(t, err).Required()

	catalog, err := model.NewViewCatalog(
		model.ViewSpec{ID: types.ViewDashboard, Label: "Dashboard", URL: "https://example.com/dashboard",
			LoadingText: "Cargando Dashboard...", ErrorText: "No se pudo cargar el Dashboard."},
		model.ViewSpec{ID: types.ViewAdministration, Label: "Administración", URL: "https://example.com/admin",
			LoadingText: "Cargando Administración...", ErrorText: "No se pudo cargar la Administración."},
		model.ViewSpec{ID: types.ViewPreparation, Label: "Preparación", URL: "https://example.com/prep",
			LoadingText: "Cargando Preparación...", ErrorText: "No se pudo cargar la Preparación."},
	)
	gt.NoError(t, err).Required()

	uc := usecase.New(memory.New(), client, catalog)

	opts = append([]httpctrl.Options{
		httpctrl.WithCookieKey([]byte("0123456789abcdef0123456789abcdef")),
		httpctrl.WithLanding("Portal OS", "**Aviso:** mantenimiento el *domingo*"),
		httpctrl.WithVersion("test"),
	}, opts...)
	srv, err := httpctrl.New(uc, opts...)
	gt.NoError(t, err).Required()

	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	return &testEnv{sheet: sh, uc: uc, server: server}
}

// browser keeps cookies between requests and never follows redirects
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	gt.NoError(t, err).Required()

	return &browser{
		t:    t,
		base: e.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type response struct {
	status   int
	location string
	body     string
}

func (b *browser) do(req *http.Request) response {
	b.t.Helper()
	resp, err := b.client.Do(req)
	gt.NoError(b.t, err).Required()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	gt.NoError(b.t, err).Required()

	return response{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		body:     string(raw),
	}
}

func (b *browser) get(path string) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	gt.NoError(b.t, err).Required()
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	gt.NoError(b.t, err).Required()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path string, body any) response {
	b.t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		gt.NoError(b.t, err).Required()
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequest(http.MethodPost, b.base+path, reader)
	gt.NoError(b.t, err).Required()
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) login(username, password string) response {
	b.t.Helper()
	return b.post("/login", url.Values{"username": {username}, "password": {password}})
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal([]byte(r.body), &v)).Required()
	return v
}
