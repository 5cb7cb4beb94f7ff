package http_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

func tabCount(body string) int {
	return strings.Count(body, `data-view="`)
}

func TestPortalTabs(t *testing.T) {
	env := setup(t)

	t.Run("admin sees every view", func(t *testing.T) {
		b := env.browser(t)
		b.login("ana", "admin123")

		page := b.get("/portal")
		gt.Value(t, page.status).Equal(http.StatusOK)
		gt.Value(t, tabCount(page.body)).Equal(3)
		gt.String(t, page.body).Contains("Cargando Dashboard...")
		gt.String(t, page.body).Contains("Reintentar")
		gt.String(t, page.body).Contains(`role="tablist"`)
	})

	t.Run("picker sees preparation only", func(t *testing.T) {
		b := env.browser(t)
		b.login("pepe", "picker123")

		page := b.get("/portal?tab=dashboard")
		gt.Value(t, page.status).Equal(http.StatusOK)
		gt.Value(t, tabCount(page.body)).Equal(1)
		gt.String(t, page.body).Contains(`data-view="preparation"`)
		gt.B(t, strings.Contains(page.body, "https://example.com/dashboard")).False()
	})

	t.Run("direct access needs no session", func(t *testing.T) {
		for _, app := range []string{"preparacion", "preparation"} {
			page := env.browser(t).get("/portal?app=" + app)
			gt.Value(t, page.status).Equal(http.StatusOK)
			gt.Value(t, tabCount(page.body)).Equal(1)
			gt.String(t, page.body).Contains(`data-view="preparation"`)
		}
	})

	t.Run("direct access hides admin views from admins", func(t *testing.T) {
		b := env.browser(t)
		b.login("ana", "admin123")

		page := b.get("/portal?app=preparacion&tab=dashboard")
		gt.Value(t, tabCount(page.body)).Equal(1)
	})

	t.Run("unknown app is not direct access", func(t *testing.T) {
		resp := env.browser(t).get("/portal?app=dashboard")
		gt.Value(t, resp.status).Equal(http.StatusSeeOther)
		gt.Value(t, resp.location).Equal("/login")
	})
}

func TestViewsAPI(t *testing.T) {
	env := setup(t)

	t.Run("without viewer", func(t *testing.T) {
		resp := env.browser(t).get("/api/views")
		gt.Value(t, resp.status).Equal(http.StatusNotFound)
	})

	t.Run("load lifecycle", func(t *testing.T) {
		b := env.browser(t)
		b.login("ana", "admin123")
		b.get("/portal?tab=administration")

		snap := decode[model.TabSnapshot](t, b.get("/api/views"))
		gt.Value(t, snap.Active).Equal(types.ViewAdministration)
		gt.Array(t, snap.Views).Length(3)

		state, ok := snap.State(types.ViewDashboard)
		gt.B(t, ok).True()
		gt.Value(t, state.Status).Equal(model.ViewLoading)

		resp := b.postJSON("/api/views/dashboard/loaded", map[string]any{"generation": state.Generation})
		gt.Value(t, resp.status).Equal(http.StatusOK)
		gt.B(t, decode[map[string]bool](t, resp)["applied"]).True()

		// An attempt completes once
		resp = b.postJSON("/api/views/dashboard/failed", map[string]any{"generation": state.Generation})
		gt.B(t, decode[map[string]bool](t, resp)["applied"]).False()

		retried := decode[model.ViewState](t, b.postJSON("/api/views/dashboard/retry", nil))
		gt.Value(t, retried.Status).Equal(model.ViewLoading)
		gt.Value(t, retried.Generation).Equal(state.Generation + 1)

		// The superseded attempt no longer counts
		resp = b.postJSON("/api/views/dashboard/failed", map[string]any{"generation": state.Generation})
		gt.B(t, decode[map[string]bool](t, resp)["applied"]).False()

		resp = b.postJSON("/api/views/dashboard/failed", map[string]any{"generation": retried.Generation})
		gt.B(t, decode[map[string]bool](t, resp)["applied"]).True()

		snap = decode[model.TabSnapshot](t, b.postJSON("/api/views/preparacion/select", nil))
		gt.Value(t, snap.Active).Equal(types.ViewPreparation)
		failed, _ := snap.State(types.ViewDashboard)
		gt.Value(t, failed.Status).Equal(model.ViewError)

		refreshed := decode[model.ViewState](t, b.postJSON("/api/views/refresh", nil))
		gt.Value(t, refreshed.ID).Equal(types.ViewPreparation)
		gt.Value(t, refreshed.Status).Equal(model.ViewLoading)
	})

	t.Run("picker cannot reach hidden views", func(t *testing.T) {
		b := env.browser(t)
		b.login("pepe", "picker123")
		b.get("/portal")

		resp := b.postJSON("/api/views/dashboard/select", nil)
		gt.Value(t, resp.status).Equal(http.StatusForbidden)
	})

	t.Run("malformed requests", func(t *testing.T) {
		b := env.browser(t)
		b.get("/portal?app=preparacion")

		gt.Value(t, b.postJSON("/api/views/nope/select", nil).status).Equal(http.StatusBadRequest)
		gt.Value(t, b.postJSON("/api/views/preparation/loaded", map[string]any{}).status).Equal(http.StatusBadRequest)
	})

	t.Run("host of another session is not shared", func(t *testing.T) {
		admin := env.browser(t)
		admin.login("ana", "admin123")
		admin.get("/portal")

		u, err := url.Parse(env.server.URL)
		gt.NoError(t, err).Required()

		anonymous := env.browser(t)
		for _, c := range admin.client.Jar.Cookies(u) {
			if c.Name == "portal_view" {
				anonymous.client.Jar.SetCookies(u, []*http.Cookie{{Name: c.Name, Value: c.Value, Path: "/"}})
			}
		}

		resp := anonymous.get("/api/views")
		gt.Value(t, resp.status).Equal(http.StatusNotFound)
	})
}
