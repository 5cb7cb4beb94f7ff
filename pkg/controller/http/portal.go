package http

import (
	"net/http"
	"net/url"

	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/usecase"
)

const viewerCookieName = "portal_view"

type portalTab struct {
	model.ViewSpec
	State  model.ViewState
	Active bool
	Href   string
}

type portalPage struct {
	Direct bool
	Tabs   []portalTab
}

// directAccess reports whether the request opens the portal straight into
// preparation without a session
func directAccess(r *http.Request) bool {
	app := r.URL.Query().Get("app")
	if app == "" {
		return false
	}
	id, err := types.ParseViewID(app)
	return err == nil && id == types.ViewPreparation
}

func viewerFromRequest(r *http.Request) usecase.ViewerID {
	return usecase.ViewerID(cookieValue(r, viewerCookieName))
}

func (s *Server) portalHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := auth.IdentityFromContext(ctx)
	direct := directAccess(r)

	if !direct {
		verdict := usecase.Authorize(identity, types.RequireAuthenticated)
		if verdict.Decision != usecase.Allow {
			http.Redirect(w, r, verdict.Redirect, http.StatusSeeOther)
			return
		}
	}

	// An unknown tab falls back to the default view
	hint, _ := types.ParseViewID(r.URL.Query().Get("tab"))

	viewer, snapshot := s.uc.View.Open(ctx, viewerFromRequest(r), identity, direct, hint)
	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookieName,
		Value:    viewer.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	catalog := s.uc.View.Catalog()
	page := portalPage{Direct: snapshot.Direct}
	for _, state := range snapshot.Views {
		query := url.Values{"tab": {state.ID.String()}}
		if snapshot.Direct {
			query.Set("app", types.ViewPreparation.String())
		}
		page.Tabs = append(page.Tabs, portalTab{
			ViewSpec: catalog.Get(state.ID),
			State:    state,
			Active:   state.ID == snapshot.Active,
			Href:     "/portal?" + query.Encode(),
		})
	}

	s.render(w, r, http.StatusOK, pagePortal, page)
}
