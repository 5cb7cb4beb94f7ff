package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/secmon-lab/portalos/pkg/domain/types"
)

// Cookie names keep the keys the portal has always stored preferences under
const (
	themeCookieName      = "theme"
	accentCookieName     = "selectedTheme"
	appearanceCookieName = "selectedAppearance"

	preferenceMaxAge = 365 * 24 * time.Hour
)

// preferences are kept per browser and survive logout
type preferences struct {
	Theme      types.ThemeMode
	Accent     types.Accent
	Appearance types.Appearance
}

func defaultPreferences() preferences {
	return preferences{
		Theme:      types.ThemeModeSystem,
		Accent:     types.AccentBlue,
		Appearance: types.AppearanceDefault,
	}
}

// apply overwrites the fields whose values parse. Unknown values are ignored.
func (p preferences) apply(theme, accent, appearance string) preferences {
	if v, err := types.ParseThemeMode(theme); err == nil {
		p.Theme = v
	}
	if v, err := types.ParseAccent(accent); err == nil {
		p.Accent = v
	}
	if v, err := types.ParseAppearance(appearance); err == nil {
		p.Appearance = v
	}
	return p
}

type ctxPreferencesKey struct{}

func preferencesFromContext(ctx context.Context) preferences {
	if p, ok := ctx.Value(ctxPreferencesKey{}).(preferences); ok {
		return p
	}
	return defaultPreferences()
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func preferencesMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefs := defaultPreferences().apply(
			cookieValue(r, themeCookieName),
			cookieValue(r, accentCookieName),
			cookieValue(r, appearanceCookieName),
		)
		ctx := context.WithValue(r.Context(), ctxPreferencesKey{}, prefs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) preferencesHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	prefs := preferencesFromContext(r.Context()).apply(
		r.PostForm.Get("theme"),
		r.PostForm.Get("selectedTheme"),
		r.PostForm.Get("selectedAppearance"),
	)

	for name, value := range map[string]string{
		themeCookieName:      string(prefs.Theme),
		accentCookieName:     string(prefs.Accent),
		appearanceCookieName: string(prefs.Appearance),
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Secure:   s.secureCookie || r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(preferenceMaxAge.Seconds()),
		})
	}

	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, r, http.StatusOK, map[string]string{
			"theme":              string(prefs.Theme),
			"selectedTheme":      string(prefs.Accent),
			"selectedAppearance": string(prefs.Appearance),
		})
		return
	}
	http.Redirect(w, r, localPath(r.PostForm.Get("return_to"), "/"), http.StatusSeeOther)
}

// localPath returns raw when it is a path on this server, def otherwise
func localPath(raw, def string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return def
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return def
	}
	return u.RequestURI()
}
