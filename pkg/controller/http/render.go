package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/errutil"
	"github.com/secmon-lab/portalos/pkg/utils/safe"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const (
	pageLanding   = "landing.html"
	pageLogin     = "login.html"
	pageDashboard = "dashboard.html"
	pagePortal    = "portal.html"
	pageUsers     = "admin_users.html"
	pageNotFound  = "not_found.html"
)

var pages = []string{pageLanding, pageLogin, pageDashboard, pagePortal, pageUsers, pageNotFound}

// layoutData is what every page gets. Body holds the page-specific data.
type layoutData struct {
	Title       string
	Version     string
	Path        string
	Identity    *auth.Identity
	Preferences preferences
	Notice      *model.Notice
	Landing     template.HTML
	Body        any
}

type renderer struct {
	pages   map[string]*template.Template
	landing template.HTML
}

var templateFuncs = template.FuncMap{
	"roles":       types.AllRoles,
	"themes":      types.AllThemeModes,
	"accents":     types.AllAccents,
	"appearances": types.AllAppearances,
}

func newRenderer(landingMarkdown string) (*renderer, error) {
	x := &renderer{pages: make(map[string]*template.Template, len(pages))}

	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFiles, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse template", goerr.V("page", page))
		}
		x.pages[page] = tmpl
	}

	if landingMarkdown != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(landingMarkdown), &buf); err != nil {
			return nil, goerr.Wrap(err, "failed to render landing notice")
		}
		// goldmark drops raw HTML unless told otherwise
		x.landing = template.HTML(buf.String())
	}

	return x, nil
}

// render writes page only after it rendered completely, so a template
// failure never leaves a half-written page behind
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, body any) {
	ctx := r.Context()

	tmpl, ok := s.pages.pages[page]
	if !ok {
		errutil.HandleHTTP(ctx, w, goerr.New("unknown page", goerr.V("page", page)), http.StatusInternalServerError)
		return
	}

	data := layoutData{
		Title:       s.title,
		Version:     s.version,
		Path:        r.URL.RequestURI(),
		Identity:    auth.IdentityFromContext(ctx),
		Preferences: preferencesFromContext(ctx),
		Notice:      s.notices.take(w, r),
		Landing:     s.pages.landing,
		Body:        body,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to render page", goerr.V("page", page)), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	safe.Write(ctx, w, buf.Bytes())
}
