package http

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/usecase"
	"github.com/secmon-lab/portalos/pkg/utils/errutil"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
	"github.com/secmon-lab/portalos/pkg/utils/safe"
)

type Server struct {
	router       *chi.Mux
	uc           *usecase.UseCases
	cookieKey    []byte
	secureCookie bool
	title        string
	landingNote  string
	version      string
	upstreams    func() ([]usecase.ProbeResult, time.Time)

	notices *noticeCodec
	pages   *renderer
}

type Options func(*Server)

// WithCookieKey sets the HMAC key of signed cookies. A random key is used otherwise,
// so pending notices do not survive a restart.
func WithCookieKey(key []byte) Options {
	return func(s *Server) {
		s.cookieKey = key
	}
}

// WithSecureCookie marks every cookie as Secure
func WithSecureCookie(secure bool) Options {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

// WithLanding sets the portal title and the markdown notice shown on the landing page
func WithLanding(title, noticeMarkdown string) Options {
	return func(s *Server) {
		s.title = title
		s.landingNote = noticeMarkdown
	}
}

func WithVersion(version string) Options {
	return func(s *Server) {
		s.version = version
	}
}

// WithUpstreamStatus reports the latest upstream probe on the health endpoint
func WithUpstreamStatus(last func() ([]usecase.ProbeResult, time.Time)) Options {
	return func(s *Server) {
		s.upstreams = last
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil || uc.Auth == nil || uc.User == nil || uc.View == nil {
		return nil, goerr.New("use cases are not configured")
	}

	r := chi.NewRouter()
	s := &Server{
		router: r,
		uc:     uc,
		title:  "Portal OS",
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.cookieKey) == 0 {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		s.cookieKey = key
	}
	s.notices = &noticeCodec{key: s.cookieKey, secure: s.secureCookie}

	pages, err := newRenderer(s.landingNote)
	if err != nil {
		return nil, err
	}
	s.pages = pages

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(sessionMiddleware(uc.Auth, s.secureCookie))
	r.Use(preferencesMiddleware)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to bind static dir")
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/api/healthz", s.healthHandler)

	r.Get("/", s.landingHandler)
	r.Get("/login", s.loginPageHandler)
	r.Post("/login", s.loginHandler)
	r.Post("/logout", s.logoutHandler)
	r.Post("/preferences", s.preferencesHandler)
	r.Get("/portal", s.portalHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.require(types.RequireAdmin))

		r.Get("/dashboard", s.dashboardHandler)
		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", s.usersPageHandler)
			r.Post("/", s.addUserHandler)
			r.Post("/{username}", s.updateUserHandler)
			r.Post("/{username}/delete", s.deleteUserHandler)
		})
	})

	// Tab host API. Direct access is anonymous, so the viewer cookie and
	// the tab set of its host gate these routes instead of the guard.
	r.Route("/api/views", func(r chi.Router) {
		r.Get("/", s.viewsSnapshotHandler)
		r.Post("/refresh", s.viewsRefreshHandler)
		r.Post("/{id}/select", s.viewSelectHandler)
		r.Post("/{id}/loaded", s.viewLoadedHandler)
		r.Post("/{id}/failed", s.viewFailedHandler)
		r.Post("/{id}/retry", s.viewRetryHandler)
	})

	r.NotFound(s.notFoundHandler)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests and binds a
// request-scoped logger to the context
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, raw)
}

type upstreamStatus struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type healthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	CheckedAt *time.Time       `json:"checked_at,omitempty"`
	Upstreams []upstreamStatus `json:"upstreams,omitempty"`
}

// healthHandler reports liveness. Unreachable upstreams are reported but
// never fail the check.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: s.version}

	if s.upstreams != nil {
		results, at := s.upstreams()
		if !at.IsZero() {
			resp.CheckedAt = &at
		}
		for _, result := range results {
			resp.Upstreams = append(resp.Upstreams, upstreamStatus{
				Name:      result.Target.Name,
				OK:        result.OK(),
				Status:    result.Status,
				LatencyMS: result.Latency.Milliseconds(),
			})
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	s.render(w, r, http.StatusNotFound, pageNotFound, nil)
}
