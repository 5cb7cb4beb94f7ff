package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/utils/errutil"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

const (
	msgLoginFieldsRequired = "Por favor, introduce usuario y contraseña"
	msgLoginRejected       = "Usuario o contraseña incorrectos"
)

type loginPage struct {
	Username string
	Error    string
}

// homePath is where a session lands after login
func homePath(identity *auth.Identity) string {
	if identity.IsAdmin() {
		return "/dashboard"
	}
	return "/portal"
}

func (s *Server) landingHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLanding, nil)
}

func (s *Server) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		http.Redirect(w, r, homePath(identity), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, pageLogin, loginPage{})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	if username == "" || password == "" {
		s.render(w, r, http.StatusUnprocessableEntity, pageLogin, loginPage{
			Username: username,
			Error:    msgLoginFieldsRequired,
		})
		return
	}

	result, err := s.uc.Auth.Login(ctx, username, password, auth.TokenIDFromContext(ctx))
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to login"), http.StatusInternalServerError)
		return
	}

	if result.Token == nil {
		msg := msgLoginRejected
		if result.Outcome != nil && result.Outcome.Message != "" {
			msg = result.Outcome.Message
		}
		logging.From(ctx).Info("login rejected", "username", strings.ToUpper(username))

		status := http.StatusUnauthorized
		if result.Outcome != nil && isNetworkFailure(result.Outcome.Err) {
			status = http.StatusBadGateway
		}
		s.render(w, r, status, pageLogin, loginPage{Username: username, Error: msg})
		return
	}

	setTokenCookies(w, r, result.Token, s.secureCookie)

	identity := result.Token.Identity()
	s.notices.set(w, r, model.SuccessNotice("Inicio de sesión exitoso", "Bienvenido, "+identity.Name()))
	http.Redirect(w, r, homePath(&identity), http.StatusSeeOther)
}

// logoutHandler ends the session. Preference cookies are left alone.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenID := auth.TokenIDFromContext(ctx)
	if tokenID == "" {
		if c, err := r.Cookie(tokenIDCookieName); err == nil {
			tokenID = auth.TokenID(c.Value)
		}
	}

	if err := s.uc.Auth.Logout(ctx, tokenID); err != nil {
		// The browser forgets the session either way
		errutil.Handle(ctx, goerr.Wrap(err, "failed to delete session", goerr.V("token_id", tokenID)), "logout failed")
	}

	clearTokenCookies(w, r, s.secureCookie)
	s.notices.set(w, r, model.SuccessNotice("Sesión cerrada", "Has cerrado sesión correctamente"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
