package http

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/usecase"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

const (
	tokenIDCookieName     = "token_id"
	tokenSecretCookieName = "token_secret"
)

// sessionMiddleware resolves the session of every request before any
// handler runs. Requests without a valid token carry no identity.
func sessionMiddleware(authUC usecase.AuthUseCaseInterface, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC.IsNoAuthn() {
				token, err := authUC.ValidateToken(r.Context(), "", "")
				if err == nil {
					next.ServeHTTP(w, r.WithContext(withToken(r, token)))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			tokenIDCookie, err := r.Cookie(tokenIDCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			tokenSecretCookie, err := r.Cookie(tokenSecretCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			tokenID := auth.TokenID(tokenIDCookie.Value)
			tokenSecret := auth.TokenSecret(tokenSecretCookie.Value)

			token, err := authUC.ValidateToken(r.Context(), tokenID, tokenSecret)
			if err != nil {
				logging.From(r.Context()).Debug("session is anonymous", "error", err)
				// Expired and corrupt sessions are gone from the store, so the
				// browser forgets them too
				if errors.Is(err, usecase.ErrSessionExpired) || errors.Is(err, usecase.ErrCorruptSession) {
					clearTokenCookies(w, r, secure)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withToken(r, token)))
		})
	}
}

func withToken(r *http.Request, token *auth.Token) context.Context {
	identity := token.Identity()
	ctx := auth.ContextWithIdentity(r.Context(), &identity)
	ctx = auth.ContextWithTokenID(ctx, token.ID)
	return ctx
}

// require runs the route guard. Denied requests never reach next.
func (s *Server) require(req types.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			verdict := usecase.Authorize(identity, req)

			switch verdict.Decision {
			case usecase.Allow:
				next.ServeHTTP(w, r)
				return

			case usecase.RedirectLogin:
				if isAPIRequest(r) {
					writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
					return
				}
				http.Redirect(w, r, verdict.Redirect, http.StatusSeeOther)

			default:
				logging.From(r.Context()).Info("access denied",
					"path", r.URL.Path,
					"username", identity.Name(),
					"requirement", req.String(),
				)
				if isAPIRequest(r) {
					writeJSON(w, r, http.StatusForbidden, errorResponse{Error: "access denied"})
					return
				}
				s.notices.set(w, r, verdict.Notice)
				http.Redirect(w, r, verdict.Redirect, http.StatusSeeOther)
			}
		})
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func setTokenCookies(w http.ResponseWriter, r *http.Request, token *auth.Token, secure bool) {
	for name, value := range map[string]string{
		tokenIDCookieName:     token.ID.String(),
		tokenSecretCookieName: token.Secret.String(),
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure || r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  token.ExpiresAt,
		})
	}
}

func clearTokenCookies(w http.ResponseWriter, r *http.Request, secure bool) {
	for _, name := range []string{tokenIDCookieName, tokenSecretCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   secure || r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

func randomKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, goerr.Wrap(err, "failed to generate cookie key")
	}
	return key, nil
}
