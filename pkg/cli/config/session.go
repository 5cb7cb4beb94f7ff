package config

import (
	"crypto/rand"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Session holds CLI flags for sessions, cookies and tab hosts
type Session struct {
	noAuth       string
	tokenTTL     time.Duration
	viewerTTL    time.Duration
	maxViewers   int
	cookieSecret string
	secureCookie bool
}

// Flags returns CLI flags for session configuration
func (x *Session) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run as the given user (development only). Example: --no-auth=ANA:admin",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PORTALOS_NO_AUTH"),
			Destination: &x.noAuth,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "Lifetime of a login session",
			Value:       auth.DefaultTokenTTL,
			Category:    "Authentication",
			Sources:     cli.EnvVars("PORTALOS_SESSION_TTL"),
			Destination: &x.tokenTTL,
		},
		&cli.DurationFlag{
			Name:        "viewer-ttl",
			Usage:       "How long the tab state of an idle browser is kept",
			Value:       usecase.DefaultViewerTTL,
			Category:    "Authentication",
			Sources:     cli.EnvVars("PORTALOS_VIEWER_TTL"),
			Destination: &x.viewerTTL,
		},
		&cli.IntFlag{
			Name:        "max-viewers",
			Usage:       "How many browser tab states are kept at once. The least recently used is dropped first",
			Value:       usecase.DefaultMaxViewers,
			Category:    "Authentication",
			Sources:     cli.EnvVars("PORTALOS_MAX_VIEWERS"),
			Destination: &x.maxViewers,
		},
		&cli.StringFlag{
			Name:        "cookie-secret",
			Usage:       "Key signing the notice cookie. A random key is generated when empty",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PORTALOS_COOKIE_SECRET"),
			Destination: &x.cookieSecret,
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Set the Secure attribute on cookies (enable behind HTTPS)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PORTALOS_SECURE_COOKIE"),
			Destination: &x.secureCookie,
		},
	}
}

func (x Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("no_auth", x.noAuth != ""),
		slog.Duration("session_ttl", x.tokenTTL),
		slog.Duration("viewer_ttl", x.viewerTTL),
		slog.Int("max_viewers", x.maxViewers),
		slog.Bool("cookie_secret", x.cookieSecret != ""),
		slog.Bool("secure_cookie", x.secureCookie),
	)
}

func (x *Session) TokenTTL() time.Duration  { return x.tokenTTL }
func (x *Session) ViewerTTL() time.Duration { return x.viewerTTL }
func (x *Session) SecureCookie() bool       { return x.secureCookie }
func (x *Session) MaxViewers() int          { return x.maxViewers }

// IsNoAuthMode reports whether --no-auth is set
func (x *Session) IsNoAuthMode() bool {
	return x.noAuth != ""
}

// NoAuthIdentity parses --no-auth as USERNAME[:role]. The role defaults to admin.
func (x *Session) NoAuthIdentity() (*auth.Identity, error) {
	if x.noAuth == "" {
		return nil, nil
	}

	username, rawRole, found := strings.Cut(x.noAuth, ":")
	role := types.RoleAdmin
	if found {
		parsed, err := types.ParseRole(rawRole)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidNoAuth, "unknown role", goerr.V(FlagKey, "no-auth"), goerr.V("role", rawRole))
		}
		role = parsed
	}

	identity := auth.NewIdentity(username, "", role)
	if err := identity.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidNoAuth, "invalid identity",
			goerr.V(FlagKey, "no-auth"), goerr.V("error", err.Error()))
	}
	return &identity, nil
}

// CookieKey returns the signing key of the notice cookie
func (x *Session) CookieKey() ([]byte, error) {
	if x.cookieSecret != "" {
		if len(x.cookieSecret) < 16 {
			return nil, goerr.Wrap(ErrInvalidConfig, "cookie secret must be at least 16 bytes", goerr.V(FlagKey, "cookie-secret"))
		}
		return []byte(x.cookieSecret), nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, goerr.Wrap(err, "failed to generate cookie key")
	}
	return key, nil
}
