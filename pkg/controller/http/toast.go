package http

import (
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

const (
	noticeCookieName = "portal_notice"
	noticeTTL        = time.Minute
	noticeIssuer     = "portalos"
)

// noticeCodec carries a Notice across one redirect in a signed cookie
type noticeCodec struct {
	key    []byte
	secure bool
}

func (c *noticeCodec) encode(n *model.Notice) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(noticeIssuer).
		IssuedAt(now).
		Expiration(now.Add(noticeTTL)).
		Claim("kind", string(n.Kind)).
		Claim("title", n.Title).
		Claim("message", n.Message).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build notice token")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.key))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign notice token")
	}
	return string(signed), nil
}

func (c *noticeCodec) decode(value string) (*model.Notice, error) {
	tok, err := jwt.Parse([]byte(value),
		jwt.WithKey(jwa.HS256, c.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(noticeIssuer),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid notice token")
	}

	claim := func(name string) string {
		v, ok := tok.Get(name)
		if !ok {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	n := &model.Notice{
		Kind:    model.NoticeKind(claim("kind")),
		Title:   claim("title"),
		Message: claim("message"),
	}
	if n.Kind != model.NoticeSuccess && n.Kind != model.NoticeError {
		return nil, goerr.New("unknown notice kind", goerr.V("kind", n.Kind))
	}
	return n, nil
}

// set stores n for the next page render
func (c *noticeCodec) set(w http.ResponseWriter, r *http.Request, n *model.Notice) {
	if n == nil {
		return
	}
	value, err := c.encode(n)
	if err != nil {
		logging.From(r.Context()).Warn("failed to encode notice", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(noticeTTL.Seconds()),
	})
}

// take returns the pending notice, if any, and clears it. A tampered or
// expired cookie is dropped silently.
func (c *noticeCodec) take(w http.ResponseWriter, r *http.Request) *model.Notice {
	cookie, err := r.Cookie(noticeCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	n, err := c.decode(cookie.Value)
	if err != nil {
		logging.From(r.Context()).Debug("dropped notice cookie", "error", err)
		return nil
	}
	return n
}
