package usecase

import (
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

const (
	// LoginPath is where anonymous sessions are sent
	LoginPath = "/login"
	// SafeDefaultPath is where sessions with an insufficient role are sent
	SafeDefaultPath = "/portal"
)

// Decision is the result of a guard check
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Verdict is a guard Decision with where to go and what to tell the user
type Verdict struct {
	Decision Decision
	Redirect string
	Notice   *model.Notice
}

// Authorize decides whether identity may see a page asking for req. A nil
// identity is anonymous.
func Authorize(identity *auth.Identity, req types.Requirement) Verdict {
	switch req {
	case types.RequireNone:
		return Verdict{Decision: Allow}

	case types.RequireAuthenticated:
		if identity == nil {
			return Verdict{Decision: RedirectLogin, Redirect: LoginPath}
		}
		return Verdict{Decision: Allow}

	case types.RequireAdmin:
		if identity == nil {
			return Verdict{Decision: RedirectLogin, Redirect: LoginPath}
		}
		if !identity.IsAdmin() {
			return Verdict{
				Decision: Deny,
				Redirect: SafeDefaultPath,
				Notice:   model.ErrorNotice("Acceso denegado", "No tienes permisos para acceder a esta sección"),
			}
		}
		return Verdict{Decision: Allow}
	}

	// Unknown requirements are denied
	return Verdict{Decision: Deny, Redirect: SafeDefaultPath}
}
