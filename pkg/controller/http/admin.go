package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

// Dialogs of the user administration page
const (
	dialogAdd    = "add"
	dialogEdit   = "edit"
	dialogDelete = "delete"
)

// userForm holds what a dialog shows. Password is never echoed back.
type userForm struct {
	Name     string
	Username string
	Role     types.Role
}

type userDialog struct {
	Kind    string
	Form    userForm
	Message string
}

type usersPage struct {
	Users     []model.User
	ListError string
	Dialog    *userDialog
}

func isNetworkFailure(err error) bool {
	return errors.Is(err, model.ErrNetwork)
}

// resultStatus maps a failed Result to the status of the re-rendered page
func resultStatus(result *model.Result) int {
	switch {
	case errors.Is(result.Err, model.ErrConfirmationRequired):
		return http.StatusOK
	case errors.Is(result.Err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(result.Err, model.ErrRequestInFlight):
		return http.StatusConflict
	case errors.Is(result.Err, model.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(result.Err, model.ErrRemoteRejection):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, dialog *userDialog) {
	page := usersPage{Dialog: dialog}

	list := s.uc.User.List(r.Context())
	if list.Success {
		page.Users = list.Users
	} else {
		page.ListError = list.Message
	}

	s.render(w, r, status, pageUsers, page)
}

func (s *Server) usersPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var dialog *userDialog
	switch query.Get("dialog") {
	case dialogAdd:
		dialog = &userDialog{Kind: dialogAdd, Form: userForm{Role: types.RolePicker}}

	case dialogEdit, dialogDelete:
		user, ok := s.uc.User.Lookup(ctx, query.Get("username"))
		if !ok {
			s.notices.set(w, r, model.ErrorNotice("Error", "El usuario no existe"))
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}
		dialog = &userDialog{
			Kind: query.Get("dialog"),
			Form: userForm{Name: user.Name, Username: user.Username, Role: user.Role},
		}
	}

	s.renderUsers(w, r, http.StatusOK, dialog)
}

func parseRole(raw string) types.Role {
	if role, err := types.ParseRole(raw); err == nil {
		return role
	}
	// Validation reports the field
	return types.Role(strings.TrimSpace(raw))
}

func (s *Server) addUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	input := model.NewUser{
		Name:     r.PostForm.Get("name"),
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Role:     parseRole(r.PostForm.Get("role")),
	}

	result := s.uc.User.Add(r.Context(), input)
	if !result.Success {
		s.userFailed(w, r, result, &userDialog{
			Kind:    dialogAdd,
			Form:    userForm{Name: input.Name, Username: input.Username, Role: input.Role},
			Message: result.Message,
		})
		return
	}

	s.notices.set(w, r, model.SuccessNotice("Usuario añadido", result.Message))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// updateUserHandler takes the username from the path. A username in the
// form is ignored.
func (s *Server) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	input := model.UserUpdate{
		Username: chi.URLParam(r, "username"),
		Name:     r.PostForm.Get("name"),
		Password: r.PostForm.Get("password"),
		Role:     parseRole(r.PostForm.Get("role")),
	}

	result := s.uc.User.Update(r.Context(), input)
	if !result.Success {
		s.userFailed(w, r, result, &userDialog{
			Kind:    dialogEdit,
			Form:    userForm{Name: input.Name, Username: input.Username, Role: input.Role},
			Message: result.Message,
		})
		return
	}

	s.notices.set(w, r, model.SuccessNotice("Usuario actualizado", result.Message))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	username := chi.URLParam(r, "username")
	confirmed := r.PostForm.Get("confirm") == "yes"

	result := s.uc.User.Delete(r.Context(), username, confirmed)
	if !result.Success {
		form := userForm{Username: username}
		if user, ok := s.uc.User.Lookup(r.Context(), username); ok {
			form = userForm{Name: user.Name, Username: user.Username, Role: user.Role}
		}
		s.userFailed(w, r, result, &userDialog{Kind: dialogDelete, Form: form, Message: result.Message})
		return
	}

	s.notices.set(w, r, model.SuccessNotice("Usuario eliminado", result.Message))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// userFailed keeps the dialog open with what was entered. A request that
// only lacked confirmation shows the confirmation without a message.
func (s *Server) userFailed(w http.ResponseWriter, r *http.Request, result *model.Result, dialog *userDialog) {
	status := resultStatus(result)
	if errors.Is(result.Err, model.ErrConfirmationRequired) {
		dialog.Message = ""
	} else {
		logging.From(r.Context()).Warn("user administration failed",
			"dialog", dialog.Kind,
			"username", dialog.Form.Username,
			"error", result.Err,
		)
	}
	s.renderUsers(w, r, status, dialog)
}

type dashboardCard struct {
	Title       string
	Description string
	Href        string
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	catalog := s.uc.View.Catalog()
	cards := []dashboardCard{
		{
			Title:       catalog.Get(types.ViewDashboard).Label,
			Description: "Indicadores y estado de los pedidos",
			Href:        "/portal?tab=" + types.ViewDashboard.String(),
		},
		{
			Title:       catalog.Get(types.ViewAdministration).Label,
			Description: "Gestión de pedidos y existencias",
			Href:        "/portal?tab=" + types.ViewAdministration.String(),
		},
		{
			Title:       "Usuarios",
			Description: "Alta, edición y baja de usuarios",
			Href:        "/admin/users",
		},
		{
			Title:       catalog.Get(types.ViewPreparation).Label,
			Description: "Preparación de pedidos",
			Href:        "/portal?tab=" + types.ViewPreparation.String(),
		},
	}
	s.render(w, r, http.StatusOK, pageDashboard, cards)
}
