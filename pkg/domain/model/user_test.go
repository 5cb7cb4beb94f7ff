package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

func TestNewUserValidate(t *testing.T) {
	valid := model.NewUser{Name: "Ana", Username: "ANA", Password: "secret", Role: types.RolePicker}
	gt.NoError(t, valid.Validate()).Required()

	tests := []struct {
		name   string
		mutate func(x *model.NewUser)
	}{
		{name: "empty name", mutate: func(x *model.NewUser) { x.Name = " " }},
		{name: "empty username", mutate: func(x *model.NewUser) { x.Username = "" }},
		{name: "empty password", mutate: func(x *model.NewUser) { x.Password = "" }},
		{name: "empty role", mutate: func(x *model.NewUser) { x.Role = "" }},
		{name: "unknown role", mutate: func(x *model.NewUser) { x.Role = "owner" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := valid
			tt.mutate(&x)
			gt.Error(t, x.Validate()).Is(model.ErrValidation)
		})
	}
}

func TestUserUpdateValidate(t *testing.T) {
	update := model.UserUpdate{Username: "ANA", Name: "Ana", Role: types.RoleAdmin}
	gt.NoError(t, update.Validate()).Required()
	gt.B(t, update.ChangesPassword()).False()

	update.Password = "   "
	gt.B(t, update.ChangesPassword()).False()

	update.Password = "new-secret"
	gt.B(t, update.ChangesPassword()).True()

	update.Name = ""
	gt.Error(t, update.Validate()).Is(model.ErrValidation)
}
