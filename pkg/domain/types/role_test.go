package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Role
		wantErr bool
	}{
		{name: "lower admin", input: "admin", want: types.RoleAdmin},
		{name: "upper admin", input: "ADMIN", want: types.RoleAdmin},
		{name: "mixed picker with spaces", input: " Picker ", want: types.RolePicker},
		{name: "unknown", input: "manager", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRole(tt.input)
			if tt.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestRole_IsAdmin(t *testing.T) {
	gt.B(t, types.RoleAdmin.IsAdmin()).True()
	gt.B(t, types.RolePicker.IsAdmin()).False()
	gt.B(t, types.Role("").IsAdmin()).False()
}
