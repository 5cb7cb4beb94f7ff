package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

func TestParseViewID(t *testing.T) {
	tests := []struct {
		input   string
		want    types.ViewID
		wantErr bool
	}{
		{input: "dashboard", want: types.ViewDashboard},
		{input: "administration", want: types.ViewAdministration},
		{input: "administracion", want: types.ViewAdministration},
		{input: "preparacion", want: types.ViewPreparation},
		{input: "PREPARATION", want: types.ViewPreparation},
		{input: "reports", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseViewID(tt.input)
			if tt.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestAllViewsOrder(t *testing.T) {
	gt.Array(t, types.AllViews()).Length(3)
	gt.Value(t, types.AllViews()[0]).Equal(types.ViewDashboard)
	gt.Value(t, types.AllViews()[2]).Equal(types.ViewPreparation)
}
