package registry

import (
	"testing"

	"github.com/waterinstitute/metget/internal/model"
)

func TestDescribeKnownAndUnknown(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		service string
		wantErr bool
	}{
		{"gfs known", "gfs-ncep", false},
		{"hrrr known", "hrrr-ncep", false},
		{"wpc known", "wpc-ncep", false},
		{"unknown", "not-a-model", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Describe(tt.service)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Describe(%q) error = %v, wantErr %v", tt.service, err, tt.wantErr)
			}
		})
	}
}

func TestSelectedVariablesIntersection(t *testing.T) {
	r := New()

	// nam-ncep advertises pressure, wind_u and wind_v, so the intersection
	// with wind_pressure is all three components.
	got, err := r.SelectedVariables("nam-ncep", model.WindPressure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[model.MetDataType]bool{model.Pressure: true, model.WindU: true, model.WindV: true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want components matching %v", got, want)
	}
	for _, m := range got {
		if !want[m] {
			t.Errorf("unexpected component %s in result", m)
		}
	}
}

func TestSelectedVariablesFailsWhenNoneAdvertised(t *testing.T) {
	r := New()
	if _, err := r.SelectedVariables("wpc-ncep", model.VarIce); err == nil {
		t.Fatal("expected error: wpc-ncep does not advertise ice")
	}
}

func TestVariableBindingDefaults(t *testing.T) {
	r := New()
	b, err := r.Variable("gfs-ncep", model.Pressure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DefaultValue == nil || *b.DefaultValue != 1013.0 {
		t.Errorf("pressure default_value = %v, want 1013.0", b.DefaultValue)
	}
}
