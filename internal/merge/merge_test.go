package merge

import (
	"math"
	"testing"

	"github.com/waterinstitute/metget/internal/grid"
)

func TestMergePriorityFill(t *testing.T) {
	g, err := grid.New(-98, 18, -95, 21, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := g.N()

	fine := make([]float64, n)
	coarse := make([]float64, n)
	for i := range fine {
		fine[i] = math.NaN()
		coarse[i] = 100
	}
	fine[0] = 1 // finest source only covers one cell

	out := Merge(g, []Source{
		{Values: fine, Resolution: 0.1},
		{Values: coarse, Resolution: 1.0},
	}, Options{})

	if out[0] != 1 {
		t.Errorf("expected finest source to win at cell 0, got %v", out[0])
	}
	if out[1] != 100 {
		t.Errorf("expected coarser source to fill remaining cells, got %v", out[1])
	}
}

func TestFinalizeDefaultValue(t *testing.T) {
	g, err := grid.New(-98, 18, -95, 21, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := g.N()
	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}
	def := 1013.0
	out := Merge(g, []Source{{Values: values, Resolution: 1.0}}, Options{Backfill: true, DefaultValue: &def})
	for _, v := range out {
		if v != def {
			t.Fatalf("expected default_value backfill, got %v", v)
		}
	}
}

func TestFinalizeFillValue(t *testing.T) {
	g, err := grid.New(-98, 18, -95, 21, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values := make([]float64, g.N())
	for i := range values {
		values[i] = math.NaN()
	}
	out := Merge(g, []Source{{Values: values, Resolution: 1.0}}, Options{})
	for _, v := range out {
		if v != fillValue {
			t.Fatalf("expected canonical fill_value -999, got %v", v)
		}
	}
}
