package writer

import "testing"

func TestFormatOwiCoordinateWorkedExample(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{18.0, " 18.0000"},
		{-98.0, " -98.000"},
	}
	for _, c := range cases {
		got := formatOwiCoordinate(c.v)
		if got != c.want {
			t.Errorf("formatOwiCoordinate(%v) = %q, want %q", c.v, got, c.want)
		}
		if len(got) != 8 {
			t.Errorf("formatOwiCoordinate(%v) length = %d, want 8", c.v, len(got))
		}
	}
}
