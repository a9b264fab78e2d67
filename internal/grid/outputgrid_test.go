package grid

import "testing"

func TestNewCanonicalizesSwappedCorners(t *testing.T) {
	g, err := New(-98, 30, -90, 18, 0.25, 0.25, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.YLowerLeft() != 18 || g.YUpperRight() != 30 {
		t.Errorf("y corners not canonicalized: ll=%v ur=%v", g.YLowerLeft(), g.YUpperRight())
	}
}

func TestNewRejectsCoarseResolution(t *testing.T) {
	if _, err := New(-98, 18, -97, 19, 2, 2, 0); err == nil {
		t.Fatal("expected error for grid with fewer than 3 cells per axis")
	}
}

func TestNewRejectsNonPositiveResolution(t *testing.T) {
	if _, err := New(-98, 18, -90, 30, 0, 0.25, 0); err == nil {
		t.Fatal("expected error for non-positive resolution")
	}
}

// index_of(corner(i,j)) == (i,j) for all valid i,j (spec §8).
func TestIndexOfCornerRoundTrip(t *testing.T) {
	g, err := New(-98, 18, -90, 30, 0.25, 0.25, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < g.Ni(); i++ {
		for j := 0; j < g.Nj(); j++ {
			x, y, err := g.Corner(i, j)
			if err != nil {
				t.Fatalf("Corner(%d,%d): %v", i, j, err)
			}
			gotI, gotJ := g.IndexOf(x, y)
			if gotI != i || gotJ != j {
				t.Errorf("IndexOf(Corner(%d,%d)) = (%d,%d), want (%d,%d)", i, j, gotI, gotJ, i, j)
			}
		}
	}
}

func TestGridDimensions(t *testing.T) {
	g, err := New(-98, 18, -90, 30, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Ni() != 9 {
		t.Errorf("Ni() = %d, want 9", g.Ni())
	}
	if g.Nj() != 13 {
		t.Errorf("Nj() = %d, want 13", g.Nj())
	}
	if g.N() != g.Ni()*g.Nj() {
		t.Errorf("N() = %d, want Ni()*Nj() = %d", g.N(), g.Ni()*g.Nj())
	}
}

func TestXColumnConvert360(t *testing.T) {
	g, err := New(-98, 18, -90, 30, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x := g.XColumn(true)
	if x[0] != 262 {
		t.Errorf("XColumn(true)[0] = %v, want 262 (-98+360)", x[0])
	}
	raw := g.XColumn(false)
	if raw[0] != -98 {
		t.Errorf("XColumn(false)[0] = %v, want -98", raw[0])
	}
}
