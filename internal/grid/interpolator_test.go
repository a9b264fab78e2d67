package grid

import (
	"math"
	"testing"
)

func TestBilinearInterpolationExactOnLinearField(t *testing.T) {
	target, err := New(-98, 18, -95, 21, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := &SourceGrid{
		Rectilinear: true,
		X:           []float64{-99, -98, -97, -96, -95},
		Y:           []float64{17, 18, 19, 20, 21},
		Nx:          5, Ny: 5,
	}
	values := make([]float64, 25)
	for j := 0; j < 5; j++ {
		for i := 0; i < 5; i++ {
			// linear field f(x,y) = x + y so bilinear interpolation is exact
			values[j*5+i] = src.X[i] + src.Y[j]
		}
	}

	interp := NewDataInterpolator(target, src, "test")
	out := interp.Interpolate(values)

	for j := 0; j < target.Nj(); j++ {
		for i := 0; i < target.Ni(); i++ {
			x, y, _ := target.Corner(i, j)
			want := x + y
			got := out[j*target.Ni()+i]
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("(%d,%d): got %v want %v", i, j, got, want)
			}
		}
	}
}

func TestDouglasPeuckerRemovesColinearPoints(t *testing.T) {
	ring := Ring{{X: 0, Y: 0}, {X: 1, Y: 0.01}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}
	simplified := Simplify(ring, 0.5)
	if len(simplified) >= len(ring) {
		t.Errorf("expected simplification to reduce point count, got %d from %d", len(simplified), len(ring))
	}
}

func TestConvexHullTriangle(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {0.5, 1}, {0.5, 0.5}}
	hull := ConvexHull(pts)
	if len(hull) != 3 {
		t.Errorf("expected triangle hull (interior point excluded), got %d vertices", len(hull))
	}
}

func TestPointInRing(t *testing.T) {
	ring := Ring{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	if !PointInRing(ring, Point{X: 2, Y: 2}) {
		t.Error("expected center point to be inside")
	}
	if PointInRing(ring, Point{X: 10, Y: 10}) {
		t.Error("expected far point to be outside")
	}
}
