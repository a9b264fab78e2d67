// Package grid implements the Output Grid & Interpolator (C5): the
// target lon/lat grid, bilinear interpolation for rectilinear sources,
// and an unconstrained Delaunay (Bowyer-Watson) path for
// curvilinear/unstructured sources; the triangulation is not constrained
// to the source grid's boundary.
package grid

import (
	"fmt"
	"math"

	"github.com/waterinstitute/metget/internal/model"
)

const minGridCells = 3
const indexEpsilon = 1e-9

// OutputGrid is a regular lon/lat rectilinear grid over WGS84 (or the
// configured EPSG). i indexes the x-axis, j indexes the y-axis; Corner
// and Index are exact inverses of one another by construction.
type OutputGrid struct {
	xLL, yLL, xUR, yUR float64
	dx, dy             float64
	epsg               int
	x, y               []float64 // length Ni, Nj respectively
}

// New constructs an OutputGrid, canonicalizing swapped corners and
// validating resolution and minimum cell count, matching the
// constructor invariants of the original OutputGrid class.
func New(xLL, yLL, xUR, yUR, dx, dy float64, epsg int) (*OutputGrid, error) {
	if xLL > xUR {
		xLL, xUR = xUR, xLL
	}
	if yLL > yUR {
		yLL, yUR = yUR, yLL
	}
	if xLL == xUR || yLL == yUR {
		return nil, model.NewError(model.ErrValidation, "grid.New", fmt.Errorf("lower-left and upper-right corners must differ"))
	}
	if dx <= 0 || dy <= 0 {
		return nil, model.NewError(model.ErrValidation, "grid.New", fmt.Errorf("x and y resolution must be positive"))
	}
	if (xUR-xLL)/dx < minGridCells || (yUR-yLL)/dy < minGridCells {
		return nil, model.NewError(model.ErrValidation, "grid.New", fmt.Errorf("grid resolution too coarse, must have at least %d cells in each direction", minGridCells))
	}
	if epsg == 0 {
		epsg = 4326
	}

	ni := int(math.Floor((xUR-xLL)/dx+indexEpsilon)) + 1
	nj := int(math.Floor((yUR-yLL)/dy+indexEpsilon)) + 1

	x := make([]float64, ni)
	for i := range x {
		x[i] = xLL + float64(i)*dx
	}
	y := make([]float64, nj)
	for j := range y {
		y[j] = yLL + float64(j)*dy
	}

	return &OutputGrid{xLL: xLL, yLL: yLL, xUR: xUR, yUR: yUR, dx: dx, dy: dy, epsg: epsg, x: x, y: y}, nil
}

func (g *OutputGrid) XLowerLeft() float64  { return g.xLL }
func (g *OutputGrid) YLowerLeft() float64  { return g.yLL }
func (g *OutputGrid) XUpperRight() float64 { return g.xUR }
func (g *OutputGrid) YUpperRight() float64 { return g.yUR }
func (g *OutputGrid) XResolution() float64 { return g.dx }
func (g *OutputGrid) YResolution() float64 { return g.dy }
func (g *OutputGrid) EPSG() int            { return g.epsg }

// Ni is the number of grid points along the x-axis.
func (g *OutputGrid) Ni() int { return len(g.x) }

// Nj is the number of grid points along the y-axis.
func (g *OutputGrid) Nj() int { return len(g.y) }

// N is the total number of grid points.
func (g *OutputGrid) N() int { return g.Ni() * g.Nj() }

func (g *OutputGrid) Width() float64  { return g.xUR - g.xLL }
func (g *OutputGrid) Height() float64 { return g.yUR - g.yLL }

func (g *OutputGrid) Centroid() (float64, float64) {
	return g.xLL + g.Width()/2, g.yLL + g.Height()/2
}

// XColumn returns the x-axis vector; convert360 shifts negative
// longitudes by +360 to match GRIB's 0-360 convention.
func (g *OutputGrid) XColumn(convert360 bool) []float64 {
	if !convert360 {
		out := make([]float64, len(g.x))
		copy(out, g.x)
		return out
	}
	out := make([]float64, len(g.x))
	for i, v := range g.x {
		if v < 0 {
			v += 360
		}
		out[i] = v
	}
	return out
}

func (g *OutputGrid) YColumn() []float64 {
	out := make([]float64, len(g.y))
	copy(out, g.y)
	return out
}

// Corner returns the lower-left corner of cell (i,j).
func (g *OutputGrid) Corner(i, j int) (float64, float64, error) {
	if i < 0 || i >= g.Ni() {
		return 0, 0, model.NewError(model.ErrValidation, "grid.Corner", fmt.Errorf("i index out of bounds: %d", i))
	}
	if j < 0 || j >= g.Nj() {
		return 0, 0, model.NewError(model.ErrValidation, "grid.Corner", fmt.Errorf("j index out of bounds: %d", j))
	}
	return g.x[i], g.y[j], nil
}

// Center returns the center of cell (i,j).
func (g *OutputGrid) Center(i, j int) (float64, float64, error) {
	x, y, err := g.Corner(i, j)
	if err != nil {
		return 0, 0, err
	}
	return x + g.dx/2, y + g.dy/2, nil
}

// I returns the i (x-axis) index of x.
func (g *OutputGrid) I(x float64) int {
	return int(math.Floor((x-g.xLL)/g.dx + indexEpsilon))
}

// J returns the j (y-axis) index of y.
func (g *OutputGrid) J(y float64) int {
	return int(math.Floor((y-g.yLL)/g.dy + indexEpsilon))
}

// IndexOf returns (I(x), J(y)); Corner and IndexOf are exact inverses
// for any valid grid index, per spec §8's testable property.
func (g *OutputGrid) IndexOf(x, y float64) (int, int) {
	return g.I(x), g.J(y)
}

func (g *OutputGrid) IsInside(x, y float64) bool {
	return g.xLL <= x && x <= g.xUR && g.yLL <= y && y <= g.yUR
}

// Corners returns the four bounding corners in (x,y) order:
// LL, UL, UR, LR.
func (g *OutputGrid) Corners() [4][2]float64 {
	return [4][2]float64{
		{g.xLL, g.yLL},
		{g.xLL, g.yUR},
		{g.xUR, g.yUR},
		{g.xUR, g.yLL},
	}
}
