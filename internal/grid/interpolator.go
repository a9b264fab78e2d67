package grid

import "math"

// SourceGrid describes one source file's native point cloud, already
// read and decoded by the upstream reader (GRIB/COAMPS-TC). Rectilinear
// sources set Rectilinear=true and populate X/Y as separate axis
// vectors; curvilinear/unstructured sources populate Lon/Lat as
// parallel per-node arrays instead.
type SourceGrid struct {
	Rectilinear bool

	// Rectilinear path.
	X, Y []float64 // axis vectors, length Nx, Ny
	Nx, Ny int

	// Curvilinear/unstructured path.
	Lon, Lat []float64 // per-node, same length as Values
}

// DataInterpolator resamples one source variable's values onto an
// OutputGrid: bilinear for rectilinear sources, barycentric
// interpolation over a cached Delaunay triangulation otherwise (spec
// §4.5).
type DataInterpolator struct {
	target *OutputGrid
	source *SourceGrid
	tri    *Triangulation // nil for rectilinear sources
}

// NewDataInterpolator builds an interpolator for one (target, source)
// pair. sourceKey identifies the source's node geometry for
// triangulation caching; it should be stable across timesteps of the
// same source grid (e.g. service+cycle) and change only when the
// underlying grid geometry changes.
func NewDataInterpolator(target *OutputGrid, source *SourceGrid, sourceKey string) *DataInterpolator {
	d := &DataInterpolator{target: target, source: source}
	if !source.Rectilinear {
		d.tri = CachedTriangulation(sourceKey, func() *Triangulation {
			pts := make([]Point, len(source.Lon))
			for i := range source.Lon {
				x, y := ForwardStereographic(source.Lon[i], source.Lat[i])
				pts[i] = Point{X: x, Y: y}
			}
			return Triangulate(pts)
		})
	}
	return d
}

// Interpolate resamples values (in source node/cell order matching
// SourceGrid) onto the target grid, returning a row-major (Nj x Ni)
// slice with NaN where the target cell falls outside the source's
// valid footprint.
func (d *DataInterpolator) Interpolate(values []float64) []float64 {
	out := make([]float64, d.target.N())
	for i := range out {
		out[i] = math.NaN()
	}

	if d.source.Rectilinear {
		d.interpolateRectilinear(values, out)
	} else {
		d.interpolateTriangulated(values, out)
	}
	return out
}

func (d *DataInterpolator) interpolateRectilinear(values []float64, out []float64) {
	sx, sy := d.source.X, d.source.Y
	nx, ny := d.source.Nx, d.source.Ny

	at := func(ix, iy int) float64 {
		return values[iy*nx+ix]
	}

	for j := 0; j < d.target.Nj(); j++ {
		ty := d.target.y[j]
		iy := locateAxis(sy, ty)
		if iy < 0 || iy >= ny-1 {
			continue
		}
		fy := (ty - sy[iy]) / (sy[iy+1] - sy[iy])

		for i := 0; i < d.target.Ni(); i++ {
			tx := d.target.x[i]
			ix := locateAxis(sx, tx)
			if ix < 0 || ix >= nx-1 {
				continue
			}
			fx := (tx - sx[ix]) / (sx[ix+1] - sx[ix])

			v00 := at(ix, iy)
			v10 := at(ix+1, iy)
			v01 := at(ix, iy+1)
			v11 := at(ix+1, iy+1)
			if math.IsNaN(v00) || math.IsNaN(v10) || math.IsNaN(v01) || math.IsNaN(v11) {
				continue
			}

			v := v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
			out[j*d.target.Ni()+i] = v
		}
	}
}

// locateAxis returns the index i such that axis[i] <= v < axis[i+1]
// (len-2 when v equals the last axis value), or -1 if v is outside
// [axis[0], axis[len-1]]. axis must be monotonically
// increasing.
func locateAxis(axis []float64, v float64) int {
	if len(axis) < 2 || v < axis[0] || v > axis[len(axis)-1] {
		return -1
	}
	lo, hi := 0, len(axis)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if axis[mid] <= v {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func (d *DataInterpolator) interpolateTriangulated(values []float64, out []float64) {
	for j := 0; j < d.target.Nj(); j++ {
		ty := d.target.y[j]
		for i := 0; i < d.target.Ni(); i++ {
			tx := d.target.x[i]
			lon, lat := tx, ty
			px, py := ForwardStereographic(lon, lat)

			idx, w0, w1, w2, ok := d.tri.Locate(Point{X: px, Y: py})
			if !ok {
				continue
			}
			tr := d.tri.Triangles[idx]
			v0, v1, v2 := values[tr.A], values[tr.B], values[tr.C]
			if math.IsNaN(v0) || math.IsNaN(v1) || math.IsNaN(v2) {
				continue
			}
			out[j*d.target.Ni()+i] = w0*v0 + w1*v1 + w2*v2
		}
	}
}
