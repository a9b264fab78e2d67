// Package merge implements the Domain Merge & Smoother (C6): priority
// fill of nested source domains onto one target grid, followed by an
// optional Gaussian smoothing pass across domain boundaries.
package merge

import (
	"math"

	"github.com/waterinstitute/metget/internal/grid"
)

// Source is one prepared dataset ready to merge: its values on the
// common target grid (row-major, NaN outside its footprint), its
// native resolution (used for filter widths; Merge takes sources in the
// order given and does not sort them by it), and
// its data-footprint polygon in target-grid (lon,lat) coordinates.
type Source struct {
	Values     []float64 // length target.N(), row-major (Nj x Ni)
	Resolution float64
	Footprint  grid.Ring
}

const fillValue = -999.0

// Options controls the finalize and smoothing steps.
type Options struct {
	ApplyFilter  bool
	DefaultValue *float64 // nil means no declared default for this variable
	Backfill     bool      // true only when the domain is nested and backfill is requested
}

// Merge combines sources (ascending native resolution, finest first) onto
// target, applying priority fill, optional boundary smoothing, and
// finalization per spec §4.6.
func Merge(target *grid.OutputGrid, sources []Source, opt Options) []float64 {
	n := target.N()
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	for _, s := range sources {
		for i := 0; i < n && i < len(s.Values); i++ {
			if math.IsNaN(out[i]) && !math.IsNaN(s.Values[i]) {
				out[i] = s.Values[i]
			}
		}
	}

	if opt.ApplyFilter {
		out = smoothBoundaries(target, out, sources)
	}

	finalize(out, opt)
	return out
}

// smoothBoundaries computes, for each source whose footprint lies fully
// inside another source's footprint, the smoothing-ring annulus between buffer(poly,
// -5*res) and buffer(poly, +5*res), Gaussian-filters the whole merged
// array, and copies the filtered values back only at ring cells.
func smoothBoundaries(target *grid.OutputGrid, merged []float64, sources []Source) []float64 {
	var ringCells []int

	for si, s := range sources {
		if len(s.Footprint) == 0 {
			continue
		}
		if !enclosedByAnother(s, sources, si) {
			continue
		}
		inner := grid.Offset(s.Footprint, -5*s.Resolution)
		outer := grid.Offset(s.Footprint, 5*s.Resolution)

		for j := 0; j < target.Nj(); j++ {
			for i := 0; i < target.Ni(); i++ {
				x, y, err := target.Corner(i, j)
				if err != nil {
					continue
				}
				p := grid.Point{X: x, Y: y}
				inOuter := grid.PointInRing(outer, p)
				inInner := grid.PointInRing(inner, p)
				if inOuter && !inInner {
					ringCells = append(ringCells, j*target.Ni()+i)
				}
			}
		}
	}

	if len(ringCells) == 0 {
		return merged
	}

	sigma := 5 * sources[0].Resolution
	filtered := gaussianFilter2D(merged, target.Ni(), target.Nj(), sigma)

	out := append([]float64{}, merged...)
	for _, idx := range ringCells {
		out[idx] = filtered[idx]
	}
	return out
}

func enclosedByAnother(s Source, sources []Source, idx int) bool {
	if len(s.Footprint) == 0 {
		return false
	}
	for i, other := range sources {
		if i == idx || len(other.Footprint) == 0 {
			continue
		}
		allInside := true
		for _, p := range s.Footprint {
			if !grid.PointInRing(other.Footprint, p) {
				allInside = false
				break
			}
		}
		if allInside {
			return true
		}
	}
	return false
}

// gaussianFilter2D applies a separable Gaussian blur with standard
// deviation sigma (in grid cells) to a row-major (ny x nx) field,
// treating NaN as a hole that does not contribute to the convolution
// (NaN-pad per spec §4.6 step 4).
func gaussianFilter2D(values []float64, nx, ny int, sigmaCells float64) []float64 {
	radius := int(math.Ceil(3 * sigmaCells))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for k := -radius; k <= radius; k++ {
		v := math.Exp(-float64(k*k) / (2 * sigmaCells * sigmaCells))
		kernel[k+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	horizontal := make([]float64, len(values))
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			horizontal[j*nx+i] = weightedAvg(values, j*nx, nx, i, kernel, radius, 1)
		}
	}

	out := make([]float64, len(values))
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			out[j*nx+i] = weightedAvgColumn(horizontal, i, nx, ny, j, kernel, radius)
		}
	}
	return out
}

func weightedAvg(values []float64, rowStart, rowLen, center int, kernel []float64, radius, stride int) float64 {
	var acc, wsum float64
	for k := -radius; k <= radius; k++ {
		idx := center + k
		if idx < 0 || idx >= rowLen {
			continue
		}
		v := values[rowStart+idx*stride]
		if math.IsNaN(v) {
			continue
		}
		w := kernel[k+radius]
		acc += v * w
		wsum += w
	}
	if wsum == 0 {
		return math.NaN()
	}
	return acc / wsum
}

func weightedAvgColumn(values []float64, col, nx, ny, center int, kernel []float64, radius int) float64 {
	var acc, wsum float64
	for k := -radius; k <= radius; k++ {
		idx := center + k
		if idx < 0 || idx >= ny {
			continue
		}
		v := values[idx*nx+col]
		if math.IsNaN(v) {
			continue
		}
		w := kernel[k+radius]
		acc += v * w
		wsum += w
	}
	if wsum == 0 {
		return math.NaN()
	}
	return acc / wsum
}

// finalize replaces remaining NaNs per spec §4.6 step 5: the declared
// default_value when backfilling a nested domain, else fill_value.
func finalize(values []float64, opt Options) {
	repl := fillValue
	if opt.Backfill && opt.DefaultValue != nil {
		repl = *opt.DefaultValue
	}
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = repl
		}
	}
}
