package grid

import (
	"math"
	"sync"
)

// Point is a 2-D point in the stereographic triangulation plane.
type Point struct {
	X, Y float64
}

// Triangle indexes three points of a Triangulation's Points slice.
type Triangle struct {
	A, B, C int
}

// Triangulation is a Delaunay triangulation of a curvilinear or
// unstructured source grid's node cloud, built once per cache key passed
// to CachedTriangulation and reused for later calls with that key.
type Triangulation struct {
	Points    []Point
	Triangles []Triangle
}

var (
	triangulationCacheMu sync.Mutex
	triangulationCache   = map[string]*Triangulation{}
)

// CachedTriangulation returns the cached triangulation for key, building
// and storing it via build if absent.
func CachedTriangulation(key string, build func() *Triangulation) *Triangulation {
	triangulationCacheMu.Lock()
	defer triangulationCacheMu.Unlock()
	if t, ok := triangulationCache[key]; ok {
		return t
	}
	t := build()
	triangulationCache[key] = t
	return t
}

// ClearTriangulationCache drops all cached triangulations.
func ClearTriangulationCache() {
	triangulationCacheMu.Lock()
	defer triangulationCacheMu.Unlock()
	triangulationCache = map[string]*Triangulation{}
}

// Triangulate builds a Delaunay triangulation over pts (projected into
// the stereographic plane by the caller) using an incremental
// Bowyer-Watson construction. No pack example ships a constrained-Delaunay
// library, so this is a from-scratch stdlib implementation (DESIGN.md).
func Triangulate(pts []Point) *Triangulation {
	n := len(pts)
	if n < 3 {
		return &Triangulation{Points: pts}
	}

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	dx, dy := maxX-minX, maxY-minY
	deltaMax := math.Max(dx, dy)
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	// Super-triangle enclosing the bounding box, removed at the end.
	super := []Point{
		{midX - 20*deltaMax, midY - deltaMax},
		{midX, midY + 20*deltaMax},
		{midX + 20*deltaMax, midY - deltaMax},
	}
	work := append(append([]Point{}, pts...), super...)
	superA, superB, superC := n, n+1, n+2

	tris := []Triangle{{superA, superB, superC}}

	for i := 0; i < n; i++ {
		p := work[i]
		var bad []int
		edgeCount := map[[2]int]int{}
		for ti, tr := range tris {
			if inCircumcircle(work[tr.A], work[tr.B], work[tr.C], p) {
				bad = append(bad, ti)
				for _, e := range triEdges(tr) {
					edgeCount[e]++
				}
			}
		}
		badSet := map[int]bool{}
		for _, ti := range bad {
			badSet[ti] = true
		}
		var boundary [][2]int
		for _, ti := range bad {
			for _, e := range triEdges(tris[ti]) {
				if edgeCount[e] == 1 {
					boundary = append(boundary, e)
				}
			}
		}
		var kept []Triangle
		for ti, tr := range tris {
			if !badSet[ti] {
				kept = append(kept, tr)
			}
		}
		for _, e := range boundary {
			kept = append(kept, Triangle{e[0], e[1], i})
		}
		tris = kept
	}

	var final []Triangle
	for _, tr := range tris {
		if tr.A == superA || tr.A == superB || tr.A == superC ||
			tr.B == superA || tr.B == superB || tr.B == superC ||
			tr.C == superA || tr.C == superB || tr.C == superC {
			continue
		}
		final = append(final, tr)
	}

	return &Triangulation{Points: pts, Triangles: final}
}

func triEdges(t Triangle) [3][2]int {
	norm := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	return [3][2]int{norm(t.A, t.B), norm(t.B, t.C), norm(t.C, t.A)}
}

func inCircumcircle(a, b, c, p Point) bool {
	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	// Orientation-dependent sign; assumes points roughly CCW which holds
	// for the incremental construction above.
	orient := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if orient < 0 {
		return det < 0
	}
	return det > 0
}

// Locate finds the triangle containing p via barycentric containment
// test, returning its index and barycentric weights, or ok=false if p
// falls outside the triangulated hull.
func (t *Triangulation) Locate(p Point) (idx int, w0, w1, w2 float64, ok bool) {
	for i, tr := range t.Triangles {
		a, b, c := t.Points[tr.A], t.Points[tr.B], t.Points[tr.C]
		l0, l1, l2, inside := barycentric(a, b, c, p)
		if inside {
			return i, l0, l1, l2, true
		}
	}
	return 0, 0, 0, 0, false
}

func barycentric(a, b, c, p Point) (l0, l1, l2 float64, inside bool) {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(denom) < 1e-12 {
		return 0, 0, 0, false
	}
	l0 = ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / denom
	l1 = ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / denom
	l2 = 1 - l0 - l1
	const eps = -1e-9
	inside = l0 >= eps && l1 >= eps && l2 >= eps
	return l0, l1, l2, inside
}
