package vbap

import "math"

const (
	// Deterministic jitter separates cospherical grid degeneracies
	// (cocircular quads split along either diagonal). It only steers
	// the triangulation; gains are computed from the exact vectors.
	jitterScale = 1e-7
	visibleEps  = 1e-9
	spanEps     = 1e-9
	planarEps   = 1e-6
)

type hullFace struct {
	a, b, c int
	normal  [3]float64
	offset  float64
}

// buildHull returns the triangulated convex hull of the given points as
// vertex index triples. The points are jittered into general position
// before construction, so faces are always triangles.
func buildHull(points [][3]float64) ([][3]int, error) {
	n := len(points)
	if n < 4 {
		return nil, ErrTooFewDirections
	}

	pts := make([][3]float64, n)
	for i, p := range points {
		pts[i] = [3]float64{
			p[0] + jitter(i, 0),
			p[1] + jitter(i, 1),
			p[2] + jitter(i, 2),
		}
	}

	i0, i1, i2, i3, err := initialSimplex(pts)
	if err != nil {
		return nil, err
	}

	interior := [3]float64{}
	for _, i := range []int{i0, i1, i2, i3} {
		interior = add3(interior, pts[i])
	}
	interior = scale3(interior, 0.25)

	faces := []hullFace{
		makeFace(pts, i0, i1, i2, interior),
		makeFace(pts, i0, i1, i3, interior),
		makeFace(pts, i0, i2, i3, interior),
		makeFace(pts, i1, i2, i3, interior),
	}

	for p := 0; p < n; p++ {
		if p == i0 || p == i1 || p == i2 || p == i3 {
			continue
		}

		var visible, hidden []hullFace
		for _, f := range faces {
			if dot3(f.normal, pts[p])-f.offset > visibleEps {
				visible = append(visible, f)
			} else {
				hidden = append(hidden, f)
			}
		}
		if len(visible) == 0 {
			continue
		}

		// Horizon edges appear in exactly one visible face.
		edges := make(map[[2]int]bool, 3*len(visible))
		for _, f := range visible {
			edges[[2]int{f.a, f.b}] = true
			edges[[2]int{f.b, f.c}] = true
			edges[[2]int{f.c, f.a}] = true
		}

		faces = hidden
		for e := range edges {
			if edges[[2]int{e[1], e[0]}] {
				continue
			}
			faces = append(faces, makeFace(pts, e[0], e[1], p, interior))
		}
	}

	tris := make([][3]int, len(faces))
	for i, f := range faces {
		tris[i] = [3]int{f.a, f.b, f.c}
	}

	return tris, nil
}

// initialSimplex picks four points spanning a non-degenerate tetrahedron.
func initialSimplex(pts [][3]float64) (i0, i1, i2, i3 int, err error) {
	i0 = 0

	best := 0.0
	i1 = -1
	for i := range pts {
		d := sub3(pts[i], pts[i0])
		if v := dot3(d, d); v > best {
			best, i1 = v, i
		}
	}
	if i1 < 0 || best < spanEps {
		return 0, 0, 0, 0, ErrDegenerate
	}

	base := sub3(pts[i1], pts[i0])
	best = 0
	i2 = -1
	for i := range pts {
		c := cross3(base, sub3(pts[i], pts[i0]))
		if v := dot3(c, c); v > best {
			best, i2 = v, i
		}
	}
	if i2 < 0 || best < spanEps {
		return 0, 0, 0, 0, ErrDegenerate
	}

	normal := cross3(base, sub3(pts[i2], pts[i0]))
	normal = scale3(normal, 1/math.Sqrt(dot3(normal, normal)))
	best = 0
	i3 = -1
	for i := range pts {
		if v := math.Abs(dot3(normal, sub3(pts[i], pts[i0]))); v > best {
			best, i3 = v, i
		}
	}

	// Anything below the jitter scale is a planar set, not a tetrahedron.
	if i3 < 0 || best < planarEps {
		return 0, 0, 0, 0, ErrDegenerate
	}

	return i0, i1, i2, i3, nil
}

// makeFace builds a face with its normal pointing away from interior.
func makeFace(pts [][3]float64, a, b, c int, interior [3]float64) hullFace {
	n := cross3(sub3(pts[b], pts[a]), sub3(pts[c], pts[a]))
	if ln := math.Sqrt(dot3(n, n)); ln > 0 {
		n = scale3(n, 1/ln)
	}
	if dot3(n, sub3(interior, pts[a])) > 0 {
		b, c = c, b
		n = scale3(n, -1)
	}

	return hullFace{a: a, b: b, c: c, normal: n, offset: dot3(n, pts[a])}
}

// jitter returns a deterministic pseudo-random offset for one coordinate.
func jitter(index, axis int) float64 {
	h := uint64(index)*0x9E3779B97F4A7C15 + uint64(axis)*0xBF58476D1CE4E5B9
	h ^= h >> 31
	h *= 0x94D049BB133111EB
	h ^= h >> 29

	return (float64(h>>11)/float64(1<<53) - 0.5) * jitterScale
}

func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale3(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
