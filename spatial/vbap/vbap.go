// Package vbap maps directions onto a set of measurement directions
// using vector base amplitude panning.
//
// A Table is built once from the measurement grid and then queried per
// direction. Nearest mode snaps to the closest measurement; triangular
// mode triangulates the grid on the sphere and blends the three
// surrounding measurements with weights that sum to one. Open grids
// (no coverage near a pole) are closed with dummy poles whose share of
// the weight is redistributed to the real measurements.
package vbap

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/spatial/sh"
)

// Mode selects how directions map onto measurements.
type Mode int

const (
	// ModeNearest snaps each direction to the closest measurement.
	ModeNearest Mode = iota
	// ModeTriangular blends the three measurements surrounding each
	// direction.
	ModeTriangular
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNearest:
		return "nearest"
	case ModeTriangular:
		return "triangular"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

const (
	// Gains this small are treated as zero when assembling weights.
	gainEps = 1e-9
	// Triangles whose vertex triple is nearly rank-deficient are skipped.
	detEps = 1e-9
	// Poles count as covered when a real measurement sits within a degree.
	poleMarginDeg = 1.0
)

type triangle struct {
	verts [3]int
	inv   [3][3]float64
	valid bool
}

// Table resolves directions to measurement indices and blend gains.
type Table struct {
	mode    Mode
	dirs    [][2]float64
	vecs    [][3]float64 // unit vectors, real measurements then dummies
	numReal int
	tris    []triangle
}

// NewTable builds a panning table over the given {azimuth, elevation}
// measurement directions in degrees. Triangular mode needs at least
// four directions with a full three dimensional span.
func NewTable(dirs [][2]float64, mode Mode) (*Table, error) {
	if len(dirs) == 0 {
		return nil, ErrTooFewDirections
	}

	t := &Table{
		mode:    mode,
		dirs:    make([][2]float64, len(dirs)),
		vecs:    make([][3]float64, 0, len(dirs)+2),
		numReal: len(dirs),
	}
	copy(t.dirs, dirs)
	for _, d := range dirs {
		t.vecs = append(t.vecs, sh.DirectionVector(d[0], d[1]))
	}

	switch mode {
	case ModeNearest:
		return t, nil
	case ModeTriangular:
	default:
		return nil, fmt.Errorf("vbap: unknown mode %d", int(mode))
	}

	if t.numReal < 4 {
		return nil, ErrTooFewDirections
	}

	minElev, maxElev := 90.0, -90.0
	for _, d := range t.dirs {
		if d[1] < minElev {
			minElev = d[1]
		}
		if d[1] > maxElev {
			maxElev = d[1]
		}
	}
	if minElev > -90+poleMarginDeg {
		t.vecs = append(t.vecs, [3]float64{0, 0, -1})
	}
	if maxElev < 90-poleMarginDeg {
		t.vecs = append(t.vecs, [3]float64{0, 0, 1})
	}

	hull, err := buildHull(t.vecs)
	if err != nil {
		return nil, err
	}

	t.tris = make([]triangle, len(hull))
	for i, verts := range hull {
		tri := triangle{verts: verts}
		inv, ok := invert3([3][3]float64{
			t.vecs[verts[0]],
			t.vecs[verts[1]],
			t.vecs[verts[2]],
		})
		if ok {
			tri.inv = inv
			tri.valid = true
		}
		t.tris[i] = tri
	}

	return t, nil
}

// Mode returns the table mode.
func (t *Table) Mode() Mode {
	return t.mode
}

// NumDirections returns the number of real measurement directions.
func (t *Table) NumDirections() int {
	return t.numReal
}

// NumTriangles returns the size of the triangulation, zero in nearest
// mode.
func (t *Table) NumTriangles() int {
	return len(t.tris)
}

// Weights resolves a direction in degrees to at most three measurement
// indices with gains that sum to one.
func (t *Table) Weights(azimuthDeg, elevationDeg float64) ([]int, []float64) {
	v := sh.DirectionVector(azimuthDeg, elevationDeg)

	if t.mode == ModeNearest || len(t.tris) == 0 {
		return []int{t.nearest(v)}, []float64{1}
	}

	best := -1
	bestMin := math.Inf(-1)
	for i := range t.tris {
		if !t.tris[i].valid {
			continue
		}
		g := t.tris[i].gains(v)
		m := math.Min(g[0], math.Min(g[1], g[2]))
		if m > bestMin {
			bestMin, best = m, i
			if m >= -gainEps {
				break
			}
		}
	}
	if best < 0 {
		return []int{t.nearest(v)}, []float64{1}
	}

	tri := &t.tris[best]
	g := tri.gains(v)

	indices := make([]int, 0, 3)
	gains := make([]float64, 0, 3)
	sum := 0.0
	for k := 0; k < 3; k++ {
		gk := g[k]
		if gk <= gainEps || tri.verts[k] >= t.numReal {
			continue
		}
		indices = append(indices, tri.verts[k])
		gains = append(gains, gk)
		sum += gk
	}
	if len(indices) == 0 || sum <= 0 {
		return []int{t.nearest(v)}, []float64{1}
	}
	for i := range gains {
		gains[i] /= sum
	}

	return indices, gains
}

func (t *Table) nearest(v [3]float64) int {
	best := 0
	bestDot := math.Inf(-1)
	for i := 0; i < t.numReal; i++ {
		if d := dot3(t.vecs[i], v); d > bestDot {
			bestDot, best = d, i
		}
	}

	return best
}

// gains solves v = g0*va + g1*vb + g2*vc for the triangle's vertices.
func (tr *triangle) gains(v [3]float64) [3]float64 {
	var g [3]float64
	for j := 0; j < 3; j++ {
		g[j] = v[0]*tr.inv[0][j] + v[1]*tr.inv[1][j] + v[2]*tr.inv[2][j]
	}

	return g
}

func invert3(m [3][3]float64) ([3][3]float64, bool) {
	c00 := m[1][1]*m[2][2] - m[1][2]*m[2][1]
	c01 := m[1][2]*m[2][0] - m[1][0]*m[2][2]
	c02 := m[1][0]*m[2][1] - m[1][1]*m[2][0]

	det := m[0][0]*c00 + m[0][1]*c01 + m[0][2]*c02
	if math.Abs(det) < detEps {
		return [3][3]float64{}, false
	}

	inv := [3][3]float64{
		{c00, m[0][2]*m[2][1] - m[0][1]*m[2][2], m[0][1]*m[1][2] - m[0][2]*m[1][1]},
		{c01, m[0][0]*m[2][2] - m[0][2]*m[2][0], m[0][2]*m[1][0] - m[0][0]*m[1][2]},
		{c02, m[0][1]*m[2][0] - m[0][0]*m[2][1], m[0][0]*m[1][1] - m[0][1]*m[1][0]},
	}
	for i := range inv {
		for j := range inv[i] {
			inv[i][j] /= det
		}
	}

	return inv, true
}
