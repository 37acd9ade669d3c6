package vbap

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/spatial/sh"
)

func octahedronDirs() [][2]float64 {
	return [][2]float64{
		{0, 0}, {90, 0}, {180, 0}, {-90, 0}, {0, 90}, {0, -90},
	}
}

func gridDirs() [][2]float64 {
	dirs := make([][2]float64, 0, 24*11+2)
	for elev := -75; elev <= 75; elev += 15 {
		for azi := -165; azi <= 180; azi += 15 {
			dirs = append(dirs, [2]float64{float64(azi), float64(elev)})
		}
	}
	dirs = append(dirs, [2]float64{0, -90}, [2]float64{0, 90})
	return dirs
}

func TestNewTable_Validation(t *testing.T) {
	if _, err := NewTable(nil, ModeNearest); !errors.Is(err, ErrTooFewDirections) {
		t.Fatalf("NewTable(empty, nearest) error = %v, want ErrTooFewDirections", err)
	}
	if _, err := NewTable([][2]float64{{0, 0}, {90, 0}, {-90, 0}}, ModeTriangular); !errors.Is(err, ErrTooFewDirections) {
		t.Fatalf("NewTable(3 dirs, triangular) error = %v, want ErrTooFewDirections", err)
	}

	repeated := [][2]float64{{10, 0}, {-170, 0}, {10, 0}, {-170, 0}, {10, 0}}
	if _, err := NewTable(repeated, ModeTriangular); !errors.Is(err, ErrDegenerate) {
		t.Fatalf("NewTable(collinear, triangular) error = %v, want ErrDegenerate", err)
	}

	if _, err := NewTable(octahedronDirs(), Mode(99)); err == nil {
		t.Fatal("NewTable(unknown mode) error = nil, want error")
	}
}

func TestTable_NearestSnapsToClosest(t *testing.T) {
	table, err := NewTable(octahedronDirs(), ModeNearest)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	tests := []struct {
		azi, elev float64
		want      int
	}{
		{azi: 5, elev: -3, want: 0},
		{azi: 80, elev: 10, want: 1},
		{azi: 175, elev: 0, want: 2},
		{azi: -100, elev: 20, want: 3},
		{azi: 30, elev: 80, want: 4},
		{azi: -120, elev: -75, want: 5},
	}
	for _, tt := range tests {
		indices, gains := table.Weights(tt.azi, tt.elev)
		if len(indices) != 1 || len(gains) != 1 {
			t.Fatalf("Weights(%v, %v) sizes = %d, %d, want 1, 1", tt.azi, tt.elev, len(indices), len(gains))
		}
		if indices[0] != tt.want {
			t.Fatalf("Weights(%v, %v) index = %d, want %d", tt.azi, tt.elev, indices[0], tt.want)
		}
		if gains[0] != 1 {
			t.Fatalf("Weights(%v, %v) gain = %v, want 1", tt.azi, tt.elev, gains[0])
		}
	}
}

func TestTable_TriangularOctahedron(t *testing.T) {
	table, err := NewTable(octahedronDirs(), ModeTriangular)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	if got := table.NumTriangles(); got != 8 {
		t.Fatalf("NumTriangles() = %d, want 8", got)
	}

	// A query at a vertex collapses to that vertex.
	indices, gains := table.Weights(90, 0)
	if len(indices) != 1 || indices[0] != 1 {
		t.Fatalf("Weights(90, 0) = %v %v, want the side vertex alone", indices, gains)
	}
	if math.Abs(gains[0]-1) > 1e-12 {
		t.Fatalf("Weights(90, 0) gain = %v, want 1", gains[0])
	}

	// The octant center blends its three corners evenly.
	elev := math.Atan(1/math.Sqrt2) * 180 / math.Pi
	indices, gains = table.Weights(45, elev)
	if len(indices) != 3 {
		t.Fatalf("Weights(45, %v) indices = %v, want 3 entries", elev, indices)
	}
	for i, g := range gains {
		if math.Abs(g-1.0/3) > 1e-9 {
			t.Fatalf("Weights(45, %v) gain %d = %v, want 1/3", elev, i, g)
		}
	}
}

func TestTable_TriangularGridProperties(t *testing.T) {
	dirs := gridDirs()
	table, err := NewTable(dirs, ModeTriangular)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	if got, want := table.NumTriangles(), 2*len(dirs)-4; got != want {
		t.Fatalf("NumTriangles() = %d, want %d", got, want)
	}

	for elev := -88; elev <= 88; elev += 11 {
		for azi := -180; azi < 180; azi += 17 {
			v := sh.DirectionVector(float64(azi), float64(elev))
			indices, gains := table.Weights(float64(azi), float64(elev))

			if len(indices) == 0 || len(indices) > 3 || len(indices) != len(gains) {
				t.Fatalf("Weights(%d, %d) sizes = %d, %d", azi, elev, len(indices), len(gains))
			}

			sum := 0.0
			var blended [3]float64
			for k, idx := range indices {
				if idx < 0 || idx >= table.NumDirections() {
					t.Fatalf("Weights(%d, %d) index %d out of range", azi, elev, idx)
				}
				if gains[k] <= 0 {
					t.Fatalf("Weights(%d, %d) gain %v not positive", azi, elev, gains[k])
				}
				sum += gains[k]

				sel := sh.DirectionVector(dirs[idx][0], dirs[idx][1])
				if dot3(sel, v) < math.Cos(30*math.Pi/180) {
					t.Fatalf("Weights(%d, %d) uses far direction %v", azi, elev, dirs[idx])
				}
				for x := 0; x < 3; x++ {
					blended[x] += gains[k] * sel[x]
				}
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("Weights(%d, %d) gains sum to %v, want 1", azi, elev, sum)
			}

			norm := math.Sqrt(dot3(blended, blended))
			if norm == 0 || dot3(blended, v)/norm < 1-1e-9 {
				t.Fatalf("Weights(%d, %d) blend points away from the query", azi, elev)
			}
		}
	}
}

func TestTable_PartialGridUsesDummyPole(t *testing.T) {
	var dirs [][2]float64
	for elev := 0; elev <= 75; elev += 15 {
		for azi := -165; azi <= 180; azi += 15 {
			dirs = append(dirs, [2]float64{float64(azi), float64(elev)})
		}
	}
	dirs = append(dirs, [2]float64{0, 90})

	table, err := NewTable(dirs, ModeTriangular)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	// One dummy nadir closes the hull below the horizon.
	if got, want := table.NumTriangles(), 2*(len(dirs)+1)-4; got != want {
		t.Fatalf("NumTriangles() = %d, want %d", got, want)
	}

	// Below the horizon only horizon measurements contribute.
	indices, gains := table.Weights(10, -40)
	sum := 0.0
	for k, idx := range indices {
		if idx >= table.NumDirections() {
			t.Fatalf("Weights(10, -40) leaked dummy index %d", idx)
		}
		if dirs[idx][1] != 0 {
			t.Fatalf("Weights(10, -40) uses direction %v, want horizon ring", dirs[idx])
		}
		sum += gains[k]
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("Weights(10, -40) gains sum to %v, want 1", sum)
	}

	// The nadir itself snaps to the nearest real measurement.
	indices, gains = table.Weights(0, -90)
	if len(indices) != 1 || gains[0] != 1 {
		t.Fatalf("Weights(0, -90) = %v %v, want one full-weight entry", indices, gains)
	}
	if dirs[indices[0]][1] != 0 {
		t.Fatalf("Weights(0, -90) snapped to %v, want a horizon direction", dirs[indices[0]])
	}
}

func TestTable_Accessors(t *testing.T) {
	table, err := NewTable(octahedronDirs(), ModeNearest)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	if got := table.Mode(); got != ModeNearest {
		t.Fatalf("Mode() = %v, want %v", got, ModeNearest)
	}
	if got := table.NumDirections(); got != 6 {
		t.Fatalf("NumDirections() = %d, want 6", got)
	}
	if got := table.NumTriangles(); got != 0 {
		t.Fatalf("NumTriangles() = %d, want 0 in nearest mode", got)
	}
	if got := ModeTriangular.String(); got != "triangular" {
		t.Fatalf("String() = %q, want %q", got, "triangular")
	}
}

func BenchmarkTable_Weights(b *testing.B) {
	table, err := NewTable(gridDirs(), ModeTriangular)
	if err != nil {
		b.Fatalf("NewTable() error = %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		azi := float64(i%360) - 180
		elev := float64(i%160)/2 - 40
		table.Weights(azi, elev)
	}
}
