package hrtf

import (
	"math"
	"testing"
)

func TestFromMeasurements_Validation(t *testing.T) {
	impulse := func(length, pos int) []float64 {
		ir := make([]float64, length)
		ir[pos] = 1
		return ir
	}

	tests := []struct {
		name       string
		dirs       [][2]float64
		irs        [][NumEars][]float64
		sampleRate int
	}{
		{
			name:       "empty direction set",
			dirs:       nil,
			irs:        nil,
			sampleRate: 48000,
		},
		{
			name:       "count mismatch",
			dirs:       [][2]float64{{0, 0}, {90, 0}},
			irs:        [][NumEars][]float64{{impulse(8, 0), impulse(8, 0)}},
			sampleRate: 48000,
		},
		{
			name:       "zero sample rate",
			dirs:       [][2]float64{{0, 0}},
			irs:        [][NumEars][]float64{{impulse(8, 0), impulse(8, 0)}},
			sampleRate: 0,
		},
		{
			name:       "empty impulse response",
			dirs:       [][2]float64{{0, 0}},
			irs:        [][NumEars][]float64{{impulse(8, 0), nil}},
			sampleRate: 48000,
		},
		{
			name:       "non-finite direction",
			dirs:       [][2]float64{{math.NaN(), 0}},
			irs:        [][NumEars][]float64{{impulse(8, 0), impulse(8, 0)}},
			sampleRate: 48000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromMeasurements(tt.dirs, tt.irs, tt.sampleRate); err == nil {
				t.Fatal("FromMeasurements() error = nil, want error")
			}
		})
	}
}

func TestFromMeasurements_PadsToLongestResponse(t *testing.T) {
	dirs := [][2]float64{{30, 0}, {-30, 0}}
	irs := [][NumEars][]float64{
		{{0, 1, 0, 0}, {0, 0, 1, 0}},
		{{0, 0, 1, 0, 0, 0, 0, 0}, {0, 1, 0, 0, 0, 0, 0, 0}},
	}

	ds, err := FromMeasurements(dirs, irs, 48000)
	if err != nil {
		t.Fatalf("FromMeasurements() error = %v", err)
	}

	if got, want := ds.IRLength(), 8; got != want {
		t.Fatalf("IRLength() = %d, want %d", got, want)
	}
	left, right := ds.IR(0)
	if len(left) != 8 || len(right) != 8 {
		t.Fatalf("IR(0) lengths = %d, %d, want 8, 8", len(left), len(right))
	}
	for i := 4; i < 8; i++ {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("IR(0) padding at %d = %v, %v, want zeros", i, left[i], right[i])
		}
	}
}

func TestFromMeasurements_CopiesInputs(t *testing.T) {
	dirs := [][2]float64{{45, 10}}
	ir := []float64{0, 1, 0, 0}
	irs := [][NumEars][]float64{{ir, append([]float64(nil), ir...)}}

	ds, err := FromMeasurements(dirs, irs, 44100)
	if err != nil {
		t.Fatalf("FromMeasurements() error = %v", err)
	}

	dirs[0][0] = -999
	ir[1] = -999

	if azi, _ := ds.Direction(0); azi != 45 {
		t.Fatalf("Direction(0) azimuth = %v after caller mutation, want 45", azi)
	}
	left, _ := ds.IR(0)
	if left[1] != 1 {
		t.Fatalf("IR(0) left[1] = %v after caller mutation, want 1", left[1])
	}
}

func TestDataset_Accessors(t *testing.T) {
	dirs := [][2]float64{{0, 0}, {90, 45}}
	irs := [][NumEars][]float64{
		{{1, 0}, {1, 0}},
		{{0, 1}, {0, 1}},
	}

	ds, err := FromMeasurements(dirs, irs, 96000)
	if err != nil {
		t.Fatalf("FromMeasurements() error = %v", err)
	}

	if got := ds.NumDirections(); got != 2 {
		t.Fatalf("NumDirections() = %d, want 2", got)
	}
	if got := ds.SampleRate(); got != 96000 {
		t.Fatalf("SampleRate() = %d, want 96000", got)
	}
	if got := ds.Path(); got != "" {
		t.Fatalf("Path() = %q, want empty", got)
	}
	if azi, elev := ds.Direction(1); azi != 90 || elev != 45 {
		t.Fatalf("Direction(1) = %v, %v, want 90, 45", azi, elev)
	}

	got := ds.Directions()
	got[0][0] = -999
	if azi, _ := ds.Direction(0); azi != 0 {
		t.Fatalf("Direction(0) azimuth = %v after mutating Directions() copy, want 0", azi)
	}
}
