package hrtf

import (
	"math"
	"math/cmplx"
	"testing"
)

func responseTestSet(t *testing.T, left, right []float64, sampleRate int) *Dataset {
	t.Helper()

	ds, err := FromMeasurements(
		[][2]float64{{0, 0}},
		[][NumEars][]float64{{left, right}},
		sampleRate,
	)
	if err != nil {
		t.Fatalf("FromMeasurements() error = %v", err)
	}
	return ds
}

func TestBandResponses_ImpulseIsFlat(t *testing.T) {
	left := make([]float64, 32)
	right := make([]float64, 32)
	left[0] = 1
	right[0] = 0.5
	ds := responseTestSet(t, left, right, 48000)

	freqs := []float64{0, 187.5, 1000, 8000, 24000}
	resp := BandResponses(ds, freqs)

	for band := range freqs {
		if diff := cmplx.Abs(resp[0][0][band] - 1); diff > 1e-12 {
			t.Fatalf("left response at band %d = %v, want 1", band, resp[0][0][band])
		}
		if diff := cmplx.Abs(resp[0][1][band] - 0.5); diff > 1e-12 {
			t.Fatalf("right response at band %d = %v, want 0.5", band, resp[0][1][band])
		}
	}
}

func TestBandResponses_DelayIsLinearPhase(t *testing.T) {
	const delay = 5
	left := make([]float64, 32)
	left[delay] = 1
	ds := responseTestSet(t, left, left, 48000)

	freqs := []float64{0, 1000, 3000, 12000}
	resp := BandResponses(ds, freqs)

	for band, freq := range freqs {
		omega := 2 * math.Pi * freq / 48000
		want := cmplx.Exp(complex(0, -omega*delay))
		if diff := cmplx.Abs(resp[0][0][band] - want); diff > 1e-9 {
			t.Fatalf("response at %v Hz = %v, want %v", freq, resp[0][0][band], want)
		}
	}
}

func TestBandResponses_ClampsAboveNyquist(t *testing.T) {
	left := make([]float64, 16)
	left[3] = 1
	ds := responseTestSet(t, left, left, 8000)

	resp := BandResponses(ds, []float64{4000, 12000, 24000})

	for band := 1; band < 3; band++ {
		if resp[0][0][band] != resp[0][0][0] {
			t.Fatalf("band %d above Nyquist = %v, want clamp to %v", band, resp[0][0][band], resp[0][0][0])
		}
	}
}

func TestBandMagnitudes_MatchesAbs(t *testing.T) {
	left := []float64{0.3, -0.8, 0.25, 0.1, -0.05, 0, 0.4, -0.2}
	right := []float64{-0.1, 0.6, -0.35, 0.2, 0.15, -0.4, 0, 0.05}
	ds := responseTestSet(t, left, right, 48000)

	freqs := []float64{0, 500, 2000, 6000, 19000}
	resp := BandResponses(ds, freqs)
	mags := BandMagnitudes(resp)

	for ear := 0; ear < NumEars; ear++ {
		for band := range freqs {
			want := cmplx.Abs(resp[0][ear][band])
			if diff := math.Abs(mags[0][ear][band] - want); diff > 1e-12 {
				t.Fatalf("magnitude ear %d band %d = %v, want %v", ear, band, mags[0][ear][band], want)
			}
		}
	}
}
