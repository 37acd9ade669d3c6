package hrtf

import (
	"math"
	"testing"
)

func TestEstimateITDs_RecoversKnownLag(t *testing.T) {
	const rate = 48000

	pulse := func(length, pos int) []float64 {
		ir := make([]float64, length)
		writeFractionalImpulse(ir, float64(pos))
		return ir
	}

	tests := []struct {
		name     string
		leftPos  int
		rightPos int
		wantLag  int
	}{
		{name: "left leads", leftPos: 40, rightPos: 52, wantLag: 12},
		{name: "right leads", leftPos: 52, rightPos: 40, wantLag: -12},
		{name: "coincident", leftPos: 48, rightPos: 48, wantLag: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			irs := [][NumEars][]float64{
				{pulse(128, tt.leftPos), pulse(128, tt.rightPos)},
			}

			got := estimateITDs(irs, rate)
			want := float64(tt.wantLag) / rate
			if diff := math.Abs(got[0] - want); diff > 0.5/rate {
				t.Fatalf("estimateITDs() = %v, want %v", got[0], want)
			}
		})
	}
}

func TestPeakLag_Direction(t *testing.T) {
	a := make([]float64, 32)
	b := make([]float64, 32)
	a[20] = 1
	b[14] = 1

	// a arrives 6 samples after b.
	if got := peakLag(a, b, 10); got != 6 {
		t.Fatalf("peakLag(a, b) = %d, want 6", got)
	}
	if got := peakLag(b, a, 10); got != -6 {
		t.Fatalf("peakLag(b, a) = %d, want -6", got)
	}
}

func TestPeakLag_RespectsBound(t *testing.T) {
	a := make([]float64, 64)
	b := make([]float64, 64)
	a[40] = 1
	b[10] = 1

	got := peakLag(a, b, 8)
	if got < -8 || got > 8 {
		t.Fatalf("peakLag() = %d, want within [-8, 8]", got)
	}
}

func TestLowpassKernel_UnityDCGain(t *testing.T) {
	kernel := lowpassKernel(itdLowpassHz, 48000, itdLowpassTaps)

	if len(kernel) != itdLowpassTaps {
		t.Fatalf("kernel length = %d, want %d", len(kernel), itdLowpassTaps)
	}

	sum := 0.0
	for _, v := range kernel {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("kernel DC gain = %v, want 1", sum)
	}

	// Symmetric design, zero phase up to the group delay.
	for i := 0; i < len(kernel)/2; i++ {
		if math.Abs(kernel[i]-kernel[len(kernel)-1-i]) > 1e-12 {
			t.Fatalf("kernel asymmetric at tap %d", i)
		}
	}
}

func TestLowpassKernel_AttenuatesHighFrequencies(t *testing.T) {
	const rate = 48000
	kernel := lowpassKernel(itdLowpassHz, rate, itdLowpassTaps)

	gainAt := func(freq float64) float64 {
		omega := 2 * math.Pi * freq / rate
		re, im := 0.0, 0.0
		for n, v := range kernel {
			re += v * math.Cos(omega*float64(n))
			im -= v * math.Sin(omega*float64(n))
		}
		return math.Hypot(re, im)
	}

	if low := gainAt(500); low < 0.9 {
		t.Fatalf("gain at 500 Hz = %v, want above 0.9", low)
	}
	if high := gainAt(8000); high > 0.1 {
		t.Fatalf("gain at 8 kHz = %v, want below 0.1", high)
	}
}
