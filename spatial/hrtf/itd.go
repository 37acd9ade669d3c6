package hrtf

import (
	"math"

	"github.com/cwbudde/algo-spatial/spatial/window"
)

const (
	// Interaural time differences dominate localisation below roughly
	// 1.5 kHz, so estimation runs on lowpassed responses.
	itdLowpassHz     = 1500.0
	itdLowpassTaps   = 49
	itdMaxLagSeconds = 0.001
)

// estimateITDs estimates the interaural time difference of every
// impulse response pair by cross-correlating the lowpassed ears and
// picking the peak lag. All pairs must share one length. Positive
// values mean the left ear leads.
func estimateITDs(irs [][NumEars][]float64, sampleRate int) []float64 {
	itds := make([]float64, len(irs))
	if len(irs) == 0 {
		return itds
	}

	kernel := lowpassKernel(itdLowpassHz, sampleRate, itdLowpassTaps)

	maxLag := int(itdMaxLagSeconds * float64(sampleRate))
	if n := len(irs[0][0]); maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		maxLag = 1
	}

	for i, pair := range irs {
		left := convolve(pair[0], kernel)
		right := convolve(pair[1], kernel)
		lag := peakLag(right, left, maxLag)
		itds[i] = float64(lag) / float64(sampleRate)
	}

	return itds
}

// lowpassKernel designs a Blackman-windowed sinc lowpass with unity
// gain at DC.
func lowpassKernel(cutoffHz float64, sampleRate, taps int) []float64 {
	nyquist := float64(sampleRate) / 2
	if cutoffHz > 0.9*nyquist {
		cutoffHz = 0.9 * nyquist
	}

	kernel := window.Generate(window.TypeBlackman, taps)
	half := float64(taps-1) / 2
	fc := cutoffHz / float64(sampleRate)

	sum := 0.0
	for i := range kernel {
		kernel[i] *= 2 * fc * sinc(2*fc*(float64(i)-half))
		sum += kernel[i]
	}
	if sum != 0 {
		for i := range kernel {
			kernel[i] /= sum
		}
	}

	return kernel
}

func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}

	return out
}

// peakLag returns the lag of the cross-correlation peak between a and
// b, bounded to [-maxLag, maxLag]. The lag is positive when features of
// a arrive later than the matching features of b.
func peakLag(a, b []float64, maxLag int) int {
	bestLag := 0
	bestValue := math.Inf(-1)

	for lag := -maxLag; lag <= maxLag; lag++ {
		sum := 0.0
		for n, bv := range b {
			m := n + lag
			if m < 0 || m >= len(a) {
				continue
			}
			sum += a[m] * bv
		}
		if sum > bestValue {
			bestValue = sum
			bestLag = lag
		}
	}

	return bestLag
}
