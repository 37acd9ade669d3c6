package hrtf

import (
	"math"

	"github.com/cwbudde/algo-spatial/spatial/core"
	"github.com/cwbudde/algo-vecmath"
)

// BandResponses evaluates every impulse response at the given
// frequencies in Hz, returning one complex response per direction, ear
// and frequency. Frequencies beyond the dataset Nyquist are evaluated
// at the Nyquist frequency instead.
func BandResponses(ds *Dataset, freqs []float64) [][NumEars][]complex128 {
	rate := float64(ds.SampleRate())
	nyquist := rate / 2

	out := make([][NumEars][]complex128, ds.NumDirections())
	for i := range out {
		left, right := ds.IR(i)
		ears := [NumEars][]complex128{
			make([]complex128, len(freqs)),
			make([]complex128, len(freqs)),
		}
		for band, freq := range freqs {
			omega := 2 * math.Pi * core.Clamp(freq, 0, nyquist) / rate
			ears[0][band] = evalAt(left, omega)
			ears[1][band] = evalAt(right, omega)
		}
		out[i] = ears
	}

	return out
}

// BandMagnitudes returns the magnitude of every band response, in the
// same direction by ear by frequency layout.
func BandMagnitudes(responses [][NumEars][]complex128) [][NumEars][]float64 {
	out := make([][NumEars][]float64, len(responses))

	var re, im []float64
	for i, ears := range responses {
		for ear, bands := range ears {
			re = core.EnsureLen(re, len(bands))
			im = core.EnsureLen(im, len(bands))
			for k, c := range bands {
				re[k] = real(c)
				im[k] = imag(c)
			}

			mags := make([]float64, len(bands))
			vecmath.Magnitude(mags, re, im)
			out[i][ear] = mags
		}
	}

	return out
}

// evalAt evaluates the transfer function of an impulse response at one
// normalized angular frequency.
func evalAt(ir []float64, omega float64) complex128 {
	step := complex(math.Cos(omega), -math.Sin(omega))
	phase := complex(1, 0)

	sum := complex(0, 0)
	for _, v := range ir {
		sum += complex(v, 0) * phase
		phase *= step
	}

	return sum
}
