package binaural

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-spatial/spatial/core"
	"github.com/cwbudde/algo-spatial/spatial/hrtf"
	"github.com/cwbudde/algo-spatial/spatial/sh"
)

const (
	decodePostGainDB     = -9.0
	decodeRegularization = 1e-4
)

// buildDecodeMatrices fits one 2 x nSH ear-decode matrix per band to
// the dataset over its measurement grid by regularized least squares:
// D = H*Y' * inv(Y*Y' + ridge*I), with Y the N3D spherical-harmonic
// matrix at the dataset directions and H the complex ear responses
// evaluated at the given band center frequencies. The ridge is scaled
// to the trace of the normal equations. The result is flat (band, ear,
// channel) with the post gain and optional MaxRE weighting baked in.
func buildDecodeMatrices(ds *hrtf.Dataset, freqs []float64, order int, maxRE bool) ([]complex128, error) {
	y, err := sh.EvalMatrix(order, ds.Directions())
	if err != nil {
		return nil, err
	}
	nsh := len(y)
	numDirs := ds.NumDirections()

	gram := make([]float64, nsh*nsh)
	for i := 0; i < nsh; i++ {
		for j := i; j < nsh; j++ {
			var sum float64
			for d := 0; d < numDirs; d++ {
				sum += y[i][d] * y[j][d]
			}
			gram[i*nsh+j] = sum
			gram[j*nsh+i] = sum
		}
	}

	var trace float64
	for i := 0; i < nsh; i++ {
		trace += gram[i*nsh+i]
	}
	ridge := decodeRegularization * trace / float64(nsh)
	if ridge <= 0 {
		ridge = decodeRegularization
	}
	for i := 0; i < nsh; i++ {
		gram[i*nsh+i] += ridge
	}

	if err := choleskyDecompose(gram, nsh); err != nil {
		return nil, err
	}

	responses := hrtf.BandResponses(ds, freqs)
	weights := decodeWeights(order, maxRE)

	bands := len(freqs)
	out := make([]complex128, bands*NumEars*nsh)
	rhs := make([]complex128, nsh)
	for band := 0; band < bands; band++ {
		for ear := 0; ear < NumEars; ear++ {
			for j := 0; j < nsh; j++ {
				var re, im float64
				for d := 0; d < numDirs; d++ {
					h := responses[d][ear][band]
					re += real(h) * y[j][d]
					im += imag(h) * y[j][d]
				}
				rhs[j] = complex(re, im)
			}
			choleskySolve(gram, nsh, rhs)
			row := out[(band*NumEars+ear)*nsh:][:nsh]
			for j := 0; j < nsh; j++ {
				row[j] = rhs[j] * complex(weights[j], 0)
			}
		}
	}
	return out, nil
}

// decodeWeights returns the per-channel gain applied to the decode
// rows: the post gain, times the energy-normalized MaxRE taper when
// enabled.
func decodeWeights(order int, maxRE bool) []float64 {
	nsh := sh.NumChannels(order)
	gain := core.DBToLinear(decodePostGainDB)
	weights := make([]float64, nsh)
	for i := range weights {
		weights[i] = gain
	}
	if !maxRE {
		return weights
	}

	perDegree := sh.MaxREWeights(order)
	var energy float64
	ch := 0
	for n := 0; n <= order; n++ {
		for m := -n; m <= n; m++ {
			weights[ch] *= perDegree[n]
			energy += perDegree[n] * perDegree[n]
			ch++
		}
	}
	norm := math.Sqrt(float64(nsh) / energy)
	for i := range weights {
		weights[i] *= norm
	}
	return weights
}

// choleskyDecompose factors a symmetric positive definite matrix into
// its lower-triangular Cholesky factor in place. Only the lower
// triangle of the result is meaningful.
func choleskyDecompose(a []float64, n int) error {
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i*n+j]
			for k := 0; k < j; k++ {
				sum -= a[i*n+k] * a[j*n+k]
			}
			if i == j {
				if sum <= 0 {
					return errors.New("binaural: decode normal equations are not positive definite")
				}
				a[i*n+i] = math.Sqrt(sum)
			} else {
				a[i*n+j] = sum / a[j*n+j]
			}
		}
	}
	return nil
}

// choleskySolve solves L*L'*x = b in place for a complex right-hand
// side, with l holding the factor from choleskyDecompose.
func choleskySolve(l []float64, n int, b []complex128) {
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= complex(l[i*n+k], 0) * b[k]
		}
		b[i] = sum / complex(l[i*n+i], 0)
	}
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for k := i + 1; k < n; k++ {
			sum -= complex(l[k*n+i], 0) * b[k]
		}
		b[i] = sum / complex(l[i*n+i], 0)
	}
}
