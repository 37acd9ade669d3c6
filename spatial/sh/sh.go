package sh

import (
	"fmt"
	"math"
)

// MaxOrder is the highest supported Ambisonic order.
const MaxOrder = 7

// MaxChannels is the channel count at MaxOrder.
const MaxChannels = (MaxOrder + 1) * (MaxOrder + 1)

// NumChannels returns the spherical-harmonic channel count (order+1)^2.
func NumChannels(order int) int {
	return (order + 1) * (order + 1)
}

// ValidateOrder returns an error when order is outside [0, MaxOrder].
func ValidateOrder(order int) error {
	if order < 0 || order > MaxOrder {
		return fmt.Errorf("sh: order must be in [0, %d]: %d", MaxOrder, order)
	}
	return nil
}

// Eval evaluates the real spherical harmonics up to the given order at one
// direction, returning (order+1)^2 coefficients in ACN order with N3D
// normalization.
func Eval(order int, aziDeg, elevDeg float64) ([]float64, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	out := make([]float64, NumChannels(order))
	evalInto(order, aziDeg, elevDeg, out)
	return out, nil
}

// EvalMatrix evaluates the harmonics at every direction, returning one row
// per spherical-harmonic channel and one column per direction. Directions
// are (azimuth, elevation) pairs in degrees.
func EvalMatrix(order int, dirs [][2]float64) ([][]float64, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	nsh := NumChannels(order)
	rows := make([][]float64, nsh)
	for i := range rows {
		rows[i] = make([]float64, len(dirs))
	}

	col := make([]float64, nsh)
	for j, d := range dirs {
		evalInto(order, d[0], d[1], col)
		for i := 0; i < nsh; i++ {
			rows[i][j] = col[i]
		}
	}
	return rows, nil
}

func evalInto(order int, aziDeg, elevDeg float64, dst []float64) {
	azi := radians(aziDeg)
	x := math.Sin(radians(elevDeg))
	cx := math.Sqrt(math.Max(0, 1-x*x))

	// Associated Legendre P_n^m(x) without the Condon-Shortley phase.
	var p [MaxOrder + 1][MaxOrder + 1]float64
	pmm := 1.0
	for m := 0; m <= order; m++ {
		p[m][m] = pmm
		if m < order {
			p[m+1][m] = x * float64(2*m+1) * pmm
		}
		for n := m + 2; n <= order; n++ {
			p[n][m] = (float64(2*n-1)*x*p[n-1][m] - float64(n+m-1)*p[n-2][m]) / float64(n-m)
		}
		pmm *= float64(2*m+1) * cx
	}

	for n := 0; n <= order; n++ {
		base := n*n + n
		dst[base] = math.Sqrt(float64(2*n+1)) * p[n][0]
		for m := 1; m <= n; m++ {
			norm := math.Sqrt(2 * float64(2*n+1) * factorial[n-m] / factorial[n+m])
			v := norm * p[n][m]
			dst[base+m] = v * math.Cos(float64(m)*azi)
			dst[base-m] = v * math.Sin(float64(m)*azi)
		}
	}
}

// SN3DToN3D returns the per-channel gains that convert SN3D-normalized
// material to N3D: sqrt(2n+1) for every channel of degree n.
func SN3DToN3D(order int) []float64 {
	out := make([]float64, NumChannels(order))
	for n := 0; n <= order; n++ {
		g := math.Sqrt(float64(2*n + 1))
		for m := -n; m <= n; m++ {
			out[n*n+n+m] = g
		}
	}
	return out
}

// MaxREWeights returns the per-degree MaxRE decode weights for the given
// order: the Legendre polynomial of each degree evaluated at the MaxRE
// cutoff angle cos(137.9deg/(order+1.51)). The caller is responsible for
// energy renormalization across the active channels.
func MaxREWeights(order int) []float64 {
	x := math.Cos(radians(137.9 / (float64(order) + 1.51)))

	out := make([]float64, order+1)
	prev, cur := 1.0, x
	out[0] = 1
	if order >= 1 {
		out[1] = x
	}
	for n := 2; n <= order; n++ {
		next := (float64(2*n-1)*x*cur - float64(n-1)*prev) / float64(n)
		out[n] = next
		prev, cur = cur, next
	}
	return out
}

// factorial holds 0! through 14!, all exactly representable in float64.
var factorial = func() [2*MaxOrder + 1]float64 {
	var f [2*MaxOrder + 1]float64
	f[0] = 1
	for i := 1; i < len(f); i++ {
		f[i] = f[i-1] * float64(i)
	}
	return f
}()
