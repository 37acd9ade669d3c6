package sh

import "math"

// RotationOrder selects how yaw, pitch and roll compose into one rotation.
type RotationOrder int

const (
	// YawPitchRoll applies yaw about +z first, then pitch about +y, then
	// roll about +x.
	YawPitchRoll RotationOrder = iota
	// RollPitchYaw applies the axes in the opposite sequence.
	RollPitchYaw
)

// RotationZYX builds the 3x3 rotation for a yaw/pitch/roll triple in
// degrees, column-vector convention v' = R*v.
func RotationZYX(yawDeg, pitchDeg, rollDeg float64, order RotationOrder) [3][3]float64 {
	sy, cy := math.Sincos(radians(yawDeg))
	sp, cp := math.Sincos(radians(pitchDeg))
	sr, cr := math.Sincos(radians(rollDeg))

	rz := [3][3]float64{{cy, -sy, 0}, {sy, cy, 0}, {0, 0, 1}}
	ry := [3][3]float64{{cp, 0, sp}, {0, 1, 0}, {-sp, 0, cp}}
	rx := [3][3]float64{{1, 0, 0}, {0, cr, -sr}, {0, sr, cr}}

	if order == RollPitchYaw {
		return mul3(rz, mul3(ry, rx))
	}
	return mul3(rx, mul3(ry, rz))
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return out
}

// Rotator computes real spherical-harmonic rotation matrices of a fixed
// order without per-call allocation. It is not safe for concurrent use.
type Rotator struct {
	order int
	nsh   int
	bands [][]float64
	full  []float64
}

// NewRotator returns a Rotator for the given order.
func NewRotator(order int) (*Rotator, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	r := &Rotator{
		order: order,
		nsh:   NumChannels(order),
		bands: make([][]float64, order+1),
	}
	for l := 0; l <= order; l++ {
		side := 2*l + 1
		r.bands[l] = make([]float64, side*side)
	}
	r.full = make([]float64, r.nsh*r.nsh)
	return r, nil
}

// Order returns the rotator's spherical-harmonic order.
func (r *Rotator) Order() int { return r.order }

// Size returns the side length of the produced matrix.
func (r *Rotator) Size() int { return r.nsh }

// Matrix returns the nsh*nsh row-major rotation matrix for the given 3x3
// rotation. Applying it to ACN/N3D coefficients rotates the encoded sound
// field: a plane wave from direction d moves to R*d. The returned slice is
// reused by the next call.
func (r *Rotator) Matrix(r3 [3][3]float64) []float64 {
	r.bands[0][0] = 1

	if r.order >= 1 {
		// Degree 1 is the 3x3 rotation permuted into the (y, z, x) basis
		// of the first-degree harmonics.
		b := r.bands[1]
		b[0], b[1], b[2] = r3[1][1], r3[1][2], r3[1][0]
		b[3], b[4], b[5] = r3[2][1], r3[2][2], r3[2][0]
		b[6], b[7], b[8] = r3[0][1], r3[0][2], r3[0][0]
	}

	for l := 2; l <= r.order; l++ {
		r.computeBand(l)
	}

	for l := 0; l <= r.order; l++ {
		side := 2*l + 1
		base := l * l
		for i := 0; i < side; i++ {
			row := r.full[(base+i)*r.nsh+base:]
			copy(row[:side], r.bands[l][i*side:(i+1)*side])
		}
	}
	return r.full
}

// computeBand fills degree l from degree l-1 and the degree-1 band using
// the Ivanic-Ruedenberg recurrence.
func (r *Rotator) computeBand(l int) {
	r1 := r.bands[1]
	prev := r.bands[l-1]
	cur := r.bands[l]
	side := 2*l + 1
	psz := side - 2

	g1 := func(i, j int) float64 { return r1[(i+1)*3+(j+1)] }
	gp := func(a, b int) float64 { return prev[(a+l-1)*psz+(b+l-1)] }

	p := func(i, a, b int) float64 {
		switch b {
		case l:
			return g1(i, 1)*gp(a, l-1) - g1(i, -1)*gp(a, 1-l)
		case -l:
			return g1(i, 1)*gp(a, 1-l) + g1(i, -1)*gp(a, l-1)
		default:
			return g1(i, 0) * gp(a, b)
		}
	}

	for m := -l; m <= l; m++ {
		absM := m
		if absM < 0 {
			absM = -absM
		}
		d := 0.0
		if m == 0 {
			d = 1
		}

		for n := -l; n <= l; n++ {
			denom := float64((l - n) * (l + n))
			if n == l || n == -l {
				denom = float64(2 * l * (2*l - 1))
			}

			u := mathSqrt(float64((l+m)*(l-m)) / denom)
			v := 0.5 * mathSqrt((1+d)*float64((l+absM-1)*(l+absM))/denom) * (1 - 2*d)
			w := -0.5 * mathSqrt(float64((l-absM-1)*(l-absM))/denom) * (1 - d)

			sum := 0.0
			if u != 0 {
				sum += u * p(0, m, n)
			}
			if v != 0 {
				switch {
				case m == 0:
					sum += v * (p(1, 1, n) + p(-1, -1, n))
				case m > 0:
					s2, o2 := 1.0, 1.0
					if m == 1 {
						s2, o2 = math.Sqrt2, 0
					}
					sum += v * (p(1, m-1, n)*s2 - p(-1, 1-m, n)*o2)
				default:
					s2, o2 := 1.0, 1.0
					if m == -1 {
						s2, o2 = math.Sqrt2, 0
					}
					sum += v * (p(1, m+1, n)*o2 + p(-1, -m-1, n)*s2)
				}
			}
			if w != 0 {
				if m > 0 {
					sum += w * (p(1, m+1, n) + p(-1, -m-1, n))
				} else {
					sum += w * (p(1, m-1, n) - p(-1, 1-m, n))
				}
			}

			cur[(m+l)*side+(n+l)] = sum
		}
	}
}
