//go:build fastmath

package sh

import (
	"github.com/meko-christian/algo-approx"
)

// mathSqrt computes sqrt(x) using fast approximation. The rotation
// recurrence evaluates one sqrt per matrix entry per block, which makes it
// the dominant scalar cost at high orders.
func mathSqrt(x float64) float64 {
	return approx.FastSqrt(x)
}
