package sh

import (
	"math"

	"github.com/cwbudde/algo-spatial/spatial/core"
)

// DirectionVector returns the unit vector for an azimuth/elevation pair in
// degrees.
func DirectionVector(aziDeg, elevDeg float64) [3]float64 {
	sa, ca := math.Sincos(radians(aziDeg))
	se, ce := math.Sincos(radians(elevDeg))
	return [3]float64{ce * ca, ce * sa, se}
}

// VectorDirection returns the azimuth/elevation in degrees for a vector.
// The vector does not need to be normalized; a zero vector maps to (0, 0).
func VectorDirection(v [3]float64) (aziDeg, elevDeg float64) {
	azi := math.Atan2(v[1], v[0])
	elev := math.Atan2(v[2], math.Hypot(v[0], v[1]))
	return degrees(azi), degrees(elev)
}

// WrapAzimuth wraps an azimuth in degrees to (-180, 180].
func WrapAzimuth(aziDeg float64) float64 {
	for aziDeg > 180 {
		aziDeg -= 360
	}
	for aziDeg <= -180 {
		aziDeg += 360
	}
	return aziDeg
}

// ClampElevation clamps an elevation in degrees to [-90, 90].
func ClampElevation(elevDeg float64) float64 {
	return core.Clamp(elevDeg, -90, 90)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
