package hrtf

import (
	"math"

	"github.com/cwbudde/algo-spatial/spatial/core"
)

// Spherical-head model parameters for the built-in dataset.
const (
	defaultHeadRadius    = 0.0875 // metres
	defaultSpeedOfSound  = 343.0  // metres per second
	defaultGridStep      = 15     // degrees
	defaultReferenceRate = 48000
	defaultIRLength      = 128 // samples at the reference rate
	minDefaultIRLength   = 64
	maxDefaultIRLength   = 512

	// Shadowing of the far ear: broadband level tilt plus a one-pole
	// lowpass that closes as the source moves behind the head.
	ildBase     = 0.95
	ildDepth    = 0.05
	shadowDepth = 0.45

	sincHalfWidth = 16
)

// Default returns a synthetic spherical-head dataset sampled on a
// 15 degree grid with both poles. Interaural time differences follow
// the Woodworth formula and the far ear is attenuated and lowpassed to
// approximate head shadowing. A non-positive sample rate falls back to
// 48 kHz.
func Default(sampleRate int) *Dataset {
	if sampleRate <= 0 {
		sampleRate = defaultReferenceRate
	}

	irLength := defaultIRLength * sampleRate / defaultReferenceRate
	if irLength < minDefaultIRLength {
		irLength = minDefaultIRLength
	}
	if irLength > maxDefaultIRLength {
		irLength = maxDefaultIRLength
	}

	dirs := defaultGrid()
	ds := &Dataset{
		dirs:       dirs,
		irs:        make([][NumEars][]float64, len(dirs)),
		itds:       make([]float64, len(dirs)),
		irLength:   irLength,
		sampleRate: sampleRate,
	}

	base := float64(irLength) / 4
	for i, dir := range dirs {
		lateral := lateralSine(dir[0], dir[1])
		itd := woodworthITD(lateral)
		shift := itd * float64(sampleRate) / 2

		left := make([]float64, irLength)
		right := make([]float64, irLength)
		synthesizeEar(left, base-shift, lateral)
		synthesizeEar(right, base+shift, -lateral)

		ds.irs[i] = [NumEars][]float64{left, right}
		ds.itds[i] = itd
	}

	return ds
}

// defaultGrid returns the measurement grid: rings every 15 degrees from
// -75 to 75 degrees elevation plus both poles.
func defaultGrid() [][2]float64 {
	dirs := make([][2]float64, 0, 24*11+2)
	for elev := -75; elev <= 75; elev += defaultGridStep {
		for azi := -165; azi <= 180; azi += defaultGridStep {
			dirs = append(dirs, [2]float64{float64(azi), float64(elev)})
		}
	}
	dirs = append(dirs, [2]float64{0, -90}, [2]float64{0, 90})

	return dirs
}

// lateralSine returns the sine of the lateral angle of a direction,
// positive toward the left ear.
func lateralSine(azimuthDeg, elevationDeg float64) float64 {
	azi := azimuthDeg * math.Pi / 180
	elev := elevationDeg * math.Pi / 180

	return math.Cos(elev) * math.Sin(azi)
}

// woodworthITD returns the interaural time difference in seconds for a
// given lateral sine using the Woodworth spherical-head formula.
func woodworthITD(lateral float64) float64 {
	angle := math.Asin(core.Clamp(lateral, -1, 1))

	return defaultHeadRadius / defaultSpeedOfSound * (angle + math.Sin(angle))
}

// synthesizeEar writes a fractionally delayed pulse into dst and applies
// the shadow model. dot is the sine of the lateral angle toward this
// ear; negative values put the ear on the far side of the head.
func synthesizeEar(dst []float64, delay, dot float64) {
	writeFractionalImpulse(dst, delay)

	if dot < 0 {
		a := 1 + shadowDepth*dot
		prev := 0.0
		for i, v := range dst {
			prev = a*v + (1-a)*prev
			dst[i] = prev
		}
	}

	gain := ildBase + ildDepth*dot
	for i := range dst {
		dst[i] *= gain
	}
}

// writeFractionalImpulse writes a Blackman-windowed sinc pulse centered
// on the possibly fractional sample position delay.
func writeFractionalImpulse(dst []float64, delay float64) {
	center := int(math.Round(delay))
	for n := center - sincHalfWidth; n <= center+sincHalfWidth; n++ {
		if n < 0 || n >= len(dst) {
			continue
		}
		x := float64(n) - delay
		dst[n] = sinc(x) * blackmanValue(x/sincHalfWidth)
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x

	return math.Sin(px) / px
}

// blackmanValue evaluates the continuous Blackman window on [-1, 1].
func blackmanValue(x float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}

	return 0.42 + 0.5*math.Cos(math.Pi*x) + 0.08*math.Cos(2*math.Pi*x)
}
