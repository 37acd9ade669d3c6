package hrtf

import (
	"fmt"
	"math"
)

// NumEars is the number of output channels a dataset describes.
const NumEars = 2

// Dataset is an immutable set of head-related impulse responses.
//
// Every direction carries one impulse response per ear, all padded to a
// common length, plus the interaural time difference of the pair.
type Dataset struct {
	dirs       [][2]float64
	irs        [][NumEars][]float64
	itds       []float64
	irLength   int
	sampleRate int
	path       string
}

// FromMeasurements builds a dataset from measured impulse responses.
// dirs[i] holds {azimuth, elevation} in degrees for irs[i], whose two
// slices are the left and right ear responses. Responses shorter than
// the longest one are zero-padded, and interaural time differences are
// estimated from the responses by cross-correlation.
func FromMeasurements(dirs [][2]float64, irs [][NumEars][]float64, sampleRate int) (*Dataset, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("hrtf: empty direction set")
	}
	if len(irs) != len(dirs) {
		return nil, fmt.Errorf("hrtf: %d directions but %d impulse response pairs", len(dirs), len(irs))
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("hrtf: invalid sample rate %d", sampleRate)
	}

	irLength := 0
	for i, pair := range irs {
		for _, ir := range pair {
			if len(ir) == 0 {
				return nil, fmt.Errorf("hrtf: direction %d has an empty impulse response", i)
			}
			if len(ir) > irLength {
				irLength = len(ir)
			}
		}
	}
	for i, dir := range dirs {
		if !isFinite(dir[0]) || !isFinite(dir[1]) {
			return nil, fmt.Errorf("hrtf: direction %d is not finite", i)
		}
	}

	ds := &Dataset{
		dirs:       make([][2]float64, len(dirs)),
		irs:        make([][NumEars][]float64, len(irs)),
		irLength:   irLength,
		sampleRate: sampleRate,
	}
	copy(ds.dirs, dirs)
	for i, pair := range irs {
		for ear, ir := range pair {
			padded := make([]float64, irLength)
			copy(padded, ir)
			ds.irs[i][ear] = padded
		}
	}
	ds.itds = estimateITDs(ds.irs, sampleRate)

	return ds, nil
}

// NumDirections returns the number of measurement directions.
func (d *Dataset) NumDirections() int {
	return len(d.dirs)
}

// Direction returns the azimuth and elevation in degrees of direction i.
func (d *Dataset) Direction(i int) (azimuth, elevation float64) {
	return d.dirs[i][0], d.dirs[i][1]
}

// Directions returns a copy of all measurement directions as
// {azimuth, elevation} pairs in degrees.
func (d *Dataset) Directions() [][2]float64 {
	out := make([][2]float64, len(d.dirs))
	copy(out, d.dirs)
	return out
}

// IR returns the impulse response pair of direction i. The returned
// slices are shared with the dataset and must not be modified.
func (d *Dataset) IR(i int) (left, right []float64) {
	return d.irs[i][0], d.irs[i][1]
}

// ITD returns the interaural time difference of direction i in seconds,
// positive when the left ear leads.
func (d *Dataset) ITD(i int) float64 {
	return d.itds[i]
}

// IRLength returns the common impulse response length in samples.
func (d *Dataset) IRLength() int {
	return d.irLength
}

// SampleRate returns the measurement sample rate in Hz.
func (d *Dataset) SampleRate() int {
	return d.sampleRate
}

// Path returns the directory the dataset was loaded from, or the empty
// string for a built-in dataset.
func (d *Dataset) Path() string {
	return d.path
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
