package binaural

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/spatial/hrtf"
	"github.com/cwbudde/algo-spatial/spatial/vbap"
)

const (
	// NumEars is the number of output channels both engines produce.
	NumEars = hrtf.NumEars

	// MaxSources bounds the number of simultaneous Panner sources.
	MaxSources = 64

	// DefaultHopSize and DefaultFrameSize configure the filterbank when
	// no options override them.
	DefaultHopSize   = 128
	DefaultFrameSize = 512
)

// noDatasetPath is reported by DatasetPath until a directory is requested.
const noDatasetPath = "no_file"

// Order selects the Ambisonic order of the Decoder input scene.
type Order int

const (
	// OrderOmni renders the omnidirectional channel only.
	OrderOmni Order = iota
	OrderFirst
	OrderSecond
	OrderThird
	OrderFourth
	OrderFifth
	OrderSixth
	OrderSeventh
)

func validOrder(order Order) bool {
	return order >= OrderOmni && order <= OrderSeventh
}

// ChannelOrder names the Ambisonic channel ordering convention of the
// Decoder input.
type ChannelOrder int

const (
	// ChannelOrderACN is the ambiX channel ordering; the only one supported.
	ChannelOrderACN ChannelOrder = iota
	// ChannelOrderFuMa is the legacy Furse-Malham ordering.
	ChannelOrderFuMa
)

// String returns the conventional name of the channel ordering.
func (c ChannelOrder) String() string {
	switch c {
	case ChannelOrderACN:
		return "ACN"
	case ChannelOrderFuMa:
		return "FuMa"
	default:
		return fmt.Sprintf("ChannelOrder(%d)", int(c))
	}
}

// Normalization names the per-channel gain convention of the Decoder
// input scene.
type Normalization int

const (
	// NormalizationN3D is the fully orthonormal convention the decode
	// matrices are derived in.
	NormalizationN3D Normalization = iota
	// NormalizationSN3D is the Schmidt semi-normalized convention;
	// input channels are rescaled by sqrt(2n+1) per degree.
	NormalizationSN3D
)

func validNormalization(n Normalization) bool {
	return n == NormalizationN3D || n == NormalizationSN3D
}

// String returns the conventional name of the normalization.
func (n Normalization) String() string {
	switch n {
	case NormalizationN3D:
		return "N3D"
	case NormalizationSN3D:
		return "SN3D"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// Interpolation selects how the Panner blends measured responses
// between dataset directions.
type Interpolation int

const (
	// InterpolationNearest snaps each source to the closest measurement.
	InterpolationNearest Interpolation = iota
	// InterpolationTriangular blends the three measurements whose
	// spherical triangle encloses the source direction.
	InterpolationTriangular
)

func validInterpolation(m Interpolation) bool {
	return m == InterpolationNearest || m == InterpolationTriangular
}

func (m Interpolation) vbapMode() vbap.Mode {
	if m == InterpolationTriangular {
		return vbap.ModeTriangular
	}
	return vbap.ModeNearest
}

// String returns the name of the interpolation mode.
func (m Interpolation) String() string {
	switch m {
	case InterpolationNearest:
		return "nearest"
	case InterpolationTriangular:
		return "triangular"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(m))
	}
}

// SourcePreset places Panner sources on a standard loudspeaker layout.
type SourcePreset int

const (
	PresetMono SourcePreset = iota
	PresetStereo
	PresetQuad
	PresetFiveOh
	PresetSevenOh
)

// String returns the layout name of the preset.
func (p SourcePreset) String() string {
	switch p {
	case PresetMono:
		return "mono"
	case PresetStereo:
		return "stereo"
	case PresetQuad:
		return "quad"
	case PresetFiveOh:
		return "5.0"
	case PresetSevenOh:
		return "7.0"
	default:
		return fmt.Sprintf("SourcePreset(%d)", int(p))
	}
}

// presetDirections returns the azimuth/elevation pairs of a layout,
// ordered left/right from the front.
func presetDirections(preset SourcePreset) ([][2]float64, error) {
	switch preset {
	case PresetMono:
		return [][2]float64{{0, 0}}, nil
	case PresetStereo:
		return [][2]float64{{30, 0}, {-30, 0}}, nil
	case PresetQuad:
		return [][2]float64{{45, 0}, {-45, 0}, {135, 0}, {-135, 0}}, nil
	case PresetFiveOh:
		return [][2]float64{{30, 0}, {-30, 0}, {0, 0}, {110, 0}, {-110, 0}}, nil
	case PresetSevenOh:
		return [][2]float64{{30, 0}, {-30, 0}, {0, 0}, {90, 0}, {-90, 0}, {135, 0}, {-135, 0}}, nil
	default:
		return nil, fmt.Errorf("binaural: unknown source preset: %d", preset)
	}
}
