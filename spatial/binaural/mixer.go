package binaural

import "github.com/cwbudde/algo-spatial/spatial/core"

// mixingMatrix holds one complex ear-mixing matrix per band, flat
// (band, ear, channel). Two instances live per engine: the matrix of
// the previous block and the one derived for the current block.
type mixingMatrix struct {
	bands    int
	channels int
	data     []complex128
}

func newMixingMatrix(bands, channels int) *mixingMatrix {
	return &mixingMatrix{
		bands:    bands,
		channels: channels,
		data:     make([]complex128, bands*NumEars*channels),
	}
}

func (m *mixingMatrix) row(band, ear int) []complex128 {
	off := (band*NumEars + ear) * m.channels
	return m.data[off : off+m.channels]
}

func (m *mixingMatrix) copyFrom(src *mixingMatrix) {
	copy(m.data, src.data)
}

func (m *mixingMatrix) zero() {
	core.Zero(m.data)
}

// crossfadeMix applies both matrices to the same retained subband
// tensor and blends the two products slot by slot, sliding from the
// previous matrix to the current one across the block. tensor is flat
// (band, channel, slot); dst is flat (band, ear, slot).
func crossfadeMix(dst, tensor []complex128, prev, cur *mixingMatrix, ramp []float64) {
	slots := len(ramp)
	channels := cur.channels
	for band := 0; band < cur.bands; band++ {
		base := band * channels * slots
		for ear := 0; ear < NumEars; ear++ {
			prevRow := prev.row(band, ear)
			curRow := cur.row(band, ear)
			out := dst[(band*NumEars+ear)*slots:][:slots]
			for t := 0; t < slots; t++ {
				var curAcc, prevAcc complex128
				for ch := 0; ch < channels; ch++ {
					x := tensor[base+ch*slots+t]
					curAcc += curRow[ch] * x
					prevAcc += prevRow[ch] * x
				}
				r := complex(ramp[t], 0)
				out[t] = r*curAcc + (1-r)*prevAcc
			}
		}
	}
}

// crossfadeRamp rises linearly so the final slot carries the current
// matrix alone.
func crossfadeRamp(slots int) []float64 {
	ramp := make([]float64, slots)
	for t := range ramp {
		ramp[t] = float64(t+1) / float64(slots)
	}
	return ramp
}

// fadeInRamp masks the first block after a rebuild, starting from zero.
func fadeInRamp(length int) []float64 {
	ramp := make([]float64, length)
	for i := range ramp {
		ramp[i] = float64(i) / float64(length)
	}
	return ramp
}

// fadeOutRamp masks the block in which a rebuild request arrived,
// ending at zero.
func fadeOutRamp(length int) []float64 {
	ramp := make([]float64, length)
	for i := range ramp {
		ramp[i] = 1 - float64(i+1)/float64(length)
	}
	return ramp
}

func zeroFrames(frames [][]float64) {
	for _, frame := range frames {
		core.Zero(frame)
	}
}
