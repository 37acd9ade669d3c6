// Package tft implements the streaming time-frequency transform behind the
// rendering engines: a uniform weighted overlap-add (WOLA) filterbank with
// root-Hann analysis and synthesis windows at 50% overlap.
//
// A Processor decomposes fixed-size blocks into hops of HopSize samples.
// Each hop is windowed together with the previous hop, transformed with an
// FFT of twice the hop size, and exposed as HopSize+1 complex subband bins.
// Synthesis mirrors the spectrum, inverse-transforms, windows again and
// overlap-adds, which reconstructs the input exactly (delayed by Latency
// samples) thanks to the constant overlap-add property of the squared
// root-Hann window.
//
// Subband data is laid out as a flat tensor indexed (band, channel, slot):
//
//	idx = (band*channels + channel)*timeSlots + slot
//
// Reconfiguring channel counts, hop or frame size means constructing a new
// Processor; there are no runtime topology mutations.
package tft
