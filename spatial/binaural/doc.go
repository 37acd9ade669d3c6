// Package binaural renders spatial audio scenes to two ears in real time.
//
// Two engines share one processing skeleton. Decoder consumes an
// Ambisonic scene in ACN channel order and decodes it through per-band
// ear matrices fitted to a head-related dataset; listener rotation is
// applied in the spherical-harmonic domain. Panner consumes discrete
// source signals and places each one by interpolating measured ear
// responses. Both run block-by-block inside a subband filterbank and
// crossfade their mixing state across time slots, so parameter changes
// never click.
//
// Process must stay on a single goroutine. All Set methods only store
// pending values or raise rebuild flags and are safe to call from other
// goroutines; heavy reconstruction happens at the start of the next
// Process call.
package binaural
