package binaural

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spatial/spatial/core"
	"github.com/cwbudde/algo-spatial/spatial/hrtf"
	"github.com/cwbudde/algo-spatial/spatial/sh"
	"github.com/cwbudde/algo-spatial/spatial/tft"
)

// DecoderOption mutates construction-time parameters.
type DecoderOption func(*decoderConfig) error

type decoderConfig struct {
	hopSize         int
	frameSize       int
	order           Order
	normalization   Normalization
	maxRE           bool
	fade            bool
	rotationEnabled bool
	rotationOrder   sh.RotationOrder
	datasetPath     string
	dataset         *hrtf.Dataset
}

func defaultDecoderConfig() decoderConfig {
	return decoderConfig{
		hopSize:         DefaultHopSize,
		frameSize:       DefaultFrameSize,
		order:           OrderFirst,
		normalization:   NormalizationN3D,
		rotationEnabled: true,
		rotationOrder:   sh.YawPitchRoll,
	}
}

// WithDecoderHopSize sets the filterbank hop size in samples.
func WithDecoderHopSize(hop int) DecoderOption {
	return func(cfg *decoderConfig) error {
		if hop < tft.MinHopSize || hop > tft.MaxHopSize || hop&(hop-1) != 0 {
			return fmt.Errorf("binaural decoder hop size must be a power of two in [%d, %d]: %d",
				tft.MinHopSize, tft.MaxHopSize, hop)
		}
		cfg.hopSize = hop
		return nil
	}
}

// WithDecoderFrameSize sets the block length in samples; it must be a
// multiple of the hop size.
func WithDecoderFrameSize(frame int) DecoderOption {
	return func(cfg *decoderConfig) error {
		if frame <= 0 {
			return fmt.Errorf("binaural decoder frame size must be > 0: %d", frame)
		}
		cfg.frameSize = frame
		return nil
	}
}

// WithDecoderOrder sets the Ambisonic order of the input scene.
func WithDecoderOrder(order Order) DecoderOption {
	return func(cfg *decoderConfig) error {
		if !validOrder(order) {
			return fmt.Errorf("binaural decoder order must be in [%d, %d]: %d",
				OrderOmni, OrderSeventh, order)
		}
		cfg.order = order
		return nil
	}
}

// WithDecoderNormalization sets the input normalization convention.
func WithDecoderNormalization(n Normalization) DecoderOption {
	return func(cfg *decoderConfig) error {
		if !validNormalization(n) {
			return fmt.Errorf("binaural decoder normalization is invalid: %d", n)
		}
		cfg.normalization = n
		return nil
	}
}

// WithDecoderMaxRE enables MaxRE weighting of the decode matrices.
func WithDecoderMaxRE(enabled bool) DecoderOption {
	return func(cfg *decoderConfig) error {
		cfg.maxRE = enabled
		return nil
	}
}

// WithDecoderFade enables fade-in/fade-out masking around rebuilds.
func WithDecoderFade(enabled bool) DecoderOption {
	return func(cfg *decoderConfig) error {
		cfg.fade = enabled
		return nil
	}
}

// WithDecoderRotation toggles listener rotation.
func WithDecoderRotation(enabled bool) DecoderOption {
	return func(cfg *decoderConfig) error {
		cfg.rotationEnabled = enabled
		return nil
	}
}

// WithDecoderDatasetPath requests loading measured responses from a
// directory of azi<az>_elev<el>.wav files.
func WithDecoderDatasetPath(path string) DecoderOption {
	return func(cfg *decoderConfig) error {
		if path == "" {
			return errors.New("binaural decoder dataset path must not be empty")
		}
		cfg.datasetPath = path
		cfg.dataset = nil
		return nil
	}
}

// WithDecoderDataset renders through an already constructed dataset.
func WithDecoderDataset(ds *hrtf.Dataset) DecoderOption {
	return func(cfg *decoderConfig) error {
		if ds == nil {
			return errors.New("binaural decoder dataset must not be nil")
		}
		cfg.dataset = ds
		cfg.datasetPath = ""
		return nil
	}
}

// Decoder renders an Ambisonic scene to two ears through per-band
// decode matrices fitted to a head-related dataset; listener rotation
// is applied in the spherical-harmonic domain.
//
// Process is allocation-free once constructed and must stay on one
// goroutine. Set methods are safe to call from other goroutines; they
// take effect at the next block.
type Decoder struct {
	controls

	sampleRate float64
	hopSize    int
	frameSize  int
	bands      int
	slots      int
	latency    int

	pendingOrder  atomic.Int32
	normalization atomic.Int32
	maxRE         atomic.Bool

	dataset   datasetSlot
	fbFlag    reinitFlag
	codecFlag reinitFlag

	// audio-goroutine state
	order      int
	nsh        int
	proc       *tft.Processor
	rotator    *sh.Rotator
	decode     []complex128
	prevM      *mixingMatrix
	curM       *mixingMatrix
	curTensor  []complex128
	prevTensor []complex128
	earTensor  []complex128
	inFrame    [][]float64
	earFrame   [][]float64
	snScale    []float64
	ramp       []float64
	fadeIn     []float64
	fadeOut    []float64
}

// NewDecoder creates a decoder for the given host sample rate. Without
// options it renders first order at the default block geometry using
// the built-in spherical-head dataset.
func NewDecoder(sampleRate float64, opts ...DecoderOption) (*Decoder, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("binaural decoder sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultDecoderConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	d := &Decoder{
		sampleRate: sampleRate,
		hopSize:    cfg.hopSize,
		frameSize:  cfg.frameSize,
	}
	d.pendingOrder.Store(int32(cfg.order))
	d.normalization.Store(int32(cfg.normalization))
	d.maxRE.Store(cfg.maxRE)
	d.rotationEnabled.Store(cfg.rotationEnabled)
	d.rotationOrder.Store(int32(cfg.rotationOrder))
	d.fadeEnabled.Store(cfg.fade)
	switch {
	case cfg.dataset != nil:
		d.dataset.inject(cfg.dataset)
	case cfg.datasetPath != "":
		d.dataset.requestPath(cfg.datasetPath)
	}

	if err := d.rebuildFilterbank(); err != nil {
		return nil, fmt.Errorf("binaural decoder: %w", err)
	}
	d.bands = d.proc.Bands()
	d.slots = d.proc.TimeSlots()
	d.latency = d.proc.Latency() + d.frameSize
	d.rebuildCodec()

	return d, nil
}

// Process renders one block. in holds the scene channels in ACN order
// and out receives the two ear signals; channels beyond the expected
// counts are ignored or zeroed. nSamples must equal FrameSize; shorter
// or longer blocks, playing == false, or an unfinished rebuild all
// yield silence.
func (d *Decoder) Process(in, out [][]float64, nSamples int, playing bool) {
	rebuilt := d.drainPendingReinits()

	if nSamples != d.frameSize || !playing || !d.fbFlag.clean() || !d.codecFlag.clean() {
		zeroFrames(out)
		return
	}

	for c := range d.inFrame {
		core.Zero(d.inFrame[c])
		if c < len(in) {
			core.CopyInto(d.inFrame[c], in[c])
		}
	}

	if Normalization(d.normalization.Load()) == NormalizationSN3D {
		for c, row := range d.inFrame {
			vecmath.ScaleBlock(row, row, d.snScale[c])
		}
	}

	if rebuilt && d.FadeEnabled() {
		for _, row := range d.inFrame {
			vecmath.MulBlockInPlace(row, d.fadeIn)
		}
	}

	if err := d.proc.Forward(d.inFrame, d.curTensor); err != nil {
		zeroFrames(out)
		return
	}

	d.buildCurrentMatrix()
	crossfadeMix(d.earTensor, d.prevTensor, d.prevM, d.curM, d.ramp)
	d.prevM.copyFrom(d.curM)
	d.prevTensor, d.curTensor = d.curTensor, d.prevTensor

	if err := d.proc.Inverse(d.earTensor, d.earFrame); err != nil {
		zeroFrames(out)
		return
	}

	if d.FadeEnabled() && (!d.fbFlag.clean() || !d.codecFlag.clean()) {
		for _, row := range d.earFrame {
			vecmath.MulBlockInPlace(row, d.fadeOut)
		}
	}

	for c := range out {
		core.Zero(out[c])
		if c < NumEars {
			core.CopyInto(out[c], d.earFrame[c])
		}
	}
}

// drainPendingReinits runs queued rebuilds on the audio goroutine and
// reports whether any rebuild completed in this call.
func (d *Decoder) drainPendingReinits() bool {
	rebuilt := false
	if d.fbFlag.take() {
		if err := d.rebuildFilterbank(); err == nil {
			rebuilt = true
		}
		d.fbFlag.finish()
	}
	if d.codecFlag.take() {
		d.rebuildCodec()
		rebuilt = true
		d.codecFlag.finish()
	}
	return rebuilt
}

// rebuildFilterbank reconstructs the transform and every size-dependent
// buffer for the pending order. Retained history restarts from silence.
func (d *Decoder) rebuildFilterbank() error {
	order := int(d.pendingOrder.Load())
	nsh := sh.NumChannels(order)

	proc, err := tft.NewProcessor(nsh, NumEars, d.hopSize, d.frameSize)
	if err != nil {
		return err
	}
	rotator, err := sh.NewRotator(order)
	if err != nil {
		return err
	}

	d.order = order
	d.nsh = nsh
	d.proc = proc
	d.rotator = rotator
	d.snScale = sh.SN3DToN3D(order)

	bands := proc.Bands()
	slots := proc.TimeSlots()
	d.curTensor = make([]complex128, bands*nsh*slots)
	d.prevTensor = make([]complex128, bands*nsh*slots)
	d.earTensor = make([]complex128, bands*NumEars*slots)
	d.prevM = newMixingMatrix(bands, nsh)
	d.curM = newMixingMatrix(bands, nsh)
	d.ramp = crossfadeRamp(slots)
	d.fadeIn = fadeInRamp(d.frameSize)
	d.fadeOut = fadeOutRamp(d.frameSize)

	d.inFrame = make([][]float64, nsh)
	for c := range d.inFrame {
		d.inFrame[c] = make([]float64, d.frameSize)
	}
	d.earFrame = make([][]float64, NumEars)
	for c := range d.earFrame {
		d.earFrame[c] = make([]float64, d.frameSize)
	}
	return nil
}

// rebuildCodec resolves the requested dataset and refits the decode
// matrices. The previous mixing matrix is kept so the next block fades
// from the old decode to the new one.
func (d *Decoder) rebuildCodec() {
	fs := int(math.Round(d.sampleRate))
	ds := d.dataset.resolve(fs)
	freqs := d.proc.CenterFrequencies(d.sampleRate)

	decode, err := buildDecodeMatrices(ds, freqs, d.order, d.maxRE.Load())
	if err != nil {
		ds = hrtf.Default(fs)
		d.dataset.publish(ds, true)
		decode, err = buildDecodeMatrices(ds, freqs, d.order, d.maxRE.Load())
	}
	if err != nil {
		decode = make([]complex128, len(freqs)*NumEars*d.nsh)
	}
	d.decode = decode
}

// buildCurrentMatrix derives this block's mixing matrix: the decode
// rows, rotated in the spherical-harmonic domain when enabled. The
// orientation is re-read every block.
func (d *Decoder) buildCurrentMatrix() {
	if d.order == 0 || !d.RotationEnabled() {
		copy(d.curM.data, d.decode)
		return
	}

	yaw, pitch, roll := d.angles()
	r3 := sh.RotationZYX(yaw, pitch, roll, d.RotationOrder())
	rot := d.rotator.Matrix(r3)

	nsh := d.nsh
	for band := 0; band < d.bands; band++ {
		for ear := 0; ear < NumEars; ear++ {
			decRow := d.decode[(band*NumEars+ear)*nsh:][:nsh]
			curRow := d.curM.row(band, ear)
			for j := 0; j < nsh; j++ {
				var re, im float64
				for k := 0; k < nsh; k++ {
					m := rot[k*nsh+j]
					re += real(decRow[k]) * m
					im += imag(decRow[k]) * m
				}
				curRow[j] = complex(re, im)
			}
		}
	}
}

// Reset clears retained subband history and crossfade state. Call it
// from the Process goroutine.
func (d *Decoder) Reset() {
	d.proc.Reset()
	core.Zero(d.prevTensor)
	core.Zero(d.curTensor)
	d.prevM.zero()
	d.curM.zero()
}

// RequestReinit forces a full rebuild of the filterbank and decode
// state at the next block.
func (d *Decoder) RequestReinit() {
	d.fbFlag.request()
	d.codecFlag.request()
}

// SetOrder requests a new Ambisonic order; the filterbank and decode
// matrices rebuild at the next block.
func (d *Decoder) SetOrder(order Order) error {
	if !validOrder(order) {
		return fmt.Errorf("binaural decoder order must be in [%d, %d]: %d",
			OrderOmni, OrderSeventh, order)
	}
	if d.pendingOrder.Swap(int32(order)) != int32(order) {
		d.fbFlag.request()
		d.codecFlag.request()
	}
	return nil
}

// Order returns the requested Ambisonic order.
func (d *Decoder) Order() Order { return Order(d.pendingOrder.Load()) }

// SetChannelOrder sets the input channel ordering convention. Only ACN
// is supported; FuMa requests return ErrInvalidChannelOrder.
func (d *Decoder) SetChannelOrder(order ChannelOrder) error {
	if order != ChannelOrderACN {
		return fmt.Errorf("%w: %v", ErrInvalidChannelOrder, order)
	}
	return nil
}

// ChannelOrder returns the input channel ordering convention.
func (d *Decoder) ChannelOrder() ChannelOrder { return ChannelOrderACN }

// SetNormalization sets the input normalization convention, applied
// from the next block on without a rebuild.
func (d *Decoder) SetNormalization(n Normalization) error {
	if !validNormalization(n) {
		return fmt.Errorf("binaural decoder normalization is invalid: %d", n)
	}
	d.normalization.Store(int32(n))
	return nil
}

// Normalization returns the input normalization convention.
func (d *Decoder) Normalization() Normalization {
	return Normalization(d.normalization.Load())
}

// SetMaxRE toggles MaxRE weighting; the decode matrices refit at the
// next block.
func (d *Decoder) SetMaxRE(enabled bool) {
	if d.maxRE.Swap(enabled) != enabled {
		d.codecFlag.request()
	}
}

// MaxRE reports whether MaxRE weighting is applied.
func (d *Decoder) MaxRE() bool { return d.maxRE.Load() }

// SetDatasetPath requests measured responses from a directory of
// azi<az>_elev<el>.wav files; the decode matrices refit at the next
// block. An unreadable directory falls back to the built-in set.
func (d *Decoder) SetDatasetPath(path string) {
	d.dataset.requestPath(path)
	d.codecFlag.request()
}

// UseDefaultDataset switches back to the built-in spherical-head set.
func (d *Decoder) UseDefaultDataset() {
	d.dataset.requestDefault()
	d.codecFlag.request()
}

// DatasetPath returns the last dataset directory requested, or
// "no_file" when the engine never loaded one from disk.
func (d *Decoder) DatasetPath() string { return d.dataset.requestedPath() }

// UsingDefaultDataset reports whether the built-in spherical-head set
// is active.
func (d *Decoder) UsingDefaultDataset() bool { return d.dataset.usingDefault.Load() }

// NumDirections returns the measurement count of the active dataset.
func (d *Decoder) NumDirections() int { return d.dataset.active.Load().NumDirections() }

// IRLength returns the impulse-response length of the active dataset.
func (d *Decoder) IRLength() int { return d.dataset.active.Load().IRLength() }

// IRSampleRate returns the sample rate of the active dataset in Hz.
func (d *Decoder) IRSampleRate() int { return d.dataset.active.Load().SampleRate() }

// SampleRate returns the host sample rate in Hz.
func (d *Decoder) SampleRate() float64 { return d.sampleRate }

// FrameSize returns the block length in samples.
func (d *Decoder) FrameSize() int { return d.frameSize }

// HopSize returns the filterbank hop size in samples.
func (d *Decoder) HopSize() int { return d.hopSize }

// Bands returns the number of subbands.
func (d *Decoder) Bands() int { return d.bands }

// TimeSlots returns the number of subband time slots per block.
func (d *Decoder) TimeSlots() int { return d.slots }

// ProcessingLatency returns the end-to-end latency in samples: the
// filterbank latency plus one block of crossfade retention.
func (d *Decoder) ProcessingLatency() int { return d.latency }
