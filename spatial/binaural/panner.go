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
	"github.com/cwbudde/algo-spatial/spatial/vbap"
)

// PannerOption mutates construction-time parameters.
type PannerOption func(*pannerConfig) error

type pannerConfig struct {
	hopSize         int
	frameSize       int
	directions      [][2]float64
	numSources      int
	interpolation   Interpolation
	fade            bool
	rotationEnabled bool
	rotationOrder   sh.RotationOrder
	datasetPath     string
	dataset         *hrtf.Dataset
}

func defaultPannerConfig() pannerConfig {
	dirs, _ := presetDirections(PresetMono)
	return pannerConfig{
		hopSize:       DefaultHopSize,
		frameSize:     DefaultFrameSize,
		directions:    dirs,
		interpolation: InterpolationTriangular,
		rotationOrder: sh.YawPitchRoll,
	}
}

// WithPannerHopSize sets the filterbank hop size in samples.
func WithPannerHopSize(hop int) PannerOption {
	return func(cfg *pannerConfig) error {
		if hop < tft.MinHopSize || hop > tft.MaxHopSize || hop&(hop-1) != 0 {
			return fmt.Errorf("binaural panner hop size must be a power of two in [%d, %d]: %d",
				tft.MinHopSize, tft.MaxHopSize, hop)
		}
		cfg.hopSize = hop
		return nil
	}
}

// WithPannerFrameSize sets the block length in samples; it must be a
// multiple of the hop size.
func WithPannerFrameSize(frame int) PannerOption {
	return func(cfg *pannerConfig) error {
		if frame <= 0 {
			return fmt.Errorf("binaural panner frame size must be > 0: %d", frame)
		}
		cfg.frameSize = frame
		return nil
	}
}

// WithPannerSources sets the number of rendered sources. Sources beyond
// the configured preset start at azimuth 0, elevation 0.
func WithPannerSources(n int) PannerOption {
	return func(cfg *pannerConfig) error {
		if n < 1 || n > MaxSources {
			return fmt.Errorf("binaural panner source count must be in [1, %d]: %d", MaxSources, n)
		}
		cfg.numSources = n
		return nil
	}
}

// WithPannerPreset seeds the source directions from a loudspeaker
// layout and sets the source count to match.
func WithPannerPreset(preset SourcePreset) PannerOption {
	return func(cfg *pannerConfig) error {
		dirs, err := presetDirections(preset)
		if err != nil {
			return err
		}
		cfg.directions = dirs
		cfg.numSources = len(dirs)
		return nil
	}
}

// WithPannerInterpolation sets how responses between measured
// directions are derived.
func WithPannerInterpolation(m Interpolation) PannerOption {
	return func(cfg *pannerConfig) error {
		if !validInterpolation(m) {
			return fmt.Errorf("binaural panner interpolation mode is invalid: %d", m)
		}
		cfg.interpolation = m
		return nil
	}
}

// WithPannerFade enables fade-in/fade-out masking around rebuilds.
func WithPannerFade(enabled bool) PannerOption {
	return func(cfg *pannerConfig) error {
		cfg.fade = enabled
		return nil
	}
}

// WithPannerRotation toggles head rotation; sources counter-rotate so
// the scene stays put while the head turns.
func WithPannerRotation(enabled bool) PannerOption {
	return func(cfg *pannerConfig) error {
		cfg.rotationEnabled = enabled
		return nil
	}
}

// WithPannerDatasetPath requests loading measured responses from a
// directory of azi<az>_elev<el>.wav files.
func WithPannerDatasetPath(path string) PannerOption {
	return func(cfg *pannerConfig) error {
		if path == "" {
			return errors.New("binaural panner dataset path must not be empty")
		}
		cfg.datasetPath = path
		cfg.dataset = nil
		return nil
	}
}

// WithPannerDataset renders through an already constructed dataset.
func WithPannerDataset(ds *hrtf.Dataset) PannerOption {
	return func(cfg *pannerConfig) error {
		if ds == nil {
			return errors.New("binaural panner dataset must not be nil")
		}
		cfg.dataset = ds
		cfg.datasetPath = ""
		return nil
	}
}

// Panner renders discrete point sources to two ears by interpolating
// head-related responses across the dataset measurement grid. When head
// rotation is enabled every source is counter-rotated so the scene
// stays put while the head turns.
//
// Process must stay on one goroutine; per-source filters refresh inline
// when a source or the head moves. Set methods are safe to call from
// other goroutines; they take effect at the next block.
type Panner struct {
	controls

	sampleRate float64
	hopSize    int
	frameSize  int
	bands      int
	slots      int
	latency    int

	interpolation  atomic.Int32
	pendingSources atomic.Int32
	srcAzi         [MaxSources]atomicFloat
	srcElev        [MaxSources]atomicFloat
	srcDirty       [MaxSources]atomic.Bool

	dataset   datasetSlot
	fbFlag    reinitFlag
	codecFlag reinitFlag

	// audio-goroutine state
	nSources   int
	proc       *tft.Processor
	table      *vbap.Table
	freqs      []float64
	mags       [][hrtf.NumEars][]float64
	itds       []float64
	srcFilters []complex128
	lastYaw    float64
	lastPitch  float64
	lastRoll   float64
	lastRotOn  bool
	lastOrder  sh.RotationOrder
	rotValid   bool
	prevM      *mixingMatrix
	curM       *mixingMatrix
	curTensor  []complex128
	prevTensor []complex128
	earTensor  []complex128
	inFrame    [][]float64
	earFrame   [][]float64
	ramp       []float64
	fadeIn     []float64
	fadeOut    []float64
}

// NewPanner creates a panner for the given host sample rate. Without
// options it renders one frontal source at the default block geometry
// using the built-in spherical-head dataset.
func NewPanner(sampleRate float64, opts ...PannerOption) (*Panner, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("binaural panner sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultPannerConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	p := &Panner{
		sampleRate: sampleRate,
		hopSize:    cfg.hopSize,
		frameSize:  cfg.frameSize,
	}
	n := cfg.numSources
	if n == 0 {
		n = len(cfg.directions)
	}
	n = min(max(n, 1), MaxSources)
	p.pendingSources.Store(int32(n))
	for i, dir := range cfg.directions {
		if i >= MaxSources {
			break
		}
		p.srcAzi[i].Store(sh.WrapAzimuth(dir[0]))
		p.srcElev[i].Store(sh.ClampElevation(dir[1]))
	}
	p.interpolation.Store(int32(cfg.interpolation))
	p.rotationEnabled.Store(cfg.rotationEnabled)
	p.rotationOrder.Store(int32(cfg.rotationOrder))
	p.fadeEnabled.Store(cfg.fade)
	switch {
	case cfg.dataset != nil:
		p.dataset.inject(cfg.dataset)
	case cfg.datasetPath != "":
		p.dataset.requestPath(cfg.datasetPath)
	}

	if err := p.rebuildFilterbank(); err != nil {
		return nil, fmt.Errorf("binaural panner: %w", err)
	}
	p.bands = p.proc.Bands()
	p.slots = p.proc.TimeSlots()
	p.latency = p.proc.Latency() + p.frameSize
	p.rebuildCodec()

	return p, nil
}

// Process renders one block. in holds one channel per source and out
// receives the two ear signals; channels beyond the expected counts are
// ignored or zeroed. nSamples must equal FrameSize; shorter or longer
// blocks, playing == false, or an unfinished rebuild all yield silence.
func (p *Panner) Process(in, out [][]float64, nSamples int, playing bool) {
	rebuilt := p.drainPendingReinits()

	if nSamples != p.frameSize || !playing || !p.fbFlag.clean() || !p.codecFlag.clean() {
		zeroFrames(out)
		return
	}

	for c := range p.inFrame {
		core.Zero(p.inFrame[c])
		if c < len(in) {
			core.CopyInto(p.inFrame[c], in[c])
		}
	}

	if rebuilt && p.FadeEnabled() {
		for _, row := range p.inFrame {
			vecmath.MulBlockInPlace(row, p.fadeIn)
		}
	}

	if err := p.proc.Forward(p.inFrame, p.curTensor); err != nil {
		zeroFrames(out)
		return
	}

	p.buildCurrentMatrix()
	crossfadeMix(p.earTensor, p.prevTensor, p.prevM, p.curM, p.ramp)
	p.prevM.copyFrom(p.curM)
	p.prevTensor, p.curTensor = p.curTensor, p.prevTensor

	if err := p.proc.Inverse(p.earTensor, p.earFrame); err != nil {
		zeroFrames(out)
		return
	}

	if p.FadeEnabled() && (!p.fbFlag.clean() || !p.codecFlag.clean()) {
		for _, row := range p.earFrame {
			vecmath.MulBlockInPlace(row, p.fadeOut)
		}
	}

	for c := range out {
		core.Zero(out[c])
		if c < NumEars {
			core.CopyInto(out[c], p.earFrame[c])
		}
	}
}

// drainPendingReinits runs queued rebuilds on the audio goroutine and
// reports whether any rebuild completed in this call.
func (p *Panner) drainPendingReinits() bool {
	rebuilt := false
	if p.fbFlag.take() {
		if err := p.rebuildFilterbank(); err == nil {
			rebuilt = true
		}
		p.fbFlag.finish()
	}
	if p.codecFlag.take() {
		p.rebuildCodec()
		rebuilt = true
		p.codecFlag.finish()
	}
	return rebuilt
}

// rebuildFilterbank reconstructs the transform and every size-dependent
// buffer for the pending source count. Retained history restarts from
// silence.
func (p *Panner) rebuildFilterbank() error {
	n := int(p.pendingSources.Load())

	proc, err := tft.NewProcessor(n, NumEars, p.hopSize, p.frameSize)
	if err != nil {
		return err
	}

	p.nSources = n
	p.proc = proc
	p.freqs = proc.CenterFrequencies(p.sampleRate)

	bands := proc.Bands()
	slots := proc.TimeSlots()
	p.curTensor = make([]complex128, bands*n*slots)
	p.prevTensor = make([]complex128, bands*n*slots)
	p.earTensor = make([]complex128, bands*NumEars*slots)
	p.prevM = newMixingMatrix(bands, n)
	p.curM = newMixingMatrix(bands, n)
	p.srcFilters = make([]complex128, n*NumEars*bands)
	p.ramp = crossfadeRamp(slots)
	p.fadeIn = fadeInRamp(p.frameSize)
	p.fadeOut = fadeOutRamp(p.frameSize)

	p.inFrame = make([][]float64, n)
	for c := range p.inFrame {
		p.inFrame[c] = make([]float64, p.frameSize)
	}
	p.earFrame = make([][]float64, NumEars)
	for c := range p.earFrame {
		p.earFrame[c] = make([]float64, p.frameSize)
	}

	for i := 0; i < n; i++ {
		p.srcDirty[i].Store(true)
	}
	p.rotValid = false
	return nil
}

// rebuildCodec resolves the requested dataset, rebuilds the
// interpolation table and per-band responses, and marks every source
// filter for refresh.
func (p *Panner) rebuildCodec() {
	fs := int(math.Round(p.sampleRate))
	ds := p.dataset.resolve(fs)

	mode := Interpolation(p.interpolation.Load()).vbapMode()
	table, err := vbap.NewTable(ds.Directions(), mode)
	if err != nil && mode != vbap.ModeNearest {
		table, err = vbap.NewTable(ds.Directions(), vbap.ModeNearest)
	}
	if err != nil {
		ds = hrtf.Default(fs)
		p.dataset.publish(ds, true)
		table, err = vbap.NewTable(ds.Directions(), mode)
		if err != nil && mode != vbap.ModeNearest {
			table, err = vbap.NewTable(ds.Directions(), vbap.ModeNearest)
		}
	}
	if err != nil {
		p.table = nil
		core.Zero(p.srcFilters)
		return
	}
	p.table = table

	p.mags = hrtf.BandMagnitudes(hrtf.BandResponses(ds, p.freqs))
	p.itds = core.EnsureLen(p.itds, ds.NumDirections())
	for i := range p.itds {
		p.itds[i] = ds.ITD(i)
	}

	for i := 0; i < p.nSources; i++ {
		p.srcDirty[i].Store(true)
	}
	p.rotValid = false
}

// refreshSourceFilters recomputes the per-band filter of every source
// whose direction changed since the last block. A head orientation
// change invalidates all of them.
func (p *Panner) refreshSourceFilters() {
	if p.table == nil {
		return
	}

	yaw, pitch, roll := p.angles()
	rotOn := p.RotationEnabled()
	order := p.RotationOrder()
	rotChanged := !p.rotValid || rotOn != p.lastRotOn
	if rotOn && (yaw != p.lastYaw || pitch != p.lastPitch || roll != p.lastRoll || order != p.lastOrder) {
		rotChanged = true
	}
	var r3 [3][3]float64
	if rotOn {
		r3 = sh.RotationZYX(yaw, pitch, roll, order)
	}

	for i := 0; i < p.nSources; i++ {
		dirty := p.srcDirty[i].CompareAndSwap(true, false)
		if !dirty && !rotChanged {
			continue
		}
		azi := p.srcAzi[i].Load()
		elev := p.srcElev[i].Load()
		if rotOn {
			v := rotateRowVector(sh.DirectionVector(azi, elev), r3)
			azi, elev = sh.VectorDirection(v)
		}
		p.interpolateTo(i, azi, elev)
	}

	p.lastYaw, p.lastPitch, p.lastRoll = yaw, pitch, roll
	p.lastRotOn = rotOn
	p.lastOrder = order
	p.rotValid = true
}

// interpolateTo fills one source's filter rows for the given rendering
// direction: interpolated magnitudes with the interpolated time
// difference re-applied as symmetric phase.
func (p *Panner) interpolateTo(src int, azi, elev float64) {
	idx, gains := p.table.Weights(azi, elev)

	var itd float64
	for k, g := range gains {
		itd += g * p.itds[idx[k]]
	}

	rowL := p.srcFilters[(src*NumEars+0)*p.bands:][:p.bands]
	rowR := p.srcFilters[(src*NumEars+1)*p.bands:][:p.bands]
	for band := 0; band < p.bands; band++ {
		var magL, magR float64
		for k, g := range gains {
			magL += g * p.mags[idx[k]][0][band]
			magR += g * p.mags[idx[k]][1][band]
		}
		phase := math.Pi * p.freqs[band] * itd
		sin, cos := math.Sincos(phase)
		rowL[band] = complex(magL*cos, magL*sin)
		rowR[band] = complex(magR*cos, -magR*sin)
	}
}

// buildCurrentMatrix assembles this block's mixing matrix from the
// per-source filters, scaled so summed power stays level as sources are
// added.
func (p *Panner) buildCurrentMatrix() {
	p.refreshSourceFilters()
	if p.table == nil {
		p.curM.zero()
		return
	}

	norm := complex(1/math.Sqrt(float64(p.nSources)), 0)
	for band := 0; band < p.bands; band++ {
		for ear := 0; ear < NumEars; ear++ {
			row := p.curM.row(band, ear)
			for src := 0; src < p.nSources; src++ {
				row[src] = p.srcFilters[(src*NumEars+ear)*p.bands+band] * norm
			}
		}
	}
}

// rotateRowVector applies the rotation as a row-vector product, the
// inverse of rotating the frame, so sources counter-rotate against
// head movement.
func rotateRowVector(v [3]float64, r [3][3]float64) [3]float64 {
	var w [3]float64
	for j := 0; j < 3; j++ {
		w[j] = v[0]*r[0][j] + v[1]*r[1][j] + v[2]*r[2][j]
	}
	return w
}

// Reset clears retained subband history and crossfade state. Call it
// from the Process goroutine.
func (p *Panner) Reset() {
	p.proc.Reset()
	core.Zero(p.prevTensor)
	core.Zero(p.curTensor)
	p.prevM.zero()
	p.curM.zero()
}

// RequestReinit forces a full rebuild of the filterbank and
// interpolation state at the next block.
func (p *Panner) RequestReinit() {
	p.fbFlag.request()
	p.codecFlag.request()
}

// SetNumSources requests a new source count, clamped to [1,
// MaxSources]; the filterbank rebuilds at the next block.
func (p *Panner) SetNumSources(n int) {
	n = min(max(n, 1), MaxSources)
	if p.pendingSources.Swap(int32(n)) != int32(n) {
		p.fbFlag.request()
		p.codecFlag.request()
	}
}

// NumSources returns the requested source count.
func (p *Panner) NumSources() int { return int(p.pendingSources.Load()) }

// SetSourceDirection points source i at the given direction in degrees.
// The azimuth wraps into (-180, 180] and the elevation clamps to [-90,
// 90]; out-of-range indices are ignored. The filter updates at the next
// block without a rebuild.
func (p *Panner) SetSourceDirection(i int, azimuthDeg, elevationDeg float64) {
	if i < 0 || i >= MaxSources {
		return
	}
	p.srcAzi[i].Store(sh.WrapAzimuth(azimuthDeg))
	p.srcElev[i].Store(sh.ClampElevation(elevationDeg))
	p.srcDirty[i].Store(true)
}

// SourceDirection returns the direction of source i in degrees, or
// zeros for an out-of-range index.
func (p *Panner) SourceDirection(i int) (azimuthDeg, elevationDeg float64) {
	if i < 0 || i >= MaxSources {
		return 0, 0
	}
	return p.srcAzi[i].Load(), p.srcElev[i].Load()
}

// SetSourcePreset repositions the sources onto a loudspeaker layout and
// adjusts the source count to match.
func (p *Panner) SetSourcePreset(preset SourcePreset) error {
	dirs, err := presetDirections(preset)
	if err != nil {
		return err
	}
	for i, dir := range dirs {
		p.srcAzi[i].Store(sh.WrapAzimuth(dir[0]))
		p.srcElev[i].Store(sh.ClampElevation(dir[1]))
		p.srcDirty[i].Store(true)
	}
	p.SetNumSources(len(dirs))
	return nil
}

// SetInterpolation selects how responses between measured directions
// are derived; the interpolation table rebuilds at the next block.
func (p *Panner) SetInterpolation(m Interpolation) error {
	if !validInterpolation(m) {
		return fmt.Errorf("binaural panner interpolation mode is invalid: %d", m)
	}
	if p.interpolation.Swap(int32(m)) != int32(m) {
		p.codecFlag.request()
	}
	return nil
}

// Interpolation returns the requested interpolation mode.
func (p *Panner) Interpolation() Interpolation {
	return Interpolation(p.interpolation.Load())
}

// SetDatasetPath requests measured responses from a directory of
// azi<az>_elev<el>.wav files; the interpolation state rebuilds at the
// next block. An unreadable directory falls back to the built-in set.
func (p *Panner) SetDatasetPath(path string) {
	p.dataset.requestPath(path)
	p.codecFlag.request()
}

// UseDefaultDataset switches back to the built-in spherical-head set.
func (p *Panner) UseDefaultDataset() {
	p.dataset.requestDefault()
	p.codecFlag.request()
}

// DatasetPath returns the last dataset directory requested, or
// "no_file" when the engine never loaded one from disk.
func (p *Panner) DatasetPath() string { return p.dataset.requestedPath() }

// UsingDefaultDataset reports whether the built-in spherical-head set
// is active.
func (p *Panner) UsingDefaultDataset() bool { return p.dataset.usingDefault.Load() }

// NumDirections returns the measurement count of the active dataset.
func (p *Panner) NumDirections() int { return p.dataset.active.Load().NumDirections() }

// IRLength returns the impulse-response length of the active dataset.
func (p *Panner) IRLength() int { return p.dataset.active.Load().IRLength() }

// IRSampleRate returns the sample rate of the active dataset in Hz.
func (p *Panner) IRSampleRate() int { return p.dataset.active.Load().SampleRate() }

// SampleRate returns the host sample rate in Hz.
func (p *Panner) SampleRate() float64 { return p.sampleRate }

// FrameSize returns the block length in samples.
func (p *Panner) FrameSize() int { return p.frameSize }

// HopSize returns the filterbank hop size in samples.
func (p *Panner) HopSize() int { return p.hopSize }

// Bands returns the number of subbands.
func (p *Panner) Bands() int { return p.bands }

// TimeSlots returns the number of subband time slots per block.
func (p *Panner) TimeSlots() int { return p.slots }

// ProcessingLatency returns the end-to-end latency in samples: the
// filterbank latency plus one block of crossfade retention.
func (p *Panner) ProcessingLatency() int { return p.latency }
