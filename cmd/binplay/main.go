// Command binplay renders orbiting test tones through the binaural
// panner and plays them on the default audio device, or writes them to
// a WAV file.
//
// Usage:
//
//	binplay [flags]
//
// Each source carries one harmonic of the base frequency and orbits the
// listener on the horizontal plane, starting at evenly spaced azimuths.
//
// Examples:
//
//	binplay
//	binplay -duration 10s -sources 3
//	binplay -interp nearest -dataset ~/measurements/kemar
//	binplay -wav orbit.wav -duration 5s
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ebitengine/oto/v3"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-spatial/spatial/binaural"
	"github.com/cwbudde/algo-spatial/spatial/core"
)

const toneAmplitude = 0.25

func main() {
	rate := flag.Int("rate", 48000, "output sample rate in Hz")
	duration := flag.Duration("duration", 8*time.Second, "playback duration")
	sources := flag.Int("sources", 2, "number of orbiting sources")
	orbit := flag.Float64("orbit", 45, "orbit speed in degrees per second")
	freq := flag.Float64("freq", 220, "base tone frequency in Hz")
	interp := flag.String("interp", "triangular", "interpolation mode (nearest or triangular)")
	dataset := flag.String("dataset", "", "dataset directory (default: built-in)")
	wavPath := flag.String("wav", "", "write a WAV file instead of playing")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: binplay [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays orbiting test tones rendered through the binaural panner.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  binplay\n")
		fmt.Fprintf(os.Stderr, "  binplay -duration 10s -sources 3\n")
		fmt.Fprintf(os.Stderr, "  binplay -interp nearest -dataset ~/measurements/kemar\n")
		fmt.Fprintf(os.Stderr, "  binplay -wav orbit.wav -duration 5s\n")
	}
	flag.Parse()

	mode, err := parseInterpolation(*interp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := []binaural.PannerOption{
		binaural.WithPannerSources(*sources),
		binaural.WithPannerInterpolation(mode),
	}
	if *dataset != "" {
		opts = append(opts, binaural.WithPannerDatasetPath(*dataset))
	}

	panner, err := binaural.NewPanner(float64(*rate), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *dataset != "" && panner.UsingDefaultDataset() {
		fmt.Fprintf(os.Stderr, "warning: %s not loadable, using the built-in dataset\n", *dataset)
	}

	r := newOrbitRenderer(panner, *rate, *freq, *orbit, *duration)

	if *wavPath != "" {
		if err := writeWAV(*wavPath, r, *rate); err != nil {
			fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", *wavPath, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s: %d sources orbiting at %.0f deg/s\n", *wavPath, panner.NumSources(), *orbit)
		return
	}

	play(r, *rate)
}

func parseInterpolation(name string) (binaural.Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest":
		return binaural.InterpolationNearest, nil
	case "triangular":
		return binaural.InterpolationTriangular, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q (want nearest or triangular)", name)
}

// orbitRenderer synthesizes one harmonic per source, moves the sources
// along the horizontal plane and renders them through the panner one
// block at a time. It implements io.Reader by encoding each rendered
// block as interleaved little-endian float32 stereo.
type orbitRenderer struct {
	panner     *binaural.Panner
	inputs     [][]float64
	outputs    [][]float64
	phases     []float64
	steps      []float64
	azimuths   []float64
	orbitStep  float64
	blocksLeft int
	block      []byte
	pending    []byte
}

func newOrbitRenderer(panner *binaural.Panner, rate int, baseFreq, orbitDegPerSec float64, duration time.Duration) *orbitRenderer {
	frame := panner.FrameSize()
	sources := panner.NumSources()

	r := &orbitRenderer{
		panner:     panner,
		inputs:     make([][]float64, sources),
		outputs:    make([][]float64, binaural.NumEars),
		phases:     make([]float64, sources),
		steps:      make([]float64, sources),
		azimuths:   make([]float64, sources),
		orbitStep:  orbitDegPerSec * float64(frame) / float64(rate),
		blocksLeft: int(math.Ceil(duration.Seconds() * float64(rate) / float64(frame))),
		block:      make([]byte, frame*binaural.NumEars*4),
	}
	for i := range r.inputs {
		r.inputs[i] = make([]float64, frame)
		r.steps[i] = 2 * math.Pi * baseFreq * float64(i+1) / float64(rate)
		r.azimuths[i] = float64(i) * 360 / float64(sources)
	}
	for i := range r.outputs {
		r.outputs[i] = make([]float64, frame)
	}
	return r
}

// renderBlock fills the output buffers with the next block, reporting
// false once the requested duration has been rendered.
func (r *orbitRenderer) renderBlock() bool {
	if r.blocksLeft <= 0 {
		return false
	}
	r.blocksLeft--

	frame := len(r.inputs[0])
	for i, row := range r.inputs {
		phase := r.phases[i]
		for t := range row {
			row[t] = toneAmplitude * math.Sin(phase)
			phase += r.steps[i]
		}
		r.phases[i] = math.Mod(phase, 2*math.Pi)

		r.azimuths[i] = math.Mod(r.azimuths[i]+r.orbitStep+180, 360) - 180
		r.panner.SetSourceDirection(i, r.azimuths[i], 0)
	}

	r.panner.Process(r.inputs, r.outputs, frame, true)
	return true
}

func (r *orbitRenderer) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if !r.renderBlock() {
			return 0, io.EOF
		}
		left, right := r.outputs[0], r.outputs[1]
		for t := range left {
			binary.LittleEndian.PutUint32(r.block[8*t:], math.Float32bits(float32(left[t])))
			binary.LittleEndian.PutUint32(r.block[8*t+4:], math.Float32bits(float32(right[t])))
		}
		r.pending = r.block
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func play(r *orbitRenderer, rate int) {
	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: binaural.NumEars,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	player := ctx.NewPlayer(r)
	player.Play()
	for player.IsPlaying() {
		time.Sleep(20 * time.Millisecond)
	}
	if err := player.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: closing player: %v\n", err)
		os.Exit(1)
	}
}

func writeWAV(path string, r *orbitRenderer, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, binaural.NumEars, 1)
	frame := len(r.outputs[0])
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: binaural.NumEars, SampleRate: rate},
		Data:           make([]int, frame*binaural.NumEars),
		SourceBitDepth: 16,
	}
	for r.renderBlock() {
		left, right := r.outputs[0], r.outputs[1]
		for t := range left {
			buf.Data[2*t] = pcm16(left[t])
			buf.Data[2*t+1] = pcm16(right[t])
		}
		if err := enc.Write(buf); err != nil {
			return err
		}
	}
	return enc.Close()
}

func pcm16(v float64) int {
	return int(math.Round(core.Clamp(v, -1, 1) * 32767))
}
