package tft

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-spatial/spatial/core"
	"github.com/cwbudde/algo-spatial/spatial/window"
)

const (
	// MinHopSize is the smallest supported hop.
	MinHopSize = 16
	// MaxHopSize is the largest supported hop.
	MaxHopSize = 2048
	// DefaultHopSize matches the hop the rendering engines use.
	DefaultHopSize = 128
	// MaxChannels bounds the analysis channel count.
	MaxChannels = 64
)

// Processor is a streaming WOLA filterbank for fixed-size blocks. It is not
// safe for concurrent use.
type Processor struct {
	inChannels  int
	outChannels int
	hop         int
	frameSize   int
	slots       int
	bands       int
	fftSize     int

	win  []float64
	plan *algofft.Plan[complex128]

	analysisHist [][]float64
	synthOverlap [][]float64

	fftBuf []complex128
}

// NewProcessor creates a filterbank analyzing inChannels and synthesizing
// outChannels, with the given hop and block size. The hop must be a power
// of two in [MinHopSize, MaxHopSize] and frameSize a positive multiple of
// the hop.
func NewProcessor(inChannels, outChannels, hopSize, frameSize int) (*Processor, error) {
	if inChannels < 1 || inChannels > MaxChannels {
		return nil, fmt.Errorf("tft: input channels must be in [1, %d]: %d", MaxChannels, inChannels)
	}
	if outChannels < 1 || outChannels > MaxChannels {
		return nil, fmt.Errorf("tft: output channels must be in [1, %d]: %d", MaxChannels, outChannels)
	}
	if hopSize < MinHopSize || hopSize > MaxHopSize || hopSize&(hopSize-1) != 0 {
		return nil, fmt.Errorf("tft: hop size must be a power of two in [%d, %d]: %d", MinHopSize, MaxHopSize, hopSize)
	}
	if frameSize <= 0 || frameSize%hopSize != 0 {
		return nil, fmt.Errorf("tft: frame size must be a positive multiple of the hop: %d", frameSize)
	}

	fftSize := 2 * hopSize
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("tft: failed to create FFT plan: %w", err)
	}

	p := &Processor{
		inChannels:  inChannels,
		outChannels: outChannels,
		hop:         hopSize,
		frameSize:   frameSize,
		slots:       frameSize / hopSize,
		bands:       hopSize + 1,
		fftSize:     fftSize,
		win:         window.Generate(window.TypeHann, fftSize, window.WithPeriodic(), window.WithSqrt()),
		plan:        plan,
		fftBuf:      make([]complex128, fftSize),
	}

	p.analysisHist = make([][]float64, inChannels)
	for c := range p.analysisHist {
		p.analysisHist[c] = make([]float64, hopSize)
	}
	p.synthOverlap = make([][]float64, outChannels)
	for c := range p.synthOverlap {
		p.synthOverlap[c] = make([]float64, hopSize)
	}

	return p, nil
}

// InChannels returns the analysis channel count.
func (p *Processor) InChannels() int { return p.inChannels }

// OutChannels returns the synthesis channel count.
func (p *Processor) OutChannels() int { return p.outChannels }

// Bands returns the subband count per channel (hop+1).
func (p *Processor) Bands() int { return p.bands }

// TimeSlots returns the hops per block.
func (p *Processor) TimeSlots() int { return p.slots }

// HopSize returns the hop in samples.
func (p *Processor) HopSize() int { return p.hop }

// FrameSize returns the block size in samples.
func (p *Processor) FrameSize() int { return p.frameSize }

// Latency returns the analysis-synthesis delay in samples (window length
// minus hop).
func (p *Processor) Latency() int { return p.hop }

// CenterFrequencies returns the band center frequencies in Hz for the given
// sample rate.
func (p *Processor) CenterFrequencies(sampleRate float64) []float64 {
	out := make([]float64, p.bands)
	for k := range out {
		out[k] = float64(k) * sampleRate / float64(p.fftSize)
	}
	return out
}

// Reset clears the analysis history and synthesis overlap state.
func (p *Processor) Reset() {
	for c := range p.analysisHist {
		core.Zero(p.analysisHist[c])
	}
	for c := range p.synthOverlap {
		core.Zero(p.synthOverlap[c])
	}
}

// Forward analyzes one block of inChannels x FrameSize samples into dst,
// laid out (band, channel, slot) with length Bands*InChannels*TimeSlots.
func (p *Processor) Forward(frame [][]float64, dst []complex128) error {
	if len(frame) != p.inChannels {
		return fmt.Errorf("tft: forward expects %d channels: %d", p.inChannels, len(frame))
	}
	for c := range frame {
		if len(frame[c]) != p.frameSize {
			return fmt.Errorf("tft: forward channel %d expects %d samples: %d", c, p.frameSize, len(frame[c]))
		}
	}
	if len(dst) != p.bands*p.inChannels*p.slots {
		return fmt.Errorf("tft: forward tensor length must be %d: %d", p.bands*p.inChannels*p.slots, len(dst))
	}

	for t := 0; t < p.slots; t++ {
		for c := 0; c < p.inChannels; c++ {
			hist := p.analysisHist[c]
			hopIn := frame[c][t*p.hop : (t+1)*p.hop]

			for i := 0; i < p.hop; i++ {
				p.fftBuf[i] = complex(hist[i]*p.win[i], 0)
				p.fftBuf[i+p.hop] = complex(hopIn[i]*p.win[i+p.hop], 0)
			}
			copy(hist, hopIn)

			if err := p.plan.Forward(p.fftBuf, p.fftBuf); err != nil {
				return fmt.Errorf("tft: forward FFT failed: %w", err)
			}

			for k := 0; k < p.bands; k++ {
				dst[(k*p.inChannels+c)*p.slots+t] = p.fftBuf[k]
			}
		}
	}
	return nil
}

// Inverse synthesizes a (band, channel, slot) tensor of length
// Bands*OutChannels*TimeSlots into outChannels x FrameSize samples.
func (p *Processor) Inverse(src []complex128, frame [][]float64) error {
	if len(frame) != p.outChannels {
		return fmt.Errorf("tft: inverse expects %d channels: %d", p.outChannels, len(frame))
	}
	for c := range frame {
		if len(frame[c]) != p.frameSize {
			return fmt.Errorf("tft: inverse channel %d expects %d samples: %d", c, p.frameSize, len(frame[c]))
		}
	}
	if len(src) != p.bands*p.outChannels*p.slots {
		return fmt.Errorf("tft: inverse tensor length must be %d: %d", p.bands*p.outChannels*p.slots, len(src))
	}

	for t := 0; t < p.slots; t++ {
		for c := 0; c < p.outChannels; c++ {
			for k := 0; k < p.bands; k++ {
				p.fftBuf[k] = src[(k*p.outChannels+c)*p.slots+t]
			}
			// Hermitian mirror of the upper half; bin hop is its own mirror.
			for k := 1; k < p.hop; k++ {
				re, im := real(p.fftBuf[k]), imag(p.fftBuf[k])
				p.fftBuf[p.fftSize-k] = complex(re, -im)
			}

			if err := p.plan.Inverse(p.fftBuf, p.fftBuf); err != nil {
				return fmt.Errorf("tft: inverse FFT failed: %w", err)
			}

			over := p.synthOverlap[c]
			out := frame[c][t*p.hop : (t+1)*p.hop]
			for i := 0; i < p.hop; i++ {
				out[i] = real(p.fftBuf[i])*p.win[i] + over[i]
				over[i] = real(p.fftBuf[i+p.hop]) * p.win[i+p.hop]
			}
		}
	}
	return nil
}
