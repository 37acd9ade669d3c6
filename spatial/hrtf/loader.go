package hrtf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// LoadDirectory loads a measurement dataset from a directory of stereo
// WAV files named azi<azimuth>_elev<elevation>.wav, for example
// azi-30_elev15.wav. Files with other names are ignored. All
// measurements must share one sample rate; shorter responses are
// zero-padded to the longest one.
func LoadDirectory(dir string) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("hrtf: reading %s: %w", dir, err)
	}

	var (
		dirs       [][2]float64
		irs        [][NumEars][]float64
		sampleRate int
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		azimuth, elevation, ok := parseMeasurementName(entry.Name())
		if !ok {
			continue
		}

		left, right, rate, err := readStereoWAV(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("hrtf: %s: %w", entry.Name(), err)
		}
		if sampleRate == 0 {
			sampleRate = rate
		} else if rate != sampleRate {
			return nil, fmt.Errorf("hrtf: %s: sample rate %d Hz differs from %d Hz", entry.Name(), rate, sampleRate)
		}

		dirs = append(dirs, [2]float64{azimuth, elevation})
		irs = append(irs, [NumEars][]float64{left, right})
	}

	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}

	ds, err := FromMeasurements(dirs, irs, sampleRate)
	if err != nil {
		return nil, err
	}
	ds.path = dir

	return ds, nil
}

// parseMeasurementName extracts the direction from a file name of the
// form azi<azimuth>_elev<elevation>.wav. The extension is matched case
// insensitively, the azi and elev markers are not.
func parseMeasurementName(name string) (azimuth, elevation float64, ok bool) {
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, ".wav") {
		return 0, 0, false
	}

	base := strings.TrimSuffix(name, ext)
	aziPart, elevPart, found := strings.Cut(base, "_")
	if !found {
		return 0, 0, false
	}

	aziText, hasAzi := strings.CutPrefix(aziPart, "azi")
	elevText, hasElev := strings.CutPrefix(elevPart, "elev")
	if !hasAzi || !hasElev {
		return 0, 0, false
	}

	azimuth, errAzi := strconv.ParseFloat(aziText, 64)
	elevation, errElev := strconv.ParseFloat(elevText, 64)
	if errAzi != nil || errElev != nil {
		return 0, 0, false
	}

	return azimuth, elevation, true
}

// readStereoWAV decodes a stereo PCM WAV file into per-ear sample
// slices normalized to [-1, 1].
func readStereoWAV(path string) (left, right []float64, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, 0, ErrUnsupportedFile
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels != NumEars {
		return nil, nil, 0, fmt.Errorf("%w: need %d channels", ErrUnsupportedFile, NumEars)
	}
	sampleRate = format.SampleRate

	var scale float64
	switch dec.BitDepth {
	case 16:
		scale = 1 << 15
	case 24:
		scale = 1 << 23
	case 32:
		scale = 1 << 31
	default:
		return nil, nil, 0, fmt.Errorf("%w: %d bit samples", ErrUnsupportedFile, dec.BitDepth)
	}

	buf := &goaudio.IntBuffer{
		Data:   make([]int, 2048*NumEars),
		Format: format,
	}
	for {
		n, readErr := dec.PCMBuffer(buf)
		for i := 0; i+1 < n; i += NumEars {
			left = append(left, float64(buf.Data[i])/scale)
			right = append(right, float64(buf.Data[i+1])/scale)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, nil, 0, readErr
		}
		if n == 0 {
			break
		}
	}

	if len(left) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: no samples", ErrUnsupportedFile)
	}

	return left, right, sampleRate, nil
}
