package hrtf

import "errors"

var (
	// ErrNoFiles reports a directory without any usable measurement files.
	ErrNoFiles = errors.New("hrtf: no measurement files")

	// ErrUnsupportedFile reports a measurement file that is not a stereo
	// PCM WAV file.
	ErrUnsupportedFile = errors.New("hrtf: unsupported measurement file")
)
