package binaural

import "errors"

// ErrInvalidChannelOrder is returned when a channel ordering convention
// other than ACN is requested.
var ErrInvalidChannelOrder = errors.New("binaural: unsupported channel order")
