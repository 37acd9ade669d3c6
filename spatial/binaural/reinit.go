package binaural

import "sync/atomic"

const (
	reinitClean int32 = iota
	reinitRequested
	reinitInProgress
)

// reinitFlag coordinates heavyweight rebuilds between control and audio
// goroutines. Setters move the flag to requested from any goroutine;
// the audio goroutine claims it at the start of a block and releases it
// when the rebuild completed. A request arriving mid-rebuild wins over
// the release, so the next block rebuilds again.
type reinitFlag struct {
	state atomic.Int32
}

func (f *reinitFlag) request() {
	f.state.Store(reinitRequested)
}

// take claims a pending request for the current block.
func (f *reinitFlag) take() bool {
	return f.state.CompareAndSwap(reinitRequested, reinitInProgress)
}

func (f *reinitFlag) finish() {
	f.state.CompareAndSwap(reinitInProgress, reinitClean)
}

func (f *reinitFlag) clean() bool {
	return f.state.Load() == reinitClean
}
