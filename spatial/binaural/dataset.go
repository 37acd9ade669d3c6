package binaural

import (
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-spatial/spatial/hrtf"
)

// datasetSlot tracks which head-related dataset an engine should use.
// Requests arrive from the control goroutine; the audio goroutine
// resolves them during a codec rebuild. The active dataset is published
// through an atomic pointer so metadata getters never block.
type datasetSlot struct {
	mu         sync.Mutex
	path       string
	useDefault bool
	injected   *hrtf.Dataset

	active       atomic.Pointer[hrtf.Dataset]
	usingDefault atomic.Bool
}

func (s *datasetSlot) requestPath(path string) {
	s.mu.Lock()
	s.path = path
	s.useDefault = false
	s.injected = nil
	s.mu.Unlock()
}

func (s *datasetSlot) requestDefault() {
	s.mu.Lock()
	s.useDefault = true
	s.injected = nil
	s.mu.Unlock()
}

func (s *datasetSlot) inject(ds *hrtf.Dataset) {
	s.mu.Lock()
	s.injected = ds
	s.useDefault = false
	if p := ds.Path(); p != "" {
		s.path = p
	}
	s.mu.Unlock()
}

// requestedPath returns the last dataset directory asked for, or the
// no-file marker when none ever was. A failed load keeps the path
// visible here.
func (s *datasetSlot) requestedPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return noDatasetPath
	}
	return s.path
}

// resolve loads whatever was requested and publishes it. A directory
// that cannot be loaded falls back to the built-in spherical-head set.
func (s *datasetSlot) resolve(sampleRate int) *hrtf.Dataset {
	s.mu.Lock()
	path := s.path
	useDefault := s.useDefault
	injected := s.injected
	s.mu.Unlock()

	if injected != nil {
		s.publish(injected, false)
		return injected
	}
	if !useDefault && path != "" {
		if ds, err := hrtf.LoadDirectory(path); err == nil {
			s.publish(ds, false)
			return ds
		}
	}
	ds := hrtf.Default(sampleRate)
	s.publish(ds, true)
	return ds
}

func (s *datasetSlot) publish(ds *hrtf.Dataset, isDefault bool) {
	s.active.Store(ds)
	s.usingDefault.Store(isDefault)
}
