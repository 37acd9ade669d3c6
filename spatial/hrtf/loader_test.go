package hrtf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeStereoFixture(t *testing.T, path string, left, right []float64, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, NumEars, 1)
	data := make([]int, 0, len(left)*NumEars)
	for i := range left {
		data = append(data, int(left[i]*32767), int(right[i]*32767))
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: NumEars, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}
}

func writeMonoFixture(t *testing.T, path string, samples []float64, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v * 32767)
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}
}

func TestLoadDirectory_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	leftLeads := make([]float64, 64)
	rightTrails := make([]float64, 64)
	leftLeads[8] = 0.5
	rightTrails[12] = 0.25
	writeStereoFixture(t, filepath.Join(dir, "azi30_elev0.wav"), leftLeads, rightTrails, 48000)
	writeStereoFixture(t, filepath.Join(dir, "azi-30_elev0.wav"), rightTrails, leftLeads, 48000)
	writeStereoFixture(t, filepath.Join(dir, "azi0_elev45.wav"), leftLeads, leftLeads, 48000)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	ds, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}

	if got := ds.NumDirections(); got != 3 {
		t.Fatalf("NumDirections() = %d, want 3", got)
	}
	if got := ds.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %d, want 48000", got)
	}
	if got := ds.IRLength(); got != 64 {
		t.Fatalf("IRLength() = %d, want 64", got)
	}
	if got := ds.Path(); got != dir {
		t.Fatalf("Path() = %q, want %q", got, dir)
	}

	at := func(azi, elev float64) int {
		t.Helper()
		for i := 0; i < ds.NumDirections(); i++ {
			a, e := ds.Direction(i)
			if a == azi && e == elev {
				return i
			}
		}
		t.Fatalf("direction azi %v elev %v not loaded", azi, elev)
		return -1
	}

	i := at(30, 0)
	left, right := ds.IR(i)
	if diff := left[8] - 0.5; diff < -1e-3 || diff > 1e-3 {
		t.Fatalf("IR left[8] = %v, want about 0.5", left[8])
	}
	if diff := right[12] - 0.25; diff < -1e-3 || diff > 1e-3 {
		t.Fatalf("IR right[12] = %v, want about 0.25", right[12])
	}
	if itd := ds.ITD(i); itd <= 0 {
		t.Fatalf("ITD at azi 30 = %v, want positive", itd)
	}
	if itd := ds.ITD(at(-30, 0)); itd >= 0 {
		t.Fatalf("ITD at azi -30 = %v, want negative", itd)
	}

	at(0, 45)
}

func TestLoadDirectory_PadsShortResponses(t *testing.T) {
	dir := t.TempDir()

	short := make([]float64, 32)
	long := make([]float64, 64)
	short[4] = 0.5
	long[4] = 0.5
	writeStereoFixture(t, filepath.Join(dir, "azi0_elev0.wav"), short, short, 44100)
	writeStereoFixture(t, filepath.Join(dir, "azi90_elev0.wav"), long, long, 44100)

	ds, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}

	if got := ds.IRLength(); got != 64 {
		t.Fatalf("IRLength() = %d, want 64", got)
	}
	for i := 0; i < ds.NumDirections(); i++ {
		left, right := ds.IR(i)
		for n := 32; n < 64; n++ {
			if azi, _ := ds.Direction(i); azi == 0 && (left[n] != 0 || right[n] != 0) {
				t.Fatalf("padded tail not zero at direction %d sample %d", i, n)
			}
		}
	}
}

func TestLoadDirectory_NoFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadDirectory(dir); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("LoadDirectory(empty) error = %v, want ErrNoFiles", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}
	if _, err := LoadDirectory(dir); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("LoadDirectory(no measurements) error = %v, want ErrNoFiles", err)
	}
}

func TestLoadDirectory_RejectsMono(t *testing.T) {
	dir := t.TempDir()

	samples := make([]float64, 32)
	samples[0] = 1
	writeMonoFixture(t, filepath.Join(dir, "azi0_elev0.wav"), samples, 48000)

	if _, err := LoadDirectory(dir); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("LoadDirectory(mono) error = %v, want ErrUnsupportedFile", err)
	}
}

func TestLoadDirectory_RejectsMixedSampleRates(t *testing.T) {
	dir := t.TempDir()

	ir := make([]float64, 32)
	ir[0] = 1
	writeStereoFixture(t, filepath.Join(dir, "azi0_elev0.wav"), ir, ir, 44100)
	writeStereoFixture(t, filepath.Join(dir, "azi90_elev0.wav"), ir, ir, 48000)

	_, err := LoadDirectory(dir)
	if err == nil {
		t.Fatal("LoadDirectory(mixed rates) error = nil, want error")
	}
	if errors.Is(err, ErrNoFiles) {
		t.Fatalf("LoadDirectory(mixed rates) error = %v, want a sample rate error", err)
	}
}

func TestLoadDirectory_MissingDirectory(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("LoadDirectory(absent) error = nil, want error")
	}
}

func TestParseMeasurementName(t *testing.T) {
	tests := []struct {
		name     string
		wantAzi  float64
		wantElev float64
		wantOK   bool
	}{
		{name: "azi-30_elev15.wav", wantAzi: -30, wantElev: 15, wantOK: true},
		{name: "azi22.5_elev-7.5.wav", wantAzi: 22.5, wantElev: -7.5, wantOK: true},
		{name: "azi0_elev0.WAV", wantAzi: 0, wantElev: 0, wantOK: true},
		{name: "azi180_elev90.wav", wantAzi: 180, wantElev: 90, wantOK: true},
		{name: "AZI0_elev0.wav", wantOK: false},
		{name: "azi0elev0.wav", wantOK: false},
		{name: "azi0_elev0.txt", wantOK: false},
		{name: "front.wav", wantOK: false},
		{name: "azi_elev.wav", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			azi, elev, ok := parseMeasurementName(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("parseMeasurementName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if ok && (azi != tt.wantAzi || elev != tt.wantElev) {
				t.Fatalf("parseMeasurementName(%q) = %v, %v, want %v, %v",
					tt.name, azi, elev, tt.wantAzi, tt.wantElev)
			}
		})
	}
}
