package hrtf

import (
	"math"
	"testing"
)

func TestDefault_GridCoverage(t *testing.T) {
	ds := Default(48000)

	if got, want := ds.NumDirections(), 24*11+2; got != want {
		t.Fatalf("NumDirections() = %d, want %d", got, want)
	}
	if got := ds.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %d, want 48000", got)
	}
	if got := ds.IRLength(); got != 128 {
		t.Fatalf("IRLength() = %d, want 128", got)
	}
	if got := ds.Path(); got != "" {
		t.Fatalf("Path() = %q, want empty", got)
	}

	foundDown, foundUp := false, false
	for i := 0; i < ds.NumDirections(); i++ {
		switch _, elev := ds.Direction(i); elev {
		case -90:
			foundDown = true
		case 90:
			foundUp = true
		}
	}
	if !foundDown || !foundUp {
		t.Fatalf("poles present = %v, %v, want both", foundDown, foundUp)
	}
}

func TestDefault_FallsBackOnInvalidSampleRate(t *testing.T) {
	ds := Default(0)

	if got := ds.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %d, want 48000", got)
	}
}

func TestDefault_ITDSigns(t *testing.T) {
	ds := Default(48000)

	for i := 0; i < ds.NumDirections(); i++ {
		azi, elev := ds.Direction(i)
		itd := ds.ITD(i)

		switch {
		case azi > 0 && azi < 180 && elev > -90 && elev < 90:
			if itd <= 0 {
				t.Fatalf("ITD at azi %v elev %v = %v, want positive", azi, elev, itd)
			}
		case azi < 0 && elev > -90 && elev < 90:
			if itd >= 0 {
				t.Fatalf("ITD at azi %v elev %v = %v, want negative", azi, elev, itd)
			}
		default:
			if math.Abs(itd) > 1e-12 {
				t.Fatalf("ITD at azi %v elev %v = %v, want 0", azi, elev, itd)
			}
		}
	}
}

func TestDefault_ITDPeaksAtSide(t *testing.T) {
	ds := Default(48000)

	want := defaultHeadRadius / defaultSpeedOfSound * (math.Pi/2 + 1)
	maxITD := 0.0
	for i := 0; i < ds.NumDirections(); i++ {
		if itd := ds.ITD(i); itd > maxITD {
			maxITD = itd
		}

		azi, elev := ds.Direction(i)
		if azi == 90 && elev == 0 {
			if diff := math.Abs(ds.ITD(i) - want); diff > 1e-12 {
				t.Fatalf("ITD at the left side = %v, want %v", ds.ITD(i), want)
			}
		}
	}
	if diff := math.Abs(maxITD - want); diff > 1e-12 {
		t.Fatalf("max ITD = %v, want %v", maxITD, want)
	}
}

func TestDefault_LeftRightSymmetry(t *testing.T) {
	ds := Default(48000)

	index := make(map[[2]float64]int, ds.NumDirections())
	for i := 0; i < ds.NumDirections(); i++ {
		azi, elev := ds.Direction(i)
		index[[2]float64{azi, elev}] = i
	}

	for i := 0; i < ds.NumDirections(); i++ {
		azi, elev := ds.Direction(i)
		mirrorAzi := -azi
		if azi == 180 {
			mirrorAzi = 180
		}
		j, ok := index[[2]float64{mirrorAzi, elev}]
		if !ok {
			t.Fatalf("no mirror direction for azi %v elev %v", azi, elev)
		}

		left, right := ds.IR(i)
		mirrorLeft, mirrorRight := ds.IR(j)
		for n := range left {
			if math.Abs(left[n]-mirrorRight[n]) > 1e-9 || math.Abs(right[n]-mirrorLeft[n]) > 1e-9 {
				t.Fatalf("azi %v elev %v: ears are not mirrored at sample %d", azi, elev, n)
			}
		}
	}
}

func TestDefault_FrontIsCenteredAndBalanced(t *testing.T) {
	ds := Default(48000)

	for i := 0; i < ds.NumDirections(); i++ {
		azi, elev := ds.Direction(i)
		if azi != 0 || elev != 0 {
			continue
		}

		if itd := ds.ITD(i); math.Abs(itd) > 1e-12 {
			t.Fatalf("frontal ITD = %v, want 0", itd)
		}

		left, right := ds.IR(i)
		peak, peakAt := 0.0, 0
		for n, v := range left {
			if math.Abs(v) > peak {
				peak, peakAt = math.Abs(v), n
			}
			if left[n] != right[n] {
				t.Fatalf("frontal ears differ at sample %d: %v vs %v", n, left[n], right[n])
			}
		}
		if peakAt != ds.IRLength()/4 {
			t.Fatalf("frontal peak at sample %d, want %d", peakAt, ds.IRLength()/4)
		}
		if peak < 0.9 || peak > 1.0 {
			t.Fatalf("frontal peak = %v, want within [0.9, 1.0]", peak)
		}
		return
	}
	t.Fatal("no frontal direction in grid")
}

func TestDefault_ShadowAttenuatesFarEar(t *testing.T) {
	ds := Default(48000)

	energy := func(ir []float64) float64 {
		sum := 0.0
		for _, v := range ir {
			sum += v * v
		}
		return sum
	}

	for i := 0; i < ds.NumDirections(); i++ {
		azi, elev := ds.Direction(i)
		if azi != 90 || elev != 0 {
			continue
		}

		left, right := ds.IR(i)
		if energy(left) <= energy(right) {
			t.Fatalf("left energy %v not above right energy %v for a source at the left",
				energy(left), energy(right))
		}
		return
	}
	t.Fatal("no left-side direction in grid")
}

func TestDefault_EstimatedITDMatchesModel(t *testing.T) {
	ds := Default(48000)

	estimated := estimateITDs(ds.irs, ds.SampleRate())
	tol := 1.5 / float64(ds.SampleRate())
	for i := 0; i < ds.NumDirections(); i++ {
		if diff := math.Abs(estimated[i] - ds.ITD(i)); diff > tol {
			azi, elev := ds.Direction(i)
			t.Fatalf("estimated ITD at azi %v elev %v = %v, model %v, diff %v",
				azi, elev, estimated[i], ds.ITD(i), diff)
		}
	}
}
