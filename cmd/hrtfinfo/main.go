// Command hrtfinfo prints measurement-grid properties of head-related
// impulse-response datasets.
//
// Usage:
//
//	hrtfinfo [flags] [dataset-dir ...]
//
// Without arguments it analyzes the built-in spherical-head dataset.
//
// Examples:
//
//	hrtfinfo
//	hrtfinfo -rate 44100
//	hrtfinfo -itd ~/measurements/kemar
//	hrtfinfo -bands 8 ~/measurements/kemar
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/cwbudde/algo-spatial/spatial/hrtf"
	"github.com/cwbudde/algo-spatial/spatial/vbap"
)

type datasetEntry struct {
	label string
	ds    *hrtf.Dataset
}

func main() {
	rate := flag.Int("rate", 48000, "sample rate the built-in dataset is synthesized at")
	itd := flag.Bool("itd", false, "print per-direction interaural time differences")
	bands := flag.Int("bands", 0, "average ear magnitudes over this many frequency bands")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hrtfinfo [flags] [dataset-dir ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints measurement-grid properties of head-related datasets.\n")
		fmt.Fprintf(os.Stderr, "Without arguments it analyzes the built-in spherical-head dataset.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo -rate 44100\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo -itd ~/measurements/kemar\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo -bands 8 ~/measurements/kemar\n")
	}
	flag.Parse()

	entries := resolveDatasets(flag.Args(), *rate)
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "error: no loadable datasets\n")
		os.Exit(1)
	}

	printSummary(entries)
	if *itd {
		for _, e := range entries {
			printITDs(e)
		}
	}
	if *bands > 0 {
		for _, e := range entries {
			printBandAverages(e, *bands)
		}
	}
}

func resolveDatasets(dirs []string, rate int) []datasetEntry {
	if len(dirs) == 0 {
		return []datasetEntry{{"built-in", hrtf.Default(rate)}}
	}

	var result []datasetEntry
	for _, dir := range dirs {
		ds, err := hrtf.LoadDirectory(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", dir, err)
			continue
		}
		result = append(result, datasetEntry{dir, ds})
	}
	return result
}

func printSummary(entries []datasetEntry) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Dataset\tDirections\tIR Length\tRate [Hz]\tRings\tMax ITD [us]\tTriangles\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "-------\t----------\t---------\t---------\t-----\t------------\t---------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f\t%s\n",
			e.label,
			e.ds.NumDirections(),
			e.ds.IRLength(),
			e.ds.SampleRate(),
			countRings(e.ds),
			maxAbsITD(e.ds)*1e6,
			triangleCount(e.ds),
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

// countRings counts the distinct elevation rings of the grid.
func countRings(ds *hrtf.Dataset) int {
	seen := make(map[float64]struct{})
	for i := 0; i < ds.NumDirections(); i++ {
		_, elevation := ds.Direction(i)
		seen[elevation] = struct{}{}
	}
	return len(seen)
}

func maxAbsITD(ds *hrtf.Dataset) float64 {
	peak := 0.0
	for i := 0; i < ds.NumDirections(); i++ {
		peak = max(peak, math.Abs(ds.ITD(i)))
	}
	return peak
}

// triangleCount reports how many triangles a spherical triangulation of
// the grid yields, or "-" when the grid cannot be triangulated.
func triangleCount(ds *hrtf.Dataset) string {
	table, err := vbap.NewTable(ds.Directions(), vbap.ModeTriangular)
	if err != nil {
		return "-"
	}
	return strconv.Itoa(table.NumTriangles())
}

func printITDs(e datasetEntry) {
	order := make([]int, e.ds.NumDirections())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		aziA, elevA := e.ds.Direction(order[a])
		aziB, elevB := e.ds.Direction(order[b])
		if elevA != elevB {
			return elevA < elevB
		}
		return aziA < aziB
	})

	fmt.Printf("\n%s: interaural time differences\n", e.label)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Azimuth [deg]\tElevation [deg]\tITD [us]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "-------------\t---------------\t--------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	for _, i := range order {
		azimuth, elevation := e.ds.Direction(i)
		if _, err := fmt.Fprintf(tw, "%.1f\t%.1f\t%+.1f\n", azimuth, elevation, e.ds.ITD(i)*1e6); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

// printBandAverages prints the grid-average ear magnitude in a few
// frequency bands, a quick flatness check for a dataset.
func printBandAverages(e datasetEntry, bands int) {
	nyquist := float64(e.ds.SampleRate()) / 2
	freqs := make([]float64, bands)
	for k := range freqs {
		freqs[k] = (float64(k) + 0.5) * nyquist / float64(bands)
	}
	mags := hrtf.BandMagnitudes(hrtf.BandResponses(e.ds, freqs))

	fmt.Printf("\n%s: grid-average ear magnitudes\n", e.label)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Band\tCenter [Hz]\tAvg Left\tAvg Right\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "----\t-----------\t--------\t---------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	for k := range freqs {
		var left, right float64
		for i := range mags {
			left += mags[i][0][k]
			right += mags[i][1][k]
		}
		n := float64(len(mags))
		if _, err := fmt.Fprintf(tw, "%d\t%.0f\t%.4f\t%.4f\n", k, freqs[k], left/n, right/n); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
