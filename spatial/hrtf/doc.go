// Package hrtf provides head-related transfer function datasets for
// binaural rendering.
//
// A Dataset holds a set of measurement directions with one impulse
// response pair per direction, the per-direction interaural time
// differences, and the measurement sample rate. Datasets come from
// three places: Default builds a synthetic spherical-head set,
// LoadDirectory reads a directory of stereo WAV measurements, and
// FromMeasurements wraps impulse responses obtained elsewhere.
//
// Directions are in degrees with azimuth counter-clockwise from the
// front (positive toward the listener's left ear) and elevation
// positive upward. Interaural time differences are in seconds and
// positive when the sound reaches the left ear first.
package hrtf
