package vbap

import "errors"

var (
	// ErrTooFewDirections reports a direction set too small for the
	// requested mode.
	ErrTooFewDirections = errors.New("vbap: too few directions")

	// ErrDegenerate reports a direction set without a usable three
	// dimensional span.
	ErrDegenerate = errors.New("vbap: degenerate direction set")
)
