package minhash

import "fmt"

// NotASketchError is returned when a file is not a well-formed sketch
// database for the implementation that tried to load it. Stderr carries any
// diagnostic output from the underlying tool; callers log it but must not
// surface it to users.
type NotASketchError struct {
	Path   string
	Stderr string
}

func (e NotASketchError) Error() string {
	return fmt.Sprintf("%s is not a valid sketch file", e.Path)
}

// InitError is returned when an implementation cannot be instantiated, e.g.
// the underlying binary is missing from the environment.
type InitError struct {
	Implementation string
	Err            error
}

func (e InitError) Error() string {
	return fmt.Sprintf("initializing %s implementation: %v", e.Implementation, e.Err)
}

func (e InitError) Unwrap() error { return e.Err }

// IncompatibleSketchesError is returned by CheckQueryCompatibility when the
// query's sketch parameters cannot be reconciled with the reference
// database's, even under lenient mode.
type IncompatibleSketchesError struct {
	Reason string
}

func (e IncompatibleSketchesError) Error() string { return e.Reason }
