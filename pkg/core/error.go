package core

import (
	"errors"
	"fmt"

	"github.com/scanon/AssemblyHomologyService/pkg/storage"
)

// ErrIncompatibleNamespaces is returned when the selected namespaces were
// built with more than one MinHash implementation.
var ErrIncompatibleNamespaces = errors.New("the selected namespaces must share the same implementation")

// IllegalParameterError is returned for malformed request input, e.g. an
// empty namespace set or an illegal namespace name.
type IllegalParameterError struct {
	Reason string
}

func (e IllegalParameterError) Error() string { return e.Reason }

// InvalidSketchError is returned when the query sketch file is not a valid
// single-sequence sketch. The reason is safe to show to users; tool
// diagnostics are logged separately and never included.
type InvalidSketchError struct {
	Reason string
}

func (e InvalidSketchError) Error() string { return e.Reason }

// IncompatibleSketchesError is returned when the query sketch's parameters
// cannot be reconciled with a namespace's sketch database under the
// requested comparison mode.
type IncompatibleSketchesError struct {
	NamespaceID string
	Reason      string
}

func (e IncompatibleSketchesError) Error() string {
	return fmt.Sprintf("unable to query namespace %s with input sketch: %s",
		e.NamespaceID, e.Reason)
}

// CorruptDataError indicates the sketch database and the metadata store
// disagree: a distance result references a sequence with no stored metadata.
// Fatal and non-retryable; distinct from an ordinary not-found.
type CorruptDataError struct {
	NamespaceID string
	Err         error
}

func (e CorruptDataError) Error() string {
	return fmt.Sprintf("database is corrupt, unable to find sequences from sketch file for namespace %s: %v",
		e.NamespaceID, e.Err)
}

func (e CorruptDataError) Unwrap() error { return e.Err }

// IsUserError reports whether err is caused by bad request input rather
// than a system fault. Callers use this to pick a 4xx-equivalent response;
// everything else is reported opaquely and logged in full.
func IsUserError(err error) bool {
	var (
		illegalParam IllegalParameterError
		invalidSkech InvalidSketchError
		incompSketch IncompatibleSketchesError
		noNamespace  storage.NoSuchNamespaceError
	)
	return errors.Is(err, ErrIncompatibleNamespaces) ||
		errors.As(err, &illegalParam) ||
		errors.As(err, &invalidSkech) ||
		errors.As(err, &incompSketch) ||
		errors.As(err, &noNamespace)
}
