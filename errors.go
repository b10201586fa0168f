package decsync

import (
	"fmt"

	"github.com/crdtsync/decsync/model"
)

// ParseError is re-exported so callers can errors.As against a single
// decsync.ParseError type without reaching into the internal model package.
type ParseError = model.ParseError

// InvalidInfoError is returned when .decsync-info exists but cannot be
// parsed or is structurally wrong (missing/invalid "version").
type InvalidInfoError struct {
	Path string
	Err  error
}

func (e *InvalidInfoError) Error() string {
	return fmt.Sprintf("decsync: invalid info file %s: %v", e.Path, e.Err)
}

func (e *InvalidInfoError) Unwrap() error { return e.Err }

// UnsupportedVersionError is returned when .decsync-info declares a version
// this build does not know how to speak.
type UnsupportedVersionError struct {
	Required  int
	Supported int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("decsync: directory requires version %d, this build supports up to %d",
		e.Required, e.Supported)
}

// errClosedType is returned by the Decsync methods that read or write the
// directory when called after Close.
type errClosedType struct{}

func (errClosedType) Error() string { return "decsync: instance is closed" }

var errClosed = errClosedType{}
