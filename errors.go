package darkflight

import "errors"

// Sentinel errors for the three error kinds spec.md §7 defines as actual
// Go errors (the fourth, propagation-degenerate, is not an error at all —
// it surfaces as a dynamics.TerminationReason instead).
var (
	// ErrInputMalformed is a missing column or metadata in an input
	// file: exit 2.
	ErrInputMalformed = errors.New("darkflight: malformed input")
	// ErrArgumentInvalid is an unknown velocity model, invalid file
	// type, or missing wind file: exit 1.
	ErrArgumentInvalid = errors.New("darkflight: invalid argument")
	// ErrEnvironmentDegraded is an SRTM void or an out-of-range forecast
	// time: logged and tolerated with a documented fallback, never
	// returned as a fatal error.
	ErrEnvironmentDegraded = errors.New("darkflight: environment degraded")
)
