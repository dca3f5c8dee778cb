// internal/timeline/errors.go
package timeline

import "errors"

// Sentinel errors. Callers match with errors.Is; the wrapped message is
// written for the person who triggered the edit.
var (
	ErrInvalidRange         = errors.New("invalid range")
	ErrBelowMinimumDuration = errors.New("below minimum duration")
	ErrNoRegionAtTime       = errors.New("no region at time")
	ErrOverlap              = errors.New("overlap")
	ErrUnknownID            = errors.New("unknown region id")
	ErrInvalidRegion        = errors.New("invalid region")
	ErrNoVideo              = errors.New("no video loaded")
)

// epsilon absorbs float noise when comparing lengths against minimums.
const epsilon = 1e-9
