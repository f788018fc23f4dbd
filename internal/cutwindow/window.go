// Package cutwindow derives the clip window (start/end/duration) either
// from validated segments or from an explicit override. Windows are only
// ever constructed here so containment inside the source bounds holds by
// construction.
package cutwindow

import (
	"errors"
	"fmt"

	"libretto/internal/segment"
)

var (
	// ErrOutOfBounds reports a window that does not fit inside
	// [0, sourceDurationSec].
	ErrOutOfBounds = errors.New("window out of source bounds")
	// ErrInvalidRange reports an override whose start does not precede its end.
	ErrInvalidRange = errors.New("window start must precede end")
	// ErrNoSegments reports a derive request with nothing to derive from.
	ErrNoSegments = errors.New("no segments to derive window from")
)

// Window is the derived cut region of the source.
type Window struct {
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	DurationSec float64 `json:"duration_sec"`
}

// Derive computes the window spanning all segments: min start to max end.
// Deriving twice from the same segment list yields identical windows.
func Derive(segments []segment.Segment, sourceDurationSec float64) (Window, error) {
	if len(segments) == 0 {
		return Window{}, ErrNoSegments
	}
	start := segments[0].StartSec
	end := segments[0].EndSec
	for _, seg := range segments[1:] {
		if seg.StartSec < start {
			start = seg.StartSec
		}
		if seg.EndSec > end {
			end = seg.EndSec
		}
	}
	return build(start, end, sourceDurationSec)
}

// Override constructs a window from explicit start/end values, used when a
// manually adjusted cut is reapplied.
func Override(startSec, endSec, sourceDurationSec float64) (Window, error) {
	return build(startSec, endSec, sourceDurationSec)
}

func build(startSec, endSec, sourceDurationSec float64) (Window, error) {
	if startSec >= endSec {
		return Window{}, fmt.Errorf("%w: %.3f >= %.3f", ErrInvalidRange, startSec, endSec)
	}
	if sourceDurationSec <= 0 {
		return Window{}, fmt.Errorf("%w: source duration %.3f", ErrOutOfBounds, sourceDurationSec)
	}
	if startSec < 0 || endSec > sourceDurationSec {
		return Window{}, fmt.Errorf("%w: [%.3f, %.3f] outside [0, %.3f]",
			ErrOutOfBounds, startSec, endSec, sourceDurationSec)
	}
	return Window{
		StartSec:    startSec,
		EndSec:      endSec,
		DurationSec: endSec - startSec,
	}, nil
}
