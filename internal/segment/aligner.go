package segment

import (
	"fmt"

	"libretto/internal/timecode"
)

// Edge names which boundary of a segment an edit targets.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// ParseEdge converts a string into a known Edge.
func ParseEdge(value string) (Edge, bool) {
	switch Edge(value) {
	case EdgeStart:
		return EdgeStart, true
	case EdgeEnd:
		return EdgeEnd, true
	default:
		return "", false
	}
}

// BoundaryError reports a rejected boundary edit. The segment list is left
// untouched when one is returned.
type BoundaryError struct {
	Index  int
	Edge   Edge
	Reason string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("segment %d %s: %s", e.Index, e.Edge, e.Reason)
}

func newInvariantError(index int, reason string) error {
	return &BoundaryError{Index: index, Reason: reason}
}

// UpdateBoundary parses value and applies it to the given boundary of
// segments[index], returning a new slice. The caller's slice is never
// mutated.
//
// Overlap with the immediate neighbor is resolved in the edit's favor:
// moving a start earlier than the previous segment's end pulls that end
// back; moving an end past the next segment's start pushes that start
// forward. The blast radius stops at the one neighbor — a pulled boundary
// can leave the neighbor's other edge stale until the user touches it,
// which keeps every edit local and predictable.
func UpdateBoundary(segments []Segment, index int, edge Edge, value string) ([]Segment, error) {
	if index < 0 || index >= len(segments) {
		return nil, &BoundaryError{Index: index, Edge: edge, Reason: "no such segment"}
	}

	sec, err := timecode.Parse(value)
	if err != nil {
		return nil, &BoundaryError{Index: index, Edge: edge, Reason: err.Error()}
	}
	if sec <= 0 {
		return nil, &BoundaryError{Index: index, Edge: edge, Reason: "timestamp must be greater than zero"}
	}

	updated := Clone(segments)
	switch edge {
	case EdgeStart:
		updated[index].StartSec = sec
		if index > 0 && updated[index-1].EndSec > sec {
			updated[index-1].EndSec = sec
		}
	case EdgeEnd:
		updated[index].EndSec = sec
		if index < len(updated)-1 && updated[index+1].StartSec < sec {
			updated[index+1].StartSec = sec
		}
	default:
		return nil, &BoundaryError{Index: index, Edge: edge, Reason: "unknown edge"}
	}
	return updated, nil
}

// UpdateText replaces the human-approved text of segments[index], returning
// a new slice. Text edits never touch timing, flag, or confidence.
func UpdateText(segments []Segment, index int, text string) ([]Segment, error) {
	if index < 0 || index >= len(segments) {
		return nil, &BoundaryError{Index: index, Reason: "no such segment"}
	}
	updated := Clone(segments)
	updated[index].TextFinal = text
	return updated, nil
}
