// Package segment owns the ordered transcript segment list and the boundary
// rules a human edit must respect: segments never overlap, and an edit
// touches at most the segment itself plus one immediate neighbor.
package segment

import (
	"sort"
	"strings"
)

// Flag classifies transcription confidence for one segment. Flags are
// read-only outputs of the transcription import; human edits never change
// them, and no flag value blocks approval.
type Flag string

const (
	FlagHigh      Flag = "high"
	FlagMedium    Flag = "medium"
	FlagLow       Flag = "low"
	FlagAmbiguous Flag = "ambiguous"
)

var flagSet = map[Flag]struct{}{
	FlagHigh:      {},
	FlagMedium:    {},
	FlagLow:       {},
	FlagAmbiguous: {},
}

// ParseFlag converts a string into a known Flag.
func ParseFlag(value string) (Flag, bool) {
	normalized := Flag(strings.ToLower(strings.TrimSpace(value)))
	_, ok := flagSet[normalized]
	return normalized, ok
}

// Segment is one transcript line with timing and text variants.
type Segment struct {
	ID            int64   `json:"id,omitempty"`
	Position      int     `json:"position"`
	StartSec      float64 `json:"start_sec"`
	EndSec        float64 `json:"end_sec"`
	TextFinal     string  `json:"text_final"`
	TextSource    string  `json:"text_source"`
	CandidateText string  `json:"candidate_text,omitempty"`
	Flag          Flag    `json:"flag"`
	Confidence    float64 `json:"confidence"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.EndSec - s.StartSec
}

// Clone returns a copy of the slice; segments are value types so a shallow
// copy is a full copy.
func Clone(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

// SortByStart orders segments by start time. The store returns rows ordered
// by position; transcription imports are re-sorted before positions exist.
func SortByStart(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartSec < segments[j].StartSec
	})
}

// Validate checks the structural invariants of an ordered segment list:
// start < end within each segment, and end[i] <= start[i+1] across pairs.
func Validate(segments []Segment) error {
	for i, seg := range segments {
		if seg.StartSec < 0 {
			return newInvariantError(i, "start is negative")
		}
		if seg.EndSec <= seg.StartSec {
			return newInvariantError(i, "end does not follow start")
		}
		if i > 0 && segments[i-1].EndSec > seg.StartSec {
			return newInvariantError(i, "overlaps previous segment")
		}
	}
	return nil
}

// MeanConfidence averages segment confidence over the list. Empty lists
// report zero.
func MeanConfidence(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var total float64
	for _, seg := range segments {
		total += seg.Confidence
	}
	return total / float64(len(segments))
}
