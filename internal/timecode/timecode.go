// Package timecode converts between human timestamp strings and canonical
// seconds. Input is forgiving (hour/minute/second forms, comma or dot
// decimals); output is always SRT-style HH:MM:SS,mmm.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxSeconds caps accepted timestamps at 24 hours. Source material is
// concert footage; anything past this is a malformed input, not a duration.
const MaxSeconds = 86400.0

// ErrInvalid reports a timestamp that could not be parsed.
var ErrInvalid = errors.New("invalid timestamp")

// Parse converts a timestamp string to seconds.
//
// Accepted forms:
//
//	HH:MM:SS,mmm   SRT canonical (comma decimal)
//	HH:MM:SS.mmm   dot-decimal variant
//	MM:SS:mmm      three parts with third part >= 100 (transcriber output)
//	MM:SS / M:SS   minutes and seconds
//	SS.mmm / SS    bare seconds
//
// The three-part ambiguity is resolved the way the transcription worker
// emits it: a third field of 100 or more is milliseconds, not seconds.
func Parse(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalid)
	}
	trimmed = strings.ReplaceAll(trimmed, ",", ".")

	parts := strings.Split(trimmed, ":")
	fields := make([]float64, 0, 3)
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, value)
		}
		fields = append(fields, f)
	}

	var seconds float64
	switch len(fields) {
	case 3:
		if fields[2] >= 100 {
			seconds = fields[0]*60 + fields[1] + fields[2]/1000
		} else {
			seconds = fields[0]*3600 + fields[1]*60 + fields[2]
		}
	case 2:
		seconds = fields[0]*60 + fields[1]
	case 1:
		seconds = fields[0]
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalid, value)
	}

	if seconds < 0 {
		return 0, fmt.Errorf("%w: negative value %q", ErrInvalid, value)
	}
	if seconds > MaxSeconds {
		return 0, fmt.Errorf("%w: %q exceeds %gs", ErrInvalid, value, MaxSeconds)
	}
	return seconds, nil
}

// Format renders seconds as canonical SRT HH:MM:SS,mmm. Values are clamped
// to [0, MaxSeconds] so formatting never fails.
func Format(seconds float64) string {
	seconds = math.Max(0, math.Min(seconds, MaxSeconds))
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, frac)
}

// FormatShort renders seconds as M:SS for compact listings.
func FormatShort(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
