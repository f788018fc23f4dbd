package timecode_test

import (
	"errors"
	"math"
	"testing"

	"libretto/internal/timecode"
)

func TestParseAcceptedForms(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{"srt canonical", "00:01:25,300", 85.3},
		{"dot variant", "00:01:25.300", 85.3},
		{"transcriber millis", "1:25:300", 85.3},
		{"minute seconds dot", "1:25.300", 85.3},
		{"minute seconds", "1:25", 85},
		{"bare seconds", "25.3", 25.3},
		{"hours", "1:02:03", 3723},
		{"padded whitespace", " 2:05 ", 125},
		{"zero", "0", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := timecode.Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "abc", "1:xx", "1:2:3:4", "-5", "-1:30", "99999999"} {
		if _, err := timecode.Parse(input); !errors.Is(err, timecode.ErrInvalid) {
			t.Fatalf("Parse(%q): expected ErrInvalid, got %v", input, err)
		}
	}
}

func TestFormatCanonical(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{85.3, "00:01:25,300"},
		{0, "00:00:00,000"},
		{3723.045, "01:02:03,045"},
		{-4, "00:00:00,000"},
		{12.3456, "00:00:12,346"},
	}
	for _, tc := range cases {
		if got := timecode.Format(tc.seconds); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, input := range []string{"00:01:25,300", "00:00:00,000", "02:10:05,999"} {
		sec, err := timecode.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", input, err)
		}
		if got := timecode.Format(sec); got != input {
			t.Fatalf("Format(Parse(%q)) = %q", input, got)
		}
	}
}

func TestFormatShort(t *testing.T) {
	if got := timecode.FormatShort(85.9); got != "1:25" {
		t.Fatalf("FormatShort(85.9) = %q", got)
	}
	if got := timecode.FormatShort(-3); got != "0:00" {
		t.Fatalf("FormatShort(-3) = %q", got)
	}
}
