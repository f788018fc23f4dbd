// Package language normalizes caption language codes. Editions and render
// jobs are keyed by lowercase ISO 639-1 codes; anything user-supplied
// (BCP-47 tags, uppercase, region subtags) is reduced to that form here.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize reduces a user-supplied language identifier to a lowercase
// ISO 639-1 base code ("pt-BR" -> "pt", "English"-style words are not
// accepted). Returns false when the value is not a recognizable tag.
func Normalize(code string) (string, bool) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", false
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}

// DisplayName returns the English display name for a normalized code, or
// the code itself when no name is known.
func DisplayName(code string) string {
	normalized, ok := Normalize(code)
	if !ok {
		return code
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return normalized
}

// NormalizeSet normalizes a list of codes, dropping duplicates while
// preserving order, and fails on the first unrecognizable entry.
func NormalizeSet(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized, ok := Normalize(code)
		if !ok {
			return nil, fmt.Errorf("unrecognized language code %q", code)
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

// Contains reports whether set holds code after normalization of both.
func Contains(set []string, code string) bool {
	normalized, ok := Normalize(code)
	if !ok {
		return false
	}
	for _, entry := range set {
		if other, ok := Normalize(entry); ok && other == normalized {
			return true
		}
	}
	return false
}
