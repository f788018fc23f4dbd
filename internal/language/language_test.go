package language_test

import (
	"testing"

	"libretto/internal/language"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"en", "en", true},
		{"EN", "en", true},
		{"pt-BR", "pt", true},
		{"de-DE", "de", true},
		{" it ", "it", true},
		{"", "", false},
		{"not a language", "", false},
	}
	for _, tc := range cases {
		got, ok := language.Normalize(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Normalize(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeSet(t *testing.T) {
	got, err := language.NormalizeSet([]string{"EN", "pt-BR", "en", "pl"})
	if err != nil {
		t.Fatalf("NormalizeSet failed: %v", err)
	}
	want := []string{"en", "pt", "pl"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeSet = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeSet = %v, want %v", got, want)
		}
	}

	if _, err := language.NormalizeSet([]string{"en", "???"}); err == nil {
		t.Fatal("expected error for unrecognized code")
	}
}

func TestDisplayName(t *testing.T) {
	if got := language.DisplayName("de"); got != "German" {
		t.Fatalf("DisplayName(de) = %q", got)
	}
}

func TestContains(t *testing.T) {
	set := []string{"en", "pt", "de"}
	if !language.Contains(set, "PT-br") {
		t.Fatal("expected pt-BR to match pt")
	}
	if language.Contains(set, "fr") {
		t.Fatal("fr should not match")
	}
}
