package fuzzy_test

import (
	"testing"
	"unicode"

	"dukaan-agent/internal/fuzzy"
)

func TestTransliterate_NoDevanagariFastPath(t *testing.T) {
	in := "Rahul Sharma"
	if got := fuzzy.Transliterate(in); got != in {
		t.Errorf("expected unchanged ASCII input, got %q", got)
	}
}

func TestTransliterate_Purity(t *testing.T) {
	inputs := []string{
		"भरत", "लक्ष्मी", "सुरेश भाई", "राहुल शर्मा", "कृष्ण", "अनुराग", "संतोष",
		"०१२३", "जगदीश",
	}
	for _, in := range inputs {
		out := fuzzy.Transliterate(in)
		for _, r := range out {
			if r >= 0x0900 && r <= 0x097F {
				t.Errorf("transliterate(%q) = %q still contains Devanagari rune %q", in, out, r)
			}
		}
	}
}

func TestTransliterate_KnownMappings(t *testing.T) {
	cases := map[string]string{
		"भरत":    "Bharat",
		"राहुल":  "Rahul",
		"कृष्ण":  "Krishn",
		"सुरेश":  "Suresh",
	}
	for in, want := range cases {
		got := fuzzy.Transliterate(in)
		if got != want {
			t.Errorf("Transliterate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTransliterate_Digits(t *testing.T) {
	got := fuzzy.Transliterate("१२३")
	if got != "123" {
		t.Errorf("Transliterate digits = %q, want 123", got)
	}
}

func TestTransliterate_PreservesWhitespace(t *testing.T) {
	got := fuzzy.Transliterate("सुरेश भाई")
	if !unicode.IsSpace(rune(got[len("Suresh")])) {
		t.Errorf("expected whitespace preserved, got %q", got)
	}
}
