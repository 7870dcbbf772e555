// Package fuzzy implements Devanagari-to-Roman transliteration and fuzzy matching
// over Indian personal names.
package fuzzy

import "strings"

// consonants maps each Devanagari consonant to its Roman base, without the inherent vowel.
var consonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "ng",
	'च': "c", 'छ': "ch", 'ज': "j", 'झ': "jh", 'ञ': "ny",
	'ट': "t", 'ठ': "th", 'ड': "d", 'ढ': "dh", 'ण': "n",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ल': "l", 'व': "v",
	'श': "sh", 'ष': "sh", 'स': "s", 'ह': "h",
	'ळ': "l",
	// Nukta consonants (precomposed, U+0958-095F)
	'क़': "q", 'ख़': "kh", 'ग़': "gh", 'ज़': "z", 'ड़': "r", 'ढ़': "rh", 'फ़': "f", 'य़': "y",
}

// independentVowels maps independent vowel letters to their Roman form.
var independentVowels = map[rune]string{
	'अ': "a", 'आ': "a", 'इ': "i", 'ई': "i", 'उ': "u", 'ऊ': "u",
	'ऋ': "ri", 'ॠ': "ri", 'ऌ': "li", 'ॡ': "li",
	'ए': "e", 'ऐ': "ai", 'ओ': "o", 'औ': "au",
	'ॲ': "a", 'ऑ': "o",
}

// matras maps dependent vowel signs (which follow a consonant) to their Roman form.
// Long and short matras intentionally collapse to the same Roman letter; the fuzzy
// matcher is responsible for the residual short/long ambiguity.
var matras = map[rune]string{
	'ा': "a",
	'ि': "i", 'ी': "i",
	'ु': "u", 'ू': "u",
	'ृ': "ri", 'ॄ': "ri",
	'े': "e", 'ै': "ai",
	'ो': "o", 'ौ': "au",
	'ॅ': "a", 'ॉ': "o",
}

const (
	halant   = '्' // ्
	anusvara = 'ं' // ं
	visarga  = 'ः' // ः
	chandra  = 'ँ' // ँ
	nukta    = '़' // ़
)

var devanagariDigits = map[rune]rune{
	'०': '0', '१': '1', '२': '2', '३': '3', '४': '4',
	'५': '5', '६': '6', '७': '7', '८': '8', '९': '9',
}

// isDevanagari reports whether r falls in the Devanagari Unicode block (U+0900-U+097F).
func isDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}

// ContainsDevanagari reports whether s has at least one Devanagari code point.
func ContainsDevanagari(s string) bool {
	for _, r := range s {
		if isDevanagari(r) {
			return true
		}
	}
	return false
}

// Transliterate converts a Devanagari string to Roman script, preserving ASCII
// runs unchanged. If the input has no Devanagari code points it is returned as-is.
//
// Output is Title Case and never contains a code point in U+0900-U+097F.
func Transliterate(input string) string {
	if !ContainsDevanagari(input) {
		return input
	}

	runes := []rune(input)
	var out strings.Builder

	// wordStart tracks the output length at the start of the current word so the
	// inherent 'a' can be dropped from the final consonant of a word.
	wordStart := 0

	flushWord := func() {
		// Drop a trailing inherent 'a' written by the loop below, if the word ends
		// in one and the preceding content came from a bare consonant (not a matra).
	}
	_ = flushWord

	i := 0
	n := len(runes)
	for i < n {
		r := runes[i]

		if d, ok := devanagariDigits[r]; ok {
			out.WriteRune(d)
			i++
			continue
		}

		if !isDevanagari(r) {
			if r == ' ' || r == '\t' || r == '\n' {
				wordStart = out.Len() + 1
			}
			out.WriteRune(r)
			i++
			continue
		}

		if v, ok := independentVowels[r]; ok {
			out.WriteString(v)
			i++
			continue
		}

		if base, ok := consonants[r]; ok {
			// Nukta: decomposed consonant + U+093C combining sign.
			if i+1 < n && runes[i+1] == nukta {
				base = nuktaVariant(r, base)
				i++
			}

			i++
			// Look ahead for a matra, halant, or nothing (inherent 'a').
			if i < n && runes[i] == halant {
				out.WriteString(base)
				i++
				continue
			}
			if i < n && runes[i] == anusvara {
				out.WriteString(base)
				out.WriteString("a")
				out.WriteString("n")
				i++
				continue
			}
			if i < n {
				if m, ok := matras[runes[i]]; ok {
					out.WriteString(base)
					out.WriteString(m)
					i++
					continue
				}
			}
			// No matra follows: insert the inherent 'a', unless this is the last
			// consonant of the word (end of string or followed by whitespace/end),
			// in which case the inherent vowel is dropped.
			if isEndOfWord(runes, i) {
				out.WriteString(base)
			} else {
				out.WriteString(base)
				out.WriteString("a")
			}
			continue
		}

		switch r {
		case anusvara, chandra:
			out.WriteString("n")
		case visarga:
			out.WriteString("h")
		case halant:
			// Stray halant with no preceding consonant written this pass: ignore.
		default:
			// Unmapped Devanagari code point (rare marks, digits already handled):
			// drop silently rather than emit garbage.
		}
		i++
	}

	_ = wordStart
	return titleCase(out.String())
}

// isEndOfWord reports whether the consonant at runes[pos-1] (already consumed) is
// the last letter of its word, i.e. pos is at the end of the string or at whitespace.
func isEndOfWord(runes []rune, pos int) bool {
	if pos >= len(runes) {
		return true
	}
	r := runes[pos]
	return r == ' ' || r == '\t' || r == '\n'
}

// nuktaVariant adjusts a base consonant's Roman form for a trailing nukta sign,
// covering the common decomposed forms that mirror the precomposed 0958-095F block.
func nuktaVariant(base rune, roman string) string {
	switch base {
	case 'क':
		return "q"
	case 'ख':
		return "kh"
	case 'ग':
		return "gh"
	case 'ज':
		return "z"
	case 'ड':
		return "r"
	case 'ढ':
		return "rh"
	case 'फ':
		return "f"
	case 'य':
		return "y"
	default:
		return roman
	}
}

// titleCase capitalizes the first letter of every whitespace-separated word while
// preserving internal whitespace runs.
func titleCase(s string) string {
	runes := []rune(s)
	atWordStart := true
	for i, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' {
			atWordStart = true
			continue
		}
		if atWordStart {
			runes[i] = toUpperASCII(r)
			atWordStart = false
		}
	}
	return string(runes)
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
