// Package address decides whether recognized text looks like a Portuguese
// street address.
//
// Matching folds case and diacritics, so "PRAÇA" and "praca" both match the
// keyword "praça". Keywords of six letters or more (avenida, número,
// travessa) also match with one edit, which absorbs the most common OCR slips
// ("Avenlda", "Travesa").
package address

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keywords are the street designations that mark text as an address.
var Keywords = []string{"rua", "avenida", "praça", "largo", "número", "travessa"}

// fuzzyMinLen is the shortest keyword allowed to match with one edit. Shorter
// ones collide with ordinary words: "largo" is one edit from "lago" and
// "cargo", "praça" from "praia".
const fuzzyMinLen = 6

// Match describes why text was classified as an address.
type Match struct {
	IsAddress bool `json:"is_address"`
	// Keyword is the canonical keyword that matched.
	Keyword string `json:"keyword,omitempty"`
	// Word is the text as it appeared, for fuzzy matches.
	Word string `json:"word,omitempty"`
	// Fuzzy is true when the match needed an edit.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// Detect reports whether text contains an address keyword.
func Detect(text string) Match {
	folded := Fold(text)

	// Substring match first: it also catches keywords glued to other words
	// when OCR drops a space.
	for _, kw := range Keywords {
		if strings.Contains(folded, Fold(kw)) {
			return Match{IsAddress: true, Keyword: kw}
		}
	}

	for _, word := range strings.FieldsFunc(folded, isSeparator) {
		for _, kw := range Keywords {
			fk := Fold(kw)
			if len(fk) < fuzzyMinLen || absInt(len(word)-len(fk)) > 1 {
				continue
			}
			if levenshtein.ComputeDistance(word, fk) <= 1 {
				return Match{IsAddress: true, Keyword: kw, Word: word, Fuzzy: true}
			}
		}
	}
	return Match{}
}

// IsAddress is shorthand for Detect(text).IsAddress.
func IsAddress(text string) bool {
	return Detect(text).IsAddress
}

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
