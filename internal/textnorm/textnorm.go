// Package textnorm holds the pure string transforms applied to dish names:
// whitespace/case normalization and the clustering fingerprint.
package textnorm

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases name, strips leading/trailing whitespace and collapses
// internal whitespace runs to a single space.
//
//	Normalize("Chicken gumbo ") == "chicken gumbo"
//
// Casing follows Unicode rules via cases.Lower with the root locale. A Caser
// is not safe for concurrent use, hence one per call.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	lower := cases.Lower(language.Und).String(name)
	return strings.Join(strings.Fields(lower), " ")
}

// Fingerprint builds the order- and repetition-insensitive clustering key for
// an already normalized name.
//
// Input is composed to NFC first, so decomposed and precomposed spellings of
// a name agree. Tokens are maximal runs of word characters (letters, numbers,
// combining marks, underscore). Diacritics are significant in this dataset
// and are not folded to ASCII. Tokens are deduplicated, sorted by code point
// and joined with one space.
func Fingerprint(normalized string) string {
	normalized = norm.NFC.String(normalized)
	tokens := strings.FieldsFunc(normalized, func(r rune) bool { return !isWordRune(r) })
	if len(tokens) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(tokens))
	uniq := tokens[:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		uniq = append(uniq, tok)
	}

	// Byte order of UTF-8 strings equals code point order.
	sort.Strings(uniq)
	return strings.Join(uniq, " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}

// Distinct counts distinct values; used for the "potentially-unique names"
// log lines.
func Distinct(values []string) int {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return len(set)
}
