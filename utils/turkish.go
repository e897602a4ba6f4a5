package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerTR lowercases text with Turkish casing rules so that dotted and
// dotless I fold correctly (İ -> i, I -> ı). strings.ToLower would map
// "SATICI" to "satici" and break keyword matching.
func lowerTR(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

var asciiFold = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"Ç", "c", "Ğ", "g", "İ", "i", "I", "i", "Ö", "o", "Ş", "s", "Ü", "u",
)

// foldTR lowercases with Turkish rules and strips diacritics. Used for
// keyword matching against text that PDF extraction may have corrupted
// (e.g. "Açıklama" arriving as "Aciklama" or "MÝKTAR").
func foldTR(s string) string {
	return asciiFold.Replace(lowerTR(s))
}

// containsAny reports whether the folded form of s contains any of the
// given folded keywords.
func containsAny(s string, keywords ...string) bool {
	folded := foldTR(s)
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
