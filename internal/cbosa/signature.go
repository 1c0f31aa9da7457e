package cbosa

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// A case signature follows Polish court citation conventions: a Roman
// numeral chamber, an alphabetic case-type code (possibly with a slash
// segment, "SA/Gl") and a number/year pair, e.g. "I SA/Gl 81/25".
//
// Extraction is a data-driven cascade: scopes are tried from narrowest to
// widest, patterns from most to least specific, and the first match wins.
// New portal renderings are handled by appending rows, not by new branches.

// signaturePatterns in decreasing specificity. The slashed case-type form
// must come before the plain code so "I SA/Gl 81/25" is not truncated to a
// partial match.
var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([IVX]+\s+[A-Z]{1,4}/[A-Za-z]{1,4}\s+\d+/\d+)`),
	regexp.MustCompile(`(?i)([IVX]+\s+[A-Z]{2,4}\s+\d+/\d+)`),
	regexp.MustCompile(`(?i)([IVX]+[/\s]+[A-Z]+[/\s]*[A-Za-z]*\s+\d+/\d+)`),
}

// rtfSignaturePatterns additionally recognize the "Sygn. akt:" prefix used
// inside judgment documents.
var rtfSignaturePatterns = append(signaturePatterns[:len(signaturePatterns):len(signaturePatterns)],
	regexp.MustCompile(`(?i)Sygn[.\s]*akt[:\s]*([IVX]+\s+[A-Z/][A-Za-z/]*\s+\d+/\d+)`),
)

type signatureScope func(anchor *goquery.Selection) string

// signatureScopes in widening order: anchor text, immediate parent text,
// nearest enclosing row/list/block text, then the href itself.
var signatureScopes = []signatureScope{
	func(a *goquery.Selection) string { return a.Text() },
	func(a *goquery.Selection) string { return a.Parent().Text() },
	func(a *goquery.Selection) string { return a.Closest("tr, li, div").Text() },
	func(a *goquery.Selection) string { return a.AttrOr("href", "") },
}

// ExtractSignature recovers a case signature from the anchor or its
// surroundings. Absence is expected, not an error; callers fall back to a
// URL-derived identifier.
func ExtractSignature(anchor *goquery.Selection) (string, bool) {
	for _, scope := range signatureScopes {
		text := scope(anchor)
		if text == "" {
			continue
		}
		if sig, ok := matchSignature(text, signaturePatterns); ok {
			return sig, true
		}
	}
	return "", false
}

// ExtractSignatureFromText scans free text, typically judgment document
// content, for a case signature.
func ExtractSignatureFromText(text string) (string, bool) {
	return matchSignature(text, rtfSignaturePatterns)
}

func matchSignature(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		return normalizeSpaces(m[1]), true
	}
	return "", false
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
