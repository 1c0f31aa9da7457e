package cbosa

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Markup conventions of the portal's result listings. These class names are
// the single largest correctness risk in the engine: the portal may change
// them silently, which is why a fallback scan exists.
const (
	casePathMarker = "doc"
	primaryClass   = "info-list-value"
	relatedClass   = "powiazane"
	sitePathPrefix = "/cbo/"
)

// parseResultsPage extracts up to remaining unique case records from one
// listing page. Anchors whose immediate parent is marked as a primary
// result are accepted; anchors under the "related case" marker are skipped
// even though they share the same href pattern. If the page yields no
// primary results at all, a looser scan accepts any same-site case link,
// still excluding related ones, so markup drift degrades gracefully instead
// of producing empty output.
func parseResultsPage(doc *goquery.Document, base *url.URL, remaining int, logger *zap.Logger) []CaseRecord {
	pagesParsedTotal.Inc()

	var records []CaseRecord
	seen := map[string]bool{}

	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href := anchor.AttrOr("href", "")
		if !strings.Contains(href, casePathMarker) {
			return true
		}
		parent := anchor.Parent()
		switch {
		case parent.HasClass(primaryClass) && !parent.HasClass(relatedClass):
			full, ok := absoluteURL(base, href)
			if !ok || seen[full] {
				return true
			}
			sig, _ := ExtractSignature(anchor)
			seen[full] = true
			records = append(records, CaseRecord{URL: full, Signature: sig})
			logger.Debug("Primary result",
				zap.String("url", full),
				zap.String("signature", sig),
			)
			return len(records) < remaining
		case parent.HasClass(relatedClass):
			logger.Debug("Skipping related case", zap.String("href", href))
			return true
		default:
			logger.Debug("Unknown link type",
				zap.String("href", href),
				zap.String("parent_class", parent.AttrOr("class", "")),
			)
			return true
		}
	})

	if len(records) > 0 {
		return records
	}

	// Fallback: the primary-result marker is gone from the markup. Accept
	// same-site case links, but the related-case exclusion still applies.
	logger.Warn("No primary results found, scanning with fallback rules")
	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href := anchor.AttrOr("href", "")
		if !strings.Contains(href, sitePathPrefix) || strings.HasSuffix(href, "/cbo/query") {
			return true
		}
		if anchor.Parent().HasClass(relatedClass) {
			return true
		}
		full, ok := absoluteURL(base, href)
		if !ok || seen[full] {
			return true
		}
		sig, _ := ExtractSignature(anchor)
		seen[full] = true
		records = append(records, CaseRecord{URL: full, Signature: sig})
		logger.Debug("Fallback result",
			zap.String("url", full),
			zap.String("signature", sig),
		)
		return len(records) < remaining
	})

	return records
}

// absoluteURL resolves href against base.
func absoluteURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if base == nil {
		return ref.String(), true
	}
	return base.ResolveReference(ref).String(), true
}
