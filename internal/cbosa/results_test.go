package cbosa

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resultsDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

const portalBase = "https://orzeczenia.nsa.gov.pl/cbo/search"

func TestParseResultsPagePrimaryOnly(t *testing.T) {
	doc := resultsDocument(t, `
		<span class="info-list-value"><a href="/doc/AAA">I SA/Gl 81/25 - Wyrok</a></span>
		<span class="info-list-value powiazane"><a href="/doc/AAA">I SA/Gl 81/25 - Wyrok</a></span>
	`)

	records := parseResultsPage(doc, mustURL(t, portalBase), 10, zap.NewNop())
	require.Len(t, records, 1)
	require.Equal(t, "https://orzeczenia.nsa.gov.pl/doc/AAA", records[0].URL)
	require.Equal(t, "I SA/Gl 81/25", records[0].Signature)
}

func TestParseResultsPageSkipsRelatedCases(t *testing.T) {
	doc := resultsDocument(t, `
		<span class="info-list-value"><a href="/doc/AAA">I SA/Gl 81/25</a></span>
		<span class="powiazane"><a href="/doc/BBB">II FSK 1/20</a></span>
	`)

	records := parseResultsPage(doc, mustURL(t, portalBase), 10, zap.NewNop())
	require.Len(t, records, 1)
	require.NotContains(t, records[0].URL, "BBB")
}

func TestParseResultsPageDeduplicatesByURL(t *testing.T) {
	doc := resultsDocument(t, `
		<span class="info-list-value"><a href="/doc/AAA">I SA/Gl 81/25</a></span>
		<span class="info-list-value"><a href="/doc/AAA">I SA/Gl 81/25</a></span>
		<span class="info-list-value"><a href="/doc/CCC">II GSK 10/24</a></span>
	`)

	records := parseResultsPage(doc, mustURL(t, portalBase), 10, zap.NewNop())
	require.Len(t, records, 2)
}

func TestParseResultsPageStopsAtQuota(t *testing.T) {
	doc := resultsDocument(t, `
		<span class="info-list-value"><a href="/doc/A1">I SA/Gl 1/25</a></span>
		<span class="info-list-value"><a href="/doc/A2">I SA/Gl 2/25</a></span>
		<span class="info-list-value"><a href="/doc/A3">I SA/Gl 3/25</a></span>
	`)

	records := parseResultsPage(doc, mustURL(t, portalBase), 2, zap.NewNop())
	require.Len(t, records, 2)
}

func TestParseResultsPageFallbackWhenMarkupDrifts(t *testing.T) {
	// No info-list-value anywhere: the loose scan should still find the
	// same-site case link and still exclude the related one.
	doc := resultsDocument(t, `
		<p><a href="/cbo/doc/AAA">I SA/Gl 81/25</a></p>
		<p class="powiazane"><a href="/cbo/doc/BBB">II FSK 1/20</a></p>
		<p><a href="/cbo/query">nowe wyszukiwanie</a></p>
	`)

	records := parseResultsPage(doc, mustURL(t, portalBase), 10, zap.NewNop())
	require.Len(t, records, 1)
	require.Contains(t, records[0].URL, "/cbo/doc/AAA")
}

func TestParseResultsPageUnknownMarkupSkipped(t *testing.T) {
	// A primary result exists, so the unclassified anchor must not ride
	// along via the fallback path.
	doc := resultsDocument(t, `
		<span class="info-list-value"><a href="/doc/AAA">I SA/Gl 81/25</a></span>
		<span class="mystery"><a href="/doc/ZZZ">III OSK 9/21</a></span>
	`)

	records := parseResultsPage(doc, mustURL(t, portalBase), 10, zap.NewNop())
	require.Len(t, records, 1)
	require.Contains(t, records[0].URL, "AAA")
}

func TestAbsoluteURLResolution(t *testing.T) {
	base := mustURL(t, portalBase)

	full, ok := absoluteURL(base, "/doc/XYZ")
	require.True(t, ok)
	require.Equal(t, "https://orzeczenia.nsa.gov.pl/doc/XYZ", full)

	full, ok = absoluteURL(base, "https://elsewhere.example/doc/1")
	require.True(t, ok)
	require.Equal(t, "https://elsewhere.example/doc/1", full)
}
