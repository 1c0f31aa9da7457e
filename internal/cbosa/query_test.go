package cbosa

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func formDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestBuildFormPayloadBaselineDefaults(t *testing.T) {
	payload := BuildFormPayload(SearchQuery{}, nil)

	for name, value := range baselineDefaults {
		got, ok := payload[name]
		require.True(t, ok, "baseline field %s missing", name)
		require.Equal(t, value, got)
	}
	require.Equal(t, "Szukaj", payload["submit"])
}

func TestBuildFormPayloadOverridesDefaults(t *testing.T) {
	payload := BuildFormPayload(SearchQuery{
		"keywords": "podatek od nieruchomości",
		"court":    "NSA",
	}, nil)

	require.Equal(t, "podatek od nieruchomości", payload["wszystkieSlowa"])
	require.Equal(t, "NSA", payload["sad"])
	require.Equal(t, "gdziekolwiek", payload["wystepowanie"], "untouched defaults stay")
}

func TestBuildFormPayloadDropsUnknownKeys(t *testing.T) {
	payload := BuildFormPayload(SearchQuery{
		"not_a_field": "value",
		"keywords":    "vat",
	}, nil)

	require.NotContains(t, payload, "not_a_field")
	require.Equal(t, "vat", payload["wszystkieSlowa"])
}

func TestBuildFormPayloadCheckboxSpellings(t *testing.T) {
	for _, truthy := range []string{"1", "Tak", "on", "true"} {
		payload := BuildFormPayload(SearchQuery{"with_justification": truthy}, nil)
		require.Equal(t, "on", payload["takUzasadnienie"], "spelling %q", truthy)
	}

	payload := BuildFormPayload(SearchQuery{"with_justification": "nope"}, nil)
	require.NotContains(t, payload, "takUzasadnienie")
}

func TestBuildFormPayloadThematicTagsMarker(t *testing.T) {
	payload := BuildFormPayload(SearchQuery{"thematic_tags": "Podatkowe postępowanie"}, nil)
	require.Equal(t, "Podatkowe postępowanie!", payload["hasla"])
}

func TestBuildFormPayloadCopiesHiddenFields(t *testing.T) {
	doc := formDocument(t, `<html><body><form>
		<input type="hidden" name="conversationId" value="abc123"/>
		<input type="hidden" name="token" value=""/>
		<input type="text" name="wszystkieSlowa" value="ignored"/>
	</form></body></html>`)

	payload := BuildFormPayload(SearchQuery{}, doc)
	require.Equal(t, "abc123", payload["conversationId"])
	require.Equal(t, "", payload["token"])
	require.Equal(t, "", payload["wszystkieSlowa"], "visible inputs are not harvested")
}

func TestBuildFormPayloadHiddenFieldOverriddenByDefaults(t *testing.T) {
	doc := formDocument(t, `<form><input type="hidden" name="sad" value="stale"/></form>`)
	payload := BuildFormPayload(SearchQuery{"court": "WSA w Gliwicach"}, doc)
	require.Equal(t, "WSA w Gliwicach", payload["sad"])
}
