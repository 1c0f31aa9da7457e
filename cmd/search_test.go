package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pracownik123GWW/CbosaEmailSender/internal/cbosa"
)

func TestSearchFlagsQuery(t *testing.T) {
	f := searchFlags{
		keywords: "podatek od nieruchomości",
		court:    "WSA w Gliwicach",
		tags:     "Podatek od nieruchomości",
		dateFrom: "2025-01-01",
		dateTo:   "2025-06-30",
	}
	require.Equal(t, cbosa.SearchQuery{
		"keywords":      "podatek od nieruchomości",
		"court":         "WSA w Gliwicach",
		"thematic_tags": "Podatek od nieruchomości",
		"date_from":     "2025-01-01",
		"date_to":       "2025-06-30",
	}, f.query())
}

func TestSearchFlagsQueryDropsEmpty(t *testing.T) {
	require.Empty(t, searchFlags{}.query())
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0, 3)
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "search")
	require.Contains(t, names, "run")
	require.Contains(t, names, "serve")
}
