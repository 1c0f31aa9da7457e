package cbosa

import (
	"github.com/PuerkitoBio/goquery"
)

// fieldMapping translates semantic search keys to the portal's form field
// names, matching a browser network capture of the portal's own client.
var fieldMapping = map[string]string{
	"keywords":            "wszystkieSlowa",
	"keywords_location":   "wystepowanie",
	"with_inflection":     "odmiana",
	"signature":           "sygnatura",
	"court":               "sad",
	"judgment_type":       "rodzaj",
	"case_symbol":         "symbole",
	"judge":               "sedziowie",
	"judge_function":      "funkcja",
	"final_judgment":      "takPrawomocne",
	"ending_judgment":     "takKonczace",
	"with_thesis":         "takTezy",
	"with_justification":  "takUzasadnienie",
	"with_dissenting":     "takOdrebne",
	"organ_type":          "rodzaj_organu",
	"thematic_tags":       "hasla",
	"legal_act":           "akty",
	"legal_provision":     "przepisy",
	"published":           "opublikowane",
	"publication_details": "publikacje",
	"with_commentary":     "glosowane",
	"commentary_details":  "glosy",
}

// checkboxFields take the portal's literal "on" token, never any other
// truthy spelling.
var checkboxFields = map[string]bool{
	"with_inflection":    true,
	"published":          true,
	"with_commentary":    true,
	"final_judgment":     true,
	"ending_judgment":    true,
	"with_thesis":        true,
	"with_justification": true,
	"with_dissenting":    true,
}

// baselineDefaults are the fields the portal's browser client always sends,
// even when empty. Explicit parameters override them.
var baselineDefaults = map[string]string{
	"wszystkieSlowa": "",
	"wystepowanie":   "gdziekolwiek",
	"sygnatura":      "",
	"sad":            "dowolny",
	"symbole":        "",
	"sedziowie":      "",
	"funkcja":        "dowolna",
	"rodzaj_organu":  "",
	"akty":           "",
	"przepisy":       "",
	"publikacje":     "",
	"glosy":          "",
}

// submitLabel is the submit button value some of the portal's server-side
// handlers branch on.
const submitLabel = "Szukaj"

func isTruthy(v string) bool {
	switch v {
	case "1", "Tak", "on", "true":
		return true
	}
	return false
}

// BuildFormPayload turns a semantic SearchQuery into the exact form payload
// the portal expects. Hidden inputs found in the search form HTML are copied
// back verbatim (the portal requires its tokens unchanged), baseline
// defaults are seeded, then non-empty mapped parameters are overlaid.
// Unknown semantic keys degrade to "field omitted". The builder never fails.
func BuildFormPayload(params SearchQuery, formPage *goquery.Document) map[string]string {
	payload := map[string]string{}

	if formPage != nil {
		formPage.Find("form input[type='hidden']").Each(func(_ int, s *goquery.Selection) {
			name, ok := s.Attr("name")
			if !ok || name == "" {
				return
			}
			payload[name] = s.AttrOr("value", "")
		})
	}

	for name, value := range baselineDefaults {
		payload[name] = value
	}

	for semanticKey, formKey := range fieldMapping {
		value := params[semanticKey]
		if value == "" {
			continue
		}
		switch {
		case checkboxFields[semanticKey]:
			if isTruthy(value) {
				payload[formKey] = "on"
			}
		case semanticKey == "thematic_tags":
			// The portal's own client appends the marker character.
			payload[formKey] = value + "!"
		default:
			payload[formKey] = value
		}
	}

	payload["submit"] = submitLabel
	return payload
}
