package cbosa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRTFToTextStripsControlWords(t *testing.T) {
	rtf := []byte(`{\rtf1\ansi\deff0 Wyrok z dnia 12 marca\par Sygn. akt I SA/Gl 81/25}`)
	text := RTFToText(rtf)
	require.Contains(t, text, "Wyrok z dnia 12 marca")
	require.Contains(t, text, "Sygn. akt I SA/Gl 81/25")
	require.NotContains(t, text, "ansi")
}

func TestRTFToTextSkipsFontTable(t *testing.T) {
	rtf := []byte(`{\rtf1{\fonttbl{\f0 Times New Roman;}}treść orzeczenia}`)
	text := RTFToText(rtf)
	require.NotContains(t, text, "Times New Roman")
	require.Contains(t, text, "treść orzeczenia")
}

func TestRTFToTextParagraphBreaks(t *testing.T) {
	text := RTFToText([]byte(`{\rtf1 pierwszy\par drugi\line trzeci}`))
	require.Contains(t, text, "pierwszy\ndrugi\ntrzeci")
}

func TestRTFToTextHexEscapes(t *testing.T) {
	// \'41 is "A" in the document code page.
	text := RTFToText([]byte(`{\rtf1 sygn \'41}`))
	require.Contains(t, text, "sygn A")
}

func TestRTFToTextEmptyInput(t *testing.T) {
	require.Empty(t, RTFToText(nil))
}
