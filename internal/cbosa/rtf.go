package cbosa

import (
	"strconv"
	"strings"
)

// Destination groups whose content is markup metadata, not judgment text.
var rtfSkipGroups = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
}

// RTFToText performs a best-effort conversion of RTF bytes to plain text:
// control words are dropped (with \par and \line becoming newlines),
// metadata destination groups are skipped, and \'xx escapes decode to their
// byte value. It is good enough for signature scraping and for feeding the
// judgment text to the analyzer; it is not a general RTF renderer.
func RTFToText(content []byte) string {
	var out strings.Builder
	skipDepth := 0
	i := 0

	for i < len(content) {
		ch := content[i]
		switch ch {
		case '{':
			if skipDepth > 0 {
				skipDepth++
			}
			i++
		case '}':
			if skipDepth > 0 {
				skipDepth--
			}
			i++
		case '\\':
			i++
			if i >= len(content) {
				break
			}
			next := content[i]
			switch {
			case next == '\'':
				// Hex escape for a single byte.
				if i+2 < len(content) {
					if b, err := strconv.ParseUint(string(content[i+1:i+3]), 16, 8); err == nil && skipDepth == 0 {
						out.WriteByte(byte(b))
					}
					i += 3
				} else {
					i = len(content)
				}
			case next == '\\' || next == '{' || next == '}':
				if skipDepth == 0 {
					out.WriteByte(next)
				}
				i++
			case isRTFLetter(next):
				word, rest := readControlWord(content, i)
				i = rest
				if skipDepth > 0 {
					continue
				}
				switch word {
				case "par", "line", "sect", "page":
					out.WriteByte('\n')
				case "tab", "cell":
					out.WriteByte(' ')
				default:
					if rtfSkipGroups[word] {
						skipDepth = 1
					}
				}
			default:
				i++
			}
		case '\r', '\n':
			i++
		default:
			if skipDepth == 0 {
				out.WriteByte(ch)
			}
			i++
		}
	}
	return out.String()
}

func isRTFLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// readControlWord consumes a control word starting at pos, returning the
// word and the index past it (including the optional numeric parameter and
// trailing space delimiter).
func readControlWord(content []byte, pos int) (string, int) {
	start := pos
	for pos < len(content) && isRTFLetter(content[pos]) {
		pos++
	}
	word := string(content[start:pos])
	if pos < len(content) && (content[pos] == '-' || (content[pos] >= '0' && content[pos] <= '9')) {
		pos++
		for pos < len(content) && content[pos] >= '0' && content[pos] <= '9' {
			pos++
		}
	}
	if pos < len(content) && content[pos] == ' ' {
		pos++
	}
	return word, pos
}
