package match

import (
	"strings"
	"unicode"
)

// Normalize folds a document or attribute name for comparison:
// a namespace prefix ("dc:title") is dropped, camel case and separators are
// collapsed and the result is lower case. "firing_temp", "firingTemp" and
// "Firing-Temp" all normalize to "firingtemp".
func Normalize(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}

	return strings.Join(Tokens(s), "")
}

// Tokens splits a name into lower-case words.
//   - "XMLParser" -> ["xml", "parser"]
//   - "firing_temp" -> ["firing", "temp"]
//   - "schemaLocation" -> ["schema", "location"]
func Tokens(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsWord(runes, i) {
			flush()
		}

		cur.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	switch r {
	case '_', '-', ' ', '.':
		return true
	default:
		return false
	}
}

// startsWord reports a lower-to-upper transition or the last capital of an
// acronym followed by a lower-case letter.
func startsWord(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
