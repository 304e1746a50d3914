package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain decodes UTF-8 text, replacing invalid sequences, dropping a
// byte order mark and normalizing line endings to \n.
func extractPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}
