package templates

import "strings"

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Extract returns the distinct placeholder keys in content, in order of
// first appearance. Malformed brace sequences are ignored.
func Extract(content string) []string {
	keys := make([]string, 0)
	seen := make(map[string]struct{})

	pos := 0
	for pos < len(content) {
		idx := strings.Index(content[pos:], openDelim)
		if idx < 0 {
			break
		}
		start := pos + idx
		key, end, ok := scanKey(content, start)
		if !ok {
			// Treat "{{" as literal and retry one byte later so "{{{key}}" still matches.
			pos = start + 1
			continue
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		pos = end
	}

	return keys
}

// scanKey reads a placeholder starting at content[start:], which must begin
// with "{{". It returns the key and the index just past the closing "}}".
func scanKey(content string, start int) (string, int, bool) {
	i := start + len(openDelim)
	keyStart := i
	for i < len(content) && isKeyByte(content[i]) {
		i++
	}
	if i == keyStart {
		return "", 0, false
	}
	if !strings.HasPrefix(content[i:], closeDelim) {
		return "", 0, false
	}
	return content[keyStart:i], i + len(closeDelim), true
}

func isKeyByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || c == '_'
}
