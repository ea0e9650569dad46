package templates

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes &, <, >, " and '. Input is scanned once, so entities
// produced for one character are never escaped again.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Render substitutes every {{key}} in content whose key is present in
// values with the HTML-escaped value. Placeholders without a value are
// left as written. Substituted text is not rescanned.
func Render(content string, values Values) string {
	if len(values) == 0 || !strings.Contains(content, openDelim) {
		return content
	}

	var out strings.Builder
	out.Grow(len(content))

	pos := 0
	for pos < len(content) {
		idx := strings.Index(content[pos:], openDelim)
		if idx < 0 {
			break
		}
		start := pos + idx
		out.WriteString(content[pos:start])

		inner := start + len(openDelim)
		closeIdx := strings.Index(content[inner:], closeDelim)
		if closeIdx >= 0 {
			key := content[inner : inner+closeIdx]
			if value, ok := values[key]; ok {
				out.WriteString(EscapeHTML(value.String()))
				pos = inner + closeIdx + len(closeDelim)
				continue
			}
		}

		out.WriteByte(content[start])
		pos = start + 1
	}
	out.WriteString(content[pos:])

	return out.String()
}

// Unresolved returns the placeholders in content that values does not cover.
func Unresolved(content string, values Values) []string {
	missing := make([]string, 0)
	for _, key := range Extract(content) {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
