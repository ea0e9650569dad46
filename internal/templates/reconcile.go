package templates

import (
	"strings"

	"github.com/rentdesk/rentdesk/internal/models"
)

// Reconcile returns declared unchanged when it is non-empty. Otherwise it
// synthesizes one required text variable per placeholder in content, in
// extraction order. Declared and extracted keys are never merged.
func Reconcile(content string, declared []models.TemplateVariable) []models.TemplateVariable {
	if len(declared) > 0 {
		return declared
	}

	keys := Extract(content)
	vars := make([]models.TemplateVariable, 0, len(keys))
	for _, key := range keys {
		vars = append(vars, models.TemplateVariable{
			Key:      key,
			Label:    Humanize(key),
			Type:     models.VariableTypeText,
			Required: true,
		})
	}
	return vars
}

// Humanize turns tenant_full_name into "Tenant Full Name".
func Humanize(key string) string {
	spaced := []byte(strings.ReplaceAll(key, "_", " "))
	wordStart := true
	for i, c := range spaced {
		if c == ' ' {
			wordStart = true
			continue
		}
		if wordStart && c >= 'a' && c <= 'z' {
			spaced[i] = c - 'a' + 'A'
		}
		wordStart = false
	}
	return string(spaced)
}
