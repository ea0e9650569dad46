package templates

import "github.com/rentdesk/rentdesk/internal/models"

// Report compares the placeholders in a body with its declared variables.
type Report struct {
	Extracted  []string `json:"extracted"`
	Declared   []string `json:"declared"`
	Undeclared []string `json:"undeclared"` // used in content, no declaration
	Unused     []string `json:"unused"`     // declared, not used in content
}

// Describe reports how content and declared line up. It does not change
// either; Reconcile decides what gets stored.
func Describe(content string, declared []models.TemplateVariable) Report {
	report := Report{
		Extracted:  Extract(content),
		Declared:   make([]string, 0, len(declared)),
		Undeclared: make([]string, 0),
		Unused:     make([]string, 0),
	}

	declaredSet := make(map[string]struct{}, len(declared))
	for _, v := range declared {
		if _, dup := declaredSet[v.Key]; dup {
			continue
		}
		declaredSet[v.Key] = struct{}{}
		report.Declared = append(report.Declared, v.Key)
	}

	usedSet := make(map[string]struct{}, len(report.Extracted))
	for _, key := range report.Extracted {
		usedSet[key] = struct{}{}
		if _, ok := declaredSet[key]; !ok {
			report.Undeclared = append(report.Undeclared, key)
		}
	}
	for _, key := range report.Declared {
		if _, ok := usedSet[key]; !ok {
			report.Unused = append(report.Unused, key)
		}
	}

	return report
}

// MissingRequired lists required variables that have no value.
func MissingRequired(vars []models.TemplateVariable, values Values) []string {
	missing := make([]string, 0)
	for _, v := range vars {
		if !v.Required {
			continue
		}
		if _, ok := values[v.Key]; !ok {
			missing = append(missing, v.Key)
		}
	}
	return missing
}
