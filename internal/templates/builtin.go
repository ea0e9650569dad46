package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/rentdesk/rentdesk/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/variables.yaml builtin/templates/*.yaml
var builtinFS embed.FS

var (
	standardOnce sync.Once
	standardVars []models.TemplateVariable
	standardErr  error
)

// StandardVariables returns the predefined contract variables bundled with rentdesk.
// The returned slice is a copy.
func StandardVariables() ([]models.TemplateVariable, error) {
	standardOnce.Do(func() {
		standardVars, standardErr = loadStandardVariables()
	})
	if standardErr != nil {
		return nil, standardErr
	}
	out := make([]models.TemplateVariable, len(standardVars))
	copy(out, standardVars)
	return out, nil
}

// LookupStandard returns the standard variable with the given key.
func LookupStandard(key string) (models.TemplateVariable, bool) {
	vars, err := StandardVariables()
	if err != nil {
		return models.TemplateVariable{}, false
	}
	for _, v := range vars {
		if v.Key == key {
			return v, true
		}
	}
	return models.TemplateVariable{}, false
}

func loadStandardVariables() ([]models.TemplateVariable, error) {
	data, err := builtinFS.ReadFile("builtin/variables.yaml")
	if err != nil {
		return nil, fmt.Errorf("read standard variables: %w", err)
	}
	var doc struct {
		Variables []models.TemplateVariable `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse standard variables: %w", err)
	}
	if err := models.ValidateVariables(doc.Variables); err != nil {
		return nil, fmt.Errorf("standard variables: %w", err)
	}
	return doc.Variables, nil
}

// LoadBuiltinTemplates returns the contract templates bundled with
// rentdesk, sorted by name.
func LoadBuiltinTemplates() ([]*Template, error) {
	paths, err := fs.Glob(builtinFS, "builtin/templates/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list builtin templates: %w", err)
	}

	builtins := make([]*Template, 0, len(paths))
	for _, path := range paths {
		data, err := fs.ReadFile(builtinFS, path)
		if err != nil {
			return nil, fmt.Errorf("read builtin template %s: %w", path, err)
		}
		tmpl, err := parseTemplate(data)
		if err != nil {
			return nil, fmt.Errorf("builtin template %s: %w", path, err)
		}
		tmpl.Source = "builtin"
		builtins = append(builtins, tmpl)
	}

	sort.Slice(builtins, func(i, j int) bool { return builtins[i].Name < builtins[j].Name })
	return builtins, nil
}
