package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rentdesk/rentdesk/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadTemplate reads a single template from disk.
func LoadTemplate(path string) (*Template, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("template path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	tmpl, err := parseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	tmpl.Source = path
	return tmpl, nil
}

// LoadTemplatesFromDir loads all .yaml/.yml templates in dir, sorted by name.
// A missing directory yields no templates.
func LoadTemplatesFromDir(dir string) ([]*Template, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Template{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Template{}, nil
		}
		return nil, fmt.Errorf("read templates dir %s: %w", dir, err)
	}

	templates := make([]*Template, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		tmpl, err := LoadTemplate(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

func parseTemplate(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}

	tmpl.Name = strings.TrimSpace(tmpl.Name)
	if tmpl.Name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if strings.TrimSpace(tmpl.Content) == "" {
		return nil, fmt.Errorf("template content is required")
	}

	for i := range tmpl.Variables {
		tmpl.Variables[i].Key = strings.TrimSpace(tmpl.Variables[i].Key)
		if tmpl.Variables[i].Type == "" {
			tmpl.Variables[i].Type = models.VariableTypeText
		}
		if strings.TrimSpace(tmpl.Variables[i].Label) == "" {
			tmpl.Variables[i].Label = Humanize(tmpl.Variables[i].Key)
		}
	}
	if err := models.ValidateVariables(tmpl.Variables); err != nil {
		return nil, err
	}

	tmpl.Variables = Reconcile(tmpl.Content, tmpl.Variables)
	return &tmpl, nil
}
