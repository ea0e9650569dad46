package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TemplateSearchPaths returns template search directories in precedence order.
func TemplateSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".rentdesk", "templates"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "rentdesk", "templates"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "rentdesk", "templates"))
	return paths
}

// LoadTemplatesFromSearchPaths returns every template visible from
// projectDir. A name defined in an earlier directory shadows later ones and
// the builtins; names compare case-insensitively.
func LoadTemplatesFromSearchPaths(projectDir string) ([]*Template, error) {
	return loadFromPaths(TemplateSearchPaths(projectDir))
}

func loadFromPaths(paths []string) ([]*Template, error) {
	var candidates []*Template
	for _, dir := range paths {
		found, err := LoadTemplatesFromDir(dir)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}

	builtins, err := LoadBuiltinTemplates()
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, builtins...)

	shadowed := make(map[string]struct{}, len(candidates))
	resolved := make([]*Template, 0, len(candidates))
	for _, tmpl := range candidates {
		name := strings.ToLower(tmpl.Name)
		if _, ok := shadowed[name]; ok {
			continue
		}
		shadowed[name] = struct{}{}
		resolved = append(resolved, tmpl)
	}
	return resolved, nil
}

// ErrTemplateNotFound is returned by FindTemplate.
var ErrTemplateNotFound = errors.New("template not found")

// FindTemplate loads a template by name from the search paths or builtins.
// Names compare case-insensitively.
func FindTemplate(projectDir, name string) (*Template, error) {
	return findInPaths(TemplateSearchPaths(projectDir), name)
}

func findInPaths(paths []string, name string) (*Template, error) {
	resolved, err := loadFromPaths(paths)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for _, tmpl := range resolved {
		if strings.EqualFold(tmpl.Name, name) {
			return tmpl, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}
