package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"gopkg.in/yaml.v3"
)

// readInput reads the named file, or stdin for "" and "-".
func readInput(stdin io.Reader, name string) (string, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// parseValueFlags builds render values from --set key=value (strings) and
// --num key=value (numbers). Later flags win.
func parseValueFlags(sets, nums []string) (templates.Values, error) {
	values := make(templates.Values, len(sets)+len(nums))
	for _, raw := range sets {
		key, value, err := splitAssignment(raw)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", raw, err)
		}
		values[key] = templates.String(value)
	}
	for _, raw := range nums {
		key, value, err := splitAssignment(raw)
		if err != nil {
			return nil, fmt.Errorf("--num %q: %w", raw, err)
		}
		number, ok := templates.ParseNumber(value)
		if !ok {
			return nil, fmt.Errorf("--num %q: %q is not a number", raw, value)
		}
		values[key] = number
	}
	return values, nil
}

func splitAssignment(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return "", "", fmt.Errorf("expected key=value")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmt.Errorf("key is empty")
	}
	return key, value, nil
}

// loadValuesFile reads render values from a JSON object file.
func loadValuesFile(path string) (templates.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file: %w", err)
	}
	var values templates.Values
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse values file %s: %w", path, err)
	}
	return values, nil
}

// collectValues merges a values file with flag values; flags win.
func collectValues(valuesFile string, sets, nums []string) (templates.Values, error) {
	values := make(templates.Values)
	if valuesFile != "" {
		fromFile, err := loadValuesFile(valuesFile)
		if err != nil {
			return nil, err
		}
		for key, value := range fromFile {
			values[key] = value
		}
	}
	fromFlags, err := parseValueFlags(sets, nums)
	if err != nil {
		return nil, err
	}
	for key, value := range fromFlags {
		values[key] = value
	}
	return values, nil
}

// loadVariablesFile reads declared variables from a YAML or JSON list.
func loadVariablesFile(path string) ([]models.TemplateVariable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file: %w", err)
	}

	var vars []models.TemplateVariable
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &vars)
	} else {
		err = yaml.Unmarshal(data, &vars)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse variables file %s: %w", path, err)
	}

	for i := range vars {
		if vars[i].Type == "" {
			vars[i].Type = models.VariableTypeText
		}
		if strings.TrimSpace(vars[i].Label) == "" {
			vars[i].Label = templates.Humanize(vars[i].Key)
		}
	}
	return vars, nil
}
