// Package templates implements the contract-template variable engine:
// placeholder extraction, variable reconciliation and escaped rendering,
// plus loading of templates authored as YAML files.
//
// A placeholder is exactly {{key}} where key matches [a-z_]+. Anything
// else between double braces is plain text.
package templates

import "github.com/rentdesk/rentdesk/internal/models"

// Template is a contract template authored on disk.
type Template struct {
	Name      string                    `yaml:"name"`
	Content   string                    `yaml:"content"`
	Variables []models.TemplateVariable `yaml:"variables,omitempty"`
	IsDefault bool                      `yaml:"is_default,omitempty"`
	Source    string                    `yaml:"-"` // file path or "builtin"
}
