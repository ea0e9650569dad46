package cli

import (
	"fmt"
	"strings"

	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(varsCmd)
	varsCmd.AddCommand(varsExtractCmd)
	varsCmd.AddCommand(varsStandardCmd)
	varsCmd.AddCommand(varsDescribeCmd)
}

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Inspect template variables",
	Long:  "Extract placeholder keys from a contract body and compare them with declared variables.",
}

var varsExtractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "List placeholder keys in first-appearance order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		content, err := readBody(cmd, name)
		if err != nil {
			return err
		}

		keys := templates.Extract(content)
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), keys)
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

var varsStandardCmd = &cobra.Command{
	Use:   "standard",
	Short: "List the standard rental contract variables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := templates.StandardVariables()
		if err != nil {
			return err
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), vars)
		}
		return writeVariablesTable(cmd, vars)
	},
}

var varsDescribeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Compare placeholders with declared variables",
	Long: `Compare the placeholders used in a template with its declared variables.

YAML template files are described against their declared variables; any
other file is treated as a bare body with no declarations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			content  string
			declared []models.TemplateVariable
		)
		if isTemplateFile(args[0]) {
			tmpl, err := templates.LoadTemplate(args[0])
			if err != nil {
				return err
			}
			content = tmpl.Content
			declared = tmpl.Variables
		} else {
			body, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			content = body
		}

		report := templates.Describe(content, declared)
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", heading("Extracted:"), joinOrDash(report.Extracted))
		fmt.Fprintf(out, "%s %s\n", heading("Declared:"), joinOrDash(report.Declared))
		if len(report.Undeclared) > 0 {
			fmt.Fprintf(out, "%s %s\n", heading("Undeclared:"), colorize(strings.Join(report.Undeclared, ", "), colorYellow))
		}
		if len(report.Unused) > 0 {
			fmt.Fprintf(out, "%s %s\n", heading("Unused:"), colorize(strings.Join(report.Unused, ", "), colorMuted))
		}
		return nil
	},
}

func writeVariablesTable(cmd *cobra.Command, vars []models.TemplateVariable) error {
	rows := make([][]string, 0, len(vars))
	for _, v := range vars {
		rows = append(rows, []string{
			v.Key,
			v.Label,
			formatVariableType(v.Key, string(v.Type)),
			formatRequired(v.Required),
		})
	}
	return writeTable(cmd.OutOrStdout(), []string{"KEY", "LABEL", "TYPE", "REQUIRED"}, rows)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// readBody returns the contract body of a YAML template file, or the raw
// text of any other input.
func readBody(cmd *cobra.Command, name string) (string, error) {
	if isTemplateFile(name) {
		tmpl, err := templates.LoadTemplate(name)
		if err != nil {
			return "", err
		}
		return tmpl.Content, nil
	}
	return readInput(cmd.InOrStdin(), name)
}
