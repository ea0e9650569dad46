package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/spf13/cobra"
)

var (
	renderSets       []string
	renderNums       []string
	renderValuesFile string
	renderOutput     string
	renderStrict     bool
	renderTemplate   string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArrayVar(&renderSets, "set", nil, "string value as key=value (repeatable)")
	renderCmd.Flags().StringArrayVar(&renderNums, "num", nil, "numeric value as key=value (repeatable)")
	renderCmd.Flags().StringVar(&renderValuesFile, "values", "", "JSON file with an object of values")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write rendered output to a file")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "fail when placeholders are left unresolved")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "render a named template from the search paths or builtins")
}

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a contract body",
	Long: `Render a contract body by substituting {{key}} placeholders.

Values are HTML-escaped. Placeholders without a value are left in place and
reported on stderr.`,
	Example: `  rentdesk render lease.html --set tenant_full_name="Nguyen Van A" --num monthly_rent=5000000
  cat lease.html | rentdesk render - --values values.json
  rentdesk render --template "Room rental" --values values.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		switch {
		case renderTemplate != "" && len(args) > 0:
			return errors.New("pass either a file or --template, not both")
		case renderTemplate != "":
			tmpl, err := templates.FindTemplate(GetConfig().Templates.ProjectDir, renderTemplate)
			if err != nil {
				return err
			}
			content = tmpl.Content
		case len(args) == 1:
			body, err := readBody(cmd, args[0])
			if err != nil {
				return err
			}
			content = body
		default:
			return errors.New("pass a file, - for stdin, or --template")
		}

		values, err := collectValues(renderValuesFile, renderSets, renderNums)
		if err != nil {
			return err
		}

		rendered := templates.Render(content, values)
		unresolved := templates.Unresolved(content, values)
		return writeRendered(cmd, renderResult{
			Content:    rendered,
			Unresolved: unresolved,
		}, renderOutput, renderStrict)
	},
}

type renderResult struct {
	Content         string   `json:"content"`
	Unresolved      []string `json:"unresolved"`
	MissingRequired []string `json:"missing_required,omitempty"`
}

// writeRendered prints or saves a render result and reports what was left
// unresolved.
func writeRendered(cmd *cobra.Command, result renderResult, outputPath string, strict bool) error {
	if strict && len(result.Unresolved) > 0 {
		return fmt.Errorf("unresolved placeholders: %s", strings.Join(result.Unresolved, ", "))
	}

	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(cmd.OutOrStdout(), result)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(result.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputPath)
	} else {
		out := result.Content
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		fmt.Fprint(cmd.OutOrStdout(), highlightUnresolved(out, result.Unresolved))
	}

	if len(result.Unresolved) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n",
			colorize("unresolved:", colorYellow), strings.Join(result.Unresolved, ", "))
	}
	if len(result.MissingRequired) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n",
			colorize("missing required:", colorRed), strings.Join(result.MissingRequired, ", "))
	}
	return nil
}
