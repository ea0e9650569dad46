package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/spf13/cobra"
)

var (
	templateName        string
	templateContentFile string
	templateVarsFile    string
	templateDefault     bool
	templateResynth     bool

	templateListPage     int
	templateListSize     int
	templateListSearch   string
	templateListDefault  string
	templateListSort     string
	templateListOrder    string
	templateDeleteYes    bool
	templateCloneName    string
	templateRenderTenant string
	templateRenderSets   []string
	templateRenderNums   []string
	templateRenderValues string
	templateRenderOut    string
	templateRenderSafe   bool
	templateRenderStrict bool
	templateImportAll    bool
)

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	templateCmd.AddCommand(templateCloneCmd)
	templateCmd.AddCommand(templateRenderCmd)
	templateCmd.AddCommand(templateImportCmd)

	for _, cmd := range []*cobra.Command{templateCreateCmd, templateUpdateCmd} {
		cmd.Flags().StringVar(&templateName, "name", "", "template name")
		cmd.Flags().StringVarP(&templateContentFile, "file", "f", "", "file with the contract body (- for stdin)")
		cmd.Flags().StringVar(&templateVarsFile, "vars", "", "YAML or JSON file with declared variables")
		cmd.Flags().BoolVar(&templateDefault, "default", false, "mark as a default template")
	}
	_ = templateCreateCmd.MarkFlagRequired("name")
	_ = templateCreateCmd.MarkFlagRequired("file")
	templateUpdateCmd.Flags().BoolVar(&templateResynth, "resynthesize", false, "rebuild variables from the placeholders in the body")

	templateListCmd.Flags().IntVar(&templateListPage, "page", 1, "page number")
	templateListCmd.Flags().IntVar(&templateListSize, "page-size", 0, "templates per page (default from config)")
	templateListCmd.Flags().StringVar(&templateListSearch, "search", "", "search name and body")
	templateListCmd.Flags().StringVar(&templateListDefault, "default", "", "filter by default flag (true or false)")
	templateListCmd.Flags().StringVar(&templateListSort, "sort", "created_at", "sort by name, created_at or updated_at")
	templateListCmd.Flags().StringVar(&templateListOrder, "order", "desc", "sort order (asc or desc)")

	templateDeleteCmd.Flags().BoolVarP(&templateDeleteYes, "yes", "y", false, "skip confirmation")

	templateCloneCmd.Flags().StringVar(&templateCloneName, "name", "", "name of the copy (default \"<name> (Copy)\")")

	templateRenderCmd.Flags().StringVar(&templateRenderTenant, "tenant", "", "tenant ID whose details seed the values")
	templateRenderCmd.Flags().StringArrayVar(&templateRenderSets, "set", nil, "string value as key=value (repeatable)")
	templateRenderCmd.Flags().StringArrayVar(&templateRenderNums, "num", nil, "numeric value as key=value (repeatable)")
	templateRenderCmd.Flags().StringVar(&templateRenderValues, "values", "", "JSON file with an object of values")
	templateRenderCmd.Flags().StringVarP(&templateRenderOut, "output", "o", "", "write rendered output to a file")
	templateRenderCmd.Flags().BoolVar(&templateRenderSafe, "sanitize", false, "strip unsafe HTML for previewing")
	templateRenderCmd.Flags().BoolVar(&templateRenderStrict, "strict", false, "fail when placeholders are left unresolved")

	templateImportCmd.Flags().BoolVar(&templateImportAll, "all", false, "import every template from the search paths and builtins")
}

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates", "tpl"},
	Short:   "Manage stored contract templates",
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store a new template",
	Long: `Store a new contract template.

Without --vars, one required text variable is synthesized for each
placeholder in the body. With --vars, the declared list is stored as given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		content, err := readInput(cmd.InOrStdin(), templateContentFile)
		if err != nil {
			return err
		}
		var vars []models.TemplateVariable
		if templateVarsFile != "" {
			if vars, err = loadVariablesFile(templateVarsFile); err != nil {
				return err
			}
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		tmpl, err := newContractService(database).Create(ctx, contract.CreateInput{
			Name:      templateName,
			Content:   content,
			Variables: vars,
			IsDefault: templateDefault,
		})
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tmpl)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %q created (ID: %s, %d variables)\n", tmpl.Name, tmpl.ID, len(tmpl.Variables))
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		params, err := templateListParams()
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		page, err := newContractService(database).List(ctx, params)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), page)
		}
		if len(page.Templates) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
			return nil
		}

		rows := make([][]string, 0, len(page.Templates))
		for _, tmpl := range page.Templates {
			rows = append(rows, []string{
				tmpl.ID,
				truncate(tmpl.Name, 40),
				strconv.Itoa(len(tmpl.Variables)),
				formatDefaultBadge(tmpl.IsDefault),
				formatTimestamp(tmpl.UpdatedAt),
			})
		}
		if err := writeTable(cmd.OutOrStdout(), []string{"ID", "NAME", "VARS", "DEFAULT", "UPDATED"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), colorize(
			fmt.Sprintf("page %d of %d, %d templates", page.Page, max(page.TotalPages, 1), page.Total), colorMuted))
		return nil
	},
}

func templateListParams() (models.TemplateListParams, error) {
	params := models.TemplateListParams{
		Page:      templateListPage,
		PageSize:  templateListSize,
		Search:    templateListSearch,
		SortBy:    models.TemplateSortField(templateListSort),
		SortOrder: models.SortOrder(templateListOrder),
	}
	if params.PageSize == 0 {
		params.PageSize = GetConfig().Templates.DefaultPageSize
	}
	if templateListDefault != "" {
		value, err := strconv.ParseBool(templateListDefault)
		if err != nil {
			return params, fmt.Errorf("--default must be true or false")
		}
		params.IsDefault = &value
	}
	return params, nil
}

var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template and its variables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		tmpl, err := newContractService(database).Get(ctx, args[0])
		if err != nil {
			return notFoundHint(err, args[0])
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tmpl)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", heading("Name:"), tmpl.Name)
		fmt.Fprintf(out, "%s %s\n", heading("ID:"), tmpl.ID)
		fmt.Fprintf(out, "%s %s\n", heading("Default:"), formatYesNo(tmpl.IsDefault))
		fmt.Fprintf(out, "%s %s\n\n", heading("Updated:"), formatTimestamp(tmpl.UpdatedAt))
		if len(tmpl.Variables) > 0 {
			if err := writeVariablesTable(cmd, tmpl.Variables); err != nil {
				return err
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, tmpl.Content)

		report := templates.Describe(tmpl.Content, tmpl.Variables)
		if len(report.Undeclared) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", colorize("undeclared:", colorYellow), joinOrDash(report.Undeclared))
		}
		return nil
	},
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a stored template",
	Long: `Update a stored template. Only the given flags change.

Stored variables are kept when only the body changes; pass --resynthesize
to rebuild them from the new body, or --vars to replace them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)
		flags := cmd.Flags()

		var input contract.UpdateInput
		if flags.Changed("name") {
			input.Name = &templateName
		}
		if flags.Changed("file") {
			content, err := readInput(cmd.InOrStdin(), templateContentFile)
			if err != nil {
				return err
			}
			input.Content = &content
		}
		if flags.Changed("default") {
			input.IsDefault = &templateDefault
		}
		switch {
		case templateVarsFile != "" && templateResynth:
			return errors.New("--vars and --resynthesize cannot be combined")
		case templateVarsFile != "":
			vars, err := loadVariablesFile(templateVarsFile)
			if err != nil {
				return err
			}
			input.Variables = &vars
		case templateResynth:
			empty := []models.TemplateVariable{}
			input.Variables = &empty
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		tmpl, err := newContractService(database).Update(ctx, args[0], input)
		if err != nil {
			return notFoundHint(err, args[0])
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tmpl)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %q updated (%d variables)\n", tmpl.Name, len(tmpl.Variables))
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		svc := newContractService(database)
		tmpl, err := svc.Get(ctx, args[0])
		if err != nil {
			return notFoundHint(err, args[0])
		}

		if !templateDeleteYes {
			if IsNonInteractive() {
				return &PreflightError{
					Message:  "refusing to delete without confirmation",
					Hint:     "Pass --yes to delete in non-interactive mode",
					NextStep: "rentdesk template delete " + tmpl.ID + " --yes",
				}
			}
			if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete template %q?", tmpl.Name)) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
				return nil
			}
		}

		if err := svc.Delete(ctx, tmpl.ID); err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), map[string]string{"deleted": tmpl.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %q deleted\n", tmpl.Name)
		return nil
	},
}

var templateCloneCmd = &cobra.Command{
	Use:   "clone <id>",
	Short: "Copy a stored template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		clone, err := newContractService(database).Clone(ctx, args[0], templateCloneName)
		if err != nil {
			return notFoundHint(err, args[0])
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), clone)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %q created (ID: %s)\n", clone.Name, clone.ID)
		return nil
	},
}

var templateRenderCmd = &cobra.Command{
	Use:   "render <id>",
	Short: "Render a stored template",
	Long: `Render a stored template. With --tenant, the tenant's details fill the
tenant_* variables; --set, --num and --values override them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		values, err := collectValues(templateRenderValues, templateRenderSets, templateRenderNums)
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		svc := newContractService(database)
		req := contract.RenderRequest{
			TemplateID: args[0],
			TenantID:   templateRenderTenant,
			Values:     values,
		}
		var result *contract.RenderResult
		if templateRenderSafe {
			result, err = svc.Preview(ctx, req)
		} else {
			result, err = svc.Render(ctx, req)
		}
		if err != nil {
			return notFoundHint(err, args[0])
		}

		return writeRendered(cmd, renderResult{
			Content:         result.Content,
			Unresolved:      result.Unresolved,
			MissingRequired: result.MissingRequired,
		}, templateRenderOut, templateRenderStrict)
	},
}

var templateImportCmd = &cobra.Command{
	Use:   "import [file|dir]...",
	Short: "Import YAML template files",
	Long: `Import YAML template files into the store.

Directories are scanned for *.yaml and *.yml files. With --all, every
template from the search paths (.rentdesk/templates, ~/.config/rentdesk/templates,
/usr/share/rentdesk/templates) and the builtin set is imported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		if len(args) == 0 && !templateImportAll {
			return errors.New("pass files or directories to import, or --all")
		}

		var files []*templates.Template
		if templateImportAll {
			loaded, err := templates.LoadTemplatesFromSearchPaths(GetConfig().Templates.ProjectDir)
			if err != nil {
				return err
			}
			files = append(files, loaded...)
		}
		for _, arg := range args {
			loaded, err := loadTemplateArg(arg)
			if err != nil {
				return err
			}
			files = append(files, loaded...)
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		svc := newContractService(database)

		imported := make([]*models.ContractTemplate, 0, len(files))
		for _, file := range files {
			step := startProgress(cmd, "Importing "+file.Name)
			stored, err := svc.Import(ctx, file)
			if err != nil {
				step.Fail(err)
				return fmt.Errorf("import %s: %w", file.Name, err)
			}
			step.Done()
			imported = append(imported, stored)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), imported)
		}
		for _, tmpl := range imported {
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (ID: %s)\n", tmpl.Name, tmpl.ID)
		}
		return nil
	},
}

func loadTemplateArg(path string) ([]*templates.Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return templates.LoadTemplatesFromDir(path)
	}
	tmpl, err := templates.LoadTemplate(path)
	if err != nil {
		return nil, err
	}
	return []*templates.Template{tmpl}, nil
}

func notFoundHint(err error, id string) error {
	if errors.Is(err, contract.ErrTemplateNotFound) {
		return &PreflightError{
			Message:  fmt.Sprintf("template %q not found", id),
			NextStep: "rentdesk template list",
		}
	}
	if errors.Is(err, contract.ErrTenantNotFound) {
		return &PreflightError{
			Message:  "tenant not found",
			NextStep: "rentdesk tenant list",
		}
	}
	return err
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
