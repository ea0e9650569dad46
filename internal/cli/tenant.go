package cli

import (
	"errors"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/spf13/cobra"
)

var (
	tenantAddInput   contract.TenantInput
	tenantEditInput  contract.TenantInput
	tenantDeleteYes  bool
	tenantListPage   int
	tenantListSize   int
	tenantListSearch string
	tenantListSort   string
	tenantListOrder  string
)

// tenantFlags maps each tenant detail to its flag name.
func tenantFlags(cmd *cobra.Command, input *contract.TenantInput) {
	cmd.Flags().StringVar(&input.FullName, "name", "", "full name (2-100 characters)")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "mobile number, 10 digits starting with 03, 05, 07, 08 or 09")
	cmd.Flags().StringVar(&input.IDCard, "id-card", "", "12-digit CCCD number")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&input.CurrentAddress, "address", "", "current address")
	cmd.Flags().StringVar(&input.PermanentAddress, "permanent-address", "", "permanent address")
}

func init() {
	rootCmd.AddCommand(tenantCmd)
	tenantCmd.AddCommand(tenantAddCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantUpdateCmd)
	tenantCmd.AddCommand(tenantDeleteCmd)

	tenantFlags(tenantAddCmd, &tenantAddInput)
	_ = tenantAddCmd.MarkFlagRequired("name")
	_ = tenantAddCmd.MarkFlagRequired("phone")
	_ = tenantAddCmd.MarkFlagRequired("id-card")

	tenantFlags(tenantUpdateCmd, &tenantEditInput)

	tenantDeleteCmd.Flags().BoolVarP(&tenantDeleteYes, "yes", "y", false, "skip confirmation")

	tenantListCmd.Flags().IntVar(&tenantListPage, "page", 1, "page number")
	tenantListCmd.Flags().IntVar(&tenantListSize, "page-size", 0, "tenants per page (default from config)")
	tenantListCmd.Flags().StringVar(&tenantListSearch, "search", "", "search name, phone, ID card and email")
	tenantListCmd.Flags().StringVar(&tenantListSort, "sort", "created_at", "sort by full_name, created_at or updated_at")
	tenantListCmd.Flags().StringVar(&tenantListOrder, "order", "desc", "sort order (asc or desc)")
}

var tenantCmd = &cobra.Command{
	Use:     "tenant",
	Aliases: []string{"tenants"},
	Short:   "Manage tenants used to fill contracts",
}

var tenantAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a tenant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		tenant, err := newContractService(database).CreateTenant(ctx, tenantAddInput)
		if err != nil {
			return tenantHint(err, tenantAddInput.IDCard)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tenant)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tenant %q added (ID: %s)\n", tenant.FullName, tenant.ID)
		return nil
	},
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		params := models.TenantListParams{
			Page:      tenantListPage,
			PageSize:  tenantListSize,
			Search:    tenantListSearch,
			SortBy:    models.TenantSortField(tenantListSort),
			SortOrder: models.SortOrder(tenantListOrder),
		}
		if params.PageSize == 0 {
			params.PageSize = GetConfig().Templates.DefaultPageSize
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		page, err := newContractService(database).ListTenants(ctx, params)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), page)
		}
		if len(page.Tenants) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tenants found.")
			return nil
		}

		rows := make([][]string, 0, len(page.Tenants))
		for _, tenant := range page.Tenants {
			rows = append(rows, []string{
				tenant.ID,
				truncate(tenant.FullName, 32),
				tenant.Phone,
				dashIfEmpty(tenant.IDCard),
				dashIfEmpty(tenant.Email),
			})
		}
		return writeTable(cmd.OutOrStdout(), []string{"ID", "NAME", "PHONE", "ID CARD", "EMAIL"}, rows)
	},
}

var tenantUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a tenant's details",
	Long:  "Change a tenant's details. Only the flags given are updated.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		flags := cmd.Flags()
		changed := func(name string, value *string) *string {
			if flags.Changed(name) {
				return value
			}
			return nil
		}
		update := contract.TenantUpdate{
			FullName:         changed("name", &tenantEditInput.FullName),
			Phone:            changed("phone", &tenantEditInput.Phone),
			IDCard:           changed("id-card", &tenantEditInput.IDCard),
			Email:            changed("email", &tenantEditInput.Email),
			CurrentAddress:   changed("address", &tenantEditInput.CurrentAddress),
			PermanentAddress: changed("permanent-address", &tenantEditInput.PermanentAddress),
		}
		if update == (contract.TenantUpdate{}) {
			return &PreflightError{
				Message:  "nothing to update",
				NextStep: "rentdesk tenant update " + args[0] + " --phone <number>",
			}
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		tenant, err := newContractService(database).UpdateTenant(ctx, args[0], update)
		if err != nil {
			return tenantHint(err, tenantEditInput.IDCard)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tenant)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tenant %q updated\n", tenant.FullName)
		return nil
	},
}

var tenantDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		svc := newContractService(database)
		tenant, err := svc.GetTenant(ctx, args[0])
		if err != nil {
			return tenantHint(err, "")
		}

		if !tenantDeleteYes {
			if IsNonInteractive() {
				return &PreflightError{
					Message:  "refusing to delete without confirmation",
					Hint:     "Pass --yes to delete in non-interactive mode",
					NextStep: "rentdesk tenant delete " + tenant.ID + " --yes",
				}
			}
			if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete tenant %q?", tenant.FullName)) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
				return nil
			}
		}

		if err := svc.DeleteTenant(ctx, tenant.ID); err != nil {
			return tenantHint(err, "")
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), map[string]string{"deleted": tenant.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tenant %q deleted\n", tenant.FullName)
		return nil
	},
}

func tenantHint(err error, idCard string) error {
	if errors.Is(err, contract.ErrIDCardExists) {
		return &PreflightError{
			Message:  fmt.Sprintf("id card %s is already registered to another tenant", idCard),
			NextStep: "rentdesk tenant list --search " + idCard,
		}
	}
	return notFoundHint(err, "")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
