package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "List and link cloud accounts",
	}

	cmd.AddCommand(newAccountsListCmd(opts))
	cmd.AddCommand(newAccountsConnectCmd(opts))
	cmd.AddCommand(newAccountsExternalIDCmd(opts))

	return cmd
}

func newAccountsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List linked accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := opts.authenticatedManager()
			if err != nil {
				return err
			}

			accounts, err := mgr.Accounts(cmd.Context())
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if opts.output != "table" {
				return printStructured(out, opts.output, accounts)
			}

			if len(accounts) == 0 {
				fmt.Fprintln(out, "No accounts linked. Run 'ccd accounts external-id' to start.")
				return nil
			}

			table := NewTable("ID", "ACCOUNT", "ROLE", "STATUS", "LAST SYNC")
			for _, acc := range accounts {
				table.AddRow(
					strconv.Itoa(acc.ID),
					acc.DisplayName(),
					truncate(acc.RoleARN, 60),
					formatStatus(accountStatus(acc)),
					lastSync(acc),
				)
			}
			return table.Render(out)
		},
	}
}

func accountStatus(acc models.Account) string {
	if acc.IsActive {
		return "active"
	}
	return "inactive"
}

func lastSync(acc models.Account) string {
	if acc.NeverSynced() {
		return "never"
	}
	return components.FormatAgo(*acc.LastSynced)
}

func newAccountsConnectCmd(opts *rootOptions) *cobra.Command {
	var roleARN string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Link an account by the ARN of its cross-account role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := opts.authenticatedManager()
			if err != nil {
				return err
			}

			res, err := mgr.Client().Accounts().Connect(cmd.Context(), roleARN)
			if err != nil {
				return explain(err)
			}
			if res.Status == "error" {
				return fmt.Errorf("backend refused the account: %s", res.Message)
			}

			msg := res.Message
			if msg == "" {
				msg = "Account linked"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'ccd sync' to pull its cost data.")
			return nil
		},
	}

	cmd.Flags().StringVar(&roleARN, "role-arn", "", "ARN of the role the platform assumes")
	_ = cmd.MarkFlagRequired("role-arn")

	return cmd
}

func newAccountsExternalIDCmd(opts *rootOptions) *cobra.Command {
	var infoOnly bool

	cmd := &cobra.Command{
		Use:   "external-id",
		Short: "Generate the external ID and trust policy for a new role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := opts.authenticatedManager()
			if err != nil {
				return err
			}

			accounts := mgr.Client().Accounts()
			var setup *models.AccountSetup
			if infoOnly {
				setup, err = accounts.PlatformInfo(cmd.Context())
			} else {
				setup, err = accounts.GenerateExternalID(cmd.Context())
			}
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if opts.output != "table" {
				return printStructured(out, opts.output, setup)
			}

			fmt.Fprintf(out, "Platform account: %s\n", setup.PlatformAccountID)
			if setup.RoleName != "" {
				fmt.Fprintf(out, "Role name:        %s\n", setup.RoleName)
			}
			if setup.ExternalID != "" {
				fmt.Fprintf(out, "External ID:      %s\n", setup.ExternalID)
			}
			if setup.PolicyJSON != "" {
				fmt.Fprintf(out, "\nTrust policy:\n%s\n", setup.PolicyJSON)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&infoOnly, "info", false, "only show the platform account, without generating an ID")

	return cmd
}
