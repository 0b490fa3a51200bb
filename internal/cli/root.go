// Package cli is the ccd command tree. Without a subcommand it runs the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/config"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/services"
)

// rootOptions carries global flags and the components opened for a command.
type rootOptions struct {
	output    string
	accountID int

	loadConfig func() (*config.Config, error)

	cfg       *config.Config
	mgr       *services.Manager
	logCloser io.Closer
}

// Execute runs the command tree until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &rootOptions{loadConfig: config.Load}
	defer opts.close()

	return newRootCmd(opts).ExecuteContext(ctx)
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ccd",
		Short: "Cloud cost dashboard for the terminal",
		Long: `ccd shows the spend, paid resources and discovered services of the cloud
accounts linked to the cost-management backend.

Run without arguments to open the dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return opts.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json, yaml")
	cmd.PersistentFlags().IntVarP(&opts.accountID, "account", "a", 0, "account id (default: configured or first active)")

	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newAccountsCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// init loads the configuration and points the logger at the log file.
func (o *rootOptions) init() error {
	if o.cfg != nil {
		return nil
	}
	switch o.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or yaml)", o.output)
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	o.cfg = cfg

	closer, err := logger.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	o.logCloser = closer
	return nil
}

// manager opens the service manager on first use.
func (o *rootOptions) manager() (*services.Manager, error) {
	if o.mgr != nil {
		return o.mgr, nil
	}
	mgr, err := services.NewManager(o.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	o.mgr = mgr
	return mgr, nil
}

// authenticatedManager is manager for commands that cannot work logged out.
func (o *rootOptions) authenticatedManager() (*services.Manager, error) {
	mgr, err := o.manager()
	if err != nil {
		return nil, err
	}
	if !mgr.Authenticated() {
		return nil, errNotLoggedIn
	}
	return mgr, nil
}

func (o *rootOptions) close() {
	if o.mgr != nil {
		if err := o.mgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
		}
		o.mgr = nil
	}
	if o.logCloser != nil {
		_ = o.logCloser.Close()
		o.logCloser = nil
	}
}

var errNotLoggedIn = errors.New("not logged in, run 'ccd token set' first")

// resolveAccount picks the account a command works on: the --account flag,
// then the configured account, then the first active one.
func (o *rootOptions) resolveAccount(ctx context.Context, mgr *services.Manager) (models.Account, error) {
	accounts, err := mgr.Accounts(ctx)
	if err != nil {
		return models.Account{}, explain(err)
	}

	if o.accountID > 0 {
		for _, acc := range accounts {
			if acc.ID == o.accountID {
				return acc, nil
			}
		}
		return models.Account{}, fmt.Errorf("account %d is not linked", o.accountID)
	}

	acc, ok := models.SelectAccount(accounts, o.cfg.AccountID)
	if !ok {
		return models.Account{}, errors.New("no linked accounts, run 'ccd accounts connect' first")
	}
	return acc, nil
}

// explain rewrites backend errors into something a user can act on.
func explain(err error) error {
	if errors.Is(err, api.ErrUnauthenticated) {
		return errors.New("the backend rejected the token, run 'ccd token set' to log in again")
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.RequestID != "" {
		return fmt.Errorf("%w (request %s)", err, apiErr.RequestID)
	}
	return err
}
