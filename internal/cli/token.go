package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/auth"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the backend API token",
		Long: `The token is stored in a file that the dashboard watches, so logging in
or out here takes effect in a running dashboard too.`,
	}

	cmd.AddCommand(newTokenSetCmd(opts))
	cmd.AddCommand(newTokenClearCmd(opts))
	cmd.AddCommand(newTokenStatusCmd(opts))

	return cmd
}

func newTokenSetCmd(opts *rootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				token, err = promptToken(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			return withStore(opts, func(store *auth.Store) error {
				if err := store.Save(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", store.Path())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token value (prompted for when omitted)")

	return cmd
}

func newTokenClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(store *auth.Store) error {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newTokenStatusCmd(opts *rootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var loggedIn bool
			err := withStore(opts, func(store *auth.Store) error {
				_, loggedIn = store.Token()
				if !loggedIn {
					fmt.Fprintf(out, "Not logged in (no token at %s)\n", store.Path())
					return nil
				}
				fmt.Fprintf(out, "Logged in, token saved %s\n", components.FormatAgo(store.SavedAt()))
				return nil
			})
			if err != nil || !verify || !loggedIn {
				return err
			}

			mgr, err := opts.manager()
			if err != nil {
				return err
			}
			accounts, err := mgr.Accounts(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(out, "Backend accepted the token, %d accounts linked\n", len(accounts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check the token against the backend")

	return cmd
}

// withStore opens the token store for the duration of fn.
func withStore(opts *rootOptions, fn func(*auth.Store) error) error {
	store, err := auth.Open(opts.cfg.TokenPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// promptToken reads the token without echo when stdin is a terminal, and
// the first line of input otherwise.
func promptToken(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "API token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", fmt.Errorf("no token given")
	}
	return token, nil
}
