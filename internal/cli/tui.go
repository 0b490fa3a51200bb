package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/app"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/tabs/accounts"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/tabs/lowlevel"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/tabs/overview"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/tabs/resources"
	servicestab "github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/tabs/services"
)

// runTUI opens the dashboard and blocks until the user quits or ctx is done.
func runTUI(ctx context.Context, opts *rootOptions) error {
	mgr, err := opts.manager()
	if err != nil {
		return err
	}
	cfg := opts.cfg

	accountID := cfg.AccountID
	if opts.accountID > 0 {
		accountID = opts.accountID
	}

	model := app.NewModel(mgr, app.Options{
		PreferredAccountID:  accountID,
		AutoRefreshInterval: cfg.AutoRefreshInterval,
		StatusDuration:      cfg.StatusDuration,
	})

	// Tabs share the state owned by the root model, in TabID order.
	state := model.GetState()
	model.SetTabs([]app.Tab{
		overview.New(state),
		servicestab.New(state),
		resources.New(state),
		lowlevel.New(state),
		accounts.New(state),
		info.New(state, cfg),
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Send(tea.Quit())
		case <-done:
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
