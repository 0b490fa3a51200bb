package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/services"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
)

const reportTopServices = 5

// report is the machine-readable form of `ccd report`.
type report struct {
	GeneratedAt    time.Time            `json:"generated_at" yaml:"generated_at"`
	Account        string               `json:"account" yaml:"account"`
	Month          string               `json:"month,omitempty" yaml:"month,omitempty"`
	TopServices    []models.ServiceCost `json:"top_services" yaml:"top_services"`
	AccountID      int                  `json:"account_id" yaml:"account_id"`
	TotalSpend     float64              `json:"total_spend" yaml:"total_spend"`
	MonthToDate    float64              `json:"month_to_date" yaml:"month_to_date"`
	PriorDay       float64              `json:"prior_day" yaml:"prior_day"`
	MonthlyChange  float64              `json:"monthly_change_percent" yaml:"monthly_change_percent"`
	Forecast30Day  float64              `json:"forecast_30_day" yaml:"forecast_30_day"`
	PaidResources  int                  `json:"paid_resources" yaml:"paid_resources"`
	HighCost       int                  `json:"high_cost_resources" yaml:"high_cost_resources"`
	Services       int                  `json:"discovered_services" yaml:"discovered_services"`
	EstimatedMonth float64              `json:"estimated_monthly_cost" yaml:"estimated_monthly_cost"`
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a spend and resource summary of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := opts.authenticatedManager()
			if err != nil {
				return err
			}
			acc, err := opts.resolveAccount(cmd.Context(), mgr)
			if err != nil {
				return err
			}

			slices, err := fetchSlices(cmd.Context(), mgr, acc.ID, api.FetchOptions{NoCache: noCache},
				models.SliceSpend, models.SlicePaidResources, models.SliceLowLevel)
			if err != nil {
				return explain(err)
			}

			r := buildReport(acc, slices, time.Now())
			out := cmd.OutOrStdout()
			if opts.output != "table" {
				return printStructured(out, opts.output, r)
			}
			return printReport(out, r)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the backend cache")

	return cmd
}

// fetchSlices fetches the given slices concurrently. The first failure
// cancels the others.
func fetchSlices(ctx context.Context, mgr *services.Manager, accountID int, opts api.FetchOptions, slices ...models.Slice) (map[models.Slice]any, error) {
	results := make([]any, len(slices))

	g, ctx := errgroup.WithContext(ctx)
	for i, slice := range slices {
		g.Go(func() error {
			res, err := mgr.Fetch(ctx, slice, accountID, opts)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", slice.Title(), err)
			}
			results[i] = res.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[models.Slice]any, len(slices))
	for i, slice := range slices {
		out[slice] = results[i]
	}
	return out, nil
}

func buildReport(acc models.Account, slices map[models.Slice]any, now time.Time) report {
	r := report{
		GeneratedAt: now.UTC(),
		AccountID:   acc.ID,
		Account:     acc.DisplayName(),
		TopServices: []models.ServiceCost{},
	}

	if spend, ok := slices[models.SliceSpend].(*models.SpendSummary); ok && spend != nil {
		r.Month = spend.MonthLabel
		r.TotalSpend = spend.TotalSpend
		r.MonthToDate = spend.MonthToDateSpend
		r.PriorDay = spend.PriorDaySpend
		r.MonthlyChange = analytics.CappedChange(spend.MonthlyChangePercent)
		r.Forecast30Day = spend.Forecast.ThirtyDay
		r.TopServices = analytics.TopServices(spend.Services, reportTopServices)
	}
	if paid, ok := slices[models.SlicePaidResources].(*models.PaidResources); ok && paid != nil {
		r.PaidResources = paid.Summary.TotalPaid
		r.HighCost = paid.Summary.High
	}
	if low, ok := slices[models.SliceLowLevel].(*models.LowLevelServices); ok && low != nil {
		r.Services = len(low.Categories)
		r.EstimatedMonth = low.Summary.EstimatedMonthlyCost
	}
	return r
}

func printReport(w io.Writer, r report) error {
	title := fmt.Sprintf("Account %s (#%d)", r.Account, r.AccountID)
	if r.Month != "" {
		title += ", " + r.Month
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w)

	table := NewTable("METRIC", "VALUE")
	table.AddRow("Total spend", components.FormatCurrency(r.TotalSpend))
	table.AddRow("Month to date", components.FormatCurrency(r.MonthToDate))
	table.AddRow("Prior day (billing lag)", components.FormatCurrency(r.PriorDay))
	table.AddRow("vs. last month", components.FormatSignedPercent(r.MonthlyChange))
	table.AddRow("30-day forecast", components.FormatCurrency(r.Forecast30Day))
	table.AddRow("Paid resources", fmt.Sprintf("%d (%d high cost)", r.PaidResources, r.HighCost))
	table.AddRow("Discovered services", fmt.Sprintf("%d, %s/month estimated", r.Services, components.FormatCurrency(r.EstimatedMonth)))
	if err := table.Render(w); err != nil {
		return err
	}

	if len(r.TopServices) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	top := NewTable("SERVICE", "SPEND", "SHARE")
	for _, svc := range r.TopServices {
		top.AddRow(svc.Name, components.FormatCurrency(svc.Amount), components.FormatPercent(svc.Percentage))
	}
	return top.Render(w)
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull the latest cost data for an account",
		Long: `Asks the backend to sync the account, waits for it to recompute its
analytics and prints the refreshed spend totals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := opts.authenticatedManager()
			if err != nil {
				return err
			}
			acc, err := opts.resolveAccount(cmd.Context(), mgr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Syncing %s...\n", acc.DisplayName())

			outcome, err := mgr.Sync(cmd.Context(), acc.ID)
			if err != nil {
				return explain(err)
			}

			res := outcome.Result
			if res.Status == "error" {
				return fmt.Errorf("sync failed: %s", res.Message)
			}
			fmt.Fprintf(out, "%s: %s daily records synced\n", formatStatus(res.Status), components.FormatCount(res.RecordsSynced))

			if outcome.SpendErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: refreshed totals unavailable: %v\n", explain(outcome.SpendErr))
				return nil
			}
			if spend, ok := outcome.Spend.Data.(*models.SpendSummary); ok {
				fmt.Fprintf(out, "Total spend %s, month to date %s\n",
					components.FormatCurrency(spend.TotalSpend), components.FormatCurrency(spend.MonthToDateSpend))
			}
			return nil
		},
	}
}
