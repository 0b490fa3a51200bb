package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/export"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		filter  analytics.Filter
		format  string
		outPath string
		maxCost float64
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export discovered services and resources",
		Long: `Writes the low-level services of an account as JSON, CSV or YAML. The
filter flags select the same services the dashboard would show.`,
		Example: `  ccd export --format csv --out services.csv
  ccd export --category Compute --region us-east-1 --min-cost 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, outPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-cost") {
				filter.MaxCost = &maxCost
			}
			if errs := filter.Validate(); len(errs) > 0 {
				return filterError(errs)
			}

			mgr, err := opts.authenticatedManager()
			if err != nil {
				return err
			}
			acc, err := opts.resolveAccount(cmd.Context(), mgr)
			if err != nil {
				return err
			}

			res, err := mgr.Fetch(cmd.Context(), models.SliceLowLevel, acc.ID, api.FetchOptions{NoCache: noCache})
			if err != nil {
				return explain(err)
			}
			low, _ := res.Data.(*models.LowLevelServices)
			doc := export.Build(acc.ID, low, filter, time.Now())

			if outPath == "" || outPath == "-" {
				return export.Write(cmd.OutOrStdout(), f, doc)
			}
			if err := export.WriteFile(outPath, f, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d services to %s\n", len(doc.Categories), outPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", "", "json, csv or yaml (default: from --out extension, else json)")
	flags.StringVar(&outPath, "out", "", "output file (default: stdout)")
	flags.StringVar(&filter.Search, "search", "", "match service name, description or resource")
	flags.StringSliceVar(&filter.Categories, "category", nil, "keep only these categories")
	flags.StringSliceVar(&filter.Regions, "region", nil, "keep only resources in these regions")
	flags.Float64Var(&filter.MinCost, "min-cost", 0, "minimum monthly cost")
	flags.Float64Var(&maxCost, "max-cost", 0, "maximum monthly cost (default: no limit)")
	flags.BoolVar(&noCache, "no-cache", false, "bypass the backend cache")

	return cmd
}

// exportFormat resolves the format flag, falling back to the output file
// extension and then to JSON.
func exportFormat(flag, outPath string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if ext := filepath.Ext(outPath); ext != "" {
		return export.ParseFormat(ext)
	}
	return export.FormatJSON, nil
}

func filterError(errs []analytics.FieldError) error {
	joined := lo.Map(errs, func(e analytics.FieldError, _ int) error { return e })
	return fmt.Errorf("invalid filter: %w", errors.Join(joined...))
}
