package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
	"github.com/odyssey-erp/ticketdash/internal/tickets/loader"
)

// Global flag values.
var (
	datasetPath string
	noColor     bool
)

// Filter flag values shared by summary and export.
var (
	startFlag     string
	endFlag       string
	zoneFlags     []string
	branchFlags   []string
	categoryFlags []string
)

// rootCmd is the base command for ticketctl.
var rootCmd = &cobra.Command{
	Use:   "ticketctl",
	Short: "Inspect and export the ticket dashboard from the terminal",
	Long: `ticketctl reads the ticket spreadsheet the dashboard serves and prints
or exports the same aggregates: headline counts, migration shares, branch
rankings and the zone and days-range breakdowns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&datasetPath, "dataset", "d", envOr("DATASET_PATH", "Raw_Data.xlsx"), "path to the ticket spreadsheet (.xlsx, .xls or .csv; - reads stdin)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(warmupCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// addFilterFlags registers the selection flags on fs.
func addFilterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&startFlag, "start", "", "first day to include (default: earliest ticket)")
	fs.StringVar(&endFlag, "end", "", "last day to include (default: latest ticket)")
	fs.StringSliceVar(&zoneFlags, "zone", nil, "zones to include (default: all; pass --zone= for none)")
	fs.StringSliceVar(&branchFlags, "branch", nil, "branches to include (default: all; pass --branch= for none)")
	fs.StringSliceVar(&categoryFlags, "category", nil, "categories to include (default: all; pass --category= for none)")
}

// selectionFromFlags builds a selection the way the dashboard does: omitted
// dates fall back to the dataset bounds and omitted sets select every option
// available in the date range.
func selectionFromFlags(fs *pflag.FlagSet, table *tickets.Table) (filter.Selection, error) {
	minDate, maxDate, ok := filter.Bounds(table)
	if !ok {
		today := tickets.Day(time.Now())
		minDate, maxDate = today, today
	}
	start, end := minDate, maxDate
	if startFlag != "" {
		d, err := tickets.ParseDate(startFlag)
		if err != nil {
			return filter.Selection{}, &tickets.FilterError{Field: "start_date", Reason: err.Error()}
		}
		start = d
	}
	if endFlag != "" {
		d, err := tickets.ParseDate(endFlag)
		if err != nil {
			return filter.Selection{}, &tickets.FilterError{Field: "end_date", Reason: err.Error()}
		}
		end = d
	}
	options := filter.OptionsFor(table, start, end)
	sel := filter.Selection{
		StartDate:  start,
		EndDate:    end,
		Zones:      flagSet(fs, "zone", zoneFlags, options.Zones),
		Branches:   flagSet(fs, "branch", branchFlags, options.Branches),
		Categories: flagSet(fs, "category", categoryFlags, options.Categories),
	}
	if err := filter.Validate(sel); err != nil {
		return filter.Selection{}, err
	}
	return sel.Normalized(), nil
}

func flagSet(fs *pflag.FlagSet, name string, values, available []string) []string {
	if !fs.Changed(name) {
		return available
	}
	return values
}

// readDataset loads the --dataset source. "-" reads the whole of stdin and
// detects the format from its content.
func readDataset(ctx context.Context, cmd *cobra.Command) (*tickets.Table, error) {
	l := loader.New(nil)
	if datasetPath != "-" {
		return l.Load(ctx, datasetPath)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, &tickets.DataLoadError{Source: "stdin", Err: err}
	}
	return l.LoadBytes(ctx, "stdin"+loader.Extension(data), data)
}

// loadDashboard reads the dataset and builds the dashboard for the filter
// flags of cmd.
func loadDashboard(ctx context.Context, cmd *cobra.Command) (*tickets.Table, analytics.Dashboard, error) {
	table, err := readDataset(ctx, cmd)
	if err != nil {
		return nil, analytics.Dashboard{}, err
	}
	sel, err := selectionFromFlags(cmd.Flags(), table)
	if err != nil {
		return nil, analytics.Dashboard{}, err
	}
	dash, err := analytics.NewService(nil).Build(ctx, table, sel)
	if err != nil {
		return nil, analytics.Dashboard{}, err
	}
	return table, dash, nil
}
