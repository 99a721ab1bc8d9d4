package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/export"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// Export command flags.
var (
	exportFormat  string
	exportOutput  string
	exportRaw     bool
	exportColumns []string
)

// exportCmd writes the dashboard to a file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export dashboard aggregates to CSV or Excel",
	Long: `Export the dashboard for a selection.

CSV output holds every section separated by a blank line. Excel output has
one sheet per section plus the filtered tickets. Use --raw with CSV to write
the filtered tickets only.

Examples:
  ticketctl export --format xlsx --output march.xlsx --start 01/03/2024 --end 31/03/2024
  ticketctl export --format csv --raw --columns Date,Priority,Eng.\ Status`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	addFilterFlags(exportCmd.Flags())
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout for csv, tickets.xlsx for xlsx)")
	exportCmd.Flags().BoolVar(&exportRaw, "raw", false, "write the filtered tickets instead of the aggregates (csv only)")
	exportCmd.Flags().StringSliceVar(&exportColumns, "columns", nil, "ticket columns to include (default: the standard column set)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(strings.TrimSpace(exportFormat))
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q (use csv or xlsx)", exportFormat)
	}
	table, dash, err := loadDashboard(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	columns := exportColumnsFor(table)

	output := exportOutput
	if output == "" && format == "xlsx" {
		output = "tickets.xlsx"
	}
	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		buffered := bufio.NewWriter(f)
		defer buffered.Flush()
		w = buffered
	}

	if err := writeExport(w, format, dash, columns); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d tickets)\n", output, dash.Metrics.TotalTickets)
	}
	return nil
}

func writeExport(w io.Writer, format string, dash analytics.Dashboard, columns []string) error {
	switch {
	case format == "xlsx":
		return export.WriteWorkbook(w, dash, columns)
	case exportRaw:
		return export.WriteRowsCSV(w, dash.Subset, columns)
	default:
		return export.WriteDashboardCSV(w, dash)
	}
}

func exportColumnsFor(table *tickets.Table) []string {
	requested := exportColumns
	if len(requested) == 0 {
		requested = tickets.DefaultRawColumns
	}
	columns := make([]string, 0, len(requested))
	for _, c := range requested {
		if table.HasColumn(c) {
			columns = append(columns, c)
		}
	}
	return columns
}
