package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
	"github.com/odyssey-erp/ticketdash/internal/analytics/ui"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// Shared color printers for summary sections.
var (
	colorBold  = color.New(color.Bold)
	colorGreen = color.New(color.FgGreen)
	colorRed   = color.New(color.FgRed)
	colorFaint = color.New(color.Faint)
)

var summaryTop int

// summaryCmd prints the dashboard aggregates.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print dashboard aggregates for a selection",
	Long: `Print the headline counts, migration shares and rankings for the
selected tickets.

Examples:
  ticketctl summary
  ticketctl summary --start 01/03/2024 --end 31/03/2024 --zone "Zone 2"
  ticketctl summary --branch Pune,Mumbai --top 5`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	addFilterFlags(summaryCmd.Flags())
	summaryCmd.Flags().IntVar(&summaryTop, "top", 10, "rows to show in ranked tables (0 for all)")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	_, dash, err := loadDashboard(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), dash, summaryTop)
	return nil
}

func printSummary(w io.Writer, dash analytics.Dashboard, top int) {
	sel := dash.Selection
	colorBold.Fprintf(w, "Ticket Dashboard")
	colorFaint.Fprintf(w, "  %s  %s to %s\n\n", dash.Source, ui.FormatDay(sel.StartDate), ui.FormatDay(sel.EndDate))

	if dash.Metrics.TotalTickets == 0 {
		fmt.Fprintln(w, "No tickets match the current filters.")
		return
	}

	m := dash.Metrics
	fmt.Fprintf(w, "%-16s %10s\n", "Total Tickets", ui.FormatCount(m.TotalTickets))
	fmt.Fprintf(w, "%-16s %10s\n", "Total Branches", ui.FormatCount(m.TotalBranches))
	fmt.Fprintf(w, "%-16s %10s\n", "Closed Tickets", colorGreen.Sprint(ui.FormatCount(m.Closed)))
	fmt.Fprintf(w, "%-16s %10s\n", "Open Tickets", colorRed.Sprint(ui.FormatCount(m.Open)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %4d%%\n", dash.Inbound.Label, dash.Inbound.Percentage)
	fmt.Fprintf(w, "%-20s %4d%%\n", dash.Outbound.Label, dash.Outbound.Percentage)

	printRanking(w, "Branch", dash.Branches, top)
	printRanking(w, "Priority", dash.Priorities, top)
	printPivot(w, dash.ZoneDays, dash.ZoneTotals)
	printStatus(w, "Days Range", dash.DaysRanges, dash)
	printRanking(w, "Sub-Category", dash.SubCategories, top)
}

func printRanking(w io.Writer, title string, values []analytics.ValueCount, top int) {
	fmt.Fprintln(w)
	colorBold.Fprintln(w, title)
	if top > 0 && len(values) > top {
		values = values[:top]
	}
	width := len(title)
	for _, v := range values {
		if len(v.Value) > width {
			width = len(v.Value)
		}
	}
	for _, v := range values {
		fmt.Fprintf(w, "  %-*s %8s\n", width, v.Value, ui.FormatCount(v.Count))
	}
}

// printPivot prints the zone by days-range table with a trailing total column
// taken from the canonical zone totals.
func printPivot(w io.Writer, p analytics.PivotTable, totals []chart.Category) {
	byZone := make(map[string]int, len(totals))
	for _, c := range totals {
		byZone[c.Label] = c.Value
	}
	fmt.Fprintln(w)
	colorBold.Fprintln(w, "Zone x Days Range")
	fmt.Fprintf(w, "  %-8s", "Zone")
	for _, c := range p.Columns {
		fmt.Fprintf(w, " %10s", c)
	}
	fmt.Fprintf(w, " %10s\n", "Total")
	for _, row := range p.Rows {
		line := fmt.Sprintf("  %-8s", row)
		for _, c := range p.Columns {
			line += fmt.Sprintf(" %10d", p.Count(row, c))
		}
		line += fmt.Sprintf(" %10d", byZone[row])
		if p.RowTotal(row) == 0 {
			colorFaint.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func printStatus(w io.Writer, title string, categories []string, dash analytics.Dashboard) {
	if len(categories) == 0 {
		return
	}
	fmt.Fprintln(w)
	colorBold.Fprintf(w, "%s by status\n", title)
	fmt.Fprintf(w, "  %-12s %s\n", title, strings.Join(tickets.EngineerStatusOrder, " / "))
	for _, c := range categories {
		closed := 0
		open := 0
		for _, p := range dash.DaysStatus {
			if p.Category != c {
				continue
			}
			switch p.Series {
			case tickets.StatusClosed:
				closed = p.Value
			case tickets.StatusOpen:
				open = p.Value
			}
		}
		fmt.Fprintf(w, "  %-12s %s / %s\n", c, colorGreen.Sprint(closed), colorRed.Sprint(open))
	}
}
