package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// WriteMetricsCSV serialises the headline counters and donut shares.
func WriteMetricsCSV(w io.Writer, dash analytics.Dashboard) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Start Date", formatDay(dash.Selection.StartDate)},
		{"End Date", formatDay(dash.Selection.EndDate)},
		{"Total Tickets", itoa(dash.Metrics.TotalTickets)},
		{"Total Branches", itoa(dash.Metrics.TotalBranches)},
		{"Tickets Closed", itoa(dash.Metrics.Closed)},
		{"Tickets Open", itoa(dash.Metrics.Open)},
		{dash.Inbound.Label + " %", itoa(dash.Inbound.Percentage)},
		{dash.Outbound.Label + " %", itoa(dash.Outbound.Percentage)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteValueCountsCSV emits a ranked dimension breakdown.
func WriteValueCountsCSV(w io.Writer, dimension string, values []analytics.ValueCount) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{dimension, "Total_Tickets"}); err != nil {
		return err
	}
	for _, v := range values {
		if err := writer.Write([]string{v.Value, itoa(v.Count)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePivotCSV emits a cross-tabulation with the corner label first.
func WritePivotCSV(w io.Writer, corner string, p analytics.PivotTable) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(append([]string{corner}, p.Columns...)); err != nil {
		return err
	}
	for _, row := range p.Rows {
		record := make([]string, 0, len(p.Columns)+1)
		record = append(record, row)
		for _, column := range p.Columns {
			record = append(record, itoa(p.Count(row, column)))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBarsCSV emits grouped bar points with one column per series.
func WriteBarsCSV(w io.Writer, corner string, categories, series []string, points []chart.BarPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(append([]string{corner}, series...)); err != nil {
		return err
	}
	columns := make([][]int, len(series))
	for i, name := range series {
		columns[i] = chart.SeriesValues(points, name, categories)
	}
	for j, category := range categories {
		record := []string{category}
		for i := range series {
			record = append(record, itoa(columns[i][j]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDashboardCSV writes every dashboard section separated by a blank line.
func WriteDashboardCSV(w io.Writer, dash analytics.Dashboard) error {
	sections := []func() error{
		func() error { return WriteMetricsCSV(w, dash) },
		func() error { return WriteValueCountsCSV(w, "Branch", dash.Branches) },
		func() error { return WriteValueCountsCSV(w, "Priority", dash.Priorities) },
		func() error { return WritePivotCSV(w, "Zone", dash.ZoneDays) },
		func() error {
			return WriteBarsCSV(w, "Days_Range", dash.DaysRanges, tickets.EngineerStatusOrder, dash.DaysStatus)
		},
		func() error {
			return WriteBarsCSV(w, "Zone", dash.Zones, tickets.EngineerStatusOrder, dash.ZoneStatus)
		},
		func() error { return WriteValueCountsCSV(w, "Sub-Category", dash.SubCategories) },
	}
	for i, write := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

// WriteRowsCSV emits the raw tickets restricted to columns.
func WriteRowsCSV(w io.Writer, table *tickets.Table, columns []string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(columns); err != nil {
		return err
	}
	for i := 0; i < table.Len(); i++ {
		record := make([]string, len(columns))
		for j, column := range columns {
			record[j] = table.Cell(i, column)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
