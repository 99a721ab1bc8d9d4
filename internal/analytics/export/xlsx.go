package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// Workbook sheet names in the order they are written.
const (
	SheetSummary     = "Summary"
	SheetBranches    = "Branches"
	SheetPriority    = "Priority"
	SheetZoneDays    = "Zone x Days Range"
	SheetDaysStatus  = "Days Range x Status"
	SheetZoneStatus  = "Zone x Status"
	SheetSubCategory = "Sub-Category"
	SheetTrend       = "Daily Trend"
	SheetTickets     = "Tickets"
)

// WriteWorkbook renders the dashboard as an XLSX workbook with one sheet per
// view, followed by the filtered tickets restricted to columns.
func WriteWorkbook(w io.Writer, dash analytics.Dashboard, columns []string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	book := &workbook{file: f, header: bold}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Start Date", formatDay(dash.Selection.StartDate)},
		{"End Date", formatDay(dash.Selection.EndDate)},
		{"Total Tickets", dash.Metrics.TotalTickets},
		{"Total Branches", dash.Metrics.TotalBranches},
		{"Tickets Closed", dash.Metrics.Closed},
		{"Tickets Open", dash.Metrics.Open},
		{dash.Inbound.Label + " %", dash.Inbound.Percentage},
		{dash.Outbound.Label + " %", dash.Outbound.Percentage},
	}
	if err := book.sheet(SheetSummary, []string{"Metric", "Value"}, summary); err != nil {
		return err
	}
	if err := book.sheet(SheetBranches, []string{"Branch", "Total_Tickets"}, valueRows(dash.Branches)); err != nil {
		return err
	}
	if err := book.sheet(SheetPriority, []string{"Priority", "Total_Tickets"}, valueRows(dash.Priorities)); err != nil {
		return err
	}
	if err := book.pivot(SheetZoneDays, "Zone", dash.ZoneDays); err != nil {
		return err
	}
	if err := book.sheet(SheetDaysStatus, append([]string{"Days_Range"}, tickets.EngineerStatusOrder...), barRows(dash.DaysRanges, dash.DaysStatus)); err != nil {
		return err
	}
	if err := book.sheet(SheetZoneStatus, append([]string{"Zone"}, tickets.EngineerStatusOrder...), barRows(dash.Zones, dash.ZoneStatus)); err != nil {
		return err
	}
	if err := book.sheet(SheetSubCategory, []string{"Sub-Category", "Total_Tickets"}, valueRows(dash.SubCategories)); err != nil {
		return err
	}
	trend := make([][]interface{}, 0, len(dash.Trend))
	for _, p := range dash.Trend {
		trend = append(trend, []interface{}{formatDay(p.Date), p.Count})
	}
	if err := book.sheet(SheetTrend, []string{"Date", "Tickets"}, trend); err != nil {
		return err
	}
	rows := make([][]interface{}, 0, dash.Subset.Len())
	for i := 0; i < dash.Subset.Len(); i++ {
		row := make([]interface{}, len(columns))
		for j, column := range columns {
			row[j] = dash.Subset.Cell(i, column)
		}
		rows = append(rows, row)
	}
	if err := book.sheet(SheetTickets, columns, rows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

type workbook struct {
	file   *excelize.File
	header int
}

func (b *workbook) sheet(name string, header []string, rows [][]interface{}) error {
	if idx, err := b.file.GetSheetIndex(name); err != nil {
		return err
	} else if idx < 0 {
		if _, err := b.file.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := b.file.SetSheetRow(name, "A1", &head); err != nil {
		return err
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := b.file.SetCellStyle(name, "A1", last, b.header); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := b.file.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (b *workbook) pivot(name, corner string, p analytics.PivotTable) error {
	rows := make([][]interface{}, 0, len(p.Rows))
	for _, label := range p.Rows {
		row := []interface{}{label}
		for _, column := range p.Columns {
			row = append(row, p.Count(label, column))
		}
		rows = append(rows, row)
	}
	return b.sheet(name, append([]string{corner}, p.Columns...), rows)
}

func valueRows(values []analytics.ValueCount) [][]interface{} {
	rows := make([][]interface{}, 0, len(values))
	for _, v := range values {
		rows = append(rows, []interface{}{v.Value, v.Count})
	}
	return rows
}

func barRows(categories []string, points []chart.BarPoint) [][]interface{} {
	columns := make([][]int, len(tickets.EngineerStatusOrder))
	for i, series := range tickets.EngineerStatusOrder {
		columns[i] = chart.SeriesValues(points, series, categories)
	}
	rows := make([][]interface{}, 0, len(categories))
	for j, category := range categories {
		row := []interface{}{category}
		for i := range columns {
			row = append(row, columns[i][j])
		}
		rows = append(rows, row)
	}
	return rows
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(tickets.DateLayout)
}
