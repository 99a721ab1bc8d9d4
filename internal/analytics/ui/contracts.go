package ui

import (
	"html/template"
	"time"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
	"github.com/odyssey-erp/ticketdash/internal/analytics/svg"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

// Option is one entry of a multi-select.
type Option struct {
	Value    string
	Selected bool
}

// DashboardFilters represents the sanitized sidebar state.
type DashboardFilters struct {
	Start      time.Time
	End        time.Time
	MinDate    time.Time
	MaxDate    time.Time
	Zones      []Option
	Branches   []Option
	Categories []Option
	// Query re-encodes the selection for export links. It is produced by
	// url.Values.Encode and is safe inside an href.
	Query template.URL
}

// BranchRow is one line of the branch-wise ticket table.
type BranchRow struct {
	Branch  string
	Tickets int
	// Percent is the bar width relative to the busiest branch.
	Percent int
}

// PivotRow is one labelled row of a cross-tabulation.
type PivotRow struct {
	Label  string
	Counts []int
	Total  int
}

// PivotView is a cross-tabulation ready for a table template.
type PivotView struct {
	Corner  string
	Columns []string
	Rows    []PivotRow
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Filters        DashboardFilters
	Metrics        analytics.Metrics
	Empty          bool
	Source         string
	GeneratedAt    time.Time
	InboundSVG     template.HTML
	OutboundSVG    template.HTML
	PrioritySVG    template.HTML
	DaysStatusSVG  template.HTML
	ZoneStatusSVG  template.HTML
	SubCategorySVG template.HTML
	TrendSVG       template.HTML
	Branches       []BranchRow
	ZoneDays       PivotView
}

// ColumnOption is a selectable raw data column.
type ColumnOption struct {
	Name     string
	Selected bool
}

// DataViewModel is the raw dataset view.
type DataViewModel struct {
	Filters DashboardFilters
	Columns []ColumnOption
	Header  []string
	Rows    [][]string
	Total   int
	Shown   int
}

// ChartRenderer abstracts SVG rendering for the dashboard.
type ChartRenderer interface {
	Trend(width, height int, points []svg.DayCount, opts svg.TrendOpts) (template.HTML, error)
	Bars(width, height int, series []svg.Series, labels []string, opts svg.BarOpts) (template.HTML, error)
	HBars(width, height int, series []svg.Series, labels []string, opts svg.BarOpts) (template.HTML, error)
	Donut(size int, d chart.Donut, opts svg.DonutOpts) (template.HTML, error)
	Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error)
}

// ToOptions marks the selected values among all available ones. Selected
// values missing from available are appended so the form round-trips.
func ToOptions(available, selected []string) []Option {
	picked := make(map[string]bool, len(selected))
	for _, v := range selected {
		picked[v] = true
	}
	opts := make([]Option, 0, len(available))
	seen := make(map[string]bool, len(available))
	for _, v := range available {
		opts = append(opts, Option{Value: v, Selected: picked[v]})
		seen[v] = true
	}
	for _, v := range selected {
		if !seen[v] {
			opts = append(opts, Option{Value: v, Selected: true})
			seen[v] = true
		}
	}
	return opts
}

// ToFilters converts a selection and its available options.
func ToFilters(sel filter.Selection, available filter.Options, minDate, maxDate time.Time, query string) DashboardFilters {
	return DashboardFilters{
		Start:      sel.StartDate,
		End:        sel.EndDate,
		MinDate:    minDate,
		MaxDate:    maxDate,
		Zones:      ToOptions(available.Zones, sel.Zones),
		Branches:   ToOptions(available.Branches, sel.Branches),
		Categories: ToOptions(available.Categories, sel.Categories),
		Query:      template.URL(query),
	}
}

// ToBranchRows scales branch counts against the busiest branch.
func ToBranchRows(values []analytics.ValueCount, maxCount int) []BranchRow {
	rows := make([]BranchRow, 0, len(values))
	for _, v := range values {
		pct := 0
		if maxCount > 0 {
			pct = v.Count * 100 / maxCount
		}
		rows = append(rows, BranchRow{Branch: v.Value, Tickets: v.Count, Percent: pct})
	}
	return rows
}

// ToPivotView flattens a pivot table with per-row totals.
func ToPivotView(corner string, p analytics.PivotTable) PivotView {
	rows := make([]PivotRow, 0, len(p.Rows))
	for i, label := range p.Rows {
		counts := make([]int, len(p.Columns))
		if i < len(p.Counts) {
			copy(counts, p.Counts[i])
		}
		total := 0
		for _, c := range counts {
			total += c
		}
		rows = append(rows, PivotRow{Label: label, Counts: counts, Total: total})
	}
	return PivotView{Corner: corner, Columns: append([]string(nil), p.Columns...), Rows: rows}
}

// ToDayCounts converts the daily trend for the trend renderer.
func ToDayCounts(points []analytics.TrendPoint) []svg.DayCount {
	out := make([]svg.DayCount, len(points))
	for i, p := range points {
		out[i] = svg.DayCount{Day: p.Date, Count: p.Count}
	}
	return out
}

// ToSlices converts value counts into pie slices.
func ToSlices(values []analytics.ValueCount) []svg.Slice {
	slices := make([]svg.Slice, 0, len(values))
	for _, v := range values {
		slices = append(slices, svg.Slice{Label: v.Value, Value: float64(v.Count)})
	}
	return slices
}

// ToSeries builds one svg series per name from grouped bar points.
func ToSeries(points []chart.BarPoint, categories []string, names []string, labels []string, colors []string) []svg.Series {
	series := make([]svg.Series, 0, len(names))
	for i, name := range names {
		values := chart.SeriesValues(points, name, categories)
		floats := make([]float64, len(values))
		for j, v := range values {
			floats[j] = float64(v)
		}
		s := svg.Series{Label: name, Values: floats}
		if i < len(labels) {
			s.Label = labels[i]
		}
		if i < len(colors) {
			s.Color = colors[i]
		}
		series = append(series, s)
	}
	return series
}

// ToRankedSeries converts value counts into a single series plus labels.
func ToRankedSeries(label string, values []analytics.ValueCount) ([]svg.Series, []string) {
	labels := make([]string, len(values))
	floats := make([]float64, len(values))
	for i, v := range values {
		labels[i] = v.Value
		floats[i] = float64(v.Count)
	}
	return []svg.Series{{Label: label, Values: floats}}, labels
}
