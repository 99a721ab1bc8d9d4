package svg

import (
	"html/template"

	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
)

// Renderer exposes the package renderers as methods.
type Renderer struct{}

// Trend delegates to Trend.
func (Renderer) Trend(width, height int, points []DayCount, opts TrendOpts) (template.HTML, error) {
	return Trend(width, height, points, opts)
}

// Bars delegates to Bars.
func (Renderer) Bars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	return Bars(width, height, series, labels, opts)
}

// HBars delegates to HBars.
func (Renderer) HBars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	return HBars(width, height, series, labels, opts)
}

// Donut delegates to Donut.
func (Renderer) Donut(size int, d chart.Donut, opts DonutOpts) (template.HTML, error) {
	return Donut(size, d, opts)
}

// Pie delegates to Pie.
func (Renderer) Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	return Pie(width, height, slices, opts)
}
