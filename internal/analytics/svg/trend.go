package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"
)

const (
	defaultTrendLabels = 12
	defaultDateFormat  = "02 Jan"
	day                = 24 * time.Hour
)

// Trend renders daily ticket counts as a line over a calendar axis. Points
// are placed by date, so days without tickets leave a proportional gap, and
// the count axis only carries whole-number ticks.
func Trend(width, height int, points []DayCount, opts TrendOpts) (template.HTML, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("svg: points required")
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Day.After(points[i-1].Day) {
			return "", fmt.Errorf("svg: points must be in ascending day order")
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	maxLabels := opts.MaxLabels
	if maxLabels <= 0 {
		maxLabels = defaultTrendLabels
	}
	dateFormat := fallback(opts.DateFormat, defaultDateFormat)
	strokeColor := fallback(opts.StrokeColor, "#F71938")
	fillColor := fallback(opts.FillColor, "rgba(247,25,56,0.12)")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	first := points[0].Day
	span := points[len(points)-1].Day.Sub(first).Hours() / 24
	xAt := func(d time.Time) float64 {
		if span <= 0 {
			return padding + plotW/2
		}
		return padding + d.Sub(first).Hours()/24/span*plotW
	}
	peak := 0
	for _, p := range points {
		if p.Count > peak {
			peak = p.Count
		}
	}
	step, top := countTicks(peak, opts.TickCount)
	yAt := func(count int) float64 {
		return padding + plotH - float64(count)/float64(top)*plotH
	}

	var b strings.Builder
	header(&b, width, height, opts.Title, opts.Description, "trend", "Daily tickets", "Tickets raised per day")

	for v := 0; v <= top; v += step {
		y := yAt(v)
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+plotW, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%d</text>", padding-6, y+4, axisColor, v))
	}
	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Axes\">", axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+plotH))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+plotH, padding+plotW, padding+plotH))
	b.WriteString("</g>")

	var path strings.Builder
	for i, p := range points {
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		path.WriteString(fmt.Sprintf("%s%.2f %.2f", cmd, xAt(p.Day), yAt(p.Count)))
	}
	if fillColor != "" {
		base := padding + plotH
		area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), xAt(points[len(points)-1].Day), base, xAt(first), base)
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor))
	}
	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), strokeColor))

	if opts.Markers {
		for _, p := range points {
			tip := fmt.Sprintf("%s: %d tickets", p.Day.Format("02 Jan 2006"), p.Count)
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s</title></circle>", xAt(p.Day), yAt(p.Count), strokeColor, template.HTMLEscapeString(tip)))
		}
	}

	for _, d := range dateTicks(first, points[len(points)-1].Day, maxLabels) {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xAt(d), padding+plotH+14, axisColor, template.HTMLEscapeString(d.Format(dateFormat))))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// countTicks picks a whole-number tick step so at most ticks intervals cover
// peak, and returns the step with the rounded-up axis maximum.
func countTicks(peak, ticks int) (step, top int) {
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	if peak <= 0 {
		return 1, 1
	}
	step = int(math.Ceil(float64(peak) / float64(ticks)))
	if step < 1 {
		step = 1
	}
	top = int(math.Ceil(float64(peak)/float64(step))) * step
	return step, top
}

// dateTicks spreads at most limit calendar days between first and last
// inclusive, stepping in whole days.
func dateTicks(first, last time.Time, limit int) []time.Time {
	days := int(last.Sub(first)/day) + 1
	every := (days + limit - 1) / limit
	if every < 1 {
		every = 1
	}
	ticks := make([]time.Time, 0, limit)
	for i := 0; i < days; i += every {
		ticks = append(ticks, first.Add(time.Duration(i)*day))
	}
	return ticks
}
