package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// HBars renders a horizontal grouped bar chart. Labels run down the left
// edge; values grow to the right from zero. Negative values are drawn as
// zero-length bars.
func HBars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	if err := validateSeries(series, labels); err != nil {
		return "", err
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
	labelWidth := opts.LabelWidth
	if labelWidth <= 0 {
		labelWidth = DefaultLabelWidth
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	left := padding + labelWidth
	chartWidth := float64(width) - left - padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	_, maxVal := seriesBounds(series)
	if maxVal <= 0 {
		maxVal = 1
	}
	scale := chartWidth / maxVal
	groupHeight := chartHeight / float64(len(labels))
	barHeight := groupHeight * 0.8 / float64(len(series))

	gradient := opts.Gradient[0] != "" && opts.Gradient[1] != "" && len(series) == 1
	var minSingle, maxSingle float64
	if gradient {
		minSingle, maxSingle = bounds(series[0].Values)
	}

	var b strings.Builder
	header(&b, width, height, opts.Title, opts.Description, "hbar", "Horizontal bar chart", "Ranked comparison")

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		x := left + ratio*chartWidth
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", x, padding, x, padding+chartHeight, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, padding+chartHeight+14, axisColor, template.HTMLEscapeString(formatTick(maxVal*ratio))))
	}
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\"></line>", left, padding, left, padding+chartHeight, axisColor))

	for i, label := range labels {
		baseY := padding + float64(i)*groupHeight + groupHeight*0.1
		for s, set := range series {
			value := set.Values[i]
			if value < 0 {
				value = 0
			}
			color := fallback(set.Color, paletteColor(s))
			if gradient {
				t := 1.0
				if !almostEqual(maxSingle, minSingle) {
					t = (value - minSingle) / (maxSingle - minSingle)
				}
				color = interpolate(opts.Gradient[0], opts.Gradient[1], t)
			}
			y := baseY + float64(s)*barHeight
			w := value * scale
			b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"></rect>", left, y, w, barHeight, color, template.HTMLEscapeString(set.Label), template.HTMLEscapeString(label)))
			if opts.ShowValues && w > 0 {
				b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"9\" text-anchor=\"start\">%s</text>", left+w+3, y+barHeight/2+3, axisColor, formatTick(set.Values[i])))
			}
		}
		center := padding + float64(i)*groupHeight + groupHeight/2
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", left-6, center+4, axisColor, template.HTMLEscapeString(label)))
	}

	if len(series) > 1 {
		legendY := padding - 12
		if legendY < 12 {
			legendY = 12
		}
		legend(&b, series, left, legendY, axisColor)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
