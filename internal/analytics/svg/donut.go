package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
)

// Donut renders a percentage ring: the filled arc uses the palette primary
// color and the remainder the secondary color, with the percentage in the
// center.
func Donut(size int, d chart.Donut, opts DonutOpts) (template.HTML, error) {
	if size <= 0 {
		size = DefaultDonutSize
	}
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = float64(size) * 0.15
	}
	radius := (float64(size) - thickness) / 2
	if radius <= 0 {
		return "", fmt.Errorf("svg: donut too small")
	}
	center := float64(size) / 2
	circumference := 2 * math.Pi * radius
	filled := circumference * d.Fraction()
	textColor := fallback(opts.TextColor, d.Palette.Primary)

	var b strings.Builder
	header(&b, size, size, fallback(opts.Title, d.Label), opts.Description, "donut", "Donut chart", fmt.Sprintf("%d%% %s", d.Percentage, d.Label))
	b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"></circle>", center, center, radius, d.Palette.Secondary, thickness))
	if d.Percentage > 0 {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\" stroke-dasharray=\"%.2f %.2f\" transform=\"rotate(-90 %.2f %.2f)\" stroke-linecap=\"round\"></circle>",
			center, center, radius, d.Palette.Primary, thickness, filled, circumference-filled, center, center))
	}
	b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"%d\" font-weight=\"700\" text-anchor=\"middle\">%d %%</text>", center, center+float64(size)/12, textColor, size/6, d.Percentage))
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
