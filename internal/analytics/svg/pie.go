package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders slices clockwise from twelve o'clock with a legend on the right.
// Slices with non-positive values are skipped.
func Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	if len(slices) == 0 {
		return "", fmt.Errorf("svg: slices required")
	}
	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total <= 0 {
		return "", fmt.Errorf("svg: slice values must sum to a positive total")
	}
	if width <= 0 {
		width = DefaultWidth / 2
	}
	if height <= 0 {
		height = DefaultHeight
	}
	textColor := fallback(opts.TextColor, "#475569")
	radius := math.Min(float64(width)*0.6, float64(height)) / 2 * 0.9
	cx := radius + float64(height)*0.05
	cy := float64(height) / 2

	var b strings.Builder
	header(&b, width, height, opts.Title, opts.Description, "pie", "Pie chart", "Share by category")

	angle := -math.Pi / 2
	legendX := cx + radius + 16
	legendY := cy - radius + 10
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		color := fallback(s.Color, paletteColor(i))
		share := s.Value / total
		sweep := share * 2 * math.Pi
		if almostEqual(share, 1) {
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, template.HTMLEscapeString(s.Label)))
		} else {
			x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
			x2, y2 := cx+radius*math.Cos(angle+sweep), cy+radius*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			b.WriteString(fmt.Sprintf("<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" aria-label=\"%s\"></path>",
				cx, cy, x1, y1, radius, radius, large, x2, y2, color, template.HTMLEscapeString(s.Label)))
		}
		angle += sweep

		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, color))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s (%.1f%%)</text>", legendX+14, legendY, textColor, template.HTMLEscapeString(s.Label), share*100))
		legendY += 16
	}
	if opts.Hole > 0 && opts.Hole < 1 {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"#ffffff\"></circle>", cx, cy, radius*opts.Hole))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
