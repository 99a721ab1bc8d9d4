package svg

import (
	"strings"
	"testing"

	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
)

func TestDonutUsesPalette(t *testing.T) {
	d := chart.DonutSeries(40, "Inbound Migration", chart.ThemeGreen)
	html, err := Donut(130, d, DonutOpts{})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	output := string(html)
	for _, want := range []string{"#27AE60", "#12783D", "40 %", "Inbound Migration"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in %s", want, output)
		}
	}
}

func TestDonutZeroSkipsArc(t *testing.T) {
	html, err := Donut(0, chart.DonutSeries(0, "Outbound Migration", chart.ThemeRed), DonutOpts{})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	if strings.Contains(string(html), "stroke-dasharray") {
		t.Fatalf("expected no filled arc for 0%%")
	}
}

func TestPieSlices(t *testing.T) {
	html, err := Pie(360, 240, []Slice{{Label: "P1", Value: 3}, {Label: "P2", Value: 1}, {Label: "P3", Value: 0}}, PieOpts{Title: "Priority"})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "<path") != 2 {
		t.Fatalf("expected two wedges, got %s", output)
	}
	if !strings.Contains(output, "P1 (75.0%)") {
		t.Fatalf("expected share in legend")
	}
	if _, err := Pie(360, 240, []Slice{{Label: "P1"}}, PieOpts{}); err == nil {
		t.Fatalf("expected error for zero total")
	}
}

func TestPieSingleSliceIsCircle(t *testing.T) {
	html, err := Pie(360, 240, []Slice{{Label: "P1", Value: 2}}, PieOpts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if !strings.Contains(string(html), "<circle") {
		t.Fatalf("expected a full circle")
	}
}
