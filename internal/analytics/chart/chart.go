// Package chart shapes aggregate results into the series consumed by the
// renderers. It knows nothing about tickets; callers hand it counts.
package chart

import (
	"fmt"
	"strings"
)

// Theme selects a donut color pair.
type Theme int

const (
	ThemeBlue Theme = iota
	ThemeGreen
	ThemeOrange
	ThemeRed
)

var themeNames = map[Theme]string{
	ThemeBlue:   "blue",
	ThemeGreen:  "green",
	ThemeOrange: "orange",
	ThemeRed:    "red",
}

// Palette holds the filled arc color and the remainder arc color.
type Palette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

var palettes = map[Theme]Palette{
	ThemeBlue:   {Primary: "#29b5e8", Secondary: "#155F7A"},
	ThemeGreen:  {Primary: "#27AE60", Secondary: "#12783D"},
	ThemeOrange: {Primary: "#F39C12", Secondary: "#875A12"},
	ThemeRed:    {Primary: "#E74C3C", Secondary: "#781F16"},
}

func (t Theme) String() string {
	if name, ok := themeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Theme(%d)", int(t))
}

// Palette returns the color pair for the theme. Unknown themes fall back to
// blue.
func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeBlue]
}

// ParseTheme resolves a theme by name, case-insensitively.
func ParseTheme(name string) (Theme, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for theme, label := range themeNames {
		if label == needle {
			return theme, nil
		}
	}
	return ThemeBlue, fmt.Errorf("chart: unknown theme %q", name)
}

// MarshalText encodes the theme name.
func (t Theme) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a theme name.
func (t *Theme) UnmarshalText(text []byte) error {
	parsed, err := ParseTheme(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Donut is a single-percentage ring.
type Donut struct {
	Percentage int     `json:"percentage"`
	Label      string  `json:"label"`
	Theme      Theme   `json:"theme"`
	Palette    Palette `json:"palette"`
}

// DonutSeries builds a donut for pct, clamping it to [0, 100].
func DonutSeries(pct int, label string, theme Theme) Donut {
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	return Donut{Percentage: pct, Label: label, Theme: theme, Palette: theme.Palette()}
}

// Fraction is the filled share of the ring in [0, 1].
func (d Donut) Fraction() float64 {
	return float64(d.Percentage) / 100
}

// Remainder is 100 minus the percentage.
func (d Donut) Remainder() int {
	return 100 - d.Percentage
}

// Grid is a two-dimension count lookup returning 0 for unknown pairs.
type Grid interface {
	Count(row, column string) int
}

// BarPoint is one bar of a grouped bar chart.
type BarPoint struct {
	Category string `json:"category"`
	Series   string `json:"series"`
	Value    int    `json:"value"`
}

// GroupedBarSeries flattens grid into one point per (category, series) pair,
// categories outer. A series missing from the grid yields zeros.
func GroupedBarSeries(grid Grid, categories, series []string) []BarPoint {
	points := make([]BarPoint, 0, len(categories)*len(series))
	for _, category := range categories {
		for _, name := range series {
			value := 0
			if grid != nil {
				value = grid.Count(category, name)
			}
			points = append(points, BarPoint{Category: category, Series: name, Value: value})
		}
	}
	return points
}

// SeriesValues extracts the values of one series in category order.
func SeriesValues(points []BarPoint, series string, categories []string) []int {
	lookup := make(map[string]int, len(categories))
	for _, p := range points {
		if p.Series == series {
			lookup[p.Category] = p.Value
		}
	}
	values := make([]int, len(categories))
	for i, c := range categories {
		values[i] = lookup[c]
	}
	return values
}

// Category is a labelled count on a single axis.
type Category struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// OrderedCategories reindexes counts to canonical, dropping labels outside it
// and emitting zero placeholders for canonical labels with no count.
func OrderedCategories(counts map[string]int, canonical []string) []Category {
	out := make([]Category, len(canonical))
	for i, label := range canonical {
		out[i] = Category{Label: label, Value: counts[label]}
	}
	return out
}
