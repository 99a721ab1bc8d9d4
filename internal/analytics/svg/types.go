package svg

import "time"

// DayCount is the number of tickets raised on one calendar day.
type DayCount struct {
	Day   time.Time
	Count int
}

// TrendOpts customises the daily trend renderer.
type TrendOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	// Markers draws a dot with a tooltip on every day that has tickets.
	Markers bool
	// TickCount bounds the number of count-axis intervals.
	TickCount int
	// MaxLabels bounds the number of date labels; DateFormat formats them.
	MaxLabels  int
	DateFormat string
}

// Series is one named set of values drawn in a single color.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// BarOpts customises the vertical and horizontal bar renderers.
type BarOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ShowValues  bool
	// LabelWidth reserves room for category labels on horizontal bars.
	LabelWidth float64
	// Gradient colors a single series from the first color (smallest value)
	// to the second (largest value).
	Gradient [2]string
}

// DonutOpts customises the percentage ring.
type DonutOpts struct {
	Title       string
	Description string
	Thickness   float64
	TextColor   string
}

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Value float64
	Color string
}

// PieOpts customises the pie renderer.
type PieOpts struct {
	Title       string
	Description string
	TextColor   string
	// Hole turns the pie into a ring when between 0 and 1.
	Hole float64
}

// Defaults for the dashboard charts.
const (
	DefaultWidth      = 720
	DefaultHeight     = 240
	DefaultPadding    = 24.0
	DefaultTicks      = 6
	DefaultLabelWidth = 120.0
	DefaultDonutSize  = 130
)

// DefaultPalette colors series and slices that do not carry their own color.
var DefaultPalette = []string{"#29b5e8", "#F71938", "#27AE60", "#F39C12", "#8e44ad", "#16a085", "#7d3f05", "#edc6a1", "#393939"}

func paletteColor(i int) string {
	return DefaultPalette[i%len(DefaultPalette)]
}
