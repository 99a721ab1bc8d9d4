package tickets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the canonical textual date layout used across the service.
const DateLayout = "2006-01-02"

// dayFirstLayouts are tried in order; ISO layouts come last so an ambiguous
// "03/04/2024" always resolves to 3 April.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"02-01-2006",
	"2-1-2006",
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
	"02.01.2006",
	"02/01/06",
	"2/1/06",
	"02-Jan-2006",
	"2 Jan 2006",
	DateLayout,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var (
	// Legacy .xls readers render built-in date formats as "2006.01", which
	// loses the day and would otherwise parse as a tiny serial.
	yearMonthPattern = regexp.MustCompile(`^\d{4}\.\d{2}$`)
	serialPattern    = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParseDate reads a day-first textual date or an Excel serial number and
// truncates it to the calendar day in UTC. Month-only values are rejected.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if yearMonthPattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("date %q has no day component", value)
	}
	if serialPattern.MatchString(value) {
		serial, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", value, err)
		}
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("date serial %q out of range", value)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", value, err)
		}
		return Day(t), nil
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// Day drops the time-of-day component, keeping the calendar date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
