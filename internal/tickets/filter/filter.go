// Package filter narrows the ticket table to the user's selection.
package filter

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// Selection is the user-chosen filter configuration. A nil or empty set
// matches nothing; it never means "all".
type Selection struct {
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Zones      []string  `json:"zones"`
	Branches   []string  `json:"branches"`
	Categories []string  `json:"categories"`
}

// Normalized truncates the dates to the calendar day and removes duplicate
// or blank set members, keeping first-seen order.
func (s Selection) Normalized() Selection {
	return Selection{
		StartDate:  tickets.Day(s.StartDate),
		EndDate:    tickets.Day(s.EndDate),
		Zones:      cleanSet(s.Zones),
		Branches:   cleanSet(s.Branches),
		Categories: cleanSet(s.Categories),
	}
}

func cleanSet(values []string) []string {
	trimmed := lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != ""
	})
	return lo.Uniq(trimmed)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the selection and reports problems as *tickets.FilterError.
func Validate(sel Selection) error {
	sel = sel.Normalized()
	err := validate.Struct(sel)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &tickets.FilterError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	switch {
	case fe.Tag() == "required" && fe.Field() == "StartDate":
		return &tickets.FilterError{Field: "start_date", Reason: "start date is required"}
	case fe.Tag() == "required" && fe.Field() == "EndDate":
		return &tickets.FilterError{Field: "end_date", Reason: "end date is required"}
	case fe.Tag() == "gtefield":
		return &tickets.FilterError{Field: "end_date", Reason: "start date must not be after end date"}
	default:
		return &tickets.FilterError{Field: strings.ToLower(fe.Field()), Reason: fe.Error()}
	}
}

// Apply returns the working subset of table for sel. The date predicate is
// inclusive on both ends at day granularity.
func Apply(table *tickets.Table, sel Selection) (*tickets.Table, error) {
	if err := Validate(sel); err != nil {
		return nil, err
	}
	sel = sel.Normalized()
	zones := toSet(sel.Zones)
	branches := toSet(sel.Branches)
	categories := toSet(sel.Categories)

	if table == nil {
		return tickets.FromTickets("", nil), nil
	}
	return table.Where(func(t tickets.Ticket) bool {
		if !InRange(t.Date, sel.StartDate, sel.EndDate) {
			return false
		}
		_, okZone := zones[t.Zone]
		_, okBranch := branches[t.Branch]
		_, okCategory := categories[t.Category]
		return okZone && okBranch && okCategory
	}), nil
}

func toSet(values []string) map[string]struct{} {
	return lo.SliceToMap(values, func(v string) (string, struct{}) { return v, struct{}{} })
}

// InRange reports whether date falls on or between start and end.
func InRange(date, start, end time.Time) bool {
	d := tickets.Day(date)
	return !d.Before(tickets.Day(start)) && !d.After(tickets.Day(end))
}

// Bounds returns the earliest and latest ticket dates. ok is false for an
// empty table.
func Bounds(table *tickets.Table) (minDate, maxDate time.Time, ok bool) {
	for i := 0; i < table.Len(); i++ {
		d := table.Row(i).Date
		if d.IsZero() {
			continue
		}
		if !ok || d.Before(minDate) {
			minDate = d
		}
		if !ok || d.After(maxDate) {
			maxDate = d
		}
		ok = true
	}
	return minDate, maxDate, ok
}

// Options lists the selectable values among rows inside a date range.
type Options struct {
	Zones      []string `json:"zones"`
	Branches   []string `json:"branches"`
	Categories []string `json:"categories"`
}

// OptionsFor collects distinct zone, branch and category values, in
// first-seen order, for rows between start and end.
func OptionsFor(table *tickets.Table, start, end time.Time) Options {
	var zones, branches, categories []string
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		if !InRange(row.Date, start, end) {
			continue
		}
		zones = append(zones, row.Zone)
		branches = append(branches, row.Branch)
		categories = append(categories, row.Category)
	}
	return Options{
		Zones:      cleanSet(zones),
		Branches:   cleanSet(branches),
		Categories: cleanSet(categories),
	}
}

// DefaultSelection covers the full date range with every option selected.
func DefaultSelection(table *tickets.Table) Selection {
	start, end, ok := Bounds(table)
	if !ok {
		return Selection{}
	}
	opts := OptionsFor(table, start, end)
	return Selection{
		StartDate:  start,
		EndDate:    end,
		Zones:      opts.Zones,
		Branches:   opts.Branches,
		Categories: opts.Categories,
	}
}
