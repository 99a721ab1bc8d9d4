package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() *tickets.Table {
	return tickets.FromTickets("fixture", []tickets.Ticket{
		{Date: day(2024, 1, 1), Zone: "Zone 1A", Branch: "Pune", Category: "Hardware"},
		{Date: day(2024, 1, 5), Zone: "Zone 2", Branch: "Mumbai", Category: "Network"},
		{Date: day(2024, 1, 10), Zone: "Zone 2", Branch: "Pune", Category: "Hardware"},
		{Date: day(2024, 1, 31), Zone: "Zone 10", Branch: "Nagpur", Category: "Software"},
	})
}

func all() Selection {
	return Selection{
		StartDate:  day(2024, 1, 1),
		EndDate:    day(2024, 1, 31),
		Zones:      []string{"Zone 1A", "Zone 2", "Zone 10"},
		Branches:   []string{"Pune", "Mumbai", "Nagpur"},
		Categories: []string{"Hardware", "Network", "Software"},
	}
}

func TestApplyInclusiveDateBounds(t *testing.T) {
	sel := all()
	sel.StartDate = day(2024, 1, 5)
	sel.EndDate = time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)
	subset, err := Apply(fixture(), sel)
	require.NoError(t, err)
	require.Equal(t, 2, subset.Len())
	assert.Equal(t, day(2024, 1, 5), subset.Row(0).Date)
	assert.Equal(t, day(2024, 1, 10), subset.Row(1).Date)
}

func TestApplyAndsCategoricalPredicates(t *testing.T) {
	sel := all()
	sel.Zones = []string{"Zone 2"}
	sel.Branches = []string{"Pune"}
	subset, err := Apply(fixture(), sel)
	require.NoError(t, err)
	require.Equal(t, 1, subset.Len())
	row := subset.Row(0)
	assert.Equal(t, "Zone 2", row.Zone)
	assert.Equal(t, "Pune", row.Branch)
}

func TestApplyEmptySetYieldsEmptySubset(t *testing.T) {
	for name, mutate := range map[string]func(*Selection){
		"zones":      func(s *Selection) { s.Zones = nil },
		"branches":   func(s *Selection) { s.Branches = []string{} },
		"categories": func(s *Selection) { s.Categories = []string{"  "} },
	} {
		t.Run(name, func(t *testing.T) {
			sel := all()
			mutate(&sel)
			subset, err := Apply(fixture(), sel)
			require.NoError(t, err)
			assert.Equal(t, 0, subset.Len())
		})
	}
}

func TestApplyRejectsInvertedRange(t *testing.T) {
	sel := all()
	sel.StartDate, sel.EndDate = sel.EndDate, sel.StartDate
	subset, err := Apply(fixture(), sel)
	assert.Nil(t, subset)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tickets.ErrInvalidFilter))
	var fe *tickets.FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "end_date", fe.Field)
}

func TestValidateRequiresDates(t *testing.T) {
	err := Validate(Selection{EndDate: day(2024, 1, 1)})
	var fe *tickets.FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "start_date", fe.Field)
}

func TestSameDayRangeIsValid(t *testing.T) {
	sel := all()
	sel.StartDate = time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	sel.EndDate = day(2024, 1, 31)
	subset, err := Apply(fixture(), sel)
	require.NoError(t, err)
	assert.Equal(t, 1, subset.Len())
}

func TestBoundsAndOptions(t *testing.T) {
	table := fixture()
	start, end, ok := Bounds(table)
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 1), start)
	assert.Equal(t, day(2024, 1, 31), end)

	opts := OptionsFor(table, day(2024, 1, 2), day(2024, 1, 10))
	assert.Equal(t, []string{"Zone 2"}, opts.Zones)
	assert.Equal(t, []string{"Mumbai", "Pune"}, opts.Branches)
	assert.Equal(t, []string{"Network", "Hardware"}, opts.Categories)

	_, _, ok = Bounds(tickets.FromTickets("empty", nil))
	assert.False(t, ok)
}

func TestDefaultSelectionMatchesEverything(t *testing.T) {
	table := fixture()
	subset, err := Apply(table, DefaultSelection(table))
	require.NoError(t, err)
	assert.Equal(t, table.Len(), subset.Len())
}
