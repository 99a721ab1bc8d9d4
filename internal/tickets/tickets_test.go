package tickets

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header() []string {
	cols := make([]string, 0, len(RequiredFields)+1)
	for _, f := range RequiredFields {
		cols = append(cols, f.Column())
	}
	return append(cols, "Remarks")
}

func record(date, zone, branch string) []string {
	return []string{date, zone, branch, "Hardware", "Printer", "P1", StatusClosed, "0-1", CICFlag, "SR-1", "Resolved", "Closed", "0-1", "note"}
}

func TestParseDateDayFirst(t *testing.T) {
	cases := map[string]time.Time{
		"03/04/2024":          time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		"3/4/2024":            time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		"03-04-2024 17:45":    time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		"2024-04-03":          time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		"2024-04-03 23:59:59": time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		"45385":               time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		"45385.75":            time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s: want %s got %s", raw, want, got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "tomorrow", "31/31/2024", "-4"} {
		_, err := ParseDate(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseDateRejectsMonthOnlyValues(t *testing.T) {
	for _, raw := range []string{"2024.04", "2023.12", "1e5", "NaN", "Inf"} {
		got, err := ParseDate(raw)
		assert.Error(t, err, raw)
		assert.True(t, got.IsZero(), raw)
	}
	got, err := ParseDate("45385.0")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestNewTableMonthOnlyDateIsLoadError(t *testing.T) {
	records := [][]string{header(), record("2024.04", "Zone 2", "Pune")}
	_, err := NewTable("legacy.xls", "", records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataLoad))
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "no day component")
}

func TestNewTableMissingColumns(t *testing.T) {
	_, err := NewTable("raw.xlsx", "", [][]string{{"Date", "Zoho.Zone"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataLoad))
	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Missing, "Location")
	assert.Contains(t, loadErr.Missing, "OpsDays Range")
	assert.NotContains(t, loadErr.Missing, "Date")
}

func TestNewTableParsesRows(t *testing.T) {
	records := [][]string{
		header(),
		record("01/02/2024", "Zone 2", "Pune"),
		{"", "", ""},
		record("15/02/2024", "Zone 1A", "Mumbai"),
	}
	table, err := NewTable("raw.xlsx", "abc", records)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "abc", table.Digest())
	first := table.Row(0)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "Zone 2", first.Zone)
	assert.Equal(t, "Pune", first.Value(FieldBranch))
	assert.Equal(t, "2024-02-01", table.Cell(0, "Date"))
	assert.Equal(t, "note", table.Cell(1, "Remarks"))
	assert.Equal(t, "", table.Cell(1, "Unknown"))
	assert.True(t, table.HasColumn("Remarks"))
}

func TestNewTableBadDateReportsRow(t *testing.T) {
	records := [][]string{header(), record("01/02/2024", "Zone 2", "Pune"), record("not a date", "Zone 3", "Goa")}
	_, err := NewTable("raw.xlsx", "", records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataLoad))
	assert.Contains(t, err.Error(), "row 3")
}

func TestWhereDoesNotAliasParent(t *testing.T) {
	table := FromTickets("mem", []Ticket{
		{Zone: "Zone 2", Branch: "A"},
		{Zone: "Zone 3", Branch: "B"},
	})
	subset := table.Where(func(tk Ticket) bool { return tk.Zone == "Zone 3" })
	require.Equal(t, 1, subset.Len())
	assert.Equal(t, "B", subset.Row(0).Branch)
	assert.Equal(t, 2, table.Len())

	rows := table.Rows()
	rows[0].Zone = "mutated"
	assert.Equal(t, "Zone 2", table.Row(0).Zone)
}

func TestParseField(t *testing.T) {
	f, ok := ParseField(" Eng. Days Range ")
	require.True(t, ok)
	assert.Equal(t, FieldEngineerDaysRange, f)
	_, ok = ParseField("Remarks")
	assert.False(t, ok)
	assert.Equal(t, "CIC/NON-CIC", FieldCICFlag.Column())
}

func TestFilterErrorIs(t *testing.T) {
	err := error(&FilterError{Field: "end", Reason: "before start"})
	assert.True(t, errors.Is(err, ErrInvalidFilter))
	assert.False(t, errors.Is(err, ErrDataLoad))
	assert.Equal(t, "invalid filter end: before start", err.Error())
}
