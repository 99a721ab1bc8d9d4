package ui

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/svg"
)

func TestToOptionsKeepsUnknownSelections(t *testing.T) {
	got := ToOptions([]string{"Zone 1A", "Zone 2"}, []string{"Zone 2", "Zone 9"})
	want := []Option{{"Zone 1A", false}, {"Zone 2", true}, {"Zone 9", true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestToBranchRowsScalesToMax(t *testing.T) {
	rows := ToBranchRows([]analytics.ValueCount{{Value: "Pune", Count: 8}, {Value: "Nagpur", Count: 2}}, 8)
	if rows[0].Percent != 100 || rows[1].Percent != 25 {
		t.Fatalf("unexpected percents %+v", rows)
	}
	if got := ToBranchRows([]analytics.ValueCount{{Value: "Pune"}}, 0); got[0].Percent != 0 {
		t.Fatalf("expected zero percent when max is zero")
	}
}

func TestToPivotViewTotals(t *testing.T) {
	view := ToPivotView("Zone", analytics.PivotTable{
		Rows:    []string{"Zone 1A", "Zone 2"},
		Columns: []string{"0-1", "2-5"},
		Counts:  [][]int{{1, 2}, {0, 4}},
	})
	if view.Rows[0].Total != 3 || view.Rows[1].Total != 4 {
		t.Fatalf("unexpected totals %+v", view.Rows)
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Fatalf("expected thousands separators, got %s", got)
	}
}

func TestToDayCountsKeepsOrder(t *testing.T) {
	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got := ToDayCounts([]analytics.TrendPoint{{Date: first, Count: 3}, {Date: first.AddDate(0, 0, 2), Count: 1}})
	want := []svg.DayCount{{Day: first, Count: 3}, {Day: first.AddDate(0, 0, 2), Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("day counts mismatch (-want +got):\n%s", diff)
	}
}
