// Package analytics computes counts and cross-tabulations over a working
// subset of tickets. Every function returns a zero-valued result for a nil or
// empty table instead of failing.
package analytics

import (
	"math"
	"sort"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// ValueCount pairs a dimension value with the number of rows carrying it.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Count returns the number of rows.
func Count(table *tickets.Table) int {
	return table.Len()
}

// CountNonEmpty returns the number of rows where field is not blank.
func CountNonEmpty(table *tickets.Table, field tickets.Field) int {
	n := 0
	for i := 0; i < table.Len(); i++ {
		if table.Row(i).Value(field) != "" {
			n++
		}
	}
	return n
}

// DistinctCount returns the number of unique non-blank values of field.
func DistinctCount(table *tickets.Table, field tickets.Field) int {
	seen := make(map[string]struct{})
	for i := 0; i < table.Len(); i++ {
		v := table.Row(i).Value(field)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

// StatusCount returns the number of rows where field equals value exactly.
// An absent value yields 0.
func StatusCount(table *tickets.Table, field tickets.Field, value string) int {
	n := 0
	for i := 0; i < table.Len(); i++ {
		if table.Row(i).Value(field) == value {
			n++
		}
	}
	return n
}

// Percentage returns round(100 * part / whole) using half-to-even rounding,
// or 0 when whole is not positive.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.RoundToEven(100 * float64(part) / float64(whole)))
}

// TopValues returns value counts sorted by descending count. Ties keep the
// order in which values first appear. Blank values are ignored.
func TopValues(table *tickets.Table, field tickets.Field) []ValueCount {
	index := make(map[string]int)
	counts := make([]ValueCount, 0)
	for i := 0; i < table.Len(); i++ {
		v := table.Row(i).Value(field)
		if v == "" {
			continue
		}
		pos, ok := index[v]
		if !ok {
			pos = len(counts)
			index[v] = pos
			counts = append(counts, ValueCount{Value: v})
		}
		counts[pos].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// MaxCount returns the largest count in values, or 0.
func MaxCount(values []ValueCount) int {
	maxVal := 0
	for _, v := range values {
		if v.Count > maxVal {
			maxVal = v.Count
		}
	}
	return maxVal
}
