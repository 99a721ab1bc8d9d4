package analytics

import (
	"sort"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// PivotOrder pins the row and column order of a pivot. When an order is set,
// values outside it are dropped and missing entries are zero-filled.
type PivotOrder struct {
	Rows    []string
	Columns []string
}

// PivotTable is a two-dimension cross-tabulation of row counts.
type PivotTable struct {
	RowField    string   `json:"row_field"`
	ColumnField string   `json:"column_field"`
	Rows        []string `json:"rows"`
	Columns     []string `json:"columns"`
	Counts      [][]int  `json:"counts"`
}

// Pivot counts rows per (rowField, colField) pair. Without an explicit order
// the labels are sorted ascending.
func Pivot(table *tickets.Table, rowField, colField tickets.Field, order PivotOrder) PivotTable {
	cells := make(map[[2]string]int)
	rowSeen := make(map[string]struct{})
	colSeen := make(map[string]struct{})
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		r := row.Value(rowField)
		c := row.Value(colField)
		if r == "" || c == "" {
			continue
		}
		cells[[2]string{r, c}]++
		rowSeen[r] = struct{}{}
		colSeen[c] = struct{}{}
	}

	rows := resolveOrder(order.Rows, rowSeen)
	cols := resolveOrder(order.Columns, colSeen)
	counts := make([][]int, len(rows))
	for i, r := range rows {
		counts[i] = make([]int, len(cols))
		for j, c := range cols {
			counts[i][j] = cells[[2]string{r, c}]
		}
	}
	return PivotTable{
		RowField:    rowField.Column(),
		ColumnField: colField.Column(),
		Rows:        rows,
		Columns:     cols,
		Counts:      counts,
	}
}

func resolveOrder(canonical []string, seen map[string]struct{}) []string {
	if len(canonical) > 0 {
		return append([]string(nil), canonical...)
	}
	labels := make([]string, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Strings(labels)
	return labels
}

// Count returns the cell for (row, column), or 0 when either label is absent.
func (p PivotTable) Count(row, column string) int {
	ri := indexOf(p.Rows, row)
	ci := indexOf(p.Columns, column)
	if ri < 0 || ci < 0 || ri >= len(p.Counts) || ci >= len(p.Counts[ri]) {
		return 0
	}
	return p.Counts[ri][ci]
}

// RowTotal sums a pivot row.
func (p PivotTable) RowTotal(row string) int {
	ri := indexOf(p.Rows, row)
	if ri < 0 || ri >= len(p.Counts) {
		return 0
	}
	total := 0
	for _, v := range p.Counts[ri] {
		total += v
	}
	return total
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
