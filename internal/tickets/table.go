package tickets

import (
	"fmt"
	"strings"
)

// Table is the immutable in-memory ticket dataset. Derived tables share the
// column layout but never the row slice of their parent.
type Table struct {
	source  string
	digest  string
	columns []string
	index   map[string]int
	rows    []Ticket
}

// NewTable parses raw spreadsheet records. The first record is the header.
// Rows where every cell is blank are skipped.
func NewTable(source, digest string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, &DataLoadError{Source: source, Err: fmt.Errorf("worksheet is empty")}
	}
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := index[f.Column()]; !ok {
			missing = append(missing, f.Column())
		}
	}
	if len(missing) > 0 {
		return nil, &DataLoadError{Source: source, Missing: missing}
	}

	rows := make([]Ticket, 0, len(records)-1)
	for n, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		cells := make([]string, len(header))
		for i := range cells {
			if i < len(record) {
				cells[i] = strings.TrimSpace(record[i])
			}
		}
		ticket := Ticket{cells: cells}
		rawDate := cells[index[FieldDate.Column()]]
		date, err := ParseDate(rawDate)
		if err != nil {
			// +2: one for the header, one for 1-based sheet rows.
			return nil, &DataLoadError{Source: source, Err: fmt.Errorf("row %d: %w", n+2, err)}
		}
		ticket.Date = date
		for _, f := range RequiredFields {
			if f == FieldDate {
				continue
			}
			ticket.set(f, cells[index[f.Column()]])
		}
		rows = append(rows, ticket)
	}

	return &Table{source: source, digest: digest, columns: header, index: index, rows: rows}, nil
}

// FromTickets builds a table from already typed rows, using the required
// columns as header.
func FromTickets(source string, rows []Ticket) *Table {
	columns := make([]string, len(RequiredFields))
	index := make(map[string]int, len(RequiredFields))
	for i, f := range RequiredFields {
		columns[i] = f.Column()
		index[f.Column()] = i
	}
	copied := make([]Ticket, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, f := range RequiredFields {
			cells[j] = row.Value(f)
		}
		row.cells = cells
		copied[i] = row
	}
	return &Table{source: source, columns: columns, index: index, rows: copied}
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Source names where the table was loaded from.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// Digest is the content hash of the source, empty for synthetic tables.
func (t *Table) Digest() string {
	if t == nil {
		return ""
	}
	return t.digest
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Ticket {
	return t.rows[i]
}

// Rows returns a copy of the row slice.
func (t *Table) Rows() []Ticket {
	if t == nil {
		return nil
	}
	return append([]Ticket(nil), t.rows...)
}

// Columns returns the header in sheet order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the header contains the column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Cell returns the value of a column on row i. Known fields use their typed
// value so dates render uniformly.
func (t *Table) Cell(i int, column string) string {
	if f, ok := ParseField(column); ok {
		return t.rows[i].Value(f)
	}
	idx, ok := t.index[column]
	if !ok {
		return ""
	}
	cells := t.rows[i].cells
	if idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// Where returns a new table holding the rows matching keep.
func (t *Table) Where(keep func(Ticket) bool) *Table {
	if t == nil {
		return nil
	}
	rows := make([]Ticket, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return &Table{source: t.source, digest: t.digest, columns: t.columns, index: t.index, rows: rows}
}
