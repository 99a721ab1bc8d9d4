// Package loader reads the ticket spreadsheet into an immutable table and
// memoizes the result per source identity.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// BIFF8 worksheets hold at most 256 columns.
const maxXLSCols = 256

// Loader parses ticket sources and keeps the parsed tables for reuse.
// Returned tables are shared between callers and must be treated as read-only.
// Each source slot holds one table; a new identity replaces the old entry.
type Loader struct {
	mu      sync.RWMutex
	tables  map[string]memoEntry
	group   singleflight.Group
	metrics *Metrics
	now     func() time.Time
}

type memoEntry struct {
	identity string
	table    *tickets.Table
}

// New constructs an empty Loader. metrics may be nil.
func New(metrics *Metrics) *Loader {
	return &Loader{
		tables:  make(map[string]memoEntry),
		metrics: metrics,
		now:     time.Now,
	}
}

// Load returns the table for the file at path, parsing it only when the file
// identity (absolute path, size, modification time) is not cached yet.
func (l *Loader) Load(ctx context.Context, path string) (*tickets.Table, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &tickets.DataLoadError{Err: fmt.Errorf("source path required")}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &tickets.DataLoadError{Source: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		l.metrics.observeError()
		return nil, &tickets.DataLoadError{Source: path, Err: err}
	}
	if info.IsDir() {
		l.metrics.observeError()
		return nil, &tickets.DataLoadError{Source: path, Err: fmt.Errorf("source is a directory")}
	}
	identity := fmt.Sprintf("%d|%d", info.Size(), info.ModTime().UnixNano())
	return l.memo(ctx, "file:"+abs, identity, func() (*tickets.Table, error) {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, &tickets.DataLoadError{Source: path, Err: err}
		}
		return Parse(filepath.Base(abs), data)
	})
}

// LoadBytes parses an in-memory source, keyed by its format and content
// digest. Only the latest content per format stays memoized.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*tickets.Table, error) {
	if len(data) == 0 {
		l.metrics.observeError()
		return nil, &tickets.DataLoadError{Source: name, Err: fmt.Errorf("source is empty")}
	}
	slot := "content:" + strings.ToLower(filepath.Ext(name))
	return l.memo(ctx, slot, Digest(data), func() (*tickets.Table, error) {
		return Parse(name, data)
	})
}

// Invalidate drops every memoized table.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.tables = make(map[string]memoEntry)
	l.mu.Unlock()
}

func (l *Loader) memo(ctx context.Context, slot, identity string, parse func() (*tickets.Table, error)) (*tickets.Table, error) {
	l.mu.RLock()
	entry, ok := l.tables[slot]
	l.mu.RUnlock()
	if ok && entry.identity == identity {
		l.metrics.observeHit()
		return entry.table, nil
	}

	resultChan := l.group.DoChan(slot+"|"+identity, func() (interface{}, error) {
		start := l.now()
		table, err := parse()
		if err != nil {
			l.metrics.observeError()
			return nil, err
		}
		l.metrics.observeParse(l.now().Sub(start))
		l.mu.Lock()
		l.tables[slot] = memoEntry{identity: identity, table: table}
		l.mu.Unlock()
		return table, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.metrics.observeHit()
		} else {
			l.metrics.observeMiss()
		}
		return res.Val.(*tickets.Table), nil
	}
}

// Parse decodes raw bytes according to the file extension of name.
func Parse(name string, data []byte) (*tickets.Table, error) {
	records, err := readRecords(name, data)
	if err != nil {
		return nil, &tickets.DataLoadError{Source: name, Err: err}
	}
	return tickets.NewTable(name, Digest(data), records)
}

// Extension guesses the source format from the leading magic bytes: zip
// containers are workbooks, OLE2 compound files are legacy workbooks and
// anything else is read as CSV.
func Extension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return ".xlsx"
	case bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}):
		return ".xls"
	default:
		return ".csv"
	}
}

// Digest returns the hex blake3 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func readRecords(name string, data []byte) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		return reader.ReadAll()
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		sheet := workbook.GetSheet(0)
		if sheet == nil {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := readSheet(&xlsSheet{sheet: sheet})
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	case ".xlsx", ".xlsm", "":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheet := file.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		// Raw values keep date serials intact; formatted values would follow
		// the workbook's (often month-first) number format.
		rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported source format %q", ext)
	}
}

// worksheet is the row-oriented view the .xls path reads.
type worksheet interface {
	rowCount() int
	// cells returns nil when the row has no record.
	cells(i int) []string
}

// readSheet keeps missing rows as blanks so reported row numbers match the
// sheet, and drops trailing blank rows.
func readSheet(sheet worksheet) [][]string {
	rows := make([][]string, 0, sheet.rowCount())
	for i := 0; i < sheet.rowCount(); i++ {
		rows = append(rows, sheet.cells(i))
	}
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type xlsSheet struct {
	sheet *xls.WorkSheet
	width int
}

func (s *xlsSheet) rowCount() int { return int(s.sheet.MaxRow) + 1 }

func (s *xlsSheet) cells(i int) (cells []string) {
	// Row dereferences a nil entry for indexes without a ROW record.
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := s.sheet.Row(i)
	// Rows built from cell records alone report a zero LastCol, so the
	// header width found on the first row bounds the scan.
	width := row.LastCol() + 1
	if s.width == 0 {
		width = maxXLSCols
	} else if width < s.width {
		width = s.width
	}
	cells = make([]string, width)
	for j := range cells {
		cells[j] = row.Col(j)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if s.width == 0 {
		s.width = len(cells)
	}
	return cells
}
