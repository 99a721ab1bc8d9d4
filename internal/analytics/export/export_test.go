package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

func fixtureDashboard(t *testing.T) analytics.Dashboard {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	table := tickets.FromTickets("fixture", []tickets.Ticket{
		{Date: day(1), Zone: "Zone 2", Branch: "Pune", Category: "Hardware", SubCategory: "Printer", Priority: "P1", EngineerStatus: "Closed", EngineerDaysRange: "0-1", CICFlag: "CIC", ServiceRequestNo: "SR-1"},
		{Date: day(2), Zone: "Zone 3", Branch: "Mumbai", Category: "Hardware", SubCategory: "Router", Priority: "P2", EngineerStatus: "open", EngineerDaysRange: "2-5", CICFlag: "NON-CIC", ServiceRequestNo: "SR-2"},
	})
	dash, err := analytics.NewService(nil).Build(context.Background(), table, filter.DefaultSelection(table))
	if err != nil {
		t.Fatalf("build dashboard: %v", err)
	}
	return dash
}

func TestWriteMetricsCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteMetricsCSV(buf, fixtureDashboard(t)); err != nil {
		t.Fatalf("metrics csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 9 {
		t.Fatalf("expected header and 8 metrics, got %d", len(records))
	}
	if records[3][0] != "Total Tickets" || records[3][1] != "2" {
		t.Fatalf("unexpected total row %v", records[3])
	}
	if records[7][1] != "50" {
		t.Fatalf("expected 50%% inbound share, got %v", records[7])
	}
}

func TestWritePivotAndBarsCSV(t *testing.T) {
	dash := fixtureDashboard(t)
	buf := &bytes.Buffer{}
	if err := WritePivotCSV(buf, "Zone", dash.ZoneDays); err != nil {
		t.Fatalf("pivot csv error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Zone,0-1,2-5\n") {
		t.Fatalf("unexpected pivot header: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "Zone 1A,0,0\n") {
		t.Fatalf("expected zero-filled canonical zone rows")
	}

	buf.Reset()
	if err := WriteBarsCSV(buf, "Days_Range", dash.DaysRanges, tickets.EngineerStatusOrder, dash.DaysStatus); err != nil {
		t.Fatalf("bars csv error: %v", err)
	}
	want := "Days_Range,Closed,open\n0-1,1,0\n2-5,0,1\n"
	if buf.String() != want {
		t.Fatalf("expected %q got %q", want, buf.String())
	}
}

func TestWriteRowsCSVSelectsColumns(t *testing.T) {
	dash := fixtureDashboard(t)
	buf := &bytes.Buffer{}
	if err := WriteRowsCSV(buf, dash.Subset, []string{"ServiceRequestNo", "Date", "Unknown"}); err != nil {
		t.Fatalf("rows csv error: %v", err)
	}
	want := "ServiceRequestNo,Date,Unknown\nSR-1,2024-03-01,\nSR-2,2024-03-02,\n"
	if buf.String() != want {
		t.Fatalf("expected %q got %q", want, buf.String())
	}
}

func TestWriteWorkbook(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteWorkbook(buf, fixtureDashboard(t), tickets.DefaultRawColumns); err != nil {
		t.Fatalf("workbook error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	want := []string{SheetSummary, SheetBranches, SheetPriority, SheetZoneDays, SheetDaysStatus, SheetZoneStatus, SheetSubCategory, SheetTrend, SheetTickets}
	if strings.Join(sheets, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(SheetTickets)
	if err != nil {
		t.Fatalf("read tickets sheet: %v", err)
	}
	if len(rows) != 3 || rows[1][3] != "SR-1" {
		t.Fatalf("unexpected ticket rows %v", rows)
	}
	zones, err := f.GetRows(SheetZoneStatus)
	if err != nil {
		t.Fatalf("read zone sheet: %v", err)
	}
	if len(zones) != len(tickets.ZoneOrder)+1 {
		t.Fatalf("expected every canonical zone, got %d rows", len(zones))
	}
}

func TestPDFExporterRender(t *testing.T) {
	var html string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("unexpected parse error: %v", err)
			return
		}
		file, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing html file: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		html = string(data)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	payload := DashboardPayload{Dashboard: fixtureDashboard(t), Charts: []template.HTML{"<svg></svg>"}}
	data, err := exporter.RenderDashboard(context.Background(), payload)
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
	for _, want := range []string{"Ticket Dashboard", "Branch Wise Tickets", "<svg></svg>", "Zone &amp; Bracket Wise Tickets"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered html", want)
		}
	}
}

func TestPDFExporterReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := (&PDFExporter{Endpoint: srv.URL}).RenderDashboard(context.Background(), DashboardPayload{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected gotenberg status error, got %v", err)
	}
}
