package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/export"
	"github.com/odyssey-erp/ticketdash/internal/analytics/svg"
	"github.com/odyssey-erp/ticketdash/internal/analytics/ui"
	"github.com/odyssey-erp/ticketdash/internal/platform/httpx"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
	"github.com/odyssey-erp/ticketdash/internal/view"
)

const requestTimeout = 10 * time.Second

// rawRowLimit caps the rows rendered in the HTML data view. Exports are not
// capped.
const rawRowLimit = 500

// DatasetProvider yields the current ticket table.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*tickets.Table, error)
	Reload(ctx context.Context) (*tickets.Table, error)
}

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Build(ctx context.Context, table *tickets.Table, sel filter.Selection) (analytics.Dashboard, error)
	Invalidate(ctx context.Context) error
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler coordinates HTTP requests for the ticket dashboard.
type Handler struct {
	logger    *slog.Logger
	dataset   DatasetProvider
	service   DashboardService
	templates *view.Engine
	charts    ui.ChartRenderer
	pdf       PDFService
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, dataset DatasetProvider, service DashboardService, templates *view.Engine, charts ui.ChartRenderer, pdf PDFService) *Handler {
	h := &Handler{
		logger:    logger,
		dataset:   dataset,
		service:   service,
		templates: templates,
		charts:    charts,
		pdf:       pdf,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type dashboardRequest struct {
	table   *tickets.Table
	sel     filter.Selection
	options filter.Options
	minDate time.Time
	maxDate time.Time
	dash    analytics.Dashboard
}

func (req dashboardRequest) filters() ui.DashboardFilters {
	return ui.ToFilters(req.sel, req.options, req.minDate, req.maxDate, encodeSelection(req.sel))
}

func (h *Handler) load(ctx context.Context, r *http.Request) (dashboardRequest, error) {
	table, err := h.dataset.Dataset(ctx)
	if err != nil {
		return dashboardRequest{}, err
	}
	req, err := h.parseFilters(r, table)
	if err != nil {
		return dashboardRequest{}, err
	}
	dash, err := h.service.Build(ctx, table, req.sel)
	if err != nil {
		return dashboardRequest{}, err
	}
	req.dash = dash
	return req, nil
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.load(ctx, r)
	if err != nil {
		h.handleError(w, "load dashboard", err)
		return
	}
	vm, err := h.buildViewModel(ctx, req)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	viewData := view.TemplateData{
		Title:       "Ticket Dashboard",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.load(ctx, r)
	if err != nil {
		h.handleError(w, "load dataset", err)
		return
	}
	columns := selectColumns(r, req.table)
	subset := req.dash.Subset
	shown := subset.Len()
	if shown > rawRowLimit {
		shown = rawRowLimit
	}
	rows := make([][]string, shown)
	for i := 0; i < shown; i++ {
		row := make([]string, len(columns))
		for j, column := range columns {
			row[j] = subset.Cell(i, column)
		}
		rows[i] = row
	}
	picked := make(map[string]bool, len(columns))
	for _, c := range columns {
		picked[c] = true
	}
	options := make([]ui.ColumnOption, 0, len(req.table.Columns()))
	for _, c := range req.table.Columns() {
		if c == "" {
			continue
		}
		options = append(options, ui.ColumnOption{Name: c, Selected: picked[c]})
	}
	vm := ui.DataViewModel{
		Filters: req.filters(),
		Columns: options,
		Header:  columns,
		Rows:    rows,
		Total:   subset.Len(),
		Shown:   shown,
	}
	viewData := view.TemplateData{
		Title:       "Tickets Dataset",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/data.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.load(ctx, r)
	if err != nil {
		h.logError("load dashboard", err)
		httpx.RespondError(w, r, classify(err))
		return
	}
	httpx.JSON(w, http.StatusOK, req.dash)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.load(ctx, r)
	if err != nil {
		h.handleError(w, "load dashboard", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	var writeErr error
	if r.URL.Query().Get("view") == "data" {
		writeErr = export.WriteRowsCSV(buf, req.dash.Subset, selectColumns(r, req.table))
	} else {
		writeErr = export.WriteDashboardCSV(buf, req.dash)
	}
	if writeErr != nil {
		h.handleServerError(w, "write csv", writeErr)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName(req.sel, "csv")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.load(ctx, r)
	if err != nil {
		h.handleError(w, "load dashboard", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, req.dash, selectColumns(r, req.table)); err != nil {
		h.handleServerError(w, "write workbook", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName(req.sel, "xlsx")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream xlsx", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.load(ctx, r)
	if err != nil {
		h.handleError(w, "load dashboard", err)
		return
	}
	charts, err := h.renderCharts(ctx, req.dash)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, export.DashboardPayload{
		Title:     "Ticket Dashboard",
		Dashboard: req.dash,
		Charts:    charts.list(),
	})
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName(req.sel, "pdf")))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

type reloadResponse struct {
	Source string `json:"source"`
	Digest string `json:"digest"`
	Rows   int    `json:"rows"`
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	table, err := h.dataset.Reload(ctx)
	if err != nil {
		h.logError("reload dataset", err)
		httpx.RespondError(w, r, classify(err))
		return
	}
	if err := h.service.Invalidate(ctx); err != nil {
		h.logError("invalidate dashboard cache", err)
		httpx.RespondError(w, r, err)
		return
	}
	if h.logger != nil {
		h.logger.Info("dataset reloaded", slog.String("source", table.Source()), slog.Int("rows", table.Len()))
	}
	httpx.JSON(w, http.StatusOK, reloadResponse{Source: table.Source(), Digest: table.Digest(), Rows: table.Len()})
}

func (h *Handler) parseFilters(r *http.Request, table *tickets.Table) (dashboardRequest, error) {
	q := r.URL.Query()
	minDate, maxDate, ok := filter.Bounds(table)
	if !ok {
		today := tickets.Day(h.now())
		minDate, maxDate = today, today
	}
	start, err := parseDay(q, "start", minDate)
	if err != nil {
		return dashboardRequest{}, &tickets.FilterError{Field: "start_date", Reason: err.Error()}
	}
	end, err := parseDay(q, "end", maxDate)
	if err != nil {
		return dashboardRequest{}, &tickets.FilterError{Field: "end_date", Reason: err.Error()}
	}
	options := filter.OptionsFor(table, start, end)
	sel := filter.Selection{
		StartDate:  start,
		EndDate:    end,
		Zones:      pick(q, "zone", options.Zones),
		Branches:   pick(q, "branch", options.Branches),
		Categories: pick(q, "category", options.Categories),
	}
	if err := filter.Validate(sel); err != nil {
		return dashboardRequest{}, err
	}
	return dashboardRequest{table: table, sel: sel.Normalized(), options: options, minDate: minDate, maxDate: maxDate}, nil
}

func parseDay(q url.Values, key string, fallbackDay time.Time) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallbackDay, nil
	}
	return tickets.ParseDate(raw)
}

// pick returns the query values for key. An absent key selects every
// available option; a present but blank key selects nothing.
func pick(q url.Values, key string, available []string) []string {
	values, present := q[key]
	if !present {
		return append([]string(nil), available...)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func selectColumns(r *http.Request, table *tickets.Table) []string {
	requested, present := r.URL.Query()["columns"]
	if !present {
		requested = tickets.DefaultRawColumns
	}
	columns := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, raw := range requested {
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] || !table.HasColumn(c) {
				continue
			}
			seen[c] = true
			columns = append(columns, c)
		}
	}
	return columns
}

func encodeSelection(sel filter.Selection) string {
	q := url.Values{}
	q.Set("start", ui.FormatDay(sel.StartDate))
	q.Set("end", ui.FormatDay(sel.EndDate))
	for key, values := range map[string][]string{"zone": sel.Zones, "branch": sel.Branches, "category": sel.Categories} {
		if len(values) == 0 {
			q[key] = []string{""}
			continue
		}
		q[key] = append([]string(nil), values...)
	}
	return q.Encode()
}

func exportName(sel filter.Selection, ext string) string {
	return fmt.Sprintf("tickets-%s_%s.%s", ui.FormatDay(sel.StartDate), ui.FormatDay(sel.EndDate), ext)
}

type chartSet struct {
	inbound     template.HTML
	outbound    template.HTML
	priority    template.HTML
	daysStatus  template.HTML
	zoneStatus  template.HTML
	subCategory template.HTML
	trend       template.HTML
}

func (c chartSet) list() []template.HTML {
	var out []template.HTML
	for _, html := range []template.HTML{c.inbound, c.outbound, c.priority, c.daysStatus, c.zoneStatus, c.subCategory, c.trend} {
		if html != "" {
			out = append(out, html)
		}
	}
	return out
}

var (
	statusLabels  = []string{"Closed", "Open"}
	daysColors    = []string{"#7d3f05", "#edc6a1"}
	zoneColors    = []string{"#393939", "#ff0000"}
	categoryScale = [2]string{"#393939", "#ff0000"}
)

const (
	rowHeight       = 28
	minChartHeight  = 200
	subCategoryCap  = 25
	zoneChartHeight = 420
)

func (h *Handler) renderCharts(ctx context.Context, dash analytics.Dashboard) (chartSet, error) {
	if h.charts == nil {
		return chartSet{}, fmt.Errorf("svg renderer missing")
	}
	var set chartSet
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		html, err := h.charts.Donut(svg.DefaultDonutSize, dash.Inbound, svg.DonutOpts{})
		set.inbound = html
		return err
	})
	g.Go(func() error {
		html, err := h.charts.Donut(svg.DefaultDonutSize, dash.Outbound, svg.DonutOpts{})
		set.outbound = html
		return err
	})
	if len(dash.Priorities) > 0 {
		g.Go(func() error {
			html, err := h.charts.Pie(0, 0, ui.ToSlices(dash.Priorities), svg.PieOpts{
				Title:       "Tickets by Priority",
				Description: "Share of tickets per priority",
			})
			set.priority = html
			return err
		})
	}
	if len(dash.DaysRanges) > 0 {
		g.Go(func() error {
			series := ui.ToSeries(dash.DaysStatus, dash.DaysRanges, tickets.EngineerStatusOrder, statusLabels, daysColors)
			html, err := h.charts.Bars(0, 0, series, dash.DaysRanges, svg.BarOpts{
				Title:       "Number of Tickets by Days Range",
				Description: "Closed and open tickets per days range",
				ShowValues:  true,
			})
			set.daysStatus = html
			return err
		})
	}
	g.Go(func() error {
		series := ui.ToSeries(dash.ZoneStatus, dash.Zones, tickets.EngineerStatusOrder, statusLabels, zoneColors)
		html, err := h.charts.HBars(0, zoneChartHeight, series, dash.Zones, svg.BarOpts{
			Title:       "Zone Wise Ticket Status",
			Description: "Closed and open tickets per zone",
			ShowValues:  true,
			LabelWidth:  80,
		})
		set.zoneStatus = html
		return err
	})
	if len(dash.SubCategories) > 0 {
		g.Go(func() error {
			values := dash.SubCategories
			if len(values) > subCategoryCap {
				values = values[:subCategoryCap]
			}
			series, labels := ui.ToRankedSeries("Total Tickets", values)
			height := len(labels)*rowHeight + 48
			if height < minChartHeight {
				height = minChartHeight
			}
			html, err := h.charts.HBars(0, height, series, labels, svg.BarOpts{
				Title:       "Category Wise Ticket Status",
				Description: "Tickets per sub-category",
				ShowValues:  true,
				Gradient:    categoryScale,
				LabelWidth:  160,
			})
			set.subCategory = html
			return err
		})
	}
	if len(dash.Trend) > 0 {
		g.Go(func() error {
			points := ui.ToDayCounts(dash.Trend)
			html, err := h.charts.Trend(0, 0, points, svg.TrendOpts{
				Title:       "Daily Tickets",
				Description: "Tickets raised per day",
				Markers:     len(points) <= 62,
			})
			set.trend = html
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return chartSet{}, err
	}
	return set, nil
}

func (h *Handler) buildViewModel(ctx context.Context, req dashboardRequest) (ui.DashboardViewModel, error) {
	charts, err := h.renderCharts(ctx, req.dash)
	if err != nil {
		return ui.DashboardViewModel{}, err
	}
	dash := req.dash
	return ui.DashboardViewModel{
		Filters:        req.filters(),
		Metrics:        dash.Metrics,
		Empty:          dash.Metrics.TotalTickets == 0,
		Source:         dash.Source,
		GeneratedAt:    dash.GeneratedAt,
		InboundSVG:     charts.inbound,
		OutboundSVG:    charts.outbound,
		PrioritySVG:    charts.priority,
		DaysStatusSVG:  charts.daysStatus,
		ZoneStatusSVG:  charts.zoneStatus,
		SubCategorySVG: charts.subCategory,
		TrendSVG:       charts.trend,
		Branches:       ui.ToBranchRows(dash.Branches, dash.BranchMax),
		ZoneDays:       ui.ToPivotView("Zone", dash.ZoneDays),
	}, nil
}

// classify attaches the HTTP sentinel matching a domain error.
func classify(err error) error {
	switch {
	case errors.Is(err, tickets.ErrInvalidFilter):
		return fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	case errors.Is(err, tickets.ErrDataLoad):
		return fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	default:
		return err
	}
}

func (h *Handler) handleError(w http.ResponseWriter, context string, err error) {
	switch {
	case errors.Is(err, tickets.ErrInvalidFilter):
		h.handleFilterError(w, err)
	case errors.Is(err, tickets.ErrDataLoad):
		h.logError(context, err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.handleServerError(w, context, err)
	}
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var fe *tickets.FilterError
	if errors.As(err, &fe) {
		http.Error(w, fe.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "invalid filter", http.StatusBadRequest)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
