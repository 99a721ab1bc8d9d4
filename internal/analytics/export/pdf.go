package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
)

// DashboardPayload aggregates dashboard data destined for PDF rendering.
type DashboardPayload struct {
	Title     string
	Dashboard analytics.Dashboard
	// Charts are pre-rendered SVG fragments embedded above the tables.
	Charts []template.HTML
}

// PDFExporter wraps Gotenberg interactions for dashboard exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderDashboard sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html := buildHTML(payload)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "dashboard.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildHTML(payload DashboardPayload) string {
	dash := payload.Dashboard
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .metric-label{text-align:left;} .charts svg{max-width:48%;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>%s: %s to %s</h1>", templateEscape(fallbackTitle(payload.Title)), formatDay(dash.Selection.StartDate), formatDay(dash.Selection.EndDate)))

	b.WriteString("<section><h2>Summary</h2><table><tbody>")
	writeMetricRow(&b, "Total Tickets", dash.Metrics.TotalTickets)
	writeMetricRow(&b, "Total Branches", dash.Metrics.TotalBranches)
	writeMetricRow(&b, "Tickets Closed", dash.Metrics.Closed)
	writeMetricRow(&b, "Tickets Open", dash.Metrics.Open)
	writeMetricRow(&b, dash.Inbound.Label+" %", dash.Inbound.Percentage)
	writeMetricRow(&b, dash.Outbound.Label+" %", dash.Outbound.Percentage)
	b.WriteString("</tbody></table></section>")

	if len(payload.Charts) > 0 {
		b.WriteString("<section class=\"charts\">")
		for _, svg := range payload.Charts {
			b.WriteString(string(svg))
		}
		b.WriteString("</section>")
	}

	writeValueTable(&b, "Branch Wise Tickets", "Branch", dash.Branches)
	writeValueTable(&b, "Tickets by Priority", "Priority", dash.Priorities)

	if len(dash.ZoneDays.Rows) > 0 {
		b.WriteString("<section><h2>Zone &amp; Bracket Wise Tickets</h2><table><thead><tr><th>Zone</th>")
		for _, column := range dash.ZoneDays.Columns {
			b.WriteString("<th>" + templateEscape(column) + "</th>")
		}
		b.WriteString("</tr></thead><tbody>")
		for _, row := range dash.ZoneDays.Rows {
			b.WriteString("<tr><td class=\"metric-label\">")
			b.WriteString(templateEscape(row))
			b.WriteString("</td>")
			for _, column := range dash.ZoneDays.Columns {
				b.WriteString("<td>" + itoa(dash.ZoneDays.Count(row, column)) + "</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	writeValueTable(&b, "Category Wise Tickets", "Sub-Category", dash.SubCategories)

	b.WriteString("</body></html>")
	return b.String()
}

func fallbackTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Ticket Dashboard"
	}
	return title
}

func writeMetricRow(b *strings.Builder, label string, value int) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(itoa(value))
	b.WriteString("</td></tr>")
}

func writeValueTable(b *strings.Builder, title, dimension string, values []analytics.ValueCount) {
	if len(values) == 0 {
		return
	}
	b.WriteString("<section><h2>" + templateEscape(title) + "</h2><table><thead><tr><th>")
	b.WriteString(templateEscape(dimension))
	b.WriteString("</th><th>Total Tickets</th></tr></thead><tbody>")
	for _, v := range values {
		b.WriteString("<tr><td class=\"metric-label\">")
		b.WriteString(templateEscape(v.Value))
		b.WriteString("</td><td>")
		b.WriteString(itoa(v.Count))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
