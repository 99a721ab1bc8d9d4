package analytics

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

// Donut labels shown on the migration rings.
const (
	InboundLabel  = "Inbound Migration"
	OutboundLabel = "Outbound Migration"
)

// Metrics holds the headline counters.
type Metrics struct {
	TotalTickets  int `json:"total_tickets"`
	TotalBranches int `json:"total_branches"`
	Closed        int `json:"closed"`
	Open          int `json:"open"`
}

// TrendPoint is the ticket count for one calendar day.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Dashboard is every aggregate rendered for one selection.
type Dashboard struct {
	Selection     filter.Selection `json:"selection"`
	Source        string           `json:"source"`
	Metrics       Metrics          `json:"metrics"`
	Inbound       chart.Donut      `json:"inbound"`
	Outbound      chart.Donut      `json:"outbound"`
	Priorities    []ValueCount     `json:"priorities"`
	Branches      []ValueCount     `json:"branches"`
	BranchMax     int              `json:"branch_max"`
	ZoneDays      PivotTable       `json:"zone_days"`
	DaysRanges    []string         `json:"days_ranges"`
	DaysStatus    []chart.BarPoint `json:"days_status"`
	Zones         []string         `json:"zones"`
	ZoneTotals    []chart.Category `json:"zone_totals"`
	ZoneStatus    []chart.BarPoint `json:"zone_status"`
	SubCategories []ValueCount     `json:"sub_categories"`
	Trend         []TrendPoint     `json:"trend"`
	GeneratedAt   time.Time        `json:"generated_at"`

	// Subset is the filtered table behind the aggregates. It is not cached.
	Subset *tickets.Table `json:"-"`
}

// Service composes dashboards with the cache layer.
type Service struct {
	cache  *Cache
	now    func() time.Time
	logger *slog.Logger
}

// NewService wires a Cache helper. A nil cache computes every request.
func NewService(cache *Cache) *Service {
	return &Service{
		cache:  cache,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger used to report cache fallbacks.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithNow overrides the clock used for GeneratedAt.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Build filters table by sel and returns the dashboard for the resulting
// subset. Invalid selections fail with *tickets.FilterError.
func (s *Service) Build(ctx context.Context, table *tickets.Table, sel filter.Selection) (Dashboard, error) {
	subset, err := filter.Apply(table, sel)
	if err != nil {
		return Dashboard{}, err
	}
	compute := func(ctx context.Context) (Dashboard, error) {
		if err := ctx.Err(); err != nil {
			return Dashboard{}, err
		}
		d := Summarize(subset)
		d.GeneratedAt = s.now().UTC()
		return d, nil
	}

	var dash Dashboard
	if s.cache == nil || table == nil || table.Digest() == "" {
		dash, err = compute(ctx)
	} else {
		dash, err = s.cached(ctx, keyDashboard(table.Digest(), sel), compute)
	}
	if err != nil {
		return Dashboard{}, err
	}
	dash.Selection = sel.Normalized()
	if table != nil {
		dash.Source = table.Source()
	}
	dash.Subset = subset
	return dash, nil
}

// cached serves key from the cache. Redis failures fall back to compute so a
// cache outage never fails a render; compute errors are returned as is.
func (s *Service) cached(ctx context.Context, key string, compute func(context.Context) (Dashboard, error)) (Dashboard, error) {
	versioned, err := s.cache.BuildKey(ctx, key)
	if err == nil {
		var computeErr error
		dash, fetchErr := Fetch(ctx, s.cache, versioned, func(ctx context.Context) (Dashboard, error) {
			d, err := compute(ctx)
			computeErr = err
			return d, err
		})
		if fetchErr == nil {
			return dash, nil
		}
		if computeErr != nil {
			return Dashboard{}, computeErr
		}
		err = fetchErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Dashboard{}, ctxErr
	}
	s.logger.Warn("dashboard cache unavailable, computing directly", slog.Any("error", err))
	return compute(ctx)
}

// Invalidate drops every cached dashboard.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Summarize computes every aggregate over subset without filtering it.
func Summarize(subset *tickets.Table) Dashboard {
	cicTotal := CountNonEmpty(subset, tickets.FieldCICFlag)
	cic := StatusCount(subset, tickets.FieldCICFlag, tickets.CICFlag)

	branches := TopValues(subset, tickets.FieldBranch)
	zoneDays := Pivot(subset, tickets.FieldZone, tickets.FieldEngineerDaysRange, PivotOrder{Rows: tickets.ZoneOrder})
	daysStatus := Pivot(subset, tickets.FieldEngineerDaysRange, tickets.FieldEngineerStatus, PivotOrder{Columns: tickets.EngineerStatusOrder})
	zoneStatus := Pivot(subset, tickets.FieldZone, tickets.FieldEngineerStatus, PivotOrder{Rows: tickets.ZoneOrder, Columns: tickets.EngineerStatusOrder})

	return Dashboard{
		Metrics: Metrics{
			TotalTickets:  Count(subset),
			TotalBranches: DistinctCount(subset, tickets.FieldBranch),
			Closed:        StatusCount(subset, tickets.FieldEngineerStatus, tickets.StatusClosed),
			Open:          StatusCount(subset, tickets.FieldEngineerStatus, tickets.StatusOpen),
		},
		Inbound:       chart.DonutSeries(Percentage(cic, cicTotal), InboundLabel, chart.ThemeGreen),
		Outbound:      chart.DonutSeries(Percentage(cicTotal-cic, cicTotal), OutboundLabel, chart.ThemeRed),
		Priorities:    TopValues(subset, tickets.FieldPriority),
		Branches:      branches,
		BranchMax:     MaxCount(branches),
		ZoneDays:      zoneDays,
		DaysRanges:    daysStatus.Rows,
		DaysStatus:    chart.GroupedBarSeries(daysStatus, daysStatus.Rows, tickets.EngineerStatusOrder),
		Zones:         zoneStatus.Rows,
		ZoneTotals:    ZoneCounts(subset),
		ZoneStatus:    chart.GroupedBarSeries(zoneStatus, zoneStatus.Rows, tickets.EngineerStatusOrder),
		SubCategories: TopValues(subset, tickets.FieldSubCategory),
		Trend:         DailyTrend(subset),
	}
}

// DailyTrend counts tickets per calendar day in ascending date order.
func DailyTrend(table *tickets.Table) []TrendPoint {
	counts := lo.CountValuesBy(table.Rows(), func(t tickets.Ticket) time.Time {
		return tickets.Day(t.Date)
	})
	points := make([]TrendPoint, 0, len(counts))
	for day, n := range counts {
		if day.IsZero() {
			continue
		}
		points = append(points, TrendPoint{Date: day, Count: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// ZoneCounts reindexes ticket counts per zone to the canonical zone order.
func ZoneCounts(table *tickets.Table) []chart.Category {
	counts := lo.SliceToMap(TopValues(table, tickets.FieldZone), func(v ValueCount) (string, int) {
		return v.Value, v.Count
	})
	return chart.OrderedCategories(counts, tickets.ZoneOrder)
}
