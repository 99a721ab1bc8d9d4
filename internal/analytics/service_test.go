package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/ticketdash/internal/analytics/chart"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

func newTestService(t *testing.T) (*Service, *Cache, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute).WithMetrics(prometheus.NewRegistry())
	svc := NewService(cache)
	return svc, cache, func() {
		_ = client.Close()
		mr.Close()
	}
}

func digestTable(t *testing.T, rows []tickets.Ticket) *tickets.Table {
	t.Helper()
	records := [][]string{make([]string, 0, len(tickets.RequiredFields))}
	for _, f := range tickets.RequiredFields {
		records[0] = append(records[0], f.Column())
	}
	for _, row := range rows {
		record := make([]string, 0, len(tickets.RequiredFields))
		for _, f := range tickets.RequiredFields {
			record = append(record, row.Value(f))
		}
		records = append(records, record)
	}
	table, err := tickets.NewTable("fixture.xlsx", "digest-1", records)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

func TestSummarizeDashboard(t *testing.T) {
	dash := Summarize(tenTickets())
	want := Metrics{TotalTickets: 10, TotalBranches: 3, Closed: 7, Open: 3}
	if dash.Metrics != want {
		t.Fatalf("expected metrics %+v got %+v", want, dash.Metrics)
	}
	if dash.Inbound.Percentage != 40 || dash.Outbound.Percentage != 60 {
		t.Fatalf("expected 40/60 donuts, got %d/%d", dash.Inbound.Percentage, dash.Outbound.Percentage)
	}
	if dash.Inbound.Label != InboundLabel || dash.Inbound.Theme != chart.ThemeGreen {
		t.Fatalf("unexpected inbound donut %+v", dash.Inbound)
	}
	if dash.Outbound.Theme != chart.ThemeRed {
		t.Fatalf("expected red outbound donut")
	}
	if len(dash.ZoneDays.Rows) != len(tickets.ZoneOrder) {
		t.Fatalf("expected %d zone rows, got %d", len(tickets.ZoneOrder), len(dash.ZoneDays.Rows))
	}
	if dash.ZoneDays.Count("Zone 2", "0-1") != 10 {
		t.Fatalf("expected all tickets in Zone 2 / 0-1")
	}
	if got := chart.SeriesValues(dash.DaysStatus, tickets.StatusClosed, dash.DaysRanges); len(got) != 1 || got[0] != 7 {
		t.Fatalf("unexpected closed series %v", got)
	}
	if got := chart.SeriesValues(dash.ZoneStatus, tickets.StatusOpen, dash.Zones); got[2] != 3 {
		t.Fatalf("expected 3 open tickets in Zone 2, got %v", got)
	}
	if dash.BranchMax != 4 {
		t.Fatalf("expected branch max 4, got %d", dash.BranchMax)
	}
	if len(dash.Trend) != 4 || !dash.Trend[0].Date.Equal(day(1)) || dash.Trend[0].Count != 3 {
		t.Fatalf("unexpected trend %+v", dash.Trend)
	}
}

func TestSummarizeEmptySubset(t *testing.T) {
	dash := Summarize(tickets.FromTickets("empty", nil))
	if dash.Metrics != (Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v", dash.Metrics)
	}
	if dash.Inbound.Percentage != 0 || dash.Outbound.Percentage != 0 {
		t.Fatalf("expected zero donuts")
	}
	if len(dash.Zones) != len(tickets.ZoneOrder) {
		t.Fatalf("expected canonical zones even when empty")
	}
}

func TestBuildCachesByDatasetAndSelection(t *testing.T) {
	svc, cache, cleanup := newTestService(t)
	defer cleanup()
	calls := 0
	svc.WithNow(func() time.Time {
		calls++
		return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	})

	table := digestTable(t, tenTickets().Rows())
	sel := filter.DefaultSelection(table)
	ctx := context.Background()

	first, err := svc.Build(ctx, table, sel)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if first.Metrics.TotalTickets != 10 || first.Subset.Len() != 10 {
		t.Fatalf("unexpected dashboard %+v", first.Metrics)
	}
	second, err := svc.Build(ctx, table, sel)
	if err != nil {
		t.Fatalf("cached build: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached dashboard, computed %d times", calls)
	}
	if second.Inbound != first.Inbound || second.Subset.Len() != 10 || second.Source != "fixture.xlsx" {
		t.Fatalf("cached dashboard differs: %+v", second)
	}
	if hits := testutil.ToFloat64(cache.lookups.WithLabelValues("hit")); hits != 1 {
		t.Fatalf("expected 1 cache hit, got %v", hits)
	}

	narrowed := sel
	narrowed.Branches = []string{"Pune"}
	third, err := svc.Build(ctx, table, narrowed)
	if err != nil {
		t.Fatalf("narrowed build: %v", err)
	}
	if calls != 2 || third.Metrics.TotalTickets != 4 {
		t.Fatalf("expected fresh dashboard for new selection, calls=%d total=%d", calls, third.Metrics.TotalTickets)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.Build(ctx, table, sel); err != nil {
		t.Fatalf("build after invalidate: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected recompute after invalidate, calls=%d", calls)
	}
}

func TestBuildRejectsInvalidSelection(t *testing.T) {
	svc := NewService(nil)
	table := tenTickets()
	sel := filter.DefaultSelection(table)
	sel.StartDate, sel.EndDate = sel.EndDate, sel.StartDate
	_, err := svc.Build(context.Background(), table, sel)
	if !errors.Is(err, tickets.ErrInvalidFilter) {
		t.Fatalf("expected invalid filter error, got %v", err)
	}
}

func TestBuildEmptySelectionIsNotAnError(t *testing.T) {
	svc := NewService(nil)
	table := tenTickets()
	sel := filter.DefaultSelection(table)
	sel.Zones = nil
	dash, err := svc.Build(context.Background(), table, sel)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if dash.Metrics.TotalTickets != 0 || dash.Subset.Len() != 0 {
		t.Fatalf("expected empty dashboard, got %+v", dash.Metrics)
	}
}

func TestListenForInvalidationCallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	local := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	peer := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		_ = local.Close()
		_ = peer.Close()
	}()
	cache := NewCache(local, time.Minute)
	other := NewCache(peer, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bumped := make(chan struct{}, 2)
	if err := cache.ListenForInvalidation(ctx, "", func() { bumped <- struct{}{} }); err != nil {
		t.Fatalf("listen: %v", err)
	}
	// Published in order: the local bump must be skipped, the peer's delivered.
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("local bump: %v", err)
	}
	if err := other.Bump(ctx); err != nil {
		t.Fatalf("peer bump: %v", err)
	}
	select {
	case <-bumped:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected invalidation callback for peer bump")
	}
	select {
	case <-bumped:
		t.Fatalf("expected own bump to be skipped")
	case <-time.After(100 * time.Millisecond):
	}
	if ver, err := cache.Version(ctx); err != nil || ver != 2 {
		t.Fatalf("expected both bumps to advance the version, got %d, %v", ver, err)
	}
}

func TestZoneCountsUsesCanonicalOrder(t *testing.T) {
	got := ZoneCounts(tenTickets())
	if len(got) != len(tickets.ZoneOrder) || got[2].Label != "Zone 2" || got[2].Value != 10 {
		t.Fatalf("unexpected zone counts %+v", got)
	}
}

func TestFetchTreatsCorruptEntryAsMiss(t *testing.T) {
	_, cache, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()
	key := "dashboard:corrupt:1"
	if err := cache.client.Set(ctx, key, "{", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	calls := 0
	load := func(context.Context) (Metrics, error) {
		calls++
		return Metrics{TotalTickets: 3}, nil
	}
	got, err := Fetch(ctx, cache, key, load)
	if err != nil || got.TotalTickets != 3 {
		t.Fatalf("fetch: %+v, %v", got, err)
	}
	if got, err = Fetch(ctx, cache, key, load); err != nil || got.TotalTickets != 3 {
		t.Fatalf("cached fetch: %+v, %v", got, err)
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}
	if corrupt := testutil.ToFloat64(cache.lookups.WithLabelValues("corrupt")); corrupt != 1 {
		t.Fatalf("expected corrupt lookup recorded, got %v", corrupt)
	}
}

func TestFetchWithoutCacheCallsLoader(t *testing.T) {
	got, err := Fetch(context.Background(), nil, "unused", func(context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("expected loader result, got %d, %v", got, err)
	}
	if _, err := Fetch[int](context.Background(), nil, "unused", nil); err == nil {
		t.Fatalf("expected missing loader error")
	}
}

func TestBuildFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = client.Close() }()
	svc := NewService(NewCache(client, time.Minute))
	mr.Close()

	table := digestTable(t, tenTickets().Rows())
	dash, err := svc.Build(context.Background(), table, filter.DefaultSelection(table))
	if err != nil {
		t.Fatalf("expected direct computation when redis is down, got %v", err)
	}
	if dash.Metrics.TotalTickets != 10 || dash.Source != "fixture.xlsx" {
		t.Fatalf("unexpected dashboard %+v", dash.Metrics)
	}
}

func TestBuildReturnsComputeError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	table := tenTickets()
	_, err := NewService(nil).Build(ctx, table, filter.DefaultSelection(table))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to propagate, got %v", err)
	}

	svc, _, cleanup := newTestService(t)
	defer cleanup()
	_, err = svc.Build(ctx, digestTable(t, table.Rows()), filter.DefaultSelection(table))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation through the cache path, got %v", err)
	}
}

func TestSelectionDigestIgnoresSetOrder(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := filter.Selection{
		StartDate:  start,
		EndDate:    start,
		Zones:      []string{"Zone 2", "Zone 1A"},
		Branches:   []string{"Pune", "Mumbai", "Pune"},
		Categories: []string{"Network", "Hardware"},
	}
	b := filter.Selection{
		StartDate:  start,
		EndDate:    start,
		Zones:      []string{"Zone 1A", "Zone 2"},
		Branches:   []string{"Mumbai", "Pune"},
		Categories: []string{"Hardware", "Network"},
	}
	if SelectionDigest(a) != SelectionDigest(b) {
		t.Fatalf("expected equal digests for reordered sets")
	}
	if a.Zones[0] != "Zone 2" {
		t.Fatalf("digest must not reorder the caller's selection")
	}
	b.Categories = []string{"Hardware"}
	if SelectionDigest(a) == SelectionDigest(b) {
		t.Fatalf("expected different digests for different sets")
	}
}

func TestSummarizeZoneTotalsFollowCanonicalOrder(t *testing.T) {
	dash := Summarize(tenTickets())
	if len(dash.ZoneTotals) != len(tickets.ZoneOrder) {
		t.Fatalf("expected %d zone totals, got %d", len(tickets.ZoneOrder), len(dash.ZoneTotals))
	}
	for i, c := range dash.ZoneTotals {
		if c.Label != tickets.ZoneOrder[i] {
			t.Fatalf("zone %d: expected %s got %s", i, tickets.ZoneOrder[i], c.Label)
		}
	}
	if dash.ZoneTotals[2].Value != 10 {
		t.Fatalf("expected all tickets in Zone 2, got %+v", dash.ZoneTotals[2])
	}
}
