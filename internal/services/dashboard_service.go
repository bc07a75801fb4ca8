package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/internal/analytics"
	"salespulse/internal/cache"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// RowSource is the spreadsheet side of the dashboard: anything that
// can produce raw sales rows, raw target rows and answer a reachability
// probe. The Google Sheets client satisfies it; tests substitute fakes.
type RowSource interface {
	FetchRows(ctx context.Context) ([]domain.RawRow, error)
	FetchTargetRows(ctx context.Context) ([]domain.RawRow, error)
	Ping(ctx context.Context) error
}

// Broadcaster pushes refresh notifications to connected dashboards.
type Broadcaster interface {
	BroadcastUpdate(event string, payload interface{})
	ClientCount() int
}

// Snapshot is one immutable fetch result: the normalized dataset plus
// the targets loaded alongside it. Queries read whichever snapshot was
// current when they started; refreshes swap the pointer wholesale.
type Snapshot struct {
	Dataset domain.Dataset
	Targets []domain.TargetEntry

	// TargetsOK distinguishes "no targets set" from "targets sheet
	// could not be read".
	TargetsOK bool

	BuiltAt time.Time
}

// DashboardService owns the snapshot lifecycle and computes every
// dashboard view from it. All query methods are safe for concurrent
// use and pure given a snapshot; the cache in front of them is an
// optimization only.
type DashboardService struct {
	cfg        *config.Config
	source     RowSource
	store      *cache.Cache
	hub        Broadcaster
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
	normalizer *dataprocessing.Normalizer
	targetsCfg dataprocessing.TargetsConfig
	buckets    analytics.BucketSet

	mu          sync.RWMutex
	snapshot    *Snapshot
	nextRefresh time.Time

	refreshing atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewDashboardService wires the dashboard business layer. The cache,
// hub and metrics are optional: pass nil to run without them.
func NewDashboardService(cfg *config.Config, source RowSource, store *cache.Cache, hub Broadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cfg:        cfg,
		source:     source,
		store:      store,
		hub:        hub,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "dashboard_service")),
		normalizer: dataprocessing.NewNormalizer(normalizerConfigFrom(cfg)),
		targetsCfg: targetsConfigFrom(cfg),
		buckets:    bucketSetFrom(cfg),
		stopCh:     make(chan struct{}),
	}
}

func normalizerConfigFrom(cfg *config.Config) dataprocessing.NormalizerConfig {
	nc := dataprocessing.DefaultNormalizerConfig()
	cols := cfg.Sheets.Columns
	nc.Columns = dataprocessing.ColumnMap{
		Date:      cols.Date,
		Product:   cols.SKU,
		Listing:   cols.Listing,
		Channel:   cols.Channel,
		Category:  cols.Category,
		Quantity:  cols.Quantity,
		Value:     cols.Value,
		UnitPrice: cols.UnitPrice,
	}
	return nc
}

func targetsConfigFrom(cfg *config.Config) dataprocessing.TargetsConfig {
	tc := dataprocessing.DefaultTargetsConfig()
	if cfg.Sheets.TargetColumns.Date != "" {
		tc.DateColumn = cfg.Sheets.TargetColumns.Date
	}
	if cfg.Sheets.TargetColumns.Amount != "" {
		tc.AmountColumn = cfg.Sheets.TargetColumns.Amount
	}
	return tc
}

func bucketSetFrom(cfg *config.Config) analytics.BucketSet {
	bounds := make([]decimal.Decimal, 0, len(cfg.Analytics.PriceBounds))
	for _, b := range cfg.Analytics.PriceBounds {
		bounds = append(bounds, decimal.NewFromFloat(b))
	}
	set := analytics.BucketSet{Bounds: bounds, Currency: cfg.Analytics.Currency}
	if err := set.Validate(); err != nil {
		return analytics.DefaultBucketSet()
	}
	return set
}

// Refresh fetches the spreadsheet, rebuilds the snapshot and empties
// the cache. Only one refresh runs at a time; concurrent callers get
// ErrRefreshInFlight instead of queueing.
func (s *DashboardService) Refresh(ctx context.Context, trigger string) (*RefreshReport, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return nil, apperrors.ErrRefreshInFlight
	}
	defer s.refreshing.Store(false)

	start := time.Now()

	fetchStart := time.Now()
	rows, err := s.source.FetchRows(ctx)
	infrastructure.RecordSheetFetch(ctx, s.metrics, "sales", time.Since(fetchStart), err)
	if err != nil {
		err = fmt.Errorf("%w: %v", apperrors.ErrSheetUnreachable, err)
		infrastructure.RecordSnapshotRefresh(ctx, s.metrics, trigger, time.Since(start), 0, 0, err)
		s.logger.ErrorContext(ctx, "snapshot refresh failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		return nil, err
	}
	if len(rows) == 0 {
		err = apperrors.ErrSheetEmpty
		infrastructure.RecordSnapshotRefresh(ctx, s.metrics, trigger, time.Since(start), 0, 0, err)
		return nil, err
	}

	dataset := s.normalizer.Normalize(rows, time.Now().UTC())

	// Targets are advisory: a fetch failure degrades the targets view
	// but never fails the refresh.
	var targets []domain.TargetEntry
	targetsOK := false
	targetStart := time.Now()
	targetRows, targetErr := s.source.FetchTargetRows(ctx)
	infrastructure.RecordSheetFetch(ctx, s.metrics, "targets", time.Since(targetStart), targetErr)
	if targetErr != nil {
		s.logger.WarnContext(ctx, "targets fetch failed, continuing without targets",
			slog.String("error", targetErr.Error()))
	} else {
		targets = dataprocessing.ParseTargets(targetRows, s.targetsCfg)
		targetsOK = true
	}

	snap := &Snapshot{
		Dataset:   dataset,
		Targets:   targets,
		TargetsOK: targetsOK,
		BuiltAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.snapshot = snap
	if s.cfg.Sheets.RefreshInterval > 0 {
		s.nextRefresh = time.Now().Add(s.cfg.Sheets.RefreshInterval)
	}
	s.mu.Unlock()

	if s.store != nil {
		evicted := s.store.Len()
		s.store.InvalidateAll()
		infrastructure.RecordCacheEvictions(ctx, s.metrics, int64(evicted))
	}

	report := &RefreshReport{
		Trigger:    trigger,
		FetchedAt:  dataset.FetchedAt,
		Records:    len(dataset.Records),
		Rejected:   len(dataset.Unrecognized),
		TargetDays: len(targets),
		Duration:   time.Since(start),
	}

	infrastructure.RecordSnapshotRefresh(ctx, s.metrics, trigger, report.Duration,
		int64(report.Records), int64(report.Rejected), nil)

	s.logger.InfoContext(ctx, "snapshot refreshed",
		slog.String("trigger", trigger),
		slog.Int("records", report.Records),
		slog.Int("rejected", report.Rejected),
		slog.Int("target_days", report.TargetDays),
		slog.Duration("duration", report.Duration))

	if s.hub != nil {
		s.hub.BroadcastUpdate("data_update", report)
	}

	return report, nil
}

// StartRefreshLoop refreshes on the configured interval until Stop or
// context cancellation. The first refresh runs immediately so the
// dashboard comes up loaded.
func (s *DashboardService) StartRefreshLoop(ctx context.Context) {
	interval := s.cfg.Sheets.RefreshInterval
	if interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if _, err := s.Refresh(ctx, "startup"); err != nil {
			s.logger.ErrorContext(ctx, "initial refresh failed",
				slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Refresh(ctx, "scheduled"); err != nil {
					s.logger.ErrorContext(ctx, "scheduled refresh failed",
						slog.String("error", err.Error()))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the refresh loop and waits for it to exit. Safe to call
// more than once.
func (s *DashboardService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Snapshot returns the current snapshot, or ErrSnapshotPending before
// the first successful refresh.
func (s *DashboardService) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, apperrors.ErrSnapshotPending
	}
	return s.snapshot, nil
}

// Status describes the loaded snapshot for health and status payloads.
func (s *DashboardService) Status() *StatusView {
	s.mu.RLock()
	snap := s.snapshot
	next := s.nextRefresh
	s.mu.RUnlock()

	status := &StatusView{Refreshing: s.refreshing.Load()}
	if !next.IsZero() {
		status.NextRefresh = &next
	}
	if snap == nil {
		return status
	}

	fetched := snap.Dataset.FetchedAt
	status.Loaded = true
	status.FetchedAt = &fetched
	status.Records = len(snap.Dataset.Records)
	status.Rejected = len(snap.Dataset.Unrecognized)
	status.Years = snap.Dataset.Years()
	status.TargetDays = len(snap.Targets)
	return status
}

// fromCache reads a live entry and records the hit or miss. A nil
// store behaves as always-miss.
func (s *DashboardService) fromCache(ctx context.Context, op, key string) (interface{}, bool) {
	if s.store == nil {
		return nil, false
	}
	v, ok := s.store.Get(key)
	infrastructure.RecordCacheAccess(ctx, s.metrics, op, ok)
	return v, ok
}

func (s *DashboardService) toCache(key string, v interface{}) {
	if s.store == nil {
		return
	}
	s.store.SetTTL(key, v, s.cfg.Cache.ComputeTTL)
}

// filtered applies the year and channel filters the way every
// dashboard query does: filter first, compute on the remainder.
func filtered(records []domain.SalesRecord, year int, channel string) []domain.SalesRecord {
	if year > 0 {
		records = analytics.FilterYear(records, year)
	}
	if channel != "" {
		records = analytics.FilterChannel(records, channel)
	}
	return records
}

// Summary computes the KPI header for one year: totals, average order
// value and revenue growth against the year before.
func (s *DashboardService) Summary(ctx context.Context, year int, channel string) (*SummaryView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	key := cache.Key("summary", year, channel, snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "summary", key); ok {
		return v.(*SummaryView), nil
	}

	records := filtered(snap.Dataset.Records, year, channel)
	byMonth, err := analytics.Aggregate(records, analytics.GroupSpec{
		Dimensions: []analytics.Dimension{analytics.DimMonth},
	})
	if err != nil {
		return nil, err
	}

	view := &SummaryView{
		Year:    year,
		Channel: channel,
		Revenue: byMonth.Total(),
		Months:  make([]MonthSummary, 0, byMonth.Len()),
	}
	for _, g := range byMonth.Groups {
		month := g.Key.String()
		view.Units += g.Units
		view.Orders += g.Orders
		view.Months = append(view.Months, MonthSummary{
			Month:   month,
			Label:   monthLabel(month),
			Revenue: g.Value,
			Units:   g.Units,
			Orders:  g.Orders,
		})
	}
	if view.Orders > 0 {
		view.AverageOrderValue = view.Revenue.DivRound(decimal.NewFromInt(int64(view.Orders)), 2)
	}

	prior := filtered(snap.Dataset.Records, year-1, channel)
	priorRevenue := decimal.Zero
	for _, r := range prior {
		priorRevenue = priorRevenue.Add(r.LineTotal())
	}
	view.YoYGrowth = growthPercent(view.Revenue, priorRevenue)

	s.toCache(key, view)
	return view, nil
}

// monthLabel renders "2024-03" as "Mar", leaving unexpected keys as-is.
func monthLabel(month string) string {
	if len(month) == 7 && month[4] == '-' {
		return analytics.MonthName(month[5:])
	}
	return month
}

// growthPercent is change against a prior total: sentinel when the
// prior is zero, whatever the current value.
func growthPercent(current, prior decimal.Decimal) analytics.Percent {
	if prior.IsZero() {
		return analytics.PercentSentinel(analytics.SentinelUndefined)
	}
	ratio, _ := current.Sub(prior).Div(prior).Float64()
	return analytics.PercentOf(ratio * 100)
}

// YoY aligns two years on a month or retail-week axis.
func (s *DashboardService) YoY(ctx context.Context, currentYear, priorYear int, period analytics.Dimension, metric analytics.Metric) (*YoYView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	key := cache.Key("yoy", currentYear, priorYear, string(period), string(metric), snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "yoy", key); ok {
		return v.(*YoYView), nil
	}

	result, err := analytics.CompareYears(snap.Dataset.Records, currentYear, priorYear, period, metric)
	if err != nil {
		return nil, err
	}

	view := &YoYView{
		CurrentYear: currentYear,
		PriorYear:   priorYear,
		Period:      string(period),
		Metric:      string(metric),
		Rows:        make([]YoYRow, 0, len(result.Rows)),
	}
	for _, row := range result.Rows {
		view.Rows = append(view.Rows, YoYRow{
			ComparisonRow: row,
			Label:         analytics.MonthName(row.Key.String()),
		})
	}

	s.toCache(key, view)
	return view, nil
}

// PriceRanges computes the price-bucket rollup for one year.
func (s *DashboardService) PriceRanges(ctx context.Context, year int, channel string) (*PriceRangeView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	key := cache.Key("price-ranges", year, channel, snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "price-ranges", key); ok {
		return v.(*PriceRangeView), nil
	}

	records := filtered(snap.Dataset.Records, year, channel)
	byBucket, err := analytics.Aggregate(records, analytics.GroupSpec{
		Dimensions: []analytics.Dimension{analytics.DimPriceBucket},
		Buckets:    s.buckets,
	})
	if err != nil {
		return nil, err
	}

	view := &PriceRangeView{
		Year:    year,
		Channel: channel,
		Total:   byBucket.Total(),
		Buckets: make([]PriceRangeRow, 0, byBucket.Len()),
	}
	for _, g := range byBucket.Groups {
		row := PriceRangeRow{
			Bucket:            g.Key.String(),
			Revenue:           g.Value,
			Units:             g.Units,
			Orders:            g.Orders,
			AverageOrderValue: g.Average,
		}
		if !view.Total.IsZero() {
			row.Share, _ = g.Value.Div(view.Total).Float64()
		}
		view.Buckets = append(view.Buckets, row)
	}

	s.toCache(key, view)
	return view, nil
}

// Rankings computes top and bottom N along one dimension.
func (s *DashboardService) Rankings(ctx context.Context, year int, dimension analytics.Dimension, metric analytics.Metric, n int) (*RankingsView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.cfg.Analytics.TopN
	}

	key := cache.Key("rankings", year, string(dimension), string(metric), n, snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "rankings", key); ok {
		return v.(*RankingsView), nil
	}

	records := filtered(snap.Dataset.Records, year, "")
	grouped, err := analytics.Aggregate(records, analytics.GroupSpec{
		Dimensions: []analytics.Dimension{dimension},
		Buckets:    s.buckets,
	})
	if err != nil {
		return nil, err
	}
	ranked, err := analytics.Rank(grouped, metric, n)
	if err != nil {
		return nil, err
	}

	view := &RankingsView{
		Year:          year,
		Dimension:     string(dimension),
		Metric:        string(metric),
		N:             n,
		RankingResult: ranked,
	}

	s.toCache(key, view)
	return view, nil
}

// Seasonality computes each period's share of its year.
func (s *DashboardService) Seasonality(ctx context.Context, period analytics.Dimension) (*SeasonalityView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = analytics.DimMonth
	}

	key := cache.Key("seasonality", string(period), snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "seasonality", key); ok {
		return v.(*SeasonalityView), nil
	}

	result, err := analytics.Seasonality(snap.Dataset.Records, analytics.CycleSpec{Period: period})
	if err != nil {
		return nil, err
	}

	view := &SeasonalityView{
		Period:            string(period),
		SeasonalityResult: result,
	}

	s.toCache(key, view)
	return view, nil
}

// Patterns computes the day-of-week trading profile.
func (s *DashboardService) Patterns(ctx context.Context, year int, channel string) (*PatternsView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	key := cache.Key("patterns", year, channel, snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "patterns", key); ok {
		return v.(*PatternsView), nil
	}

	records := filtered(snap.Dataset.Records, year, channel)
	result := analytics.Patterns(records)

	view := &PatternsView{
		Year:          year,
		Channel:       channel,
		PatternResult: result,
	}
	view.BestDay, view.WorstDay = bestWorstDays(result.Days)

	s.toCache(key, view)
	return view, nil
}

func bestWorstDays(days []analytics.DayPattern) (best, worst string) {
	traded := make([]analytics.DayPattern, 0, len(days))
	for _, d := range days {
		if d.Days > 0 {
			traded = append(traded, d)
		}
	}
	if len(traded) == 0 {
		return "", ""
	}
	sort.SliceStable(traded, func(i, j int) bool {
		return traded[i].Mean > traded[j].Mean
	})
	return traded[0].Weekday, traded[len(traded)-1].Weekday
}

// TargetVariance computes monthly actual vs target for one year.
// ErrTargetsUnavailable is returned when the targets sheet could not
// be read on the last refresh.
func (s *DashboardService) TargetVariance(ctx context.Context, year int) (*TargetsView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	if !snap.TargetsOK {
		return nil, apperrors.ErrTargetsUnavailable
	}

	key := cache.Key("targets", year, snap.Dataset.FetchedAt.UnixNano())
	if v, ok := s.fromCache(ctx, "targets", key); ok {
		return v.(*TargetsView), nil
	}

	records := filtered(snap.Dataset.Records, year, "")
	targets := dataprocessing.TargetsForYear(snap.Targets, year)
	result := analytics.Targets(records, targets)

	view := &TargetsView{
		Year:         year,
		TargetResult: result,
	}

	s.toCache(key, view)
	return view, nil
}

// Unrecognized returns the rejected-row audit from the last refresh.
func (s *DashboardService) Unrecognized(ctx context.Context) (*UnrecognizedView, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return &UnrecognizedView{
		Total: len(snap.Dataset.Unrecognized),
		Rows:  snap.Dataset.Unrecognized,
	}, nil
}
