package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/repository/models"
	"github.com/godilite/product-analytics/internal/stats"
)

const (
	dbTimeout = 1 * time.Second

	GroupControl   = "control"
	GroupTreatment = "treatment"
)

// DefaultFunnelStages are the event types of the purchase funnel, in order.
var DefaultFunnelStages = []string{"page_view", "add_to_cart", "purchase"}

var (
	ErrNoEvents         = errors.New("no events found")
	ErrStorageFailure   = errors.New("storage failure")
	ErrInvalidDimension = errors.New("invalid segment dimension")
)

// AnalyticsService turns repository aggregates into product metrics.
type AnalyticsService struct {
	storage EventRepository
	logger  *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService instance.
func NewAnalyticsService(storage EventRepository, logger *zap.Logger) *AnalyticsService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &AnalyticsService{
		storage: storage,
		logger:  logger,
	}
}

func isAtLeastOneMonth(start, end time.Time) bool {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	oneMonthLater := s.AddDate(0, 1, 0)
	return !oneMonthLater.After(e)
}

// IsWeeklyAggregation reports whether a window is long enough to bucket
// trends by week instead of by day.
func IsWeeklyAggregation(start, end time.Time) bool {
	if isAtLeastOneMonth(start, end) {
		return true
	}
	return end.Sub(start) >= 28*24*time.Hour
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// RunABTest compares control and treatment conversion over the window.
// A group with no sessions reaches the z-test as a zero total. Z-test
// errors are returned as is.
func (s *AnalyticsService) RunABTest(ctx context.Context, start, end time.Time, alpha float64) (ABTestReport, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	groups, err := s.storage.GetExperimentCounts(dbCtx, start, end)
	if err != nil {
		return ABTestReport{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if len(groups) == 0 {
		return ABTestReport{}, ErrNoEvents
	}

	report := ABTestReport{
		Control:   models.GroupCounts{Group: GroupControl},
		Treatment: models.GroupCounts{Group: GroupTreatment},
	}
	for _, g := range groups {
		switch g.Group {
		case GroupControl:
			report.Control = g
		case GroupTreatment:
			report.Treatment = g
		}
	}

	result, err := stats.TwoProportionZTest(
		report.Control.Conversions, report.Control.Sessions,
		report.Treatment.Conversions, report.Treatment.Sessions,
		alpha,
	)
	if err != nil {
		s.logger.Info("a/b test not computable",
			zap.Int64("control_sessions", report.Control.Sessions),
			zap.Int64("treatment_sessions", report.Treatment.Sessions),
			zap.Error(err))
		return ABTestReport{}, err
	}
	report.Result = result

	interval, err := stats.ConfidenceInterval(result, report.Control.Sessions, report.Treatment.Sessions, 1-alpha)
	if err != nil {
		return ABTestReport{}, err
	}
	report.Interval = interval

	s.logger.Info("a/b test computed",
		zap.Float64("z_score", result.ZScore),
		zap.Float64("p_value", result.PValue),
		zap.Bool("significant", result.Significant),
		zap.Time("start", start),
		zap.Time("end", end))

	return report, nil
}

// GetConversionMetrics returns the headline session, conversion and revenue figures.
func (s *AnalyticsService) GetConversionMetrics(ctx context.Context, start, end time.Time) (ConversionMetrics, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	m, err := s.storage.GetOverallMetrics(dbCtx, start, end)
	if err != nil {
		return ConversionMetrics{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if m.Sessions == 0 {
		return ConversionMetrics{}, ErrNoEvents
	}

	return ConversionMetrics{
		TotalSessions:     m.Sessions,
		TotalUsers:        m.Users,
		Conversions:       m.ConvertedSessions,
		ConversionRate:    percent(m.ConvertedSessions, m.Sessions),
		TotalRevenue:      m.Revenue,
		AverageOrderValue: m.AvgOrderValue,
	}, nil
}

// GetFunnel returns DefaultFunnelStages with conversion relative to the
// first stage and the drop-off between consecutive stages.
func (s *AnalyticsService) GetFunnel(ctx context.Context, start, end time.Time) ([]FunnelStage, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	counts, err := s.storage.GetFunnelCounts(dbCtx, start, end, DefaultFunnelStages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	top := counts[DefaultFunnelStages[0]]
	if top == 0 {
		return nil, ErrNoEvents
	}

	stages := make([]FunnelStage, len(DefaultFunnelStages))
	for i, name := range DefaultFunnelStages {
		n := counts[name]
		stages[i] = FunnelStage{
			Stage:          name,
			Sessions:       n,
			ConversionRate: round2(percent(n, top)),
		}
		if i > 0 {
			stages[i].DropOff = round2(math.Abs(stages[i].ConversionRate - stages[i-1].ConversionRate))
		}
	}
	return stages, nil
}

// GetSegmentMetrics breaks sessions, conversions and revenue down by device or channel.
func (s *AnalyticsService) GetSegmentMetrics(ctx context.Context, start, end time.Time, dim models.Dimension) ([]SegmentMetrics, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, dim)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.GetSegmentMetrics(dbCtx, start, end, dim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoEvents
	}

	out := make([]SegmentMetrics, len(rows))
	for i, r := range rows {
		out[i] = SegmentMetrics{
			Segment:        r.Segment,
			Sessions:       r.Sessions,
			Conversions:    r.Conversions,
			Revenue:        r.Revenue,
			ConversionRate: round2(percent(r.Conversions, r.Sessions)),
		}
	}
	return out, nil
}

// GetRevenueTrend returns revenue per day, or per week for long windows.
func (s *AnalyticsService) GetRevenueTrend(ctx context.Context, start, end time.Time) ([]RevenuePoint, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.GetRevenueInPeriod(dbCtx, start, end, IsWeeklyAggregation(start, end))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoEvents
	}

	out := make([]RevenuePoint, len(rows))
	for i, r := range rows {
		out[i] = RevenuePoint{Period: r.Period, Revenue: r.Revenue}
	}
	return out, nil
}

// GetCohorts groups converting users by their first conversion day.
func (s *AnalyticsService) GetCohorts(ctx context.Context, start, end time.Time) ([]Cohort, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.GetCohorts(dbCtx, start, end)
	if err != nil {
		s.logger.Error("failed to fetch cohorts", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoEvents
	}

	out := make([]Cohort, len(rows))
	for i, r := range rows {
		out[i] = Cohort{CohortDate: r.CohortDate, Users: r.Users, Revenue: r.Revenue}
	}
	return out, nil
}

// GetConversionRateChange compares the window's conversion rate with the
// window of equal length immediately before it.
func (s *AnalyticsService) GetConversionRateChange(ctx context.Context, start, end time.Time) (ConversionRateChange, error) {
	current, err := s.GetConversionMetrics(ctx, start, end)
	if err != nil {
		return ConversionRateChange{}, fmt.Errorf("current period: %w", err)
	}

	duration := end.Sub(start)
	prevEnd := start.Add(-time.Second)
	prevStart := prevEnd.Add(-duration)

	previous, err := s.GetConversionMetrics(ctx, prevStart, prevEnd)
	if err != nil {
		if errors.Is(err, ErrNoEvents) {
			return ConversionRateChange{
				CurrentRate:      current.ConversionRate,
				PreviousRate:     0,
				ChangePercentage: 100.0,
			}, nil
		}
		return ConversionRateChange{}, fmt.Errorf("previous period: %w", err)
	}

	var change float64
	if previous.ConversionRate > 0 {
		change = (current.ConversionRate - previous.ConversionRate) / previous.ConversionRate * 100.0
	} else if current.ConversionRate > 0 {
		change = 100.0
	}

	return ConversionRateChange{
		CurrentRate:      current.ConversionRate,
		PreviousRate:     previous.ConversionRate,
		ChangePercentage: change,
	}, nil
}

// PrioritizeFeatures scores features with RICE and sorts them, best first.
func (s *AnalyticsService) PrioritizeFeatures(ctx context.Context, features []prioritization.Feature) ([]prioritization.FeatureScore, error) {
	ranked, err := prioritization.Rank(features)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("features prioritized", zap.Int("count", len(ranked)))
	return ranked, nil
}

// FullReport bundles every dashboard section for one window.
type FullReport struct {
	Start    time.Time
	End      time.Time
	Metrics  ConversionMetrics
	Funnel   []FunnelStage
	Devices  []SegmentMetrics
	Channels []SegmentMetrics
	Revenue  []RevenuePoint
	Cohorts  []Cohort
}

// GetFullReport computes all dashboard sections concurrently. Sections that
// only lack data are left empty; the first other error aborts the report.
func (s *AnalyticsService) GetFullReport(ctx context.Context, start, end time.Time) (FullReport, error) {
	rep := FullReport{Start: start, End: end}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		rep.Metrics, err = s.GetConversionMetrics(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		rep.Funnel, err = s.GetFunnel(gctx, start, end)
		return tolerateEmpty(err)
	})
	g.Go(func() (err error) {
		rep.Devices, err = s.GetSegmentMetrics(gctx, start, end, models.DimensionDevice)
		return tolerateEmpty(err)
	})
	g.Go(func() (err error) {
		rep.Channels, err = s.GetSegmentMetrics(gctx, start, end, models.DimensionChannel)
		return tolerateEmpty(err)
	})
	g.Go(func() (err error) {
		rep.Revenue, err = s.GetRevenueTrend(gctx, start, end)
		return tolerateEmpty(err)
	})
	g.Go(func() (err error) {
		rep.Cohorts, err = s.GetCohorts(gctx, start, end)
		return tolerateEmpty(err)
	})

	if err := g.Wait(); err != nil {
		return FullReport{}, err
	}
	return rep, nil
}

func tolerateEmpty(err error) error {
	if errors.Is(err, ErrNoEvents) {
		return nil
	}
	return err
}
