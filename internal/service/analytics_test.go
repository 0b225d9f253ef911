package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/repository/models"
	"github.com/godilite/product-analytics/internal/service/mocks"
	"github.com/godilite/product-analytics/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestNewAnalyticsService tests the constructor
func TestNewAnalyticsService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{}
		logger := zap.NewNop()

		service := NewAnalyticsService(mockRepo, logger)

		assert.NotNil(t, service)
		assert.Equal(t, mockRepo, service.storage)
		assert.Equal(t, logger, service.logger)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewAnalyticsService(nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		service := NewAnalyticsService(&mocks.MockEventRepository{}, nil)

		assert.NotNil(t, service.logger)
	})
}

func TestRunABTest(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	counts := func(groups ...models.GroupCounts) *mocks.MockEventRepository {
		return &mocks.MockEventRepository{
			GetExperimentCountsFunc: func(ctx context.Context, s, e time.Time) ([]models.GroupCounts, error) {
				assert.Equal(t, start, s)
				assert.Equal(t, end, e)
				return groups, nil
			},
		}
	}

	t.Run("significant lift", func(t *testing.T) {
		service := NewAnalyticsService(counts(
			models.GroupCounts{Group: GroupTreatment, Sessions: 2000, Conversions: 240},
			models.GroupCounts{Group: GroupControl, Sessions: 2000, Conversions: 200},
		), logger)

		report, err := service.RunABTest(ctx, start, end, stats.DefaultAlpha)

		require.NoError(t, err)
		assert.Equal(t, int64(200), report.Control.Conversions)
		assert.Equal(t, int64(240), report.Treatment.Conversions)
		assert.InDelta(t, 0.10, report.Result.ControlRate, 1e-12)
		assert.InDelta(t, 0.12, report.Result.TreatmentRate, 1e-12)
		assert.InDelta(t, 20.0, report.Result.LiftPercent, 1e-9)
		assert.InDelta(t, 2.0213, report.Result.ZScore, 1e-4)
		assert.True(t, report.Result.Significant)
		assert.InDelta(t, 0.95, report.Interval.Level, 1e-12)
		assert.Less(t, report.Interval.Lower, 0.02)
		assert.Greater(t, report.Interval.Upper, 0.02)
	})

	t.Run("stricter alpha flips the verdict", func(t *testing.T) {
		service := NewAnalyticsService(counts(
			models.GroupCounts{Group: GroupControl, Sessions: 2000, Conversions: 200},
			models.GroupCounts{Group: GroupTreatment, Sessions: 2000, Conversions: 240},
		), logger)

		report, err := service.RunABTest(ctx, start, end, 0.01)

		require.NoError(t, err)
		assert.False(t, report.Result.Significant)
		assert.InDelta(t, 0.99, report.Interval.Level, 1e-12)
	})

	t.Run("no events at all", func(t *testing.T) {
		service := NewAnalyticsService(counts(), logger)

		_, err := service.RunABTest(ctx, start, end, stats.DefaultAlpha)

		assert.ErrorIs(t, err, ErrNoEvents)
	})

	t.Run("missing treatment group", func(t *testing.T) {
		service := NewAnalyticsService(counts(
			models.GroupCounts{Group: GroupControl, Sessions: 100, Conversions: 10},
		), logger)

		_, err := service.RunABTest(ctx, start, end, stats.DefaultAlpha)

		assert.ErrorIs(t, err, stats.ErrInsufficientData)
	})

	t.Run("zero control conversions", func(t *testing.T) {
		service := NewAnalyticsService(counts(
			models.GroupCounts{Group: GroupControl, Sessions: 100, Conversions: 0},
			models.GroupCounts{Group: GroupTreatment, Sessions: 100, Conversions: 5},
		), logger)

		_, err := service.RunABTest(ctx, start, end, stats.DefaultAlpha)

		assert.ErrorIs(t, err, stats.ErrDivisionByZero)
	})

	t.Run("invalid alpha", func(t *testing.T) {
		service := NewAnalyticsService(counts(
			models.GroupCounts{Group: GroupControl, Sessions: 100, Conversions: 10},
			models.GroupCounts{Group: GroupTreatment, Sessions: 100, Conversions: 12},
		), logger)

		_, err := service.RunABTest(ctx, start, end, 1.5)

		assert.ErrorIs(t, err, stats.ErrInvalidInput)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetExperimentCountsFunc: func(ctx context.Context, s, e time.Time) ([]models.GroupCounts, error) {
				return nil, errors.New("database connection failed")
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).RunABTest(ctx, start, end, stats.DefaultAlpha)

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "database connection failed")
	})
}

func TestGetConversionMetrics(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("successful calculation", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
				return models.OverallMetrics{
					Rows: 900, Sessions: 400, Users: 250, ConvertedSessions: 50,
					Revenue: 2500, AvgOrderValue: 50,
				}, nil
			},
		}

		m, err := NewAnalyticsService(mockRepo, logger).GetConversionMetrics(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, int64(400), m.TotalSessions)
		assert.Equal(t, int64(250), m.TotalUsers)
		assert.Equal(t, int64(50), m.Conversions)
		assert.InDelta(t, 12.5, m.ConversionRate, 1e-9)
		assert.Equal(t, 2500.0, m.TotalRevenue)
		assert.Equal(t, 50.0, m.AverageOrderValue)
	})

	t.Run("no sessions", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
				return models.OverallMetrics{}, nil
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).GetConversionMetrics(ctx, start, end)

		assert.ErrorIs(t, err, ErrNoEvents)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
				return models.OverallMetrics{}, errors.New("disk I/O error")
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).GetConversionMetrics(ctx, start, end)

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestGetFunnel(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("rates relative to first stage", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetFunnelCountsFunc: func(ctx context.Context, s, e time.Time, stages []string) (map[string]int64, error) {
				assert.Equal(t, DefaultFunnelStages, stages)
				return map[string]int64{"page_view": 1000, "add_to_cart": 400, "purchase": 100}, nil
			},
		}

		funnel, err := NewAnalyticsService(mockRepo, logger).GetFunnel(ctx, start, end)

		require.NoError(t, err)
		require.Len(t, funnel, 3)
		assert.Equal(t, FunnelStage{Stage: "page_view", Sessions: 1000, ConversionRate: 100}, funnel[0])
		assert.Equal(t, FunnelStage{Stage: "add_to_cart", Sessions: 400, ConversionRate: 40, DropOff: 60}, funnel[1])
		assert.Equal(t, FunnelStage{Stage: "purchase", Sessions: 100, ConversionRate: 10, DropOff: 30}, funnel[2])
	})

	t.Run("empty top of funnel", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetFunnelCountsFunc: func(ctx context.Context, s, e time.Time, stages []string) (map[string]int64, error) {
				return map[string]int64{"page_view": 0, "add_to_cart": 3, "purchase": 1}, nil
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).GetFunnel(ctx, start, end)

		assert.ErrorIs(t, err, ErrNoEvents)
	})
}

func TestGetSegmentMetrics(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("device breakdown", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetSegmentMetricsFunc: func(ctx context.Context, s, e time.Time, dim models.Dimension) ([]models.SegmentRow, error) {
				assert.Equal(t, models.DimensionDevice, dim)
				return []models.SegmentRow{
					{Segment: "desktop", Sessions: 300, Conversions: 45, Revenue: 4500},
					{Segment: "mobile", Sessions: 200, Conversions: 10, Revenue: 800},
				}, nil
			},
		}

		segs, err := NewAnalyticsService(mockRepo, logger).GetSegmentMetrics(ctx, start, end, models.DimensionDevice)

		require.NoError(t, err)
		require.Len(t, segs, 2)
		assert.Equal(t, "desktop", segs[0].Segment)
		assert.Equal(t, 15.0, segs[0].ConversionRate)
		assert.Equal(t, 5.0, segs[1].ConversionRate)
		assert.Equal(t, 800.0, segs[1].Revenue)
	})

	t.Run("unknown dimension never reaches storage", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{}

		_, err := NewAnalyticsService(mockRepo, logger).GetSegmentMetrics(ctx, start, end, models.Dimension("country"))

		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("no rows", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetSegmentMetricsFunc: func(ctx context.Context, s, e time.Time, dim models.Dimension) ([]models.SegmentRow, error) {
				return nil, nil
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).GetSegmentMetrics(ctx, start, end, models.DimensionChannel)

		assert.ErrorIs(t, err, ErrNoEvents)
	})
}

func TestGetRevenueTrend(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("short window is daily", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		mockRepo := &mocks.MockEventRepository{
			GetRevenueInPeriodFunc: func(ctx context.Context, s, e time.Time, isWeekly bool) ([]models.RevenueRow, error) {
				assert.False(t, isWeekly)
				return []models.RevenueRow{
					{Period: "2025-01-01", Revenue: 120},
					{Period: "2025-01-02", Revenue: 80.5},
				}, nil
			},
		}

		trend, err := NewAnalyticsService(mockRepo, logger).GetRevenueTrend(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, []RevenuePoint{
			{Period: "2025-01-01", Revenue: 120},
			{Period: "2025-01-02", Revenue: 80.5},
		}, trend)
	})

	t.Run("long window is weekly", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		mockRepo := &mocks.MockEventRepository{
			GetRevenueInPeriodFunc: func(ctx context.Context, s, e time.Time, isWeekly bool) ([]models.RevenueRow, error) {
				assert.True(t, isWeekly)
				return []models.RevenueRow{{Period: "2025-W01", Revenue: 999}}, nil
			},
		}

		trend, err := NewAnalyticsService(mockRepo, logger).GetRevenueTrend(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, "2025-W01", trend[0].Period)
	})
}

func TestGetCohorts(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("maps rows", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetCohortsFunc: func(ctx context.Context, s, e time.Time) ([]models.CohortRow, error) {
				return []models.CohortRow{{CohortDate: "2025-01-02", Users: 3, Revenue: 150}}, nil
			},
		}

		cohorts, err := NewAnalyticsService(mockRepo, logger).GetCohorts(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, []Cohort{{CohortDate: "2025-01-02", Users: 3, Revenue: 150}}, cohorts)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetCohortsFunc: func(ctx context.Context, s, e time.Time) ([]models.CohortRow, error) {
				return nil, errors.New("boom")
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).GetCohorts(ctx, start, end)

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestGetConversionRateChange(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("compares with the preceding window", func(t *testing.T) {
		var prevStart, prevEnd time.Time
		mockRepo := &mocks.MockEventRepository{
			GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
				if s.Equal(start) {
					return models.OverallMetrics{Sessions: 100, ConvertedSessions: 12}, nil
				}
				prevStart, prevEnd = s, e
				return models.OverallMetrics{Sessions: 100, ConvertedSessions: 10}, nil
			},
		}

		change, err := NewAnalyticsService(mockRepo, logger).GetConversionRateChange(ctx, start, end)

		require.NoError(t, err)
		assert.InDelta(t, 12.0, change.CurrentRate, 1e-9)
		assert.InDelta(t, 10.0, change.PreviousRate, 1e-9)
		assert.InDelta(t, 20.0, change.ChangePercentage, 1e-9)
		assert.Equal(t, start.Add(-time.Second), prevEnd)
		assert.Equal(t, end.Sub(start), prevEnd.Sub(prevStart))
	})

	t.Run("no previous data counts as full growth", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
				if s.Equal(start) {
					return models.OverallMetrics{Sessions: 50, ConvertedSessions: 5}, nil
				}
				return models.OverallMetrics{}, nil
			},
		}

		change, err := NewAnalyticsService(mockRepo, logger).GetConversionRateChange(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, 0.0, change.PreviousRate)
		assert.Equal(t, 100.0, change.ChangePercentage)
	})

	t.Run("no current data", func(t *testing.T) {
		mockRepo := &mocks.MockEventRepository{
			GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
				return models.OverallMetrics{}, nil
			},
		}

		_, err := NewAnalyticsService(mockRepo, logger).GetConversionRateChange(ctx, start, end)

		assert.ErrorIs(t, err, ErrNoEvents)
	})
}

func TestPrioritizeFeatures(t *testing.T) {
	service := NewAnalyticsService(&mocks.MockEventRepository{}, zap.NewNop())

	ranked, err := service.PrioritizeFeatures(context.Background(), prioritization.DefaultBacklog())
	require.NoError(t, err)
	assert.Equal(t, "One-Click Checkout", ranked[0].Name)

	_, err = service.PrioritizeFeatures(context.Background(), []prioritization.Feature{{Name: "x"}})
	assert.ErrorIs(t, err, prioritization.ErrInvalidFeature)
}

func fullReportRepo() *mocks.MockEventRepository {
	return &mocks.MockEventRepository{
		GetOverallMetricsFunc: func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
			return models.OverallMetrics{Sessions: 10, ConvertedSessions: 2, Revenue: 100, AvgOrderValue: 50}, nil
		},
		GetFunnelCountsFunc: func(ctx context.Context, s, e time.Time, stages []string) (map[string]int64, error) {
			return map[string]int64{"page_view": 10, "add_to_cart": 5, "purchase": 2}, nil
		},
		GetSegmentMetricsFunc: func(ctx context.Context, s, e time.Time, dim models.Dimension) ([]models.SegmentRow, error) {
			return []models.SegmentRow{{Segment: string(dim) + "-a", Sessions: 10, Conversions: 2}}, nil
		},
		GetRevenueInPeriodFunc: func(ctx context.Context, s, e time.Time, isWeekly bool) ([]models.RevenueRow, error) {
			return []models.RevenueRow{{Period: "2025-01-01", Revenue: 100}}, nil
		},
		GetCohortsFunc: func(ctx context.Context, s, e time.Time) ([]models.CohortRow, error) {
			return nil, nil
		},
	}
}

func TestGetFullReport(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)

	t.Run("all sections", func(t *testing.T) {
		rep, err := NewAnalyticsService(fullReportRepo(), logger).GetFullReport(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, start, rep.Start)
		assert.Equal(t, int64(10), rep.Metrics.TotalSessions)
		assert.Len(t, rep.Funnel, 3)
		assert.Equal(t, "device-a", rep.Devices[0].Segment)
		assert.Equal(t, "channel-a", rep.Channels[0].Segment)
		assert.Len(t, rep.Revenue, 1)
		assert.Empty(t, rep.Cohorts, "an empty section does not fail the report")
	})

	t.Run("empty window fails", func(t *testing.T) {
		repo := fullReportRepo()
		repo.GetOverallMetricsFunc = func(ctx context.Context, s, e time.Time) (models.OverallMetrics, error) {
			return models.OverallMetrics{}, nil
		}

		_, err := NewAnalyticsService(repo, logger).GetFullReport(ctx, start, end)

		assert.ErrorIs(t, err, ErrNoEvents)
	})

	t.Run("section storage failure fails the report", func(t *testing.T) {
		repo := fullReportRepo()
		repo.GetSegmentMetricsFunc = func(ctx context.Context, s, e time.Time, dim models.Dimension) ([]models.SegmentRow, error) {
			return nil, errors.New("locked")
		}

		_, err := NewAnalyticsService(repo, logger).GetFullReport(ctx, start, end)

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}
