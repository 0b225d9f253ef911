package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/product-analytics/internal/repository/models"
)

// MockEventRepository is a mock implementation of the EventRepository interface
// for testing the service layer.
type MockEventRepository struct {
	GetExperimentCountsFunc func(ctx context.Context, start, end time.Time) ([]models.GroupCounts, error)
	GetOverallMetricsFunc   func(ctx context.Context, start, end time.Time) (models.OverallMetrics, error)
	GetFunnelCountsFunc     func(ctx context.Context, start, end time.Time, stages []string) (map[string]int64, error)
	GetSegmentMetricsFunc   func(ctx context.Context, start, end time.Time, dim models.Dimension) ([]models.SegmentRow, error)
	GetRevenueInPeriodFunc  func(ctx context.Context, start, end time.Time, isWeekly bool) ([]models.RevenueRow, error)
	GetCohortsFunc          func(ctx context.Context, start, end time.Time) ([]models.CohortRow, error)
}

func (m *MockEventRepository) GetExperimentCounts(ctx context.Context, start, end time.Time) ([]models.GroupCounts, error) {
	if m.GetExperimentCountsFunc != nil {
		return m.GetExperimentCountsFunc(ctx, start, end)
	}
	return nil, errors.New("GetExperimentCountsFunc not implemented")
}

func (m *MockEventRepository) GetOverallMetrics(ctx context.Context, start, end time.Time) (models.OverallMetrics, error) {
	if m.GetOverallMetricsFunc != nil {
		return m.GetOverallMetricsFunc(ctx, start, end)
	}
	return models.OverallMetrics{}, errors.New("GetOverallMetricsFunc not implemented")
}

func (m *MockEventRepository) GetFunnelCounts(ctx context.Context, start, end time.Time, stages []string) (map[string]int64, error) {
	if m.GetFunnelCountsFunc != nil {
		return m.GetFunnelCountsFunc(ctx, start, end, stages)
	}
	return nil, errors.New("GetFunnelCountsFunc not implemented")
}

func (m *MockEventRepository) GetSegmentMetrics(ctx context.Context, start, end time.Time, dim models.Dimension) ([]models.SegmentRow, error) {
	if m.GetSegmentMetricsFunc != nil {
		return m.GetSegmentMetricsFunc(ctx, start, end, dim)
	}
	return nil, errors.New("GetSegmentMetricsFunc not implemented")
}

func (m *MockEventRepository) GetRevenueInPeriod(ctx context.Context, start, end time.Time, isWeekly bool) ([]models.RevenueRow, error) {
	if m.GetRevenueInPeriodFunc != nil {
		return m.GetRevenueInPeriodFunc(ctx, start, end, isWeekly)
	}
	return nil, errors.New("GetRevenueInPeriodFunc not implemented")
}

func (m *MockEventRepository) GetCohorts(ctx context.Context, start, end time.Time) ([]models.CohortRow, error) {
	if m.GetCohortsFunc != nil {
		return m.GetCohortsFunc(ctx, start, end)
	}
	return nil, errors.New("GetCohortsFunc not implemented")
}
