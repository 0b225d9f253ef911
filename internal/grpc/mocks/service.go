package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/repository/models"
	"github.com/godilite/product-analytics/internal/service"
)

// MockAnalyticsService is a mock implementation of the AnalyticsService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockAnalyticsService struct {
	RunABTestFunc               func(ctx context.Context, start, end time.Time, alpha float64) (service.ABTestReport, error)
	GetConversionMetricsFunc    func(ctx context.Context, start, end time.Time) (service.ConversionMetrics, error)
	GetFunnelFunc               func(ctx context.Context, start, end time.Time) ([]service.FunnelStage, error)
	GetSegmentMetricsFunc       func(ctx context.Context, start, end time.Time, dim models.Dimension) ([]service.SegmentMetrics, error)
	GetRevenueTrendFunc         func(ctx context.Context, start, end time.Time) ([]service.RevenuePoint, error)
	GetCohortsFunc              func(ctx context.Context, start, end time.Time) ([]service.Cohort, error)
	GetConversionRateChangeFunc func(ctx context.Context, start, end time.Time) (service.ConversionRateChange, error)
	PrioritizeFeaturesFunc      func(ctx context.Context, features []prioritization.Feature) ([]prioritization.FeatureScore, error)
}

func (m *MockAnalyticsService) RunABTest(ctx context.Context, start, end time.Time, alpha float64) (service.ABTestReport, error) {
	if m.RunABTestFunc != nil {
		return m.RunABTestFunc(ctx, start, end, alpha)
	}
	return service.ABTestReport{}, errors.New("RunABTestFunc not implemented")
}

func (m *MockAnalyticsService) GetConversionMetrics(ctx context.Context, start, end time.Time) (service.ConversionMetrics, error) {
	if m.GetConversionMetricsFunc != nil {
		return m.GetConversionMetricsFunc(ctx, start, end)
	}
	return service.ConversionMetrics{}, errors.New("GetConversionMetricsFunc not implemented")
}

func (m *MockAnalyticsService) GetFunnel(ctx context.Context, start, end time.Time) ([]service.FunnelStage, error) {
	if m.GetFunnelFunc != nil {
		return m.GetFunnelFunc(ctx, start, end)
	}
	return nil, errors.New("GetFunnelFunc not implemented")
}

func (m *MockAnalyticsService) GetSegmentMetrics(ctx context.Context, start, end time.Time, dim models.Dimension) ([]service.SegmentMetrics, error) {
	if m.GetSegmentMetricsFunc != nil {
		return m.GetSegmentMetricsFunc(ctx, start, end, dim)
	}
	return nil, errors.New("GetSegmentMetricsFunc not implemented")
}

func (m *MockAnalyticsService) GetRevenueTrend(ctx context.Context, start, end time.Time) ([]service.RevenuePoint, error) {
	if m.GetRevenueTrendFunc != nil {
		return m.GetRevenueTrendFunc(ctx, start, end)
	}
	return nil, errors.New("GetRevenueTrendFunc not implemented")
}

func (m *MockAnalyticsService) GetCohorts(ctx context.Context, start, end time.Time) ([]service.Cohort, error) {
	if m.GetCohortsFunc != nil {
		return m.GetCohortsFunc(ctx, start, end)
	}
	return nil, errors.New("GetCohortsFunc not implemented")
}

func (m *MockAnalyticsService) GetConversionRateChange(ctx context.Context, start, end time.Time) (service.ConversionRateChange, error) {
	if m.GetConversionRateChangeFunc != nil {
		return m.GetConversionRateChangeFunc(ctx, start, end)
	}
	return service.ConversionRateChange{}, errors.New("GetConversionRateChangeFunc not implemented")
}

func (m *MockAnalyticsService) PrioritizeFeatures(ctx context.Context, features []prioritization.Feature) ([]prioritization.FeatureScore, error) {
	if m.PrioritizeFeaturesFunc != nil {
		return m.PrioritizeFeaturesFunc(ctx, features)
	}
	return nil, errors.New("PrioritizeFeaturesFunc not implemented")
}
