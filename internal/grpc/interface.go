package grpc

import (
	"context"
	"time"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/repository/models"
	"github.com/godilite/product-analytics/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type AnalyticsService interface {
	RunABTest(ctx context.Context, start, end time.Time, alpha float64) (service.ABTestReport, error)
	GetConversionMetrics(ctx context.Context, start, end time.Time) (service.ConversionMetrics, error)
	GetFunnel(ctx context.Context, start, end time.Time) ([]service.FunnelStage, error)
	GetSegmentMetrics(ctx context.Context, start, end time.Time, dim models.Dimension) ([]service.SegmentMetrics, error)
	GetRevenueTrend(ctx context.Context, start, end time.Time) ([]service.RevenuePoint, error)
	GetCohorts(ctx context.Context, start, end time.Time) ([]service.Cohort, error)
	GetConversionRateChange(ctx context.Context, start, end time.Time) (service.ConversionRateChange, error)
	PrioritizeFeatures(ctx context.Context, features []prioritization.Feature) ([]prioritization.FeatureScore, error)
}
