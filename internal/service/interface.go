package service

import (
	"context"
	"time"

	"github.com/godilite/product-analytics/internal/repository/models"
)

// EventRepository defines the read-side queries the service needs.
type EventRepository interface {
	GetExperimentCounts(ctx context.Context, start, end time.Time) ([]models.GroupCounts, error)
	GetOverallMetrics(ctx context.Context, start, end time.Time) (models.OverallMetrics, error)
	GetFunnelCounts(ctx context.Context, start, end time.Time, stages []string) (map[string]int64, error)
	GetSegmentMetrics(ctx context.Context, start, end time.Time, dim models.Dimension) ([]models.SegmentRow, error)
	GetRevenueInPeriod(ctx context.Context, start, end time.Time, isWeekly bool) ([]models.RevenueRow, error)
	GetCohorts(ctx context.Context, start, end time.Time) ([]models.CohortRow, error)
}
