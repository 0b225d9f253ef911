package grpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	pb "github.com/godilite/product-analytics/api/v1"
	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/repository/models"
	"github.com/godilite/product-analytics/internal/service"
	"github.com/godilite/product-analytics/internal/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
)

type CacheKeyType string

// CacheKeyPrefix is shared by every handler cache key.
const CacheKeyPrefix = "grpc:analytics:"

const (
	cacheKeyABTest     CacheKeyType = CacheKeyPrefix + "ab_test"
	cacheKeyMetrics    CacheKeyType = CacheKeyPrefix + "conversion_metrics"
	cacheKeyFunnel     CacheKeyType = CacheKeyPrefix + "funnel"
	cacheKeySegments   CacheKeyType = CacheKeyPrefix + "segments"
	cacheKeyRevenue    CacheKeyType = CacheKeyPrefix + "revenue_trend"
	cacheKeyCohorts    CacheKeyType = CacheKeyPrefix + "cohorts"
	cacheKeyRateChange CacheKeyType = CacheKeyPrefix + "conversion_rate_change"
)

type GRPCHandlers struct {
	pb.UnimplementedProductAnalyticsServer
	analytics    AnalyticsService
	cache        Cacher
	logger       *zap.Logger
	sfGroup      singleflight.Group
	cacheTTL     time.Duration
	defaultAlpha float64
}

// NewGRPCHandlers initializes the gRPC handlers. cache may be nil, in which
// case every request goes to the service. An alpha outside (0, 1) falls
// back to stats.DefaultAlpha.
func NewGRPCHandlers(analytics AnalyticsService, cache Cacher, logger *zap.Logger, ttl time.Duration, alpha float64) *GRPCHandlers {
	if analytics == nil {
		panic("nil AnalyticsService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	if !(alpha > 0 && alpha < 1) {
		alpha = stats.DefaultAlpha
	}
	return &GRPCHandlers{
		analytics:    analytics,
		cache:        cache,
		logger:       logger.Named("grpc-handler"),
		cacheTTL:     ttl,
		defaultAlpha: alpha,
	}
}

// InvalidateCache drops every cached response. It is called after the
// event store is reloaded.
func (s *GRPCHandlers) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.DeletePrefix(ctx, CacheKeyPrefix)
	if err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	s.logger.Info("cache invalidated", zap.Int64("keys", n))
	return nil
}

func (s *GRPCHandlers) parseAndValidate(req *structpb.Struct) (start, end time.Time, err error) {
	rawStart, rawEnd := stringField(req, "start_date"), stringField(req, "end_date")
	if rawStart == "" || rawEnd == "" {
		err = status.Error(codes.InvalidArgument, "start_date and end_date are required")
		return
	}

	if start, err = parseDate(rawStart, false); err != nil {
		err = status.Errorf(codes.InvalidArgument, "start_date: %v", err)
		return
	}
	if end, err = parseDate(rawEnd, true); err != nil {
		err = status.Errorf(codes.InvalidArgument, "end_date: %v", err)
		return
	}

	if end.Before(start) {
		err = status.Error(codes.InvalidArgument, "end date must be after start date")
		return
	}

	return
}

func normalizeKey(prefix CacheKeyType, start, end time.Time, parts ...string) string {
	key := fmt.Sprintf("%s:%s:%s", prefix, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrNoEvents):
		s.logger.Info("no events found", zap.String("op", op))
		return status.Error(codes.NotFound, "no events found for the given period")
	case errors.Is(err, stats.ErrInsufficientData), errors.Is(err, stats.ErrDivisionByZero):
		s.logger.Info("test not computable", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, stats.ErrInvalidInput),
		errors.Is(err, prioritization.ErrInvalidFeature),
		errors.Is(err, service.ErrInvalidDimension):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) RunABTest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	alpha := s.defaultAlpha
	if a, ok := numberField(req, "alpha"); ok {
		alpha = a
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyABTest, start, end, strconv.FormatFloat(alpha, 'g', -1, 64))

	report, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.ABTestReport, error) {
		return s.analytics.RunABTest(fetchCtx, start, end, alpha)
	})
	if err != nil {
		return nil, s.handleError(ctx, "RunABTest", err)
	}

	return toStruct(abTestFields(report))
}

func (s *GRPCHandlers) GetConversionMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyMetrics, start, end)

	metrics, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.ConversionMetrics, error) {
		return s.analytics.GetConversionMetrics(fetchCtx, start, end)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetConversionMetrics", err)
	}

	return toStruct(metricsFields(metrics))
}

func (s *GRPCHandlers) GetFunnel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyFunnel, start, end)

	stages, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) ([]service.FunnelStage, error) {
		return s.analytics.GetFunnel(fetchCtx, start, end)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetFunnel", err)
	}

	return toStruct(funnelFields(stages))
}

func (s *GRPCHandlers) GetSegmentMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	dim := models.Dimension(stringField(req, "dimension"))
	if dim == "" {
		dim = models.DimensionDevice
	}
	if !dim.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "dimension must be %q or %q", models.DimensionDevice, models.DimensionChannel)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeySegments, start, end, string(dim))

	segs, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) ([]service.SegmentMetrics, error) {
		return s.analytics.GetSegmentMetrics(fetchCtx, start, end, dim)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetSegmentMetrics", err)
	}

	return toStruct(segmentFields(string(dim), segs))
}

func (s *GRPCHandlers) GetRevenueTrend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyRevenue, start, end)

	points, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) ([]service.RevenuePoint, error) {
		return s.analytics.GetRevenueTrend(fetchCtx, start, end)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetRevenueTrend", err)
	}

	return toStruct(revenueFields(points))
}

func (s *GRPCHandlers) GetCohorts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyCohorts, start, end)

	cohorts, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) ([]service.Cohort, error) {
		return s.analytics.GetCohorts(fetchCtx, start, end)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetCohorts", err)
	}

	return toStruct(cohortFields(cohorts))
}

func (s *GRPCHandlers) GetConversionRateChange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyRateChange, start, end)

	change, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.ConversionRateChange, error) {
		return s.analytics.GetConversionRateChange(fetchCtx, start, end)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetConversionRateChange", err)
	}

	return toStruct(rateChangeFields(change))
}

// PrioritizeFeatures is not cached; the result depends only on the request.
func (s *GRPCHandlers) PrioritizeFeatures(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	features, err := parseFeatures(req)
	if err != nil {
		return nil, err
	}

	ranked, err := s.analytics.PrioritizeFeatures(ctx, features)
	if err != nil {
		return nil, s.handleError(ctx, "PrioritizeFeatures", err)
	}

	return toStruct(featureFields(ranked))
}
