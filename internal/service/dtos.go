package service

import (
	"github.com/godilite/product-analytics/internal/repository/models"
	"github.com/godilite/product-analytics/internal/stats"
)

type ABTestReport struct {
	Control   models.GroupCounts
	Treatment models.GroupCounts
	Result    stats.TestResult
	Interval  stats.Interval
}

type ConversionMetrics struct {
	TotalSessions     int64
	TotalUsers        int64
	Conversions       int64
	ConversionRate    float64 // percent
	TotalRevenue      float64
	AverageOrderValue float64
}

type FunnelStage struct {
	Stage          string
	Sessions       int64
	ConversionRate float64 // percent of the first stage
	DropOff        float64 // percentage points lost since the previous stage
}

type SegmentMetrics struct {
	Segment        string
	Sessions       int64
	Conversions    int64
	Revenue        float64
	ConversionRate float64 // percent
}

type RevenuePoint struct {
	Period  string
	Revenue float64
}

type Cohort struct {
	CohortDate string
	Users      int64
	Revenue    float64
}

type ConversionRateChange struct {
	CurrentRate      float64
	PreviousRate     float64
	ChangePercentage float64
}
