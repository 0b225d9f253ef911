package models

import "time"

// TimestampLayout is how event timestamps are stored. Fixed width, so
// string comparison in SQL orders the same as time comparison.
const TimestampLayout = "2006-01-02T15:04:05Z"

type Event struct {
	SessionID       string
	UserID          string
	EventType       string
	Conversion      int
	Revenue         float64
	Device          string
	Channel         string
	ExperimentGroup string
	Timestamp       time.Time
}

type GroupCounts struct {
	Group       string
	Sessions    int64
	Conversions int64
}

type OverallMetrics struct {
	Rows              int64
	Sessions          int64
	Users             int64
	ConvertedSessions int64
	Revenue           float64
	AvgOrderValue     float64
}

// Dimension is a column events can be segmented by.
type Dimension string

const (
	DimensionDevice  Dimension = "device"
	DimensionChannel Dimension = "channel"
)

func (d Dimension) Valid() bool {
	return d == DimensionDevice || d == DimensionChannel
}

type SegmentRow struct {
	Segment     string
	Sessions    int64
	Conversions int64
	Revenue     float64
}

type RevenueRow struct {
	Period  string
	Revenue float64
}

type CohortRow struct {
	CohortDate string
	Users      int64
	Revenue    float64
}
