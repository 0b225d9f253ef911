package grpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 timestamps or bare dates. A bare end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

func numberField(req *structpb.Struct, name string) (float64, bool) {
	if req == nil {
		return 0, false
	}
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return n.NumberValue, true
}

// parseFeatures reads the "features" list. An absent or empty list means
// the built-in backlog.
func parseFeatures(req *structpb.Struct) ([]prioritization.Feature, error) {
	list := req.GetFields()["features"].GetListValue().GetValues()
	if len(list) == 0 {
		return prioritization.DefaultBacklog(), nil
	}

	features := make([]prioritization.Feature, len(list))
	for i, item := range list {
		f := item.GetStructValue()
		if f == nil {
			return nil, status.Errorf(codes.InvalidArgument, "features[%d] must be an object", i)
		}
		reach, _ := numberField(f, "reach")
		impact, _ := numberField(f, "impact")
		confidence, _ := numberField(f, "confidence")
		effort, _ := numberField(f, "effort")
		features[i] = prioritization.Feature{
			Name:       stringField(f, "name"),
			Reach:      reach,
			Impact:     impact,
			Confidence: confidence,
			Effort:     effort,
		}
	}
	return features, nil
}

func toStruct(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

func abTestFields(r service.ABTestReport) map[string]any {
	return map[string]any{
		"control": map[string]any{
			"sessions":    r.Control.Sessions,
			"conversions": r.Control.Conversions,
		},
		"treatment": map[string]any{
			"sessions":    r.Treatment.Sessions,
			"conversions": r.Treatment.Conversions,
		},
		"control_rate":              r.Result.ControlRate,
		"treatment_rate":            r.Result.TreatmentRate,
		"lift_percent":              r.Result.LiftPercent,
		"z_score":                   r.Result.ZScore,
		"p_value":                   r.Result.PValue,
		"statistically_significant": r.Result.Significant,
		"alpha":                     r.Result.Alpha,
		"pooled_rate":               r.Result.PooledRate,
		"standard_error":            r.Result.StandardError,
		"confidence_interval": map[string]any{
			"level": r.Interval.Level,
			"lower": r.Interval.Lower,
			"upper": r.Interval.Upper,
		},
	}
}

func metricsFields(m service.ConversionMetrics) map[string]any {
	return map[string]any{
		"total_sessions":      m.TotalSessions,
		"total_users":         m.TotalUsers,
		"conversions":         m.Conversions,
		"conversion_rate":     m.ConversionRate,
		"total_revenue":       m.TotalRevenue,
		"average_order_value": m.AverageOrderValue,
	}
}

func funnelFields(stages []service.FunnelStage) map[string]any {
	out := make([]any, len(stages))
	for i, st := range stages {
		out[i] = map[string]any{
			"stage":           st.Stage,
			"sessions":        st.Sessions,
			"conversion_rate": st.ConversionRate,
			"drop_off":        st.DropOff,
		}
	}
	return map[string]any{"stages": out}
}

func segmentFields(dimension string, segs []service.SegmentMetrics) map[string]any {
	out := make([]any, len(segs))
	for i, sg := range segs {
		out[i] = map[string]any{
			"segment":         sg.Segment,
			"sessions":        sg.Sessions,
			"conversions":     sg.Conversions,
			"revenue":         sg.Revenue,
			"conversion_rate": sg.ConversionRate,
		}
	}
	return map[string]any{"dimension": dimension, "segments": out}
}

func revenueFields(points []service.RevenuePoint) map[string]any {
	out := make([]any, len(points))
	for i, p := range points {
		out[i] = map[string]any{
			"period":  p.Period,
			"revenue": p.Revenue,
		}
	}
	return map[string]any{"points": out}
}

func cohortFields(cohorts []service.Cohort) map[string]any {
	out := make([]any, len(cohorts))
	for i, c := range cohorts {
		out[i] = map[string]any{
			"cohort_date": c.CohortDate,
			"users":       c.Users,
			"revenue":     c.Revenue,
		}
	}
	return map[string]any{"cohorts": out}
}

func rateChangeFields(c service.ConversionRateChange) map[string]any {
	return map[string]any{
		"current_rate":      c.CurrentRate,
		"previous_rate":     c.PreviousRate,
		"change_percentage": c.ChangePercentage,
	}
}

func featureFields(scores []prioritization.FeatureScore) map[string]any {
	out := make([]any, len(scores))
	for i, s := range scores {
		out[i] = map[string]any{
			"name":       s.Name,
			"reach":      s.Reach,
			"impact":     s.Impact,
			"confidence": s.Confidence,
			"effort":     s.Effort,
			"rice_score": s.Score,
		}
	}
	return map[string]any{"features": out}
}
