// Package stats holds the hypothesis test behind A/B experiment reporting.
//
// Every function here is pure: no logging, no I/O, and no shared state.
// Counts are assumed to come from independent sessions (Bernoulli trials);
// the test does not check that assumption.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance threshold used by RunZTest.
const DefaultAlpha = 0.05

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDivisionByZero   = errors.New("division by zero")
)

// TestResult is the outcome of a two-proportion z-test.
type TestResult struct {
	ControlRate   float64 `json:"control_rate"`
	TreatmentRate float64 `json:"treatment_rate"`
	LiftPercent   float64 `json:"lift_percent"`
	ZScore        float64 `json:"z_score"`
	PValue        float64 `json:"p_value"`
	Significant   bool    `json:"significant"`

	Alpha         float64 `json:"alpha"`
	PooledRate    float64 `json:"pooled_rate"`
	StandardError float64 `json:"standard_error"`
}

// RunZTest runs TwoProportionZTest at DefaultAlpha.
func RunZTest(controlSuccesses, controlTotal, treatmentSuccesses, treatmentTotal int64) (TestResult, error) {
	return TwoProportionZTest(controlSuccesses, controlTotal, treatmentSuccesses, treatmentTotal, DefaultAlpha)
}

// TwoProportionZTest decides whether the treatment conversion rate differs
// from the control rate, using the pooled-proportion standard error and a
// two-sided p-value.
//
// It returns either a fully populated result or an error wrapping one of
// ErrInsufficientData, ErrInvalidInput or ErrDivisionByZero. It never
// returns NaN or infinite values.
func TwoProportionZTest(controlSuccesses, controlTotal, treatmentSuccesses, treatmentTotal int64, alpha float64) (TestResult, error) {
	if controlSuccesses < 0 || controlTotal < 0 || treatmentSuccesses < 0 || treatmentTotal < 0 {
		return TestResult{}, fmt.Errorf("%w: counts must be non-negative", ErrInvalidInput)
	}
	if controlTotal == 0 {
		return TestResult{}, fmt.Errorf("%w: control group has no samples", ErrInsufficientData)
	}
	if treatmentTotal == 0 {
		return TestResult{}, fmt.Errorf("%w: treatment group has no samples", ErrInsufficientData)
	}
	if controlSuccesses > controlTotal {
		return TestResult{}, fmt.Errorf("%w: control successes %d exceed total %d", ErrInvalidInput, controlSuccesses, controlTotal)
	}
	if treatmentSuccesses > treatmentTotal {
		return TestResult{}, fmt.Errorf("%w: treatment successes %d exceed total %d", ErrInvalidInput, treatmentSuccesses, treatmentTotal)
	}
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return TestResult{}, fmt.Errorf("%w: alpha %v must be in (0, 1)", ErrInvalidInput, alpha)
	}

	cs, ct := float64(controlSuccesses), float64(controlTotal)
	ts, tt := float64(treatmentSuccesses), float64(treatmentTotal)

	pControl := cs / ct
	pTreatment := ts / tt
	pPooled := (cs + ts) / (ct + tt)

	se := math.Sqrt(pPooled * (1 - pPooled) * (1/ct + 1/tt))
	if se == 0 {
		return TestResult{}, fmt.Errorf("%w: pooled standard error is zero (pooled rate %v)", ErrDivisionByZero, pPooled)
	}
	if pControl == 0 {
		return TestResult{}, fmt.Errorf("%w: control rate is zero, lift is undefined", ErrDivisionByZero)
	}

	z := (pTreatment - pControl) / se
	p := twoSidedPValue(z)

	return TestResult{
		ControlRate:   pControl,
		TreatmentRate: pTreatment,
		LiftPercent:   (pTreatment - pControl) / pControl * 100,
		ZScore:        z,
		PValue:        p,
		Significant:   p < alpha,
		Alpha:         alpha,
		PooledRate:    pPooled,
		StandardError: se,
	}, nil
}

// twoSidedPValue returns 2*(1-Φ(|z|)), evaluated as 2*Φ(-|z|) so the tail
// comes from erfc and small p-values keep their precision.
func twoSidedPValue(z float64) float64 {
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	return math.Min(1, math.Max(0, p))
}

// Interval is a confidence interval on the absolute rate difference
// (treatment minus control).
type Interval struct {
	Level float64 `json:"level"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ConfidenceInterval returns the unpooled Wald interval for the rate
// difference behind r. The sample sizes are needed because TestResult only
// carries rates.
func ConfidenceInterval(r TestResult, controlTotal, treatmentTotal int64, level float64) (Interval, error) {
	if math.IsNaN(level) || level <= 0 || level >= 1 {
		return Interval{}, fmt.Errorf("%w: confidence level %v must be in (0, 1)", ErrInvalidInput, level)
	}
	if controlTotal <= 0 || treatmentTotal <= 0 {
		return Interval{}, fmt.Errorf("%w: both groups need samples", ErrInsufficientData)
	}

	pc, pt := r.ControlRate, r.TreatmentRate
	se := math.Sqrt(pc*(1-pc)/float64(controlTotal) + pt*(1-pt)/float64(treatmentTotal))
	crit := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	diff := pt - pc

	return Interval{
		Level: level,
		Lower: diff - crit*se,
		Upper: diff + crit*se,
	}, nil
}
