package prioritization

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Impact weights accepted by the RICE framework.
const (
	ImpactMinimal = 0.25
	ImpactLow     = 0.5
	ImpactMedium  = 1
	ImpactHigh    = 2
	ImpactMassive = 3
)

var ErrInvalidFeature = errors.New("invalid feature")

var validate = validator.New()

var allowedImpacts = []float64{ImpactMinimal, ImpactLow, ImpactMedium, ImpactHigh, ImpactMassive}

// Feature is a backlog item before scoring.
// Reach is users per period, Confidence a percentage, Effort person-months.
type Feature struct {
	Name       string  `json:"name" validate:"required"`
	Reach      float64 `json:"reach" validate:"gt=0"`
	Impact     float64 `json:"impact" validate:"gt=0"`
	Confidence float64 `json:"confidence" validate:"gt=0,lte=100"`
	Effort     float64 `json:"effort" validate:"gt=0"`
}

// FeatureScore is a Feature with its RICE score, rounded to 2 decimals.
type FeatureScore struct {
	Feature
	Score float64 `json:"rice_score"`
}

// Score computes reach*impact*(confidence/100)/effort.
func Score(f Feature) (FeatureScore, error) {
	if err := validate.Struct(f); err != nil {
		return FeatureScore{}, fmt.Errorf("%w: %q: %v", ErrInvalidFeature, f.Name, err)
	}
	if !isAllowedImpact(f.Impact) {
		return FeatureScore{}, fmt.Errorf("%w: %q: impact %v must be one of %v", ErrInvalidFeature, f.Name, f.Impact, allowedImpacts)
	}

	raw := f.Reach * f.Impact * (f.Confidence / 100) / f.Effort
	return FeatureScore{
		Feature: f,
		Score:   math.Round(raw*100) / 100,
	}, nil
}

func isAllowedImpact(v float64) bool {
	for _, a := range allowedImpacts {
		if v == a {
			return true
		}
	}
	return false
}

// Rank scores every feature and orders them by score, highest first.
// Ties keep their input order.
func Rank(features []Feature) ([]FeatureScore, error) {
	out := make([]FeatureScore, 0, len(features))
	for _, f := range features {
		s, err := Score(f)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// Prioritizer accumulates a backlog. Safe for concurrent use.
type Prioritizer struct {
	mu       sync.Mutex
	features []FeatureScore
}

// NewPrioritizer returns an empty backlog.
func NewPrioritizer() *Prioritizer {
	return &Prioritizer{}
}

// Add scores and records a feature.
func (p *Prioritizer) Add(name string, reach, impact, confidence, effort float64) (FeatureScore, error) {
	s, err := Score(Feature{
		Name:       name,
		Reach:      reach,
		Impact:     impact,
		Confidence: confidence,
		Effort:     effort,
	})
	if err != nil {
		return FeatureScore{}, err
	}

	p.mu.Lock()
	p.features = append(p.features, s)
	p.mu.Unlock()
	return s, nil
}

// Prioritized returns a sorted copy of the backlog.
func (p *Prioritizer) Prioritized() []FeatureScore {
	p.mu.Lock()
	out := make([]FeatureScore, len(p.features))
	copy(out, p.features)
	p.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// DefaultBacklog is the sample e-commerce backlog shipped with the CLI.
func DefaultBacklog() []Feature {
	return []Feature{
		{Name: "Personalized Recommendations", Reach: 10000, Impact: ImpactMassive, Confidence: 80, Effort: 4},
		{Name: "One-Click Checkout", Reach: 8000, Impact: ImpactHigh, Confidence: 90, Effort: 2},
		{Name: "Loyalty Program", Reach: 15000, Impact: ImpactHigh, Confidence: 70, Effort: 6},
		{Name: "Mobile App Push Notifications", Reach: 12000, Impact: ImpactMedium, Confidence: 85, Effort: 3},
		{Name: "Advanced Search Filters", Reach: 5000, Impact: ImpactMedium, Confidence: 80, Effort: 2},
		{Name: "Social Media Integration", Reach: 20000, Impact: ImpactLow, Confidence: 60, Effort: 5},
	}
}
