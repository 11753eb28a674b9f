package pattern

import (
	"math"
	"strings"
	"time"
)

// Type classifies a behavior pattern.
type Type string

const (
	TypeSequential Type = "sequential"
	TypeCyclical   Type = "cyclical"
	TypeContextual Type = "contextual"
	TypePreference Type = "preference"
	TypeTemporal   Type = "temporal"
)

// Operator compares a context attribute against a condition value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
)

// equalsTolerance is the slack for numeric equality conditions. Derived
// context keys (hour_of_day, day_of_week) are integral, so a tight
// tolerance suffices.
const equalsTolerance = 1e-9

// Condition is one predicate over the live context. Numeric operators read
// Value against the numeric context map; Contains (and Equals with a
// non-empty Label) read the label map.
type Condition struct {
	Attribute string   `json:"attribute"`
	Op        Operator `json:"op"`
	Value     float64  `json:"value,omitempty"`
	Label     string   `json:"label,omitempty"`
}

// holds evaluates the condition against a context.
func (c Condition) holds(values map[string]float64, labels map[string]string) bool {
	switch c.Op {
	case OpEquals:
		if c.Label != "" {
			return labels[c.Attribute] == c.Label
		}
		v, ok := values[c.Attribute]
		return ok && math.Abs(v-c.Value) <= equalsTolerance
	case OpGreaterThan:
		v, ok := values[c.Attribute]
		return ok && v > c.Value
	case OpLessThan:
		v, ok := values[c.Attribute]
		return ok && v < c.Value
	case OpContains:
		return strings.Contains(labels[c.Attribute], c.Label)
	default:
		return false
	}
}

// SuccessIndicator names an outcome metric and the level that counts as
// success for this pattern.
type SuccessIndicator struct {
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
}

// Pattern is one mined recurring behavior.
//
// Frequency and Confidence stay in [0, 1]. SuggestedAction is the action
// label this pattern predicts when it matches (the third action of a
// sequential trigram, the modal action of a cyclical bucket, ...); it feeds
// the action predictor.
type Pattern struct {
	ID                 string             `json:"id"`
	Type               Type               `json:"type"`
	Description        string             `json:"description,omitempty"`
	Frequency          float64            `json:"frequency"`
	Confidence         float64            `json:"confidence"`
	Conditions         []Condition        `json:"conditions,omitempty"`
	PredictiveFeatures []string           `json:"predictive_features,omitempty"`
	SuccessIndicators  []SuccessIndicator `json:"success_indicators,omitempty"`
	SuggestedAction    string             `json:"suggested_action,omitempty"`
	LastObserved       time.Time          `json:"last_observed"`
}

// MatchesContext reports whether every condition holds. A pattern with no
// conditions matches any context.
func (p *Pattern) MatchesContext(values map[string]float64, labels map[string]string) bool {
	for _, c := range p.Conditions {
		if !c.holds(values, labels) {
			return false
		}
	}
	return true
}

// PredictionStrength scores how strongly this pattern predicts behavior in
// the given context: 0 for a non-match, otherwise
// frequency*confidence*(0.5 + 0.5*featurePresence) where featurePresence is
// the mean presence score of the predictive features found in the context
// (numeric features contribute min(1, |value|), label features 1), or 0
// when none are present.
func (p *Pattern) PredictionStrength(values map[string]float64, labels map[string]string) float64 {
	if !p.MatchesContext(values, labels) {
		return 0
	}

	presence := 0.0
	found := 0
	for _, f := range p.PredictiveFeatures {
		if v, ok := values[f]; ok {
			presence += math.Min(1, math.Abs(v))
			found++
		} else if _, ok := labels[f]; ok {
			presence += 1
			found++
		}
	}
	fp := 0.0
	if found > 0 {
		fp = presence / float64(found)
	}
	return p.Frequency * p.Confidence * (0.5 + 0.5*fp)
}

// Feedback rates for UpdateFromObservation.
const (
	frequencyEMARate  = 0.1
	confidenceReward  = 0.05
	confidencePenalty = 0.02
)

// UpdateFromObservation folds a live outcome into the pattern. Non-matching
// contexts are ignored. Frequency moves by EMA toward 1 on success and 0 on
// failure; confidence steps up or down and stays clamped.
// Returns whether the observation applied.
func (p *Pattern) UpdateFromObservation(values map[string]float64, labels map[string]string, success bool, at time.Time) bool {
	if !p.MatchesContext(values, labels) {
		return false
	}

	target := 0.0
	if success {
		target = 1.0
	}
	p.Frequency = clamp01(p.Frequency*(1-frequencyEMARate) + target*frequencyEMARate)

	if success {
		p.Confidence = clamp01(p.Confidence + confidenceReward)
	} else {
		p.Confidence = clamp01(p.Confidence - confidencePenalty)
	}
	p.LastObserved = at
	return true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
