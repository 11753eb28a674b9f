package preference

import (
	"time"
)

// Attribute names for learned preference weights. The key set is fixed:
// every model carries exactly these six weights.
const (
	AttrResponseLength   = "response_length"
	AttrTechnicalDetail  = "technical_detail"
	AttrInteractionStyle = "interaction_style"
	AttrContentType      = "content_type"
	AttrExplanationDepth = "explanation_depth"
	AttrEngagementLevel  = "engagement_level"
)

// WeightKeys lists the fixed attribute set in stable order.
var WeightKeys = []string{
	AttrResponseLength,
	AttrTechnicalDetail,
	AttrInteractionStyle,
	AttrContentType,
	AttrExplanationDepth,
	AttrEngagementLevel,
}

// Bucket identifies a temporal preference bucket.
type Bucket string

const (
	BucketMorning   Bucket = "morning"   // before 12h
	BucketAfternoon Bucket = "afternoon" // 12h-18h
	BucketEvening   Bucket = "evening"   // 18h onward
	BucketWeekend   Bucket = "weekend"   // overrides the weekday buckets
)

// BucketOf returns the temporal bucket for a timestamp. Weekend takes
// precedence over the time-of-day split.
func BucketOf(t time.Time) Bucket {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return BucketWeekend
	}
	switch h := t.Hour(); {
	case h < 12:
		return BucketMorning
	case h < 18:
		return BucketAfternoon
	default:
		return BucketEvening
	}
}

// TemporalPreference records how an attribute shifts within a time bucket.
type TemporalPreference struct {
	Attribute  string  `json:"attribute"`
	Bucket     Bucket  `json:"bucket"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Interval is a confidence interval for one attribute weight.
// Invariant: 0 <= Lower <= Upper <= 1.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies within the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lower && v <= iv.Upper
}

// Model is a replaceable preference snapshot. It is recomputed wholesale by
// Learner.Learn; only Update mutates it in place.
type Model struct {
	// Embedding is a compressed representation of the user's behavioral
	// feature distribution (dimension set by the learner, default 128).
	Embedding []float64 `json:"embedding"`

	// Weights maps attribute -> learned preference weight in [0, 1].
	Weights map[string]float64 `json:"weights"`

	// Temporal holds per-bucket attribute shifts.
	Temporal []TemporalPreference `json:"temporal,omitempty"`

	// ContextModifiers maps context attribute -> correlation modifier in
	// [-0.5, 0.5], derived from Pearson correlation with satisfaction.
	ContextModifiers map[string]float64 `json:"context_modifiers,omitempty"`

	// Intervals maps attribute -> confidence interval around its weight.
	Intervals map[string]Interval `json:"intervals"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NeutralModel returns the documented default for users with no history:
// every weight 0.5 with a wide (0.3, 0.7) band, zero embedding, no temporal
// or contextual structure.
func NeutralModel(embeddingDim int) *Model {
	m := &Model{
		Embedding:        make([]float64, embeddingDim),
		Weights:          make(map[string]float64, len(WeightKeys)),
		ContextModifiers: make(map[string]float64),
		Intervals:        make(map[string]Interval, len(WeightKeys)),
		UpdatedAt:        time.Now(),
	}
	for _, k := range WeightKeys {
		m.Weights[k] = 0.5
		m.Intervals[k] = Interval{Lower: 0.3, Upper: 0.7}
	}
	return m
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
