package preference

import (
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/fyrsmithlabs/persona/internal/interaction"
)

const (
	// DefaultEmbeddingDim is the default embedding width.
	DefaultEmbeddingDim = 128

	// minBucketObservations is the minimum interactions a temporal bucket
	// needs before it emits a preference.
	minBucketObservations = 3

	// minContextObservations is the minimum interactions a context key must
	// appear in before it gets a correlation modifier.
	minContextObservations = 3

	// modifierScale damps raw Pearson correlations into modifiers.
	modifierScale = 0.5
)

// Learner derives preference models from interaction batches.
type Learner struct {
	embeddingDim int
	logger       *zap.Logger
}

// NewLearner creates a learner. embeddingDim <= 0 selects the default.
func NewLearner(embeddingDim int, logger *zap.Logger) *Learner {
	if embeddingDim <= 0 {
		embeddingDim = DefaultEmbeddingDim
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{embeddingDim: embeddingDim, logger: logger}
}

// Learn rebuilds a preference model from the batch. It is a pure function of
// its input: no learner state is read or written. An empty batch returns the
// neutral default model.
func (l *Learner) Learn(interactions []interaction.Interaction) *Model {
	if len(interactions) == 0 {
		return NeutralModel(l.embeddingDim)
	}

	m := &Model{
		Embedding:        embed(extractFeatures(interactions), l.embeddingDim),
		Weights:          learnWeights(interactions),
		Temporal:         learnTemporal(interactions),
		ContextModifiers: learnContextModifiers(interactions),
		Intervals:        make(map[string]Interval, len(WeightKeys)),
		UpdatedAt:        time.Now(),
	}
	for _, k := range WeightKeys {
		m.Intervals[k] = intervalFor(m.Weights[k])
	}

	l.logger.Debug("learned preference model",
		zap.Int("interactions", len(interactions)),
		zap.Int("temporal_buckets", len(m.Temporal)),
		zap.Int("context_modifiers", len(m.ContextModifiers)))
	return m
}

// learnWeights computes the six fixed attribute weights, each clamped to [0, 1].
func learnWeights(interactions []interaction.Interaction) map[string]float64 {
	n := float64(len(interactions))

	best := interactions[0]
	contentTypes := make(map[string]struct{})
	var sumSat, sumEng, sumTechnical, sumStyle float64
	for _, i := range interactions {
		if i.Satisfaction > best.Satisfaction {
			best = i
		}
		sumSat += i.Satisfaction
		sumEng += i.Engagement
		sumTechnical += contentField(i, func(c *interaction.ContentDescriptor) float64 { return c.TechnicalLevel }) * i.Satisfaction
		sumStyle += contentField(i, func(c *interaction.ContentDescriptor) float64 {
			return (c.Formality + c.Friendliness) / 2
		}) * i.Satisfaction
		if i.Content != nil && i.Content.ContentType != "" {
			contentTypes[i.Content.ContentType] = struct{}{}
		}
	}

	diversity := float64(len(contentTypes)) / n

	return map[string]float64{
		AttrResponseLength:   clamp01(normalizedLength(best)),
		AttrTechnicalDetail:  clamp01(sumTechnical / n),
		AttrInteractionStyle: clamp01(sumStyle / n),
		AttrContentType:      clamp01(diversity * (sumSat / n)),
		AttrExplanationDepth: clamp01(sumSat / n),
		AttrEngagementLevel:  clamp01(sumEng / n),
	}
}

// normalizedLength is the length preference signal of a single interaction:
// the content descriptor's length when present, otherwise the duration
// normalized by the 30-minute ceiling.
func normalizedLength(i interaction.Interaction) float64 {
	if i.Content != nil && i.Content.Length > 0 {
		return i.Content.Length
	}
	return normDuration(i.Duration, durationCeiling)
}

// contentField reads a descriptor field, treating absent descriptors as the
// neutral 0.5.
func contentField(i interaction.Interaction, get func(*interaction.ContentDescriptor) float64) float64 {
	if i.Content == nil {
		return 0.5
	}
	return get(i.Content)
}

// learnTemporal emits a preference per time bucket with at least
// minBucketObservations interactions: value is the bucket's mean
// satisfaction, confidence grows with observation count.
//
// Buckets shift the explanation-depth attribute, whose base weight is the
// overall mean satisfaction; the per-bucket value is the same statistic
// restricted to that bucket.
func learnTemporal(interactions []interaction.Interaction) []TemporalPreference {
	sums := make(map[Bucket]float64)
	counts := make(map[Bucket]int)
	for _, i := range interactions {
		b := BucketOf(i.Timestamp)
		sums[b] += i.Satisfaction
		counts[b]++
	}

	var prefs []TemporalPreference
	for _, b := range []Bucket{BucketMorning, BucketAfternoon, BucketEvening, BucketWeekend} {
		c := counts[b]
		if c < minBucketObservations {
			continue
		}
		prefs = append(prefs, TemporalPreference{
			Attribute:  AttrExplanationDepth,
			Bucket:     b,
			Value:      clamp01(sums[b] / float64(c)),
			Confidence: math.Min(1, float64(c)/10),
		})
	}
	return prefs
}

// learnContextModifiers correlates each context attribute against
// satisfaction and stores half the Pearson coefficient. Keys present in
// fewer than minContextObservations interactions, and keys whose correlation
// is undefined (zero variance), are skipped.
func learnContextModifiers(interactions []interaction.Interaction) map[string]float64 {
	byKey := make(map[string][][2]float64)
	for _, i := range interactions {
		for k, v := range i.Context {
			byKey[k] = append(byKey[k], [2]float64{v, i.Satisfaction})
		}
	}

	modifiers := make(map[string]float64)
	for k, pairs := range byKey {
		if len(pairs) < minContextObservations {
			continue
		}
		xs := make([]float64, len(pairs))
		ys := make([]float64, len(pairs))
		for i, p := range pairs {
			xs[i] = p[0]
			ys[i] = p[1]
		}
		corr := stat.Correlation(xs, ys, nil)
		if math.IsNaN(corr) {
			continue
		}
		modifiers[k] = corr * modifierScale
	}
	return modifiers
}

// intervalFor builds the confidence interval around a weight: half-width
// 0.1, widened to 0.15 near the extremes, clamped to [0, 1].
func intervalFor(w float64) Interval {
	half := 0.1
	if w < 0.2 || w > 0.8 {
		half = 0.15
	}
	return Interval{Lower: clamp01(w - half), Upper: clamp01(w + half)}
}
