package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/persona/internal/interaction"
	"github.com/fyrsmithlabs/persona/internal/pattern"
)

func TestPredict_NoPatterns_HighComplexity(t *testing.T) {
	p := NewPredictor(nil)
	got := p.Predict(map[string]float64{interaction.KeyTaskComplexity: 0.9}, nil, nil, nil)
	assert.Equal(t, ActionRequestHelp, got.ActionType)
	assert.Equal(t, 0.4, got.Confidence)
}

func TestPredict_NoPatterns_LowSatisfaction(t *testing.T) {
	h, _ := interaction.NewUserHistory("u1")
	h.Append(interaction.Interaction{Satisfaction: 0.1, Timestamp: time.Now()})
	h.Append(interaction.Interaction{Satisfaction: 0.2, Timestamp: time.Now()})

	got := NewPredictor(nil).Predict(map[string]float64{interaction.KeyTaskComplexity: 0.5}, nil, nil, h)
	assert.Equal(t, ActionChangeApproach, got.ActionType)
	assert.Equal(t, 0.35, got.Confidence)
}

func TestPredict_NoPatterns_Default(t *testing.T) {
	got := NewPredictor(nil).Predict(nil, nil, nil, nil)
	assert.Equal(t, ActionContinue, got.ActionType)
	assert.Equal(t, 0.3, got.Confidence)
	assert.NotEmpty(t, got.Reasoning)
}

func TestPredict_PatternVoting(t *testing.T) {
	patterns := []*pattern.Pattern{
		{
			Type:            pattern.TypeSequential,
			Frequency:       0.8,
			Confidence:      0.9,
			SuggestedAction: "save_reference",
		},
		{
			Type:            pattern.TypeTemporal,
			Frequency:       0.3,
			Confidence:      0.4,
			SuggestedAction: "change_approach",
		},
	}

	got := NewPredictor(nil).Predict(map[string]float64{}, nil, patterns, nil)

	// The stronger pattern wins; the weaker one ranks as an alternative.
	assert.Equal(t, "save_reference", got.ActionType)
	require.Len(t, got.Alternatives, 1)
	assert.Equal(t, "change_approach", got.Alternatives[0].ActionType)
	// Default probability for sequential patterns with no history.
	assert.InDelta(t, 0.6, got.Probability, 1e-9)
	// confidence = min(1, probability*matching/5) = 0.6*2/5
	assert.InDelta(t, 0.24, got.Confidence, 1e-9)
}

func TestPredict_HistoricalSuccessRate(t *testing.T) {
	h, _ := interaction.NewUserHistory("u1")
	now := time.Now()
	// Three past save_reference interactions, two satisfied.
	for i, sat := range []float64{0.9, 0.8, 0.2} {
		h.Append(interaction.Interaction{
			ActionType:   "save_reference",
			Timestamp:    now.Add(time.Duration(i) * time.Minute),
			Satisfaction: sat,
		})
	}

	patterns := []*pattern.Pattern{{
		Type:            pattern.TypeSequential,
		Frequency:       0.8,
		Confidence:      0.9,
		SuggestedAction: "save_reference",
	}}

	got := NewPredictor(nil).Predict(map[string]float64{}, nil, patterns, h)
	assert.InDelta(t, 2.0/3.0, got.Probability, 1e-9)
}

func TestPredict_NonMatchingPatternsFallThrough(t *testing.T) {
	patterns := []*pattern.Pattern{{
		Type:            pattern.TypeCyclical,
		Frequency:       0.9,
		Confidence:      0.9,
		SuggestedAction: "review_papers",
		Conditions: []pattern.Condition{
			{Attribute: interaction.KeyHourOfDay, Op: pattern.OpEquals, Value: 9},
		},
	}}

	got := NewPredictor(nil).Predict(map[string]float64{interaction.KeyHourOfDay: 22}, nil, patterns, nil)
	assert.Equal(t, ActionContinue, got.ActionType)
}

func TestPredict_AlternativesCappedAtThree(t *testing.T) {
	var patterns []*pattern.Pattern
	for _, a := range []string{"a1", "a2", "a3", "a4", "a5"} {
		patterns = append(patterns, &pattern.Pattern{
			Type:            pattern.TypeContextual,
			Frequency:       0.5,
			Confidence:      0.5,
			SuggestedAction: a,
		})
	}
	got := NewPredictor(nil).Predict(map[string]float64{}, nil, patterns, nil)
	assert.Len(t, got.Alternatives, 3)
}

func TestPredict_ProbabilitiesClamped(t *testing.T) {
	patterns := []*pattern.Pattern{{
		Type:            pattern.TypeSequential,
		Frequency:       1.0,
		Confidence:      1.0,
		SuggestedAction: "x",
	}}
	got := NewPredictor(nil).Predict(map[string]float64{}, nil, patterns, nil)
	assert.LessOrEqual(t, got.Probability, 1.0)
	assert.LessOrEqual(t, got.Confidence, 1.0)
	assert.GreaterOrEqual(t, got.Confidence, 0.0)
}
