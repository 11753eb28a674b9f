package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_Update_EMA(t *testing.T) {
	m := NeutralModel(4)

	// Half confidence blends halfway between stored and observed.
	m.Update(AttrTechnicalDetail, 0.9, 0.5)
	assert.InDelta(t, 0.7, m.Weights[AttrTechnicalDetail], 1e-9)

	// Full confidence replaces the stored value exactly.
	m.Update(AttrTechnicalDetail, 0.25, 1.0)
	assert.Equal(t, 0.25, m.Weights[AttrTechnicalDetail])
}

func TestModel_Update_InsertsUnknownKey(t *testing.T) {
	m := NeutralModel(4)
	m.Update("citation_density", 0.8, 0.3)
	assert.Equal(t, 0.8, m.Weights["citation_density"])
}

func TestModel_Update_RefreshesTimestamp(t *testing.T) {
	m := NeutralModel(4)
	m.UpdatedAt = time.Time{}
	m.Update(AttrContentType, 0.6, 0.2)
	assert.False(t, m.UpdatedAt.IsZero())
}

func TestModel_ForContext_ModifierScaling(t *testing.T) {
	m := NeutralModel(4)
	m.ContextModifiers["task_complexity"] = 0.4

	// Weekday morning, no temporal preferences: only the modifier applies.
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	adjusted := m.ForContext(map[string]float64{"task_complexity": 1.0}, at)

	// 0.5 * (1 + 0.4*1.0) = 0.7
	assert.InDelta(t, 0.7, adjusted[AttrExplanationDepth], 1e-9)
	for k, v := range adjusted {
		assert.GreaterOrEqual(t, v, 0.0, k)
		assert.LessOrEqual(t, v, 1.0, k)
	}
}

func TestModel_ForContext_TemporalBlend(t *testing.T) {
	m := NeutralModel(4)
	m.Temporal = []TemporalPreference{{
		Attribute:  AttrExplanationDepth,
		Bucket:     BucketMorning,
		Value:      0.9,
		Confidence: 0.5,
	}}

	morning := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)

	// base*(1-conf) + temporal*conf = 0.5*0.5 + 0.9*0.5 = 0.7
	got := m.ForContext(nil, morning)
	assert.InDelta(t, 0.7, got[AttrExplanationDepth], 1e-9)

	// Different bucket: untouched.
	got = m.ForContext(nil, evening)
	assert.InDelta(t, 0.5, got[AttrExplanationDepth], 1e-9)
}

func TestModel_ForContext_Clamped(t *testing.T) {
	m := NeutralModel(4)
	m.Weights[AttrEngagementLevel] = 0.95
	m.ContextModifiers["engagement_score"] = 0.5

	got := m.ForContext(map[string]float64{"engagement_score": 1.0}, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 1.0, got[AttrEngagementLevel])
}

func TestModel_Snapshot_Isolated(t *testing.T) {
	m := NeutralModel(4)
	snap := m.Snapshot()
	snap[AttrContentType] = 0.0
	require.Equal(t, 0.5, m.Weights[AttrContentType])
}
