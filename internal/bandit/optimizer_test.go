package bandit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_EmptyCandidates(t *testing.T) {
	o := NewOptimizer(0, nil)
	_, err := o.Select(nil, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSelect_SingleCandidate(t *testing.T) {
	o := NewOptimizer(0, nil)
	got, err := o.Select(nil, []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", got.ActionID)
}

func TestSelect_OptimisticDefaultAndBonus(t *testing.T) {
	o := NewOptimizer(0, nil)
	o.Update("b", nil, 0.9)

	sel, err := o.Select(nil, []string{"a", "b"})
	require.NoError(t, err)

	// A has never been pulled: optimistic default plus the larger bonus.
	var selA, selB *Selection
	o.mu.Lock()
	enc := encode(nil)
	selA = o.score("a", enc)
	selB = o.score("b", enc)
	o.mu.Unlock()

	assert.Equal(t, optimisticDefault, selA.ExpectedReward)
	assert.Equal(t, 0.1, selA.Confidence)
	assert.Greater(t, selA.ExplorationBonus, selB.ExplorationBonus,
		"untried arm must get a strictly larger exploration bonus")

	// With one 0.9 reward, B's historical side dominates the empty model.
	assert.InDelta(t, 0.1, selB.Confidence, 1e-9) // min(1, 1/10)
	assert.Equal(t, sel.ActionID, "a")
}

func TestSelect_TiesKeepEncounterOrder(t *testing.T) {
	o := NewOptimizer(0, nil)
	got, err := o.Select(nil, []string{"first", "second"})
	require.NoError(t, err)
	// Identical (untried) scores: the earlier candidate wins.
	assert.Equal(t, "first", got.ActionID)
}

func TestSelect_ExploitsLearnedRewards(t *testing.T) {
	o := NewOptimizer(0.01, nil) // near-greedy
	for i := 0; i < 10; i++ {
		o.Update("good", nil, 0.95)
		o.Update("bad", nil, 0.05)
	}

	got, err := o.Select(nil, []string{"bad", "good"})
	require.NoError(t, err)
	assert.Equal(t, "good", got.ActionID)
	assert.Equal(t, 1.0, got.Confidence) // min(1, 10/10)
}

func TestUpdate_GradientGatedByHistory(t *testing.T) {
	o := NewOptimizer(0, nil)
	ctx := map[string]float64{"task_complexity": 1.0}

	// First two updates only record history; weights stay zero.
	o.Update("a", ctx, 1.0)
	o.Update("a", ctx, 1.0)
	for _, w := range o.weights {
		assert.Zero(t, w)
	}

	// Third update takes a gradient step.
	o.Update("a", ctx, 1.0)
	moved := false
	for _, w := range o.weights {
		if w != 0 {
			moved = true
		}
	}
	assert.True(t, moved)
	assert.Equal(t, 3, o.Pulls("a"))
}

func TestUpdate_WeightsClamped(t *testing.T) {
	o := NewOptimizer(0, nil)
	ctx := map[string]float64{"task_complexity": 1.0}
	for i := 0; i < 10000; i++ {
		o.Update("a", ctx, 1.0)
	}
	for _, w := range o.weights {
		assert.GreaterOrEqual(t, w, -1.0)
		assert.LessOrEqual(t, w, 1.0)
	}
}

func TestEncode_SlotLayout(t *testing.T) {
	enc := encode(map[string]float64{
		"time_of_day":     12, // -> 0.5
		"task_complexity": 0.8,
	})
	require.Len(t, enc, ContextDim)
	assert.InDelta(t, 0.5, enc[0], 1e-9)
	assert.InDelta(t, 0.8, enc[1], 1e-9)
	// Absent attributes default to 0.5.
	for i := 2; i < ContextDim; i++ {
		assert.Equal(t, 0.5, enc[i])
	}
}

func TestBonus_ShrinksWithPulls(t *testing.T) {
	o := NewOptimizer(1.0, nil)
	for i := 0; i < 5; i++ {
		o.Update("a", nil, 0.5)
	}

	o.mu.Lock()
	enc := encode(nil)
	bonusA := o.score("a", enc).ExplorationBonus
	bonusNew := o.score("never", enc).ExplorationBonus
	o.mu.Unlock()

	assert.Greater(t, bonusNew, bonusA)
	expected := math.Sqrt(math.Log(6) / 6)
	assert.InDelta(t, expected, bonusA, 1e-9)
}
