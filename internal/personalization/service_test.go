package personalization

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/persona/internal/bandit"
	"github.com/fyrsmithlabs/persona/internal/interaction"
	"github.com/fyrsmithlabs/persona/internal/meta"
	"github.com/fyrsmithlabs/persona/internal/preference"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(nil, nil)
	require.NoError(t, err)
	return svc
}

func testHistory(t *testing.T, userID string, n int) *interaction.UserHistory {
	t.Helper()
	h, err := interaction.NewUserHistory(userID)
	require.NoError(t, err)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday
	actions := []string{"search", "read", "summarize"}
	for i := 0; i < n; i++ {
		in, err := interaction.New(actions[i%3], base.Add(time.Duration(i)*10*time.Minute),
			5*time.Minute, 0.8, 0.7, 0.9)
		require.NoError(t, err)
		in.Context = map[string]float64{
			interaction.KeyTaskComplexity: 0.5,
			interaction.KeyTimeOfDay:      9,
		}
		h.Append(*in)
	}
	return h
}

func TestLearnPreferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("nil history rejected", func(t *testing.T) {
		_, err := svc.LearnPreferences(ctx, nil)
		assert.ErrorIs(t, err, ErrNilHistory)
	})

	t.Run("empty history yields neutral model", func(t *testing.T) {
		h, err := interaction.NewUserHistory("user-empty")
		require.NoError(t, err)

		model, err := svc.LearnPreferences(ctx, h)
		require.NoError(t, err)

		for _, key := range preference.WeightKeys {
			assert.Equal(t, 0.5, model.Weight(key), key)
			iv := model.Intervals[key]
			assert.Equal(t, 0.3, iv.Lower, key)
			assert.Equal(t, 0.7, iv.Upper, key)
		}
	})

	t.Run("model retrievable after learning", func(t *testing.T) {
		h := testHistory(t, "user-a", 12)
		model, err := svc.LearnPreferences(ctx, h)
		require.NoError(t, err)
		assert.Same(t, model, svc.Model("user-a"))
	})

	t.Run("unknown user has no model", func(t *testing.T) {
		assert.Nil(t, svc.Model("user-unknown"))
	})
}

func TestDetectPatternsCaching(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	h := testHistory(t, "user-cache", 15)

	first, err := svc.DetectPatterns(ctx, h, false)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// While fresh the cached slice is returned unchanged.
	second, err := svc.DetectPatterns(ctx, h, false)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Same(t, first[i], second[i])
	}

	// Force refresh recomputes into new pattern values.
	third, err := svc.DetectPatterns(ctx, h, true)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(third))

	_, err = svc.DetectPatterns(ctx, nil, false)
	assert.ErrorIs(t, err, ErrNilHistory)
}

func TestPredictNextAction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("nil history rejected", func(t *testing.T) {
		_, err := svc.PredictNextAction(ctx, nil, nil, nil)
		assert.ErrorIs(t, err, ErrNilHistory)
	})

	t.Run("always returns a prediction", func(t *testing.T) {
		h := testHistory(t, "user-predict", 15)
		pred, err := svc.PredictNextAction(ctx, map[string]float64{
			interaction.KeyTaskComplexity: 0.5,
		}, nil, h)
		require.NoError(t, err)
		require.NotNil(t, pred)
		assert.NotEmpty(t, pred.ActionType)
		assert.Greater(t, pred.Probability, 0.0)
		assert.LessOrEqual(t, pred.Probability, 1.0)
	})
}

func TestPredictSatisfaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	h := testHistory(t, "user-sat", 10)

	t.Run("default horizon", func(t *testing.T) {
		traj, err := svc.PredictSatisfaction(ctx, h, nil, 0)
		require.NoError(t, err)
		// 60-minute horizon on a 5-minute grid, inclusive of zero.
		assert.Len(t, traj.Offsets, 13)
		assert.Len(t, traj.Values, 13)
	})

	t.Run("explicit horizon", func(t *testing.T) {
		traj, err := svc.PredictSatisfaction(ctx, h, nil, 30)
		require.NoError(t, err)
		assert.Len(t, traj.Offsets, 7)
	})

	t.Run("nil history rejected", func(t *testing.T) {
		_, err := svc.PredictSatisfaction(ctx, nil, nil, 60)
		assert.ErrorIs(t, err, ErrNilHistory)
	})
}

func TestSelectAction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("single candidate always selected", func(t *testing.T) {
		sel, err := svc.SelectAction(ctx, "user-b", nil, []string{"only"})
		require.NoError(t, err)
		assert.Equal(t, "only", sel.ActionID)
	})

	t.Run("zero candidates is invalid input", func(t *testing.T) {
		_, err := svc.SelectAction(ctx, "user-b", nil, nil)
		assert.ErrorIs(t, err, bandit.ErrNoCandidates)
	})

	t.Run("empty user rejected", func(t *testing.T) {
		_, err := svc.SelectAction(ctx, "", nil, []string{"a"})
		assert.ErrorIs(t, err, ErrEmptyUserID)
	})
}

func TestRecordReward(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		assert.ErrorIs(t, svc.RecordReward(ctx, "", "a", nil, 0.5), ErrEmptyUserID)
		assert.ErrorIs(t, svc.RecordReward(ctx, "user-c", "", nil, 0.5), ErrEmptyActionID)
		assert.ErrorIs(t, svc.RecordReward(ctx, "user-c", "a", nil, 1.5), ErrInvalidReward)
		assert.ErrorIs(t, svc.RecordReward(ctx, "user-c", "a", nil, -0.1), ErrInvalidReward)
	})

	t.Run("feeds the user's bandit", func(t *testing.T) {
		values := map[string]float64{interaction.KeyTaskComplexity: 0.5}
		require.NoError(t, svc.RecordReward(ctx, "user-c", "a", values, 0.9))
		require.NoError(t, svc.RecordReward(ctx, "user-c", "a", values, 0.9))

		// The untried arm wins on the optimistic default plus the
		// larger exploration bonus.
		sel, err := svc.SelectAction(ctx, "user-c", values, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, "b", sel.ActionID)
		assert.Equal(t, 0.7, sel.ExpectedReward)
	})
}

func TestAdaptFromPeers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("empty user rejected", func(t *testing.T) {
		_, err := svc.AdaptFromPeers(ctx, meta.Profile{}, nil)
		assert.ErrorIs(t, err, ErrEmptyUserID)
	})

	t.Run("no peers falls back to conservative", func(t *testing.T) {
		target := meta.Profile{UserID: "user-solo", Vector: make([]float64, meta.ProfileDim)}
		strategy, err := svc.AdaptFromPeers(ctx, target, []meta.Profile{})
		require.NoError(t, err)
		assert.Equal(t, meta.StrategyConservative, strategy.Type)
		assert.Equal(t, 0.2, strategy.ExpectedImprovement)
	})

	t.Run("nil peers pulls similar users from the index", func(t *testing.T) {
		ha := testHistory(t, "user-x", 12)
		hb := testHistory(t, "user-y", 12)
		modelA, err := svc.LearnPreferences(ctx, ha)
		require.NoError(t, err)
		_, err = svc.LearnPreferences(ctx, hb)
		require.NoError(t, err)

		// Give the peer a successful adaptation to transfer from.
		applied := &meta.Strategy{
			ID:         "s-1",
			Type:       meta.StrategyGradual,
			Parameters: map[string]float64{"adaptation_rate": 0.1},
		}
		require.NoError(t, svc.RecordAdaptationOutcome(ctx, "user-y", applied, meta.Outcome{
			StrategyID:  "s-1",
			Success:     true,
			Improvement: 0.5,
		}))

		target := meta.Profile{
			UserID: "user-x",
			Vector: meta.BuildProfileVector(modelA, ha),
		}
		strategy, err := svc.AdaptFromPeers(ctx, target, nil)
		require.NoError(t, err)
		assert.Equal(t, meta.StrategyGradual, strategy.Type)
		assert.Greater(t, strategy.ExpectedImprovement, 0.2)
	})
}

func TestRecordAdaptationOutcome(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	strategy := &meta.Strategy{ID: "s-2", Type: meta.StrategyRapid}

	t.Run("validation", func(t *testing.T) {
		assert.ErrorIs(t, svc.RecordAdaptationOutcome(ctx, "", strategy, meta.Outcome{}), ErrEmptyUserID)
		assert.ErrorIs(t, svc.RecordAdaptationOutcome(ctx, "user-d", nil, meta.Outcome{}), ErrNilStrategy)
	})

	t.Run("records history", func(t *testing.T) {
		out := meta.Outcome{StrategyID: "s-2", Success: false, Improvement: -0.2}
		require.NoError(t, svc.RecordAdaptationOutcome(ctx, "user-d", strategy, out))
	})
}

func TestDeriveContext(t *testing.T) {
	now := time.Date(2026, 3, 7, 14, 30, 0, 0, time.UTC) // Saturday

	t.Run("derives from time_of_day when present", func(t *testing.T) {
		out := DeriveContext(map[string]float64{interaction.KeyTimeOfDay: 9.5}, now)
		assert.Equal(t, 9.0, out[interaction.KeyHourOfDay])
		assert.Equal(t, float64(time.Saturday), out[interaction.KeyDayOfWeek])
	})

	t.Run("falls back to clock", func(t *testing.T) {
		out := DeriveContext(nil, now)
		assert.Equal(t, 14.0, out[interaction.KeyHourOfDay])
	})

	t.Run("explicit values win", func(t *testing.T) {
		out := DeriveContext(map[string]float64{
			interaction.KeyHourOfDay: 3,
			interaction.KeyDayOfWeek: 1,
		}, now)
		assert.Equal(t, 3.0, out[interaction.KeyHourOfDay])
		assert.Equal(t, 1.0, out[interaction.KeyDayOfWeek])
	})
}

func TestSameUserOperationsSerialize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	values := map[string]float64{interaction.KeyTaskComplexity: 0.5}
	candidates := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.SelectAction(ctx, "user-race", values, candidates)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			err := svc.RecordReward(ctx, "user-race", "a", values, 0.8)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sel, err := svc.SelectAction(ctx, "user-race", values, candidates)
	require.NoError(t, err)
	assert.Contains(t, candidates, sel.ActionID)
}
