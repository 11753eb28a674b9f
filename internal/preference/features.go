package preference

import (
	"time"

	"github.com/fyrsmithlabs/persona/internal/interaction"
)

// featureDim is the per-interaction feature vector width.
const featureDim = 8

// Normalizers for raw feature values. Durations saturate at these ceilings
// so one marathon session cannot dominate the covariance.
const (
	durationCeiling = 30 * time.Minute
	sessionCeiling  = time.Hour
)

// extractFeatures builds the n x 8 feature matrix for a batch.
//
// Columns: normalized duration, satisfaction, engagement, completion,
// action-type share within the batch, time of day, day of week, session
// length. Everything lands in [0, 1].
func extractFeatures(interactions []interaction.Interaction) [][]float64 {
	actionCounts := make(map[string]int, len(interactions))
	for _, i := range interactions {
		actionCounts[i.ActionType]++
	}

	rows := make([][]float64, len(interactions))
	for idx, i := range interactions {
		rows[idx] = []float64{
			normDuration(i.Duration, durationCeiling),
			i.Satisfaction,
			i.Engagement,
			i.Completion,
			float64(actionCounts[i.ActionType]) / float64(len(interactions)),
			float64(i.Timestamp.Hour()) / 24.0,
			float64(i.Timestamp.Weekday()) / 7.0,
			sessionLength(i),
		}
	}
	return rows
}

// sessionLength prefers the session_length context attribute (minutes) and
// falls back to the interaction's own duration.
func sessionLength(i interaction.Interaction) float64 {
	if v, ok := i.Context[interaction.KeySessionLength]; ok {
		return clamp01(v * float64(time.Minute) / float64(sessionCeiling))
	}
	return normDuration(i.Duration, sessionCeiling)
}

func normDuration(d, ceiling time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return clamp01(float64(d) / float64(ceiling))
}
