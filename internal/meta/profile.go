package meta

import (
	"math"

	"github.com/fyrsmithlabs/persona/internal/interaction"
	"github.com/fyrsmithlabs/persona/internal/preference"
)

// countCeiling normalizes the interaction count slot: histories at or past
// this size saturate to 1.
const countCeiling = 100.0

// BuildProfileVector projects a user's learned model and history onto the
// fixed 12-slot peer-comparison layout:
//
//	0-5  the six attribute weights, in preference.WeightKeys order
//	6    mean satisfaction
//	7    mean engagement
//	8    normalized interaction count
//	9    content diversity (unique content types / interactions)
//	10   mean session completion rate
//	11   mean temporal-preference confidence
//
// All slots are in [0, 1], so cosine similarity is well-behaved.
func BuildProfileVector(model *preference.Model, history *interaction.UserHistory) []float64 {
	v := make([]float64, ProfileDim)

	for i, key := range preference.WeightKeys {
		v[i] = 0.5
		if model != nil {
			v[i] = model.Weight(key)
		}
	}

	if history != nil && len(history.Interactions) > 0 {
		n := float64(len(history.Interactions))
		var sat, eng float64
		types := make(map[string]struct{})
		for _, in := range history.Interactions {
			sat += in.Satisfaction
			eng += in.Engagement
			if in.Content != nil && in.Content.ContentType != "" {
				types[in.Content.ContentType] = struct{}{}
			}
		}
		v[6] = sat / n
		v[7] = eng / n
		v[8] = math.Min(1, n/countCeiling)
		v[9] = float64(len(types)) / n
	} else {
		v[6], v[7] = 0.5, 0.5
	}

	if history != nil && len(history.Sessions) > 0 {
		sum := 0.0
		for _, s := range history.Sessions {
			sum += s.CompletionRate
		}
		v[10] = sum / float64(len(history.Sessions))
	}

	if model != nil && len(model.Temporal) > 0 {
		sum := 0.0
		for _, tp := range model.Temporal {
			sum += tp.Confidence
		}
		v[11] = sum / float64(len(model.Temporal))
	}

	return v
}
