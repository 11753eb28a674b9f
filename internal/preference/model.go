package preference

import (
	"time"
)

// Update blends a new observation for one attribute into the model using an
// exponential moving average weighted by the observation's confidence:
// stored*(1-confidence) + value*confidence. Unknown attributes are inserted
// at the observed value. Confidence 1.0 therefore replaces the stored value
// exactly.
func (m *Model) Update(attribute string, value, confidence float64) {
	confidence = clamp01(confidence)
	if stored, ok := m.Weights[attribute]; ok {
		m.Weights[attribute] = clamp01(stored*(1-confidence) + value*confidence)
	} else {
		m.Weights[attribute] = clamp01(value)
	}
	m.UpdatedAt = time.Now()
}

// ForContext returns the attribute weights adjusted for a live context.
//
// Each stored weight is scaled by (1 + modifier*strength) for every context
// attribute that has a learned correlation modifier, then blended toward any
// temporal preference matching the current bucket:
// base*(1-conf) + temporal*conf. Results are clamped to [0, 1].
func (m *Model) ForContext(ctx map[string]float64, at time.Time) map[string]float64 {
	adjusted := make(map[string]float64, len(m.Weights))

	scale := 1.0
	for key, strength := range ctx {
		if mod, ok := m.ContextModifiers[key]; ok {
			scale *= 1 + mod*strength
		}
	}

	bucket := BucketOf(at)
	for attr, w := range m.Weights {
		v := w * scale
		for _, tp := range m.Temporal {
			if tp.Attribute == attr && tp.Bucket == bucket {
				v = v*(1-tp.Confidence) + tp.Value*tp.Confidence
			}
		}
		adjusted[attr] = clamp01(v)
	}
	return adjusted
}

// Weight returns the stored weight for the attribute, or the neutral 0.5
// when it has never been learned.
func (m *Model) Weight(attribute string) float64 {
	if w, ok := m.Weights[attribute]; ok {
		return w
	}
	return 0.5
}

// Snapshot returns a copy of the weight map, safe for the caller to hold
// while the model keeps evolving.
func (m *Model) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(m.Weights))
	for k, v := range m.Weights {
		out[k] = v
	}
	return out
}
