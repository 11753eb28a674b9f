package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/fyrsmithlabs/persona/internal/interaction"
)

const (
	// DefaultMinOccurrences is the default minimum number of observations a
	// behavior needs before it is reported as a pattern.
	DefaultMinOccurrences = 3

	// trendMinPoints is the minimum satisfaction points for trend mining.
	trendMinPoints = 10

	// trendThreshold is the minimum |correlation| for a trend pattern.
	trendThreshold = 0.3

	// consistencyThreshold is the minimum mean consistency for a
	// preference pattern.
	consistencyThreshold = 0.7
)

// Complexity tier bounds for contextual mining.
const (
	complexityLow  = 0.3
	complexityHigh = 0.7
)

// Detector mines behavior patterns from user history.
type Detector struct {
	minOccurrences int
	logger         *zap.Logger
}

// NewDetector creates a detector. minOccurrences <= 0 selects the default.
func NewDetector(minOccurrences int, logger *zap.Logger) *Detector {
	if minOccurrences <= 0 {
		minOccurrences = DefaultMinOccurrences
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{minOccurrences: minOccurrences, logger: logger}
}

// Detect runs all five miners over the history. An empty or sparse history
// yields an empty slice, never an error.
func (d *Detector) Detect(history *interaction.UserHistory) []*Pattern {
	if history == nil || len(history.Interactions) == 0 {
		return nil
	}

	var patterns []*Pattern
	patterns = append(patterns, d.mineSequential(history.Interactions)...)
	patterns = append(patterns, d.mineCyclical(history.Interactions)...)
	patterns = append(patterns, d.mineContextual(history.Interactions)...)
	patterns = append(patterns, d.minePreference(history)...)
	patterns = append(patterns, d.mineTrend(history.Interactions)...)

	d.logger.Debug("detected behavior patterns",
		zap.String("user_id", history.UserID),
		zap.Int("interactions", len(history.Interactions)),
		zap.Int("patterns", len(patterns)))
	return patterns
}

// mineSequential counts identical trigrams of consecutive action labels.
func (d *Detector) mineSequential(ins []interaction.Interaction) []*Pattern {
	windows := len(ins) - 2
	if windows < 1 {
		return nil
	}

	type gram struct{ a, b, c string }
	counts := make(map[gram]int)
	lastSeen := make(map[gram]time.Time)
	for i := 0; i+2 < len(ins); i++ {
		g := gram{ins[i].ActionType, ins[i+1].ActionType, ins[i+2].ActionType}
		counts[g]++
		lastSeen[g] = ins[i+2].Timestamp
	}

	var out []*Pattern
	for g, c := range counts {
		if c < d.minOccurrences {
			continue
		}
		out = append(out, &Pattern{
			ID:          uuid.New().String(),
			Type:        TypeSequential,
			Description: fmt.Sprintf("action sequence %s -> %s -> %s", g.a, g.b, g.c),
			Frequency:   float64(c) / float64(windows),
			Confidence:  math.Min(1, float64(c)/10),
			Conditions: []Condition{
				{Attribute: "previous_action", Op: OpEquals, Label: g.b},
			},
			PredictiveFeatures: []string{"previous_action"},
			SuccessIndicators:  []SuccessIndicator{{Metric: "completion", Threshold: 0.7}},
			SuggestedAction:    g.c,
			LastObserved:       lastSeen[g],
		})
	}
	sortPatterns(out)
	return out
}

// mineCyclical buckets interactions by weekday and hour.
func (d *Detector) mineCyclical(ins []interaction.Interaction) []*Pattern {
	type slot struct {
		weekday time.Weekday
		hour    int
	}
	counts := make(map[slot]int)
	actions := make(map[slot]map[string]int)
	lastSeen := make(map[slot]time.Time)
	for _, i := range ins {
		s := slot{i.Timestamp.Weekday(), i.Timestamp.Hour()}
		counts[s]++
		if actions[s] == nil {
			actions[s] = make(map[string]int)
		}
		actions[s][i.ActionType]++
		if i.Timestamp.After(lastSeen[s]) {
			lastSeen[s] = i.Timestamp
		}
	}

	total := float64(len(ins))
	var out []*Pattern
	for s, c := range counts {
		if c < d.minOccurrences {
			continue
		}
		out = append(out, &Pattern{
			ID:          uuid.New().String(),
			Type:        TypeCyclical,
			Description: fmt.Sprintf("recurring activity %s %02dh", s.weekday, s.hour),
			Frequency:   float64(c) / total,
			Confidence:  math.Min(1, float64(c)/20),
			Conditions: []Condition{
				{Attribute: interaction.KeyDayOfWeek, Op: OpEquals, Value: float64(s.weekday)},
				{Attribute: interaction.KeyHourOfDay, Op: OpEquals, Value: float64(s.hour)},
			},
			PredictiveFeatures: []string{interaction.KeyHourOfDay},
			SuggestedAction:    modalAction(actions[s]),
			LastObserved:       lastSeen[s],
		})
	}
	sortPatterns(out)
	return out
}

// mineContextual buckets interactions into task-complexity tiers and reports
// the outcome statistics of tiers with enough observations.
func (d *Detector) mineContextual(ins []interaction.Interaction) []*Pattern {
	type tierStats struct {
		count       int
		completion  float64
		durationMin float64
		actions     map[string]int
		lastSeen    time.Time
	}
	tiers := map[string]*tierStats{}
	for _, i := range ins {
		name := complexityTier(i.ContextValue(interaction.KeyTaskComplexity, 0.5))
		ts := tiers[name]
		if ts == nil {
			ts = &tierStats{actions: make(map[string]int)}
			tiers[name] = ts
		}
		ts.count++
		ts.completion += i.Completion
		ts.durationMin += i.Duration.Minutes()
		ts.actions[i.ActionType]++
		if i.Timestamp.After(ts.lastSeen) {
			ts.lastSeen = i.Timestamp
		}
	}

	total := float64(len(ins))
	var out []*Pattern
	for name, ts := range tiers {
		if ts.count < d.minOccurrences {
			continue
		}
		n := float64(ts.count)
		out = append(out, &Pattern{
			ID:          uuid.New().String(),
			Type:        TypeContextual,
			Description: fmt.Sprintf("%s-complexity tasks", name),
			Frequency:   n / total,
			Confidence:  math.Min(1, n/15),
			Conditions:  tierConditions(name),
			PredictiveFeatures: []string{interaction.KeyTaskComplexity},
			SuccessIndicators: []SuccessIndicator{
				{Metric: "completion", Threshold: ts.completion / n},
				{Metric: "duration_minutes", Threshold: ts.durationMin / n},
			},
			SuggestedAction: modalAction(ts.actions),
			LastObserved:    ts.lastSeen,
		})
	}
	sortPatterns(out)
	return out
}

// minePreference checks how consistently observed context values track the
// user's stored preference values.
func (d *Detector) minePreference(h *interaction.UserHistory) []*Pattern {
	var out []*Pattern
	for key, stored := range h.Preferences {
		var sum float64
		var n int
		last := time.Time{}
		for _, i := range h.Interactions {
			v, ok := i.Context[key]
			if !ok {
				continue
			}
			sum += 1 - math.Abs(v-stored)
			n++
			if i.Timestamp.After(last) {
				last = i.Timestamp
			}
		}
		if n < d.minOccurrences {
			continue
		}
		consistency := sum / float64(n)
		if consistency <= consistencyThreshold {
			continue
		}
		out = append(out, &Pattern{
			ID:          uuid.New().String(),
			Type:        TypePreference,
			Description: fmt.Sprintf("behavior consistent with %s preference", key),
			Frequency:   clamp01(consistency),
			Confidence:  math.Min(1, float64(n)/10),
			Conditions: []Condition{
				{Attribute: key, Op: OpGreaterThan, Value: stored - 0.2},
				{Attribute: key, Op: OpLessThan, Value: stored + 0.2},
			},
			PredictiveFeatures: []string{key},
			SuggestedAction:    "continue_current",
			LastObserved:       last,
		})
	}
	sortPatterns(out)
	return out
}

// mineTrend correlates chronological position with satisfaction and emits a
// single improving or declining pattern when the trend is strong enough.
func (d *Detector) mineTrend(ins []interaction.Interaction) []*Pattern {
	if len(ins) < trendMinPoints {
		return nil
	}
	xs := make([]float64, len(ins))
	ys := make([]float64, len(ins))
	for i, in := range ins {
		xs[i] = float64(i)
		ys[i] = in.Satisfaction
	}
	corr := stat.Correlation(xs, ys, nil)
	if math.IsNaN(corr) || math.Abs(corr) <= trendThreshold {
		return nil
	}

	desc := "satisfaction improving over time"
	suggested := "continue_current"
	if corr < 0 {
		desc = "satisfaction declining over time"
		suggested = "change_approach"
	}
	return []*Pattern{{
		ID:                 uuid.New().String(),
		Type:               TypeTemporal,
		Description:        desc,
		Frequency:          math.Min(1, float64(len(ins))/20),
		Confidence:         math.Abs(corr),
		PredictiveFeatures: []string{interaction.KeyEngagementScore},
		SuggestedAction:    suggested,
		LastObserved:       ins[len(ins)-1].Timestamp,
	}}
}

// complexityTier maps a task complexity value onto its tier name.
func complexityTier(v float64) string {
	switch {
	case v < complexityLow:
		return "low"
	case v < complexityHigh:
		return "medium"
	default:
		return "high"
	}
}

// tierConditions builds the matching conditions for a complexity tier.
func tierConditions(tier string) []Condition {
	switch tier {
	case "low":
		return []Condition{{Attribute: interaction.KeyTaskComplexity, Op: OpLessThan, Value: complexityLow}}
	case "medium":
		return []Condition{
			{Attribute: interaction.KeyTaskComplexity, Op: OpGreaterThan, Value: complexityLow - 1e-9},
			{Attribute: interaction.KeyTaskComplexity, Op: OpLessThan, Value: complexityHigh},
		}
	default:
		return []Condition{{Attribute: interaction.KeyTaskComplexity, Op: OpGreaterThan, Value: complexityHigh - 1e-9}}
	}
}

// modalAction returns the most frequent action, ties broken alphabetically
// so detection stays deterministic.
func modalAction(counts map[string]int) string {
	bestAction := ""
	bestCount := -1
	for a, c := range counts {
		if c > bestCount || (c == bestCount && a < bestAction) {
			bestAction = a
			bestCount = c
		}
	}
	return bestAction
}

// sortPatterns orders by descending frequency then confidence, matching the
// ranking the action predictor consumes. Stable output also keeps detection
// deterministic for identical input.
func sortPatterns(ps []*Pattern) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Frequency != ps[j].Frequency {
			return ps[i].Frequency > ps[j].Frequency
		}
		if ps[i].Confidence != ps[j].Confidence {
			return ps[i].Confidence > ps[j].Confidence
		}
		return ps[i].Description < ps[j].Description
	})
}
