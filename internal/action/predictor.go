package action

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/persona/internal/interaction"
	"github.com/fyrsmithlabs/persona/internal/pattern"
)

// Built-in action labels used by the no-pattern fallback.
const (
	ActionContinue       = "continue_current"
	ActionChangeApproach = "change_approach"
	ActionRequestHelp    = "request_help"
)

// successSatisfaction is the satisfaction level at which a historical
// interaction counts as a success for an action.
const successSatisfaction = 0.6

// minHistoryObservations is the minimum matching-context observations before
// the historical success rate replaces the per-type default probability.
const minHistoryObservations = 2

// defaultProbability is the per-pattern-type action probability used when
// history is too thin to estimate a success rate.
var defaultProbability = map[pattern.Type]float64{
	pattern.TypeSequential: 0.6,
	pattern.TypeCyclical:   0.5,
	pattern.TypeContextual: 0.55,
	pattern.TypePreference: 0.5,
	pattern.TypeTemporal:   0.45,
}

// Alternative is a lower-ranked candidate action.
type Alternative struct {
	ActionType  string  `json:"action_type"`
	Probability float64 `json:"probability"`
}

// Prediction is the ephemeral result of one prediction call.
type Prediction struct {
	ActionType   string             `json:"action_type"`
	Parameters   map[string]float64 `json:"parameters,omitempty"`
	Probability  float64            `json:"probability"`
	Confidence   float64            `json:"confidence"`
	Reasoning    string             `json:"reasoning"`
	Alternatives []Alternative      `json:"alternatives,omitempty"`
}

// Predictor estimates the next action from patterns and history.
type Predictor struct {
	logger *zap.Logger
}

// NewPredictor creates a predictor.
func NewPredictor(logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{logger: logger}
}

// Predict returns the most likely next action for the context. It never
// fails: with no matching pattern it returns the documented default.
func (p *Predictor) Predict(values map[string]float64, labels map[string]string, patterns []*pattern.Pattern, history *interaction.UserHistory) *Prediction {
	type vote struct {
		score       float64
		probability float64
	}
	votes := make(map[string]*vote)
	matching := 0

	for _, pat := range patterns {
		strength := pat.PredictionStrength(values, labels)
		if strength == 0 || pat.SuggestedAction == "" {
			continue
		}
		matching++
		prob := p.actionProbability(pat, history)
		v := votes[pat.SuggestedAction]
		if v == nil {
			v = &vote{}
			votes[pat.SuggestedAction] = v
		}
		v.score += strength * prob
		if prob > v.probability {
			v.probability = prob
		}
	}

	if matching == 0 {
		return p.defaultPrediction(values, history)
	}

	type ranked struct {
		action string
		vote   *vote
	}
	order := make([]ranked, 0, len(votes))
	for a, v := range votes {
		order = append(order, ranked{a, v})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].vote.score != order[j].vote.score {
			return order[i].vote.score > order[j].vote.score
		}
		return order[i].action < order[j].action
	})

	best := order[0]
	confidence := math.Min(1, best.vote.probability*float64(matching)/5)

	alternatives := make([]Alternative, 0, 3)
	for _, r := range order[1:] {
		if len(alternatives) == 3 {
			break
		}
		alternatives = append(alternatives, Alternative{
			ActionType:  r.action,
			Probability: clamp01(r.vote.probability),
		})
	}

	pred := &Prediction{
		ActionType:   best.action,
		Probability:  clamp01(best.vote.probability),
		Confidence:   clamp01(confidence),
		Reasoning:    p.reason(best.action, confidence, matching, values),
		Alternatives: alternatives,
	}
	p.logger.Debug("predicted next action",
		zap.String("action", pred.ActionType),
		zap.Float64("confidence", pred.Confidence),
		zap.Int("matching_patterns", matching))
	return pred
}

// actionProbability estimates how likely the pattern's suggested action is
// to succeed: the historical success rate under matching context when at
// least minHistoryObservations exist, otherwise the per-type default.
func (p *Predictor) actionProbability(pat *pattern.Pattern, history *interaction.UserHistory) float64 {
	if history != nil {
		succ, n := 0, 0
		for _, i := range history.Interactions {
			if i.ActionType != pat.SuggestedAction || !pat.MatchesContext(i.Context, i.Labels) {
				continue
			}
			n++
			if i.Satisfaction >= successSatisfaction {
				succ++
			}
		}
		if n >= minHistoryObservations {
			return clamp01(float64(succ) / float64(n))
		}
	}
	return defaultProbability[pat.Type]
}

// defaultPrediction is the no-matching-pattern fallback.
func (p *Predictor) defaultPrediction(values map[string]float64, history *interaction.UserHistory) *Prediction {
	complexity := ctxValue(values, interaction.KeyTaskComplexity, 0.5)
	recentSat := 0.5
	if history != nil {
		recentSat = history.MeanSatisfaction(0.5)
	}

	switch {
	case complexity > 0.7:
		return &Prediction{
			ActionType:  ActionRequestHelp,
			Probability: 0.5,
			Confidence:  0.4,
			Reasoning:   "no matching behavior patterns; high task complexity suggests the user will need help",
		}
	case recentSat < 0.4:
		return &Prediction{
			ActionType:  ActionChangeApproach,
			Probability: 0.5,
			Confidence:  0.35,
			Reasoning:   "no matching behavior patterns; low recent satisfaction suggests a change of approach",
		}
	default:
		return &Prediction{
			ActionType:  ActionContinue,
			Probability: 0.5,
			Confidence:  0.3,
			Reasoning:   "no matching behavior patterns; defaulting to continuing the current activity",
		}
	}
}

// reason builds the human-readable justification from confidence tiers and
// context thresholds.
func (p *Predictor) reason(action string, confidence float64, matching int, values map[string]float64) string {
	tier := "weak"
	switch {
	case confidence > 0.7:
		tier = "strong"
	case confidence > 0.4:
		tier = "moderate"
	}
	s := fmt.Sprintf("%s signal from %d matching pattern(s) for %q", tier, matching, action)
	if ctxValue(values, interaction.KeyTaskComplexity, 0.5) > 0.7 {
		s += "; task complexity is high"
	}
	if ctxValue(values, interaction.KeyEngagementScore, 0.5) > 0.7 {
		s += "; engagement is high"
	}
	return s
}

func ctxValue(values map[string]float64, key string, def float64) float64 {
	if v, ok := values[key]; ok {
		return v
	}
	return def
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
