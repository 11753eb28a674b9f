package meta

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a
	// peer to contribute.
	DefaultSimilarityThreshold = 0.7

	// successCutoff filters peer adaptations: only attempts with success
	// above this level transfer.
	successCutoff = 0.6

	// conservativeImprovement is the expected improvement of the fallback
	// strategy.
	conservativeImprovement = 0.2

	// defaultImprovement is assumed when contributing peers recorded no
	// improvement values.
	defaultImprovement = 0.3

	// historyMax / historyTrim bound per-user outcome history: once the
	// history exceeds historyMax it is cut to the most recent historyTrim.
	historyMax  = 50
	historyTrim = 25
)

// defaultRollback is attached to every transferred strategy: revert when
// satisfaction stays below 0.4 for three consecutive failures within five
// minutes.
func defaultRollback() []RollbackCondition {
	return []RollbackCondition{{
		Metric:              "satisfaction",
		Threshold:           0.4,
		Window:              5 * time.Minute,
		ConsecutiveFailures: 3,
	}}
}

// Adapter derives adaptation strategies from similar peers' outcomes.
type Adapter struct {
	mu                  sync.Mutex
	similarityThreshold float64
	history             map[string][]Outcome
	logger              *zap.Logger
}

// NewAdapter creates an adapter. threshold <= 0 selects the default.
func NewAdapter(similarityThreshold float64, logger *zap.Logger) *Adapter {
	if similarityThreshold <= 0 {
		similarityThreshold = DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		similarityThreshold: similarityThreshold,
		history:             make(map[string][]Outcome),
		logger:              logger,
	}
}

// Adapt produces a strategy for the target from its peers. With no peer at
// or above the similarity threshold it returns the fixed conservative
// strategy; this is insufficient data, not an error.
func (a *Adapter) Adapt(target Profile, peers []Profile) *Strategy {
	type contributor struct {
		profile    Profile
		similarity float64
	}
	var contributors []contributor
	for _, p := range peers {
		sim := Cosine(target.Vector, p.Vector)
		if sim >= a.similarityThreshold {
			contributors = append(contributors, contributor{p, sim})
		}
	}

	if len(contributors) == 0 {
		a.logger.Debug("no similar peers, falling back to conservative strategy",
			zap.String("user_id", target.UserID),
			zap.Int("peers_considered", len(peers)))
		return conservativeStrategy()
	}

	// Similarity-weighted vote over successful peer adaptations.
	typeWeight := make(map[StrategyType]float64)
	paramSum := make(map[string]float64)
	paramWeight := make(map[string]float64)
	improvementSum, improvementWeight := 0.0, 0.0
	for _, c := range contributors {
		for _, rec := range c.profile.Adaptations {
			if rec.Success <= successCutoff {
				continue
			}
			typeWeight[rec.Type] += c.similarity
			for k, v := range rec.Parameters {
				paramSum[k] += v * c.similarity
				paramWeight[k] += c.similarity
			}
			improvementSum += rec.Improvement * c.similarity
			improvementWeight += c.similarity
		}
	}

	if len(typeWeight) == 0 {
		// Similar peers exist but none of their adaptations succeeded.
		return conservativeStrategy()
	}

	chosen := StrategyGradual
	bestWeight := -1.0
	for st, w := range typeWeight {
		if w > bestWeight || (w == bestWeight && st < chosen) {
			chosen = st
			bestWeight = w
		}
	}

	params := make(map[string]float64, len(paramSum))
	for k, sum := range paramSum {
		params[k] = sum / paramWeight[k]
	}

	improvement := defaultImprovement
	if improvementWeight > 0 && improvementSum > 0 {
		improvement = clamp01(improvementSum / improvementWeight)
	}

	s := &Strategy{
		ID:                  uuid.New().String(),
		Type:                chosen,
		Parameters:          params,
		ExpectedImprovement: improvement,
		Risk: RiskAssessment{
			Level:               RiskMedium,
			Factors:             []string{"strategy transferred from peer outcomes", "peer similarity is behavioral, not exact"},
			Mitigations:         []string{"rollback conditions attached", "outcome recording feeds future transfers"},
			RollbackProbability: 0.2,
			EstimatedImpact:     improvement,
		},
		Rollback: defaultRollback(),
		Steps: []string{
			"apply transferred parameters",
			"monitor satisfaction against rollback conditions",
			"record the outcome",
		},
		SuccessMetrics: []string{"satisfaction", "engagement_score"},
	}
	a.logger.Debug("transferred adaptation strategy",
		zap.String("user_id", target.UserID),
		zap.String("strategy_type", string(chosen)),
		zap.Int("contributing_peers", len(contributors)),
		zap.Float64("expected_improvement", improvement))
	return s
}

// conservativeStrategy is the documented insufficient-data fallback.
func conservativeStrategy() *Strategy {
	return &Strategy{
		ID:                  uuid.New().String(),
		Type:                StrategyConservative,
		Parameters:          map[string]float64{"adaptation_rate": 0.1},
		ExpectedImprovement: conservativeImprovement,
		Risk: RiskAssessment{
			Level:               RiskLow,
			Factors:             []string{"no sufficiently similar peers"},
			Mitigations:         []string{"small adaptation steps only"},
			RollbackProbability: 0.1,
			EstimatedImpact:     conservativeImprovement,
		},
		Rollback: defaultRollback(),
		Steps: []string{
			"adapt slowly from the user's own signal",
			"re-evaluate once more peer data accumulates",
		},
		SuccessMetrics: []string{"satisfaction"},
	}
}

// RecordOutcome appends an outcome to the user's adaptation history,
// trimming to the most recent entries once the cap is exceeded.
func (a *Adapter) RecordOutcome(userID string, o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := append(a.history[userID], o)
	if len(h) > historyMax {
		h = h[len(h)-historyTrim:]
	}
	a.history[userID] = h
}

// History returns a copy of the user's recorded outcomes.
func (a *Adapter) History(userID string) []Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.history[userID]
	out := make([]Outcome, len(h))
	copy(out, h)
	return out
}

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// compare over the shorter prefix; zero vectors yield 0.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
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
