package bandit

import (
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/persona/internal/interaction"
)

// ErrNoCandidates is returned when Select is called with no actions.
var ErrNoCandidates = errors.New("candidate action set cannot be empty")

const (
	// ContextDim is the width of the normalized context encoding.
	ContextDim = 10

	// DefaultExplorationRate scales the UCB bonus.
	DefaultExplorationRate = 1.4

	// learningRate for the shared linear model's gradient step.
	learningRate = 0.01

	// historyBlend weights the historical mean against the linear model.
	historyBlend = 0.6

	// optimisticDefault is the expected reward for never-tried actions.
	optimisticDefault = 0.7

	// minContextsForUpdate gates the gradient step: an arm needs this many
	// prior contexts before its rewards move the shared weights.
	minContextsForUpdate = 2
)

// contextSlots is the fixed encoding order. Absent attributes encode to the
// neutral 0.5 so dot products stay scale-stable across sparse contexts.
var contextSlots = [ContextDim]struct {
	key   string
	scale float64
}{
	{interaction.KeyTimeOfDay, 1.0 / 24},
	{interaction.KeyTaskComplexity, 1},
	{interaction.KeyUserExpertise, 1},
	{interaction.KeyEngagementScore, 1},
	{interaction.KeySupportAvail, 1},
	{interaction.KeyTimePressure, 1},
	{interaction.KeySessionLength, 1.0 / 60},
	{interaction.KeyDayOfWeek, 1.0 / 7},
	{"recent_satisfaction", 1},
	{"interaction_rate", 1},
}

// Selection reports the chosen action and its scoring breakdown.
type Selection struct {
	ActionID         string  `json:"action_id"`
	ExpectedReward   float64 `json:"expected_reward"`
	Confidence       float64 `json:"confidence"`
	ExplorationBonus float64 `json:"exploration_bonus"`
	Score            float64 `json:"score"`
}

type arm struct {
	rewards  []float64
	contexts [][]float64
}

func (a *arm) mean() float64 {
	if len(a.rewards) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range a.rewards {
		sum += r
	}
	return sum / float64(len(a.rewards))
}

// Optimizer is a contextual UCB bandit.
type Optimizer struct {
	mu              sync.Mutex
	explorationRate float64
	weights         []float64
	arms            map[string]*arm
	totalPulls      int
	logger          *zap.Logger
}

// NewOptimizer creates an optimizer. explorationRate <= 0 selects the
// default.
func NewOptimizer(explorationRate float64, logger *zap.Logger) *Optimizer {
	if explorationRate <= 0 {
		explorationRate = DefaultExplorationRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		explorationRate: explorationRate,
		weights:         make([]float64, ContextDim),
		arms:            make(map[string]*arm),
		logger:          logger,
	}
}

// Select scores every candidate under the context and returns the best.
// Ties keep the earliest candidate in the given order. An empty candidate
// set is invalid input.
func (o *Optimizer) Select(ctx map[string]float64, candidates []string) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	enc := encode(ctx)
	var best *Selection
	for _, id := range candidates {
		s := o.score(id, enc)
		if best == nil || s.Score > best.Score {
			best = s
		}
	}
	o.logger.Debug("selected action",
		zap.String("action_id", best.ActionID),
		zap.Float64("score", best.Score),
		zap.Float64("exploration_bonus", best.ExplorationBonus),
		zap.Int("candidates", len(candidates)))
	return best, nil
}

// score computes the UCB total for one candidate. Caller holds the lock.
func (o *Optimizer) score(id string, enc []float64) *Selection {
	a := o.arms[id]

	var expected, confidence float64
	if a != nil && len(a.rewards) > 0 {
		expected = clamp01(historyBlend*a.mean() + (1-historyBlend)*dot(enc, o.weights))
		confidence = math.Min(1, float64(len(a.rewards))/10)
	} else {
		expected = optimisticDefault
		confidence = 0.1
	}

	pulls := 0
	if a != nil {
		pulls = len(a.rewards)
	}
	// Both counts are +1 smoothed so a fresh arm gets a strictly larger
	// bonus than one already pulled, even on the very first selection.
	bonus := o.explorationRate * math.Sqrt(math.Log(float64(o.totalPulls)+1)/float64(pulls+1))

	return &Selection{
		ActionID:         id,
		ExpectedReward:   expected,
		Confidence:       confidence,
		ExplorationBonus: bonus,
		Score:            expected + bonus,
	}
}

// Update folds an observed reward into the action's history and, once the
// arm has at least minContextsForUpdate prior contexts, takes one gradient
// step on the shared weights: w += lr*(reward - w.x)*x, clamped to [-1, 1].
func (o *Optimizer) Update(actionID string, ctx map[string]float64, reward float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	enc := encode(ctx)
	a := o.arms[actionID]
	if a == nil {
		a = &arm{}
		o.arms[actionID] = a
	}

	priorContexts := len(a.contexts)
	a.rewards = append(a.rewards, reward)
	a.contexts = append(a.contexts, enc)
	o.totalPulls++

	if priorContexts < minContextsForUpdate {
		return
	}

	err := reward - dot(enc, o.weights)
	for i := range o.weights {
		o.weights[i] = clampRange(o.weights[i]+learningRate*err*enc[i], -1, 1)
	}
}

// Pulls returns how many rewards have been recorded for the action.
func (o *Optimizer) Pulls(actionID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a := o.arms[actionID]; a != nil {
		return len(a.rewards)
	}
	return 0
}

// encode maps a raw context onto the fixed slot layout.
func encode(ctx map[string]float64) []float64 {
	enc := make([]float64, ContextDim)
	for i, slot := range contextSlots {
		if v, ok := ctx[slot.key]; ok {
			enc[i] = clamp01(v * slot.scale)
		} else {
			enc[i] = 0.5
		}
	}
	return enc
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
