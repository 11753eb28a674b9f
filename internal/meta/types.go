package meta

import (
	"time"
)

// StrategyType classifies an adaptation strategy.
type StrategyType string

const (
	StrategyGradual      StrategyType = "gradual"
	StrategyRapid        StrategyType = "rapid"
	StrategyConservative StrategyType = "conservative"
	StrategyExploratory  StrategyType = "exploratory"
	StrategyRollback     StrategyType = "rollback"
)

// RiskLevel grades the downside of applying a strategy.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment summarizes what can go wrong when a strategy is applied.
type RiskAssessment struct {
	Level               RiskLevel `json:"level"`
	Factors             []string  `json:"factors,omitempty"`
	Mitigations         []string  `json:"mitigations,omitempty"`
	RollbackProbability float64   `json:"rollback_probability"`
	EstimatedImpact     float64   `json:"estimated_impact"`
}

// RollbackCondition triggers reversal of an applied strategy.
type RollbackCondition struct {
	Metric              string        `json:"metric"`
	Threshold           float64       `json:"threshold"`
	Window              time.Duration `json:"window"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
}

// Strategy is an immutable adaptation plan produced by the adapter.
type Strategy struct {
	ID                  string              `json:"id"`
	Type                StrategyType        `json:"type"`
	Parameters          map[string]float64  `json:"parameters,omitempty"`
	ExpectedImprovement float64             `json:"expected_improvement"`
	Risk                RiskAssessment      `json:"risk"`
	Rollback            []RollbackCondition `json:"rollback,omitempty"`
	Steps               []string            `json:"steps,omitempty"`
	SuccessMetrics      []string            `json:"success_metrics,omitempty"`
}

// ProfileDim is the width of the user profile vector peers are compared on.
const ProfileDim = 12

// Profile is a user viewed as a transfer-learning peer: a fixed-width
// behavioral vector plus the adaptation attempts recorded for them.
type Profile struct {
	UserID      string             `json:"user_id"`
	Vector      []float64          `json:"vector"`
	Adaptations []AdaptationRecord `json:"adaptations,omitempty"`
}

// AdaptationRecord is one past adaptation attempt and how it went.
// Success and Improvement are normalized to [0, 1].
type AdaptationRecord struct {
	Type        StrategyType       `json:"type"`
	Parameters  map[string]float64 `json:"parameters,omitempty"`
	Success     float64            `json:"success"`
	Improvement float64            `json:"improvement"`
}

// Outcome reports how an applied strategy worked out.
type Outcome struct {
	StrategyID  string       `json:"strategy_id"`
	Type        StrategyType `json:"type"`
	Success     bool         `json:"success"`
	Improvement float64      `json:"improvement"`
	ObservedAt  time.Time    `json:"observed_at"`
}
