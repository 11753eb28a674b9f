package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors for interaction records.
var (
	ErrEmptyActionType  = errors.New("action type cannot be empty")
	ErrInvalidSignal    = errors.New("signal values must be between 0.0 and 1.0")
	ErrNegativeDuration = errors.New("duration cannot be negative")
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
)

// Context attribute names agreed with the upstream session manager.
// Live context maps are keyed by these names; derived keys (hour, weekday)
// are added by the coordinator before prediction.
const (
	KeyTimeOfDay       = "time_of_day"
	KeyTaskComplexity  = "task_complexity"
	KeyUserExpertise   = "user_expertise"
	KeyEngagementScore = "engagement_score"
	KeySupportAvail    = "support_available"
	KeyTimePressure    = "time_pressure"
	KeyHourOfDay       = "hour_of_day"
	KeyDayOfWeek       = "day_of_week"
	KeySessionLength   = "session_length"
)

// ContentDescriptor captures normalized properties of the content a user
// consumed during an interaction. All fields are in [0, 1] except
// ContentType, which is a free-form label ("summary", "deep_dive", ...).
type ContentDescriptor struct {
	Length         float64 `json:"length"`
	TechnicalLevel float64 `json:"technical_level"`
	Formality      float64 `json:"formality"`
	Friendliness   float64 `json:"friendliness"`
	ContentType    string  `json:"content_type"`
}

// Interaction is an immutable, append-only behavioral event.
//
// Satisfaction, Engagement and Completion are normalized signals in [0, 1].
// Context holds numeric attributes keyed by the agreed names above; Labels
// holds non-numeric context (previous action, topic tags).
type Interaction struct {
	ID           string             `json:"id"`
	Timestamp    time.Time          `json:"timestamp"`
	ActionType   string             `json:"action_type"`
	Duration     time.Duration      `json:"duration"`
	Satisfaction float64            `json:"satisfaction"`
	Engagement   float64            `json:"engagement"`
	Completion   float64            `json:"completion"`
	Context      map[string]float64 `json:"context,omitempty"`
	Labels       map[string]string  `json:"labels,omitempty"`
	Content      *ContentDescriptor `json:"content,omitempty"`
}

// New creates a validated interaction with a generated ID.
func New(actionType string, ts time.Time, duration time.Duration, satisfaction, engagement, completion float64) (*Interaction, error) {
	i := &Interaction{
		ID:           uuid.New().String(),
		Timestamp:    ts,
		ActionType:   actionType,
		Duration:     duration,
		Satisfaction: satisfaction,
		Engagement:   engagement,
		Completion:   completion,
	}
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// Validate checks the interaction invariants.
func (i *Interaction) Validate() error {
	if i.ActionType == "" {
		return ErrEmptyActionType
	}
	if i.Duration < 0 {
		return ErrNegativeDuration
	}
	for name, v := range map[string]float64{
		"satisfaction": i.Satisfaction,
		"engagement":   i.Engagement,
		"completion":   i.Completion,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidSignal, name, v)
		}
	}
	return nil
}

// ContextValue returns the named numeric context attribute, or def when the
// attribute is absent.
func (i *Interaction) ContextValue(key string, def float64) float64 {
	if v, ok := i.Context[key]; ok {
		return v
	}
	return def
}

// Session summarizes one bounded stretch of user activity.
type Session struct {
	StartSatisfaction float64       `json:"start_satisfaction"`
	EndSatisfaction   float64       `json:"end_satisfaction"`
	Duration          time.Duration `json:"duration"`
	CompletionRate    float64       `json:"completion_rate"`
}

// SatisfactionDelta returns the satisfaction change over the session.
func (s Session) SatisfactionDelta() float64 {
	return s.EndSatisfaction - s.StartSatisfaction
}
