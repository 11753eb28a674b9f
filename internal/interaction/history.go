package interaction

import (
	"sort"
	"time"
)

// UserHistory is the ordered record of one user's interactions and sessions,
// plus the user's current stored preference values. It grows monotonically;
// queries are by recency window.
//
// Preferences is a snapshot of attribute -> stored weight, maintained by the
// preference learner. The pattern detector reads it to measure how consistent
// observed behavior is with learned preferences.
type UserHistory struct {
	UserID       string             `json:"user_id"`
	Interactions []Interaction      `json:"interactions"`
	Sessions     []Session          `json:"sessions"`
	Preferences  map[string]float64 `json:"preferences,omitempty"`
}

// NewUserHistory creates an empty history for the given user.
func NewUserHistory(userID string) (*UserHistory, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	return &UserHistory{
		UserID:      userID,
		Preferences: make(map[string]float64),
	}, nil
}

// Append adds an interaction, keeping the slice ordered by timestamp.
// Out-of-order arrivals are tolerated (late batch ingestion) and inserted
// at the right position.
func (h *UserHistory) Append(i Interaction) {
	n := len(h.Interactions)
	if n == 0 || !i.Timestamp.Before(h.Interactions[n-1].Timestamp) {
		h.Interactions = append(h.Interactions, i)
		return
	}
	idx := sort.Search(n, func(j int) bool {
		return h.Interactions[j].Timestamp.After(i.Timestamp)
	})
	h.Interactions = append(h.Interactions, Interaction{})
	copy(h.Interactions[idx+1:], h.Interactions[idx:])
	h.Interactions[idx] = i
}

// AppendSession records a completed session summary.
func (h *UserHistory) AppendSession(s Session) {
	h.Sessions = append(h.Sessions, s)
}

// Recent returns the interactions whose timestamp falls within the window
// ending at now. The returned slice shares backing storage with the history
// and must not be mutated.
func (h *UserHistory) Recent(now time.Time, window time.Duration) []Interaction {
	cutoff := now.Add(-window)
	idx := sort.Search(len(h.Interactions), func(j int) bool {
		return h.Interactions[j].Timestamp.After(cutoff)
	})
	return h.Interactions[idx:]
}

// Len returns the number of recorded interactions.
func (h *UserHistory) Len() int { return len(h.Interactions) }

// MeanSatisfaction returns the unweighted mean satisfaction, or def when
// the history is empty.
func (h *UserHistory) MeanSatisfaction(def float64) float64 {
	if len(h.Interactions) == 0 {
		return def
	}
	total := 0.0
	for _, i := range h.Interactions {
		total += i.Satisfaction
	}
	return total / float64(len(h.Interactions))
}
