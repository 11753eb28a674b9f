// Package action predicts the user's next likely action from active behavior
// patterns and interaction history.
//
// Matching patterns vote for the action they suggest, weighted by their
// prediction strength and by the historical success rate of that action under
// similar context. With no matching pattern the predictor falls back to a
// documented low-confidence default driven by task complexity and recent
// satisfaction.
package action
