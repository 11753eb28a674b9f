// Package preference converts raw interaction history into a preference
// profile: attribute weights, a compressed behavioral embedding, time-of-day
// modifiers, context-correlation modifiers, and per-weight confidence
// intervals.
//
// Learn is a pure batch computation: it rebuilds the whole model from the
// given interactions and never mutates shared state. Incremental single-key
// updates go through Model.Update (an EMA blend), and context-adjusted reads
// through Model.ForContext.
//
// Empty input yields a fixed neutral model (all weights 0.5, wide bands), so
// callers never see an error for missing data.
package preference
