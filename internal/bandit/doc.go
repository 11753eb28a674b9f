// Package bandit implements a contextual upper-confidence-bound optimizer
// over candidate actions.
//
// Expected reward per action blends the action's historical mean reward with
// a shared linear model over a normalized 10-dimensional context encoding.
// An exploration bonus grows for under-sampled actions, shrinking as pulls
// accumulate. Updates append to per-action history and take one clamped
// gradient step on the shared weights.
//
// An Optimizer serializes its own state internally; callers still need a
// per-user optimizer instance, since reward history is user-scoped.
package bandit
