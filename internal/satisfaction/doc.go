// Package satisfaction projects a user's satisfaction forward over a bounded
// horizon.
//
// The projection starts from a recency-weighted baseline of observed
// satisfaction and applies multiplicative adjustments per step: a session
// momentum factor, a context factor (complexity, expertise, support), a
// fatigue decay, and an engagement boost. Each point carries a confidence
// band that widens with distance from now.
package satisfaction
