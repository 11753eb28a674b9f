// Package pattern mines recurring behaviors from interaction history.
//
// Five miners run over a user's history: sequential (repeated action
// trigrams), cyclical (weekday/hour buckets), contextual (task-complexity
// tiers), preference (behavior consistent with stored preference values),
// and temporal (satisfaction trending over time). Each emits Pattern records
// with a frequency, a confidence, and the context conditions under which the
// pattern applies.
//
// Patterns are mutable after detection: UpdateFromObservation nudges
// frequency and confidence as live outcomes arrive. A per-user Cache keeps
// detected patterns behind a freshness window so detection cost is paid at
// most once per window unless a caller forces a refresh.
package pattern
