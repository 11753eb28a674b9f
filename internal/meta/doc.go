// Package meta transfers adaptation strategies between similar users.
//
// What transfers is the strategy (how quickly and aggressively to adapt),
// never raw preferences. Peers are compared by cosine similarity over a
// fixed 12-dimensional profile vector; only peers above the similarity
// threshold contribute, weighted by how similar they are. Every produced
// strategy carries a risk assessment and rollback conditions, and recorded
// outcomes build the per-user history future transfers draw from.
package meta
