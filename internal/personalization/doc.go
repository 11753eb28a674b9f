// Package personalization coordinates the per-user learning components
// behind one service facade: preference learning, pattern detection,
// action and satisfaction prediction, contextual action selection, and
// peer-based adaptation.
//
// Operations for different users run independently. Operations for the
// same user are serialized behind a per-user lock because reward
// updates mutate state read by selection. The service performs no I/O;
// callers supply interaction history and consume the returned models,
// patterns, and strategies.
package personalization
