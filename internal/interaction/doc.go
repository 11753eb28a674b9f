// Package interaction defines the behavioral event model shared by every
// learning component: immutable Interaction events, Session summaries, and
// the append-only UserHistory they accumulate into.
//
// Interactions carry three normalized satisfaction signals (satisfaction,
// engagement, completion) plus a free-form numeric context map and optional
// content descriptors. All signal values are validated into [0, 1] at
// construction time so downstream statistics never have to re-clamp inputs.
package interaction
