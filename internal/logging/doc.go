// Package logging wraps Zap for the personalization core.
//
// Two concerns live here beyond plain logger construction: user-ID
// redaction (every log line in this module is about a user, and raw user
// identifiers must not reach log sinks) and an observer-backed test logger
// for asserting on emitted entries.
package logging
