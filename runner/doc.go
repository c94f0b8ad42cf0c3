// Package runner plays series of matches.
//
// A series is one scenario played once per seed with a fresh set of agents
// each time. Matches run concurrently up to MaxConcurrentMatches; the
// resulting Series lists the match results in seed order and tallies
// standings per agent, so its content does not depend on scheduling.
//
// Each match is an independent engine.Run: its own seed derivation, its own
// event log, its own transcript entries. Individual matches can be cancelled
// by match id while the series is running.
package runner
