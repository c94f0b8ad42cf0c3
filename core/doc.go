// Package core provides the foundational domain types and contracts used by
// matcharena. It defines the core abstractions for:
//
//   - Agents (pluggable decision-makers consumed through Init/Act)
//   - Scenarios (deterministic rule sets generic over an opaque state type)
//   - Events (the canonical, seq-ordered, replayable match log)
//   - MatchResult (the terminal aggregate of a match)
//
// The package intentionally keeps orchestration, transport and persistence out
// of scope, exposing small interfaces so unrelated games and agent runtimes can
// share one engine.
package core
