// Package transcript provides sinks for gateway transcript entries.
//
// The engine hands every agent-turn TranscriptEntry to a
// gateway.TranscriptWriter as soon as the gateway call completes. The
// transcript is an audit trail kept apart from the canonical event log: it
// carries wall-clock timestamps and durations, so it is never part of
// deterministic replay.
//
// Three sinks are provided:
//
//   - MemoryWriter keeps entries in memory (tests, single-process tooling).
//   - JSONLWriter appends canonical JSON Lines to any io.Writer.
//   - RedisStreamWriter appends entries to a per-match Redis stream and can
//     announce them on a pub/sub channel.
//
// Writers are safe for concurrent use; solo matches running in parallel
// share a single sink.
package transcript
