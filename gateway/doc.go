// Package gateway decouples "ask an agent for an action" from "where the agent
// runs".
//
// One interface, Adapter, has two implementations:
//
//   - LocalAdapter races an in-process Agent.Act call against a deadline.
//   - HTTPAdapter posts a versioned, canonical JSON request to a remote agent
//     and validates the correlated response under a size ceiling.
//
// Both share one guarantee: RequestAction never fails. Every outcome resolves
// to an action (the agent's, or the supplied fallback) plus a TranscriptEntry
// whose Status classifies what happened:
//
//	ok               the agent answered in time with a well-formed action
//	timeout          the deadline expired first
//	error            the agent failed (error, panic, transport, retries exhausted)
//	invalid_response the answer was oversized, malformed or not correlated
//
// NewHandler serves a local Agent over the same wire protocol, so any agent can
// be hosted remotely.
package gateway
