// Package agent contains ready-made match participants.
//
//   - Base carries identity and the configuration handed over by Init
//   - Func adapts a closure into an agent
//   - Scripted replays a fixed action sequence, turn by turn
//   - ModelAgent prompts a language model and extracts a JSON action
//
// Every agent draws randomness only from the per-call ActContext.RNG and
// treats observations as read-only, so matches replay identically.
package agent
