// Package model defines the provider-agnostic abstraction used by LLM-backed
// agents to turn an observation prompt into a completion.
//
// Providers (OpenAI, Anthropic) live in sub-packages and implement Model so
// agents stay decoupled from vendor SDKs. MockModel serves tests and offline
// matches.
package model
