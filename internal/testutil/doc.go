// Package testutil contains fakes and builders shared by tests: a counter
// scenario in shared and solo flavours, agents that stall or never answer,
// and a fluent event stream builder. They are not intended for production
// usage.
package testutil
