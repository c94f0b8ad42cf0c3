package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// matchNamespace scopes deterministic match ids.
var matchNamespace = uuid.MustParse("6f1c3c2e-8a54-4b8e-9d3e-2b7f0f6a9c11")

// NewMatchID derives a deterministic UUIDv5 from the match inputs, so a match
// without an explicit id still serializes byte-identically across runs.
func NewMatchID(scenario string, seed int32, agentIDs []string) string {
	key := fmt.Sprintf("%s|%d|%s", scenario, seed, strings.Join(agentIDs, ","))
	return uuid.NewSHA1(matchNamespace, []byte(key)).String()
}

// NewRandomID returns a random UUIDv4 for ids that need not be reproducible.
func NewRandomID() string { return uuid.NewString() }
