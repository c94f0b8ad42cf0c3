// Package canonical produces stable JSON encodings: compact, object keys
// sorted at every depth, HTML characters left unescaped. Two values that are
// equal as JSON always encode to the same bytes.
package canonical

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/pretty"
)

var sortOpts = &pretty.Options{SortKeys: true}

// Marshal encodes v as canonical JSON.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return Normalize(buf.Bytes()), nil
}

// Normalize rewrites already-encoded JSON into canonical form.
func Normalize(data []byte) []byte {
	return pretty.Ugly(pretty.PrettyOptions(data, sortOpts))
}
