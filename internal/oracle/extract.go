package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON locates the first well-formed JSON object or array inside
// free-form oracle text and unmarshals it into v. The oracle wraps its
// payload in prose, markdown fences, or both — all of that is tolerated.
// Returns ErrMalformedOutput (wrapped) when no usable payload exists.
func ExtractJSON(text string, v any) error {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}

		// Decode exactly one value starting here. A raw decode first so a
		// shape mismatch doesn't leave v half-populated.
		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&raw); err != nil {
			continue // not a complete value at this offset, keep scanning
		}
		if err := json.Unmarshal(raw, v); err != nil {
			continue // well-formed JSON but wrong shape, keep scanning
		}
		return nil
	}
	return fmt.Errorf("%w: no structured payload found in %d bytes of text", ErrMalformedOutput, len(text))
}
