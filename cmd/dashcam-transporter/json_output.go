package main

import (
	"encoding/json"
	"io"
)

// writeJSON prints v as indented JSON. File names are written verbatim, so
// HTML escaping is off.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
