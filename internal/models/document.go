package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultIndex is the index used when the caller does not name one.
const DefaultIndex = "lenguaje_controlado"

// Document is a schemaless JSON object destined for a search index.
type Document map[string]any

// ID returns the document identity taken from "id" or "_id", or "" when the
// index should assign one.
func (d Document) ID() string {
	for _, key := range []string{"id", "_id"} {
		v, ok := d[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case json.Number:
			return t.String()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

// Source returns the document body to index. The "_id" metadata field is
// removed because search engines reject it inside the source.
func (d Document) Source() map[string]any {
	if _, ok := d["_id"]; !ok {
		return d
	}
	out := make(map[string]any, len(d))
	for k, v := range d {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}
