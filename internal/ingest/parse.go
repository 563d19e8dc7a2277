package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/buscador/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseDocuments decodes a JSON object as one document or a JSON array as one
// document per object element. Numbers stay json.Number so ids and large
// integers reach the index as written. Non-object array elements are skipped with a
// warning; any other top-level value is an error.
func parseDocuments(data []byte, label string) ([]models.Document, []string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, errors.New("invalid JSON: trailing data after top-level value")
	}
	switch t := v.(type) {
	case map[string]any:
		return []models.Document{t}, nil, nil
	case []any:
		docs := make([]models.Document, 0, len(t))
		var warns []string
		for i, el := range t {
			obj, ok := el.(map[string]any)
			if !ok {
				warns = append(warns, fmt.Sprintf("%s: element %d is not an object", label, i))
				continue
			}
			docs = append(docs, obj)
		}
		return docs, warns, nil
	default:
		return nil, nil, errors.New("top-level value must be an object or an array")
	}
}
