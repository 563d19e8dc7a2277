package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hyperjump/buscador/internal/models"
)

// BulkBody encodes docs as a newline-delimited bulk request: an action line
// {"index":{"_index":...}} per document, carrying "_id" when the document has
// one, followed by the document source.
func BulkBody(index string, docs []models.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, doc := range docs {
		meta := map[string]any{"_index": index}
		if id := doc.ID(); id != "" {
			meta["_id"] = id
		}
		if err := enc.Encode(map[string]any{"index": meta}); err != nil {
			return nil, fmt.Errorf("encode action %d: %w", i, err)
		}
		if err := enc.Encode(doc.Source()); err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", models.ErrValidation, i, err)
		}
	}
	return buf.Bytes(), nil
}
