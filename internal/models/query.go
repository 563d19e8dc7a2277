package models

import (
	"fmt"
	"strings"
)

// Write operations accepted by a WriteCommand.
const (
	OpIndex  = "index"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Default and maximum hit counts for text searches.
const (
	DefaultSearchSize = 10
	MaxSearchSize     = 100
)

// TextQuery is a free-text search request.
type TextQuery struct {
	Index  string   `json:"index"`
	Text   string   `json:"q"`
	Fields []string `json:"fields,omitempty"`
	Size   int      `json:"size,omitempty"`
}

// Validate ensures the query has text and normalizes index and size.
func (q *TextQuery) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrValidation)
	}
	if q.Index == "" {
		q.Index = DefaultIndex
	}
	q.Size = ClampSize(q.Size)
	return nil
}

// ClampSize applies the default hit count and caps it.
func ClampSize(size int) int {
	if size <= 0 {
		return DefaultSearchSize
	}
	if size > MaxSearchSize {
		return MaxSearchSize
	}
	return size
}

// WriteCommand is an elementary create/update/delete-by-id operation.
type WriteCommand struct {
	Operacion string         `json:"operacion"`
	Index     string         `json:"index"`
	ID        string         `json:"id,omitempty"`
	Documento map[string]any `json:"documento,omitempty"`
}

// Validate checks the operation name and its required fields.
func (c *WriteCommand) Validate() error {
	c.Operacion = strings.ToLower(strings.TrimSpace(c.Operacion))
	if c.Index == "" {
		c.Index = DefaultIndex
	}
	switch c.Operacion {
	case OpIndex:
		if len(c.Documento) == 0 {
			return fmt.Errorf("%w: documento is required for index", ErrValidation)
		}
	case OpUpdate:
		if c.ID == "" || len(c.Documento) == 0 {
			return fmt.Errorf("%w: id and documento are required for update", ErrValidation)
		}
	case OpDelete:
		if c.ID == "" {
			return fmt.Errorf("%w: id is required for delete", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: %q (use index, update or delete)", ErrInvalidOperation, c.Operacion)
	}
	return nil
}
