// Package search provides the search client used by ingestion, the public
// search page, and the index administration console.
package search

import (
	"context"

	"github.com/hyperjump/buscador/internal/models"
)

// Backend is a search engine the Client delegates to. Implementations return
// errors wrapping the sentinels in models.
type Backend interface {
	Bulk(ctx context.Context, index string, docs []models.Document) (BulkResult, error)
	Index(ctx context.Context, index, id string, doc map[string]any) (WriteResult, error)
	Update(ctx context.Context, index, id string, doc map[string]any) (WriteResult, error)
	Delete(ctx context.Context, index, id string) (WriteResult, error)
	// Search runs a query DSL body ({"query":{...},"size":n}).
	Search(ctx context.Context, index string, body map[string]any) (SearchResult, error)
	CreateIndex(ctx context.Context, name string, mappings, settings map[string]any) (WriteResult, error)
	DeleteIndex(ctx context.Context, name string) (WriteResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// BulkResult summarizes a bulk request. Errors mirrors the engine flag that
// reports whether any item failed.
type BulkResult struct {
	Errors bool
	Items  int
	Took   int
}

// WriteResult describes a single-document or index write.
type WriteResult struct {
	Index  string
	ID     string
	Result string
}

// SearchResult holds hits and the total match count.
type SearchResult struct {
	Total int
	Took  int
	Hits  []models.Hit
}
