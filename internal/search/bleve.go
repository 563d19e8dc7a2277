package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"

	"github.com/hyperjump/buscador/internal/models"
)

// sourceField stores the original JSON so hits can return _source.
const sourceField = "__source"

// BleveBackend implements Backend with embedded Bleve indexes, one per index
// name. Indexes live under dir, or in memory when dir is empty.
type BleveBackend struct {
	dir string

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

// NewBleveBackend creates a backend rooted at dir ("" = in-memory).
func NewBleveBackend(dir string) (*BleveBackend, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	return &BleveBackend{dir: dir, indexes: make(map[string]bleve.Index)}, nil
}

func newIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query word
	// matches the same word in any field.
	im.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	raw := bleve.NewTextFieldMapping()
	raw.Index = false
	raw.Store = true
	raw.IncludeInAll = false
	raw.IncludeTermVectors = false
	docMapping.AddFieldMappingsAt(sourceField, raw)
	im.DefaultMapping = docMapping
	return im
}

func validIndexName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\ *?"<>|,#:`) ||
		strings.HasPrefix(name, "_") || strings.HasPrefix(name, "-") ||
		strings.HasPrefix(name, ".") || name != strings.ToLower(name) {
		return fmt.Errorf("%w: invalid index name %q", models.ErrValidation, name)
	}
	return nil
}

// open returns the named index, creating it when create is set.
func (b *BleveBackend) open(name string, create bool) (bleve.Index, error) {
	if err := validIndexName(name); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.indexes[name]; ok {
		return idx, nil
	}
	var (
		idx bleve.Index
		err error
	)
	if b.dir != "" {
		path := filepath.Join(b.dir, name)
		if _, statErr := os.Stat(path); statErr == nil {
			idx, err = bleve.Open(path)
		} else if create {
			idx, err = bleve.New(path, newIndexMapping())
		} else {
			return nil, fmt.Errorf("%w: index %q", models.ErrNotFound, name)
		}
	} else if create {
		idx, err = bleve.NewMemOnly(newIndexMapping())
	} else {
		return nil, fmt.Errorf("%w: index %q", models.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open Bleve index %q: %w", name, err)
	}
	b.indexes[name] = idx
	return idx, nil
}

func bleveDoc(src map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %v", models.ErrValidation, err)
	}
	doc := make(map[string]any, len(src)+1)
	for k, v := range src {
		if k == sourceField {
			continue
		}
		doc[k] = numericFields(v)
	}
	doc[sourceField] = string(raw)
	return doc, nil
}

// numericFields turns json.Number values into float64 so bleve maps them as
// numeric fields. The stored source keeps the original text.
func numericFields(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = numericFields(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = numericFields(e)
		}
		return out
	default:
		return v
	}
}

// Bulk indexes docs in one batch. Ids come from the documents or are generated.
func (b *BleveBackend) Bulk(ctx context.Context, index string, docs []models.Document) (BulkResult, error) {
	start := time.Now()
	idx, err := b.open(index, true)
	if err != nil {
		return BulkResult{}, err
	}
	batch := idx.NewBatch()
	failed := false
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return BulkResult{}, err
		}
		id := d.ID()
		if id == "" {
			id = uuid.New().String()
		}
		doc, err := bleveDoc(d.Source())
		if err != nil {
			failed = true
			continue
		}
		if err := batch.Index(id, doc); err != nil {
			failed = true
		}
	}
	if err := idx.Batch(batch); err != nil {
		return BulkResult{}, fmt.Errorf("%w: bleve batch: %v", models.ErrUpstream, err)
	}
	return BulkResult{Errors: failed, Items: len(docs), Took: int(time.Since(start).Milliseconds())}, nil
}

// Index writes one document.
func (b *BleveBackend) Index(_ context.Context, index, id string, src map[string]any) (WriteResult, error) {
	idx, err := b.open(index, true)
	if err != nil {
		return WriteResult{}, err
	}
	result := "created"
	if id == "" {
		id = uuid.New().String()
	} else if _, ok, err := b.source(idx, id); err != nil {
		return WriteResult{}, err
	} else if ok {
		result = "updated"
	}
	doc, err := bleveDoc(src)
	if err != nil {
		return WriteResult{}, err
	}
	if err := idx.Index(id, doc); err != nil {
		return WriteResult{}, fmt.Errorf("%w: bleve index: %v", models.ErrUpstream, err)
	}
	return WriteResult{Index: index, ID: id, Result: result}, nil
}

// Update merges src into the stored document's top-level fields.
func (b *BleveBackend) Update(_ context.Context, index, id string, src map[string]any) (WriteResult, error) {
	idx, err := b.open(index, false)
	if err != nil {
		return WriteResult{}, err
	}
	current, ok, err := b.source(idx, id)
	if err != nil {
		return WriteResult{}, err
	}
	if !ok {
		return WriteResult{}, fmt.Errorf("%w: document %q in %q", models.ErrNotFound, id, index)
	}
	for k, v := range src {
		current[k] = v
	}
	doc, err := bleveDoc(current)
	if err != nil {
		return WriteResult{}, err
	}
	if err := idx.Index(id, doc); err != nil {
		return WriteResult{}, fmt.Errorf("%w: bleve index: %v", models.ErrUpstream, err)
	}
	return WriteResult{Index: index, ID: id, Result: "updated"}, nil
}

// Delete removes a document.
func (b *BleveBackend) Delete(_ context.Context, index, id string) (WriteResult, error) {
	idx, err := b.open(index, false)
	if err != nil {
		return WriteResult{}, err
	}
	if _, ok, err := b.source(idx, id); err != nil {
		return WriteResult{}, err
	} else if !ok {
		return WriteResult{}, fmt.Errorf("%w: document %q in %q", models.ErrNotFound, id, index)
	}
	if err := idx.Delete(id); err != nil {
		return WriteResult{}, fmt.Errorf("%w: bleve delete: %v", models.ErrUpstream, err)
	}
	return WriteResult{Index: index, ID: id, Result: "deleted"}, nil
}

// source returns the stored JSON of id.
func (b *BleveBackend) source(idx bleve.Index, id string) (map[string]any, bool, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Size = 1
	req.Fields = []string{sourceField}
	res, err := idx.Search(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: bleve lookup: %v", models.ErrUpstream, err)
	}
	if len(res.Hits) == 0 {
		return nil, false, nil
	}
	return hitSource(res.Hits[0].Fields), true, nil
}

func hitSource(fields map[string]interface{}) map[string]any {
	out := map[string]any{}
	if raw, ok := fields[sourceField].(string); ok {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	return out
}

// Search translates the DSL body and runs it.
func (b *BleveBackend) Search(ctx context.Context, index string, body map[string]any) (SearchResult, error) {
	q, err := translateQuery(body["query"])
	if err != nil {
		return SearchResult{}, err
	}
	idx, err := b.open(index, false)
	if err != nil {
		return SearchResult{}, err
	}
	req := bleve.NewSearchRequest(q)
	req.Size = intValue(body["size"], models.DefaultSearchSize)
	req.From = intValue(body["from"], 0)
	req.Fields = []string{sourceField}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: bleve search: %v", models.ErrUpstream, err)
	}
	out := SearchResult{
		Total: int(res.Total),
		Took:  int(res.Took.Milliseconds()),
		Hits:  make([]models.Hit, len(res.Hits)),
	}
	for i, h := range res.Hits {
		out.Hits[i] = models.Hit{Index: index, ID: h.ID, Score: h.Score, Source: hitSource(h.Fields)}
	}
	return out, nil
}

// CreateIndex creates an empty index. Mappings and settings are accepted for
// API parity; Bleve indexes every field dynamically.
func (b *BleveBackend) CreateIndex(_ context.Context, name string, _, _ map[string]any) (WriteResult, error) {
	if err := validIndexName(name); err != nil {
		return WriteResult{}, err
	}
	if _, err := b.open(name, false); err == nil {
		return WriteResult{}, fmt.Errorf("%w: index %q", models.ErrConflict, name)
	}
	if _, err := b.open(name, true); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Index: name, Result: "created"}, nil
}

// DeleteIndex closes name and removes its files.
func (b *BleveBackend) DeleteIndex(_ context.Context, name string) (WriteResult, error) {
	idx, err := b.open(name, false)
	if err != nil {
		return WriteResult{}, err
	}
	b.mu.Lock()
	delete(b.indexes, name)
	b.mu.Unlock()
	if err := idx.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("%w: close index: %v", models.ErrUpstream, err)
	}
	if b.dir != "" {
		if err := os.RemoveAll(filepath.Join(b.dir, name)); err != nil {
			return WriteResult{}, fmt.Errorf("%w: remove index: %v", models.ErrUpstream, err)
		}
	}
	return WriteResult{Index: name, Result: "deleted"}, nil
}

// Ping always succeeds for an open backend.
func (b *BleveBackend) Ping(context.Context) error {
	return nil
}

// Close closes every open index.
func (b *BleveBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for name, idx := range b.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(b.indexes, name)
	}
	return errors.Join(errs...)
}

func intValue(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}
