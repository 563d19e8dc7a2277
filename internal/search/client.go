package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
)

// termFields are searched by SearchTerms, boosted the way the public search page ranks them.
var termFields = []string{"term_child^3", "term_parent^2", "definition", "pdf_text", "contenido", "titulo"}

// excerptLen bounds the contenido snippet shown for each term hit.
const excerptLen = 300

// Client runs search operations against a Backend and reports every result as
// a models.Outcome. Failures are logged and returned as Success=false outcomes.
type Client struct {
	backend        Backend
	defaultIndex   string
	requestTimeout time.Duration
	logger         *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultIndex sets the index used when a caller passes an empty name.
func WithDefaultIndex(name string) Option {
	return func(c *Client) { c.defaultIndex = name }
}

// WithRequestTimeout bounds every backend call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a search client over backend.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{backend: backend, defaultIndex: models.DefaultIndex, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultIndex returns the index used for empty names.
func (c *Client) DefaultIndex() string {
	return c.defaultIndex
}

func (c *Client) index(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return c.defaultIndex
}

func (c *Client) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

func (c *Client) fail(op string, err error, fields ...zap.Field) models.Outcome {
	c.logger.Warn("search "+op+" failed", append(fields, zap.Error(err))...)
	return models.Failure(err)
}

// BulkIndex writes docs to index in one request. An empty batch fails with
// models.ErrEmptyInput and never reaches the backend.
func (c *Client) BulkIndex(ctx context.Context, index string, docs []models.Document) models.Outcome {
	index = c.index(index)
	if len(docs) == 0 {
		return c.fail("bulk", fmt.Errorf("%w: no documents to index", models.ErrEmptyInput), zap.String("index", index))
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	res, err := c.backend.Bulk(ctx, index, docs)
	if err != nil {
		return c.fail("bulk", err, zap.String("index", index), zap.Int("docs", len(docs)))
	}
	c.logger.Info("bulk indexed",
		zap.String("index", index),
		zap.Int("items", res.Items),
		zap.Bool("errors", res.Errors),
		zap.Int("took_ms", res.Took))
	return models.Outcome{
		Success: true,
		Index:   index,
		Errors:  res.Errors,
		Items:   res.Items,
		Took:    res.Took,
	}
}

// IndexDocument writes one document. An empty id lets the engine assign one.
func (c *Client) IndexDocument(ctx context.Context, index string, doc models.Document, id string) models.Outcome {
	index = c.index(index)
	if len(doc) == 0 {
		return c.fail("index", fmt.Errorf("%w: empty document", models.ErrEmptyInput))
	}
	if id == "" {
		id = doc.ID()
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	res, err := c.backend.Index(ctx, index, id, doc.Source())
	if err != nil {
		return c.fail("index", err, zap.String("index", index), zap.String("id", id))
	}
	return writeOutcome(res)
}

// TextSearch runs a free-text query. Non-empty fields restrict the match to
// those fields; otherwise every field is searched.
func (c *Client) TextSearch(ctx context.Context, q models.TextQuery) models.Outcome {
	if q.Index == "" {
		q.Index = c.defaultIndex
	}
	if err := q.Validate(); err != nil {
		return c.fail("text", err)
	}
	var clause map[string]any
	if len(q.Fields) > 0 {
		clause = map[string]any{"multi_match": map[string]any{"query": q.Text, "fields": q.Fields}}
	} else {
		clause = map[string]any{"query_string": map[string]any{"query": q.Text}}
	}
	return c.search(ctx, "text", q.Index, map[string]any{"query": clause, "size": q.Size})
}

// RawQuery runs a query DSL body. body may be {"query":{...}} or the bare
// query object. size <= 0 keeps the body's size or the default.
func (c *Client) RawQuery(ctx context.Context, index string, body map[string]any, size int) models.Outcome {
	index = c.index(index)
	if len(body) == 0 {
		return c.fail("query", fmt.Errorf("%w: query body is required", models.ErrValidation))
	}
	var req map[string]any
	if _, ok := body["query"]; ok {
		req = make(map[string]any, len(body)+1)
		for k, v := range body {
			req[k] = v
		}
	} else {
		req = map[string]any{"query": body}
	}
	switch {
	case size > 0:
		req["size"] = models.ClampSize(size)
	case req["size"] == nil:
		req["size"] = models.DefaultSearchSize
	}
	return c.search(ctx, "query", index, req)
}

func (c *Client) search(ctx context.Context, op, index string, body map[string]any) models.Outcome {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	res, err := c.backend.Search(ctx, index, body)
	if err != nil {
		return c.fail(op, err, zap.String("index", index))
	}
	hits := res.Hits
	if hits == nil {
		hits = []models.Hit{}
	}
	return models.Outcome{
		Success:    true,
		Index:      index,
		Total:      res.Total,
		Took:       res.Took,
		Resultados: hits,
	}
}

// RawWrite executes an index, update, or delete command. Unknown operations
// and missing fields are rejected before any backend call.
func (c *Client) RawWrite(ctx context.Context, cmd models.WriteCommand) models.Outcome {
	if cmd.Index == "" {
		cmd.Index = c.defaultIndex
	}
	if err := cmd.Validate(); err != nil {
		return c.fail("write", err)
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	var (
		res WriteResult
		err error
	)
	switch cmd.Operacion {
	case models.OpIndex:
		doc := models.Document(cmd.Documento)
		id := cmd.ID
		if id == "" {
			id = doc.ID()
		}
		res, err = c.backend.Index(ctx, cmd.Index, id, doc.Source())
	case models.OpUpdate:
		res, err = c.backend.Update(ctx, cmd.Index, cmd.ID, models.Document(cmd.Documento).Source())
	case models.OpDelete:
		res, err = c.backend.Delete(ctx, cmd.Index, cmd.ID)
	}
	if err != nil {
		return c.fail("write", err, zap.String("op", cmd.Operacion), zap.String("index", cmd.Index), zap.String("id", cmd.ID))
	}
	c.logger.Info("write command applied",
		zap.String("op", cmd.Operacion),
		zap.String("index", res.Index),
		zap.String("id", res.ID),
		zap.String("result", res.Result))
	return writeOutcome(res)
}

// ListIndices reports the document count of index with a size-0 match_all
// search, which needs no cluster-level privileges.
func (c *Client) ListIndices(ctx context.Context, index string) models.Outcome {
	index = c.index(index)
	out := c.search(ctx, "count", index, map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"size":  0,
	})
	if out.Success {
		out.Resultados = nil
		out.Message = fmt.Sprintf("%s: %d documentos", index, out.Total)
	}
	return out
}

// CreateIndex creates name with optional mappings and settings.
func (c *Client) CreateIndex(ctx context.Context, name string, mappings, settings map[string]any) models.Outcome {
	if strings.TrimSpace(name) == "" {
		return c.fail("create index", fmt.Errorf("%w: index name is required", models.ErrValidation))
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	res, err := c.backend.CreateIndex(ctx, name, mappings, settings)
	if err != nil {
		return c.fail("create index", err, zap.String("index", name))
	}
	return writeOutcome(res)
}

// DeleteIndex removes name and its documents.
func (c *Client) DeleteIndex(ctx context.Context, name string) models.Outcome {
	if strings.TrimSpace(name) == "" {
		return c.fail("delete index", fmt.Errorf("%w: index name is required", models.ErrValidation))
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	res, err := c.backend.DeleteIndex(ctx, name)
	if err != nil {
		return c.fail("delete index", err, zap.String("index", name))
	}
	return writeOutcome(res)
}

// SearchTerms runs the public search page query and projects each hit to the
// fields the page renders. Failures yield an empty list.
func (c *Client) SearchTerms(ctx context.Context, index, text string, size int) []models.TermHit {
	text = strings.TrimSpace(text)
	if text == "" {
		return []models.TermHit{}
	}
	out := c.search(ctx, "terms", c.index(index), map[string]any{
		"query": map[string]any{"multi_match": map[string]any{
			"query":  text,
			"fields": termFields,
		}},
		"size": models.ClampSize(size),
	})
	if !out.Success {
		return []models.TermHit{}
	}
	hits := make([]models.TermHit, 0, len(out.Resultados))
	for _, h := range out.Resultados {
		src := h.Source
		th := models.TermHit{
			Score:      h.Score,
			TermParent: src["term_parent"],
			TermChild:  src["term_child"],
			Definition: src["definition"],
			SourceURL:  src["source_url"],
			FileName:   src["file_name"],
			Titulo:     src["titulo"],
			URLPDF:     src["url_pdf"],
		}
		if s, ok := src["contenido"].(string); ok {
			th.Contenido = Excerpt(s, text, excerptLen)
		}
		hits = append(hits, th)
	}
	return hits
}

// Ping reports whether the engine answers.
func (c *Client) Ping(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("search ping panicked", zap.Any("panic", r))
			ok = false
		}
	}()
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	if err := c.backend.Ping(ctx); err != nil {
		c.logger.Debug("search ping failed", zap.Error(err))
		return false
	}
	return true
}

// Close releases the backend.
func (c *Client) Close() error {
	return c.backend.Close()
}

func writeOutcome(res WriteResult) models.Outcome {
	return models.Outcome{Success: true, Index: res.Index, ID: res.ID, Result: res.Result}
}
