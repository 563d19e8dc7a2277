package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/hyperjump/buscador/internal/models"
)

// ElasticConfig holds the remote engine endpoint and API key.
type ElasticConfig struct {
	URL    string
	APIKey string
	// Transport overrides the HTTP transport; nil uses the client default.
	Transport http.RoundTripper
}

// ElasticBackend implements Backend over an Elasticsearch HTTP API.
type ElasticBackend struct {
	es *elasticsearch.Client
}

// NewElasticBackend creates a client authenticated with cfg.APIKey.
// A missing URL or key is a configuration error.
func NewElasticBackend(cfg ElasticConfig) (*ElasticBackend, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: elastic url and api key are required", models.ErrConfig)
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		APIKey:    cfg.APIKey,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create elastic client: %v", models.ErrConfig, err)
	}
	return &ElasticBackend{es: es}, nil
}

type esWriteResponse struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Result string `json:"result"`
}

type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Index  string         `json:"_index"`
			ID     string         `json:"_id"`
			Score  *float64       `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type esBulkResponse struct {
	Took   int               `json:"took"`
	Errors bool              `json:"errors"`
	Items  []json.RawMessage `json:"items"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// Bulk posts the NDJSON body to /_bulk.
func (b *ElasticBackend) Bulk(ctx context.Context, index string, docs []models.Document) (BulkResult, error) {
	body, err := BulkBody(index, docs)
	if err != nil {
		return BulkResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/_bulk", bytes.NewReader(body))
	if err != nil {
		return BulkResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	res, err := b.es.Perform(req)
	if err != nil {
		return BulkResult{}, fmt.Errorf("%w: bulk request: %v", models.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.StatusCode > 299 {
		return BulkResult{}, statusError("bulk", res.StatusCode, res.Body)
	}
	var out esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return BulkResult{}, fmt.Errorf("%w: decode bulk response: %v", models.ErrUpstream, err)
	}
	return BulkResult{Errors: out.Errors, Items: len(out.Items), Took: out.Took}, nil
}

// Index writes doc to /{index}/_doc[/{id}].
func (b *ElasticBackend) Index(ctx context.Context, index, id string, doc map[string]any) (WriteResult, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: encode document: %v", models.ErrValidation, err)
	}
	opts := []func(*esapi.IndexRequest){b.es.Index.WithContext(ctx)}
	if id != "" {
		opts = append(opts, b.es.Index.WithDocumentID(id))
	}
	res, err := b.es.Index(index, bytes.NewReader(body), opts...)
	return decodeWrite("index", res, err)
}

// Update merges doc into /{index}/_update/{id}.
func (b *ElasticBackend) Update(ctx context.Context, index, id string, doc map[string]any) (WriteResult, error) {
	body, err := json.Marshal(map[string]any{"doc": doc})
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: encode document: %v", models.ErrValidation, err)
	}
	res, err := b.es.Update(index, id, bytes.NewReader(body), b.es.Update.WithContext(ctx))
	return decodeWrite("update", res, err)
}

// Delete removes /{index}/_doc/{id}.
func (b *ElasticBackend) Delete(ctx context.Context, index, id string) (WriteResult, error) {
	res, err := b.es.Delete(index, id, b.es.Delete.WithContext(ctx))
	return decodeWrite("delete", res, err)
}

// Search posts body to /{index}/_search.
func (b *ElasticBackend) Search(ctx context.Context, index string, body map[string]any) (SearchResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return SearchResult{}, fmt.Errorf("%w: encode query: %v", models.ErrValidation, err)
	}
	res, err := b.es.Search(
		b.es.Search.WithContext(ctx),
		b.es.Search.WithIndex(index),
		b.es.Search.WithBody(&buf),
		b.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: search request: %v", models.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return SearchResult{}, statusError("search", res.StatusCode, res.Body)
	}
	var raw esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return SearchResult{}, fmt.Errorf("%w: decode search response: %v", models.ErrUpstream, err)
	}
	out := SearchResult{Total: raw.Hits.Total.Value, Took: raw.Took, Hits: make([]models.Hit, 0, len(raw.Hits.Hits))}
	for _, h := range raw.Hits.Hits {
		hit := models.Hit{Index: h.Index, ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// CreateIndex issues PUT /{name} with optional mappings and settings.
func (b *ElasticBackend) CreateIndex(ctx context.Context, name string, mappings, settings map[string]any) (WriteResult, error) {
	opts := []func(*esapi.IndicesCreateRequest){b.es.Indices.Create.WithContext(ctx)}
	spec := map[string]any{}
	if len(mappings) > 0 {
		spec["mappings"] = mappings
	}
	if len(settings) > 0 {
		spec["settings"] = settings
	}
	if len(spec) > 0 {
		body, err := json.Marshal(spec)
		if err != nil {
			return WriteResult{}, fmt.Errorf("%w: encode index body: %v", models.ErrValidation, err)
		}
		opts = append(opts, b.es.Indices.Create.WithBody(bytes.NewReader(body)))
	}
	res, err := b.es.Indices.Create(name, opts...)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: create index: %v", models.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return WriteResult{}, statusError("create index", res.StatusCode, res.Body)
	}
	return WriteResult{Index: name, Result: "created"}, nil
}

// DeleteIndex issues DELETE /{name}.
func (b *ElasticBackend) DeleteIndex(ctx context.Context, name string) (WriteResult, error) {
	res, err := b.es.Indices.Delete([]string{name}, b.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: delete index: %v", models.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return WriteResult{}, statusError("delete index", res.StatusCode, res.Body)
	}
	return WriteResult{Index: name, Result: "deleted"}, nil
}

// Ping issues HEAD /.
func (b *ElasticBackend) Ping(ctx context.Context) error {
	res, err := b.es.Ping(b.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: ping: %v", models.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: ping status %d", models.ErrUpstream, res.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (b *ElasticBackend) Close() error {
	return nil
}

func decodeWrite(op string, res *esapi.Response, err error) (WriteResult, error) {
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: %s request: %v", models.ErrUpstream, op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return WriteResult{}, statusError(op, res.StatusCode, res.Body)
	}
	var out esWriteResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return WriteResult{}, fmt.Errorf("%w: decode %s response: %v", models.ErrUpstream, op, err)
	}
	return WriteResult(out), nil
}

// statusError maps an engine error response to a sentinel-wrapped error.
func statusError(op string, status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	msg := string(bytes.TrimSpace(raw))
	var e esErrorResponse
	if json.Unmarshal(raw, &e) == nil && e.Error.Reason != "" {
		msg = e.Error.Type + ": " + e.Error.Reason
	}
	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = models.ErrValidation
		if e.Error.Type == "resource_already_exists_exception" {
			sentinel = models.ErrConflict
		}
	case http.StatusNotFound:
		sentinel = models.ErrNotFound
	case http.StatusConflict:
		sentinel = models.ErrConflict
	default:
		sentinel = models.ErrUpstream
	}
	return fmt.Errorf("%w: %s [%d]: %s", sentinel, op, status, msg)
}
