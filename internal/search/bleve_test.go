package search

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/buscador/internal/models"
)

func newBleveClient(t *testing.T, dir string) *Client {
	t.Helper()
	backend, err := NewBleveBackend(dir)
	if err != nil {
		t.Fatalf("NewBleveBackend: %v", err)
	}
	c := NewClient(backend, WithDefaultIndex("terms"))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedTerms(t *testing.T, c *Client) {
	t.Helper()
	out := c.BulkIndex(context.Background(), "", []models.Document{
		{"_id": "t1", "term_parent": "Ciencia de datos", "term_child": "Ontología", "definition": "Modelo formal de un dominio"},
		{"id": "t2", "term_parent": "Ontología", "term_child": "Taxonomía", "definition": "Clasificación jerárquica"},
		{"titulo": "informe.pdf", "contenido": "Este informe describe la minería de datos aplicada", "source": "web_scraping"},
	})
	if !out.Success {
		t.Fatalf("BulkIndex: %s", out.Error)
	}
	if out.Items != 3 || out.Errors {
		t.Fatalf("got %+v", out)
	}
}

func TestBleve_TextSearch(t *testing.T) {
	c := newBleveClient(t, "")
	seedTerms(t, c)
	ctx := context.Background()

	out := c.TextSearch(ctx, models.TextQuery{Text: "taxonomía"})
	if !out.Success {
		t.Fatalf("TextSearch: %s", out.Error)
	}
	if out.Total != 1 || out.Resultados[0].ID != "t2" {
		t.Fatalf("got %+v", out)
	}
	src := out.Resultados[0].Source
	if src["term_child"] != "Taxonomía" || src["id"] != "t2" {
		t.Errorf("source = %v", src)
	}

	out = c.TextSearch(ctx, models.TextQuery{Text: "ontología", Fields: []string{"term_child"}})
	if !out.Success || out.Total != 1 || out.Resultados[0].ID != "t1" {
		t.Errorf("field-restricted search got %+v", out)
	}
}

func TestBleve_IDHandling(t *testing.T) {
	c := newBleveClient(t, "")
	seedTerms(t, c)
	out := c.RawQuery(context.Background(), "", map[string]any{"term": map[string]any{"term_child": "ontología"}}, 0)
	if !out.Success || out.Total != 1 {
		t.Fatalf("got %+v", out)
	}
	hit := out.Resultados[0]
	if hit.ID != "t1" {
		t.Errorf("_id should become the document id, got %q", hit.ID)
	}
	if _, ok := hit.Source["_id"]; ok {
		t.Error("_id must be stripped from the stored source")
	}
}

func TestBleve_SearchTerms(t *testing.T) {
	c := newBleveClient(t, "")
	seedTerms(t, c)
	hits := c.SearchTerms(context.Background(), "", "ontología", 10)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}
	if hits[0].TermChild != "Ontología" {
		t.Errorf("term_child match should rank first, got %+v", hits[0])
	}

	hits = c.SearchTerms(context.Background(), "", "minería", 10)
	if len(hits) != 1 || hits[0].Titulo != "informe.pdf" || hits[0].Contenido == "" {
		t.Errorf("got %+v", hits)
	}
}

func TestBleve_ListIndices(t *testing.T) {
	c := newBleveClient(t, "")
	seedTerms(t, c)
	out := c.ListIndices(context.Background(), "terms")
	if !out.Success || out.Total != 3 {
		t.Errorf("got %+v", out)
	}
	out = c.ListIndices(context.Background(), "missing")
	if out.Success || !errors.Is(out.Err, models.ErrNotFound) {
		t.Errorf("missing index: got %+v", out)
	}
}

func TestBleve_RawWrite(t *testing.T) {
	c := newBleveClient(t, "")
	ctx := context.Background()

	out := c.RawWrite(ctx, models.WriteCommand{Operacion: "index", Index: "docs", ID: "1", Documento: map[string]any{"titulo": "uno", "n": 1}})
	if !out.Success || out.Result != "created" {
		t.Fatalf("index: %+v", out)
	}
	out = c.RawWrite(ctx, models.WriteCommand{Operacion: "update", Index: "docs", ID: "1", Documento: map[string]any{"titulo": "otro"}})
	if !out.Success || out.Result != "updated" {
		t.Fatalf("update: %+v", out)
	}
	res := c.RawQuery(ctx, "docs", map[string]any{"match": map[string]any{"titulo": "otro"}}, 0)
	if !res.Success || res.Total != 1 || res.Resultados[0].Source["n"] != float64(1) {
		t.Fatalf("update should merge fields: %+v", res)
	}

	out = c.RawWrite(ctx, models.WriteCommand{Operacion: "update", Index: "docs", ID: "missing", Documento: map[string]any{"a": 1}})
	if !errors.Is(out.Err, models.ErrNotFound) {
		t.Errorf("update missing: %+v", out)
	}
	out = c.RawWrite(ctx, models.WriteCommand{Operacion: "delete", Index: "docs", ID: "1"})
	if !out.Success || out.Result != "deleted" {
		t.Fatalf("delete: %+v", out)
	}
	out = c.RawWrite(ctx, models.WriteCommand{Operacion: "delete", Index: "docs", ID: "1"})
	if !errors.Is(out.Err, models.ErrNotFound) {
		t.Errorf("second delete: %+v", out)
	}

	out = c.IndexDocument(ctx, "docs", models.Document{"titulo": "auto"}, "")
	if !out.Success || out.ID == "" {
		t.Errorf("auto id: %+v", out)
	}
}

func TestBleve_UnsupportedQuery(t *testing.T) {
	c := newBleveClient(t, "")
	seedTerms(t, c)
	out := c.RawQuery(context.Background(), "", map[string]any{"query": map[string]any{"bool": map[string]any{}}}, 0)
	if out.Success || !errors.Is(out.Err, models.ErrUnsupportedQuery) {
		t.Errorf("got %+v", out)
	}
}

func TestBleve_IndexLifecycleOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bleve")
	c := newBleveClient(t, dir)
	ctx := context.Background()

	if out := c.CreateIndex(ctx, "nuevo", nil, nil); !out.Success {
		t.Fatalf("create: %s", out.Error)
	}
	if out := c.CreateIndex(ctx, "nuevo", nil, nil); !errors.Is(out.Err, models.ErrConflict) {
		t.Errorf("second create: %+v", out)
	}
	if out := c.CreateIndex(ctx, "../escape", nil, nil); !errors.Is(out.Err, models.ErrValidation) {
		t.Errorf("bad name: %+v", out)
	}
	if out := c.IndexDocument(ctx, "nuevo", models.Document{"a": "b"}, "x"); !out.Success {
		t.Fatal(out.Error)
	}
	if out := c.DeleteIndex(ctx, "nuevo"); !out.Success {
		t.Fatalf("delete: %s", out.Error)
	}
	if out := c.ListIndices(ctx, "nuevo"); !errors.Is(out.Err, models.ErrNotFound) {
		t.Errorf("deleted index still answers: %+v", out)
	}
}

func TestBleve_Ping(t *testing.T) {
	c := newBleveClient(t, "")
	if !c.Ping(context.Background()) {
		t.Error("expected ping to succeed")
	}
}

func TestBleve_NumericIDFromJSON(t *testing.T) {
	c := newBleveClient(t, "")
	ctx := context.Background()
	out := c.BulkIndex(ctx, "codigos", []models.Document{
		{"id": json.Number("20250001"), "titulo": "Registro", "anio": json.Number("2025")},
	})
	if !out.Success {
		t.Fatalf("BulkIndex: %s", out.Error)
	}
	out = c.TextSearch(ctx, models.TextQuery{Index: "codigos", Text: "registro"})
	if !out.Success || out.Total != 1 {
		t.Fatalf("got %+v", out)
	}
	if got := out.Resultados[0].ID; got != "20250001" {
		t.Errorf("ID = %q, want 20250001", got)
	}
}
