package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/buscador/internal/ingest"
	"github.com/hyperjump/buscador/internal/models"
	"github.com/hyperjump/buscador/internal/scraper"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "JSON": OutputJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteOutcome_JSON(t *testing.T) {
	out := models.Outcome{
		Success:    true,
		Total:      1,
		Took:       3,
		Resultados: []models.Hit{{ID: "doc-1", Score: 1.5, Source: map[string]any{"titulo": "<b>"}}},
	}
	var buf bytes.Buffer
	if err := WriteOutcome(&buf, out, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"<b>"`) {
		t.Errorf("HTML should not be escaped: %s", buf.String())
	}
	var decoded models.Outcome
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !decoded.Success || len(decoded.Resultados) != 1 || decoded.Resultados[0].ID != "doc-1" {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteOutcome_text(t *testing.T) {
	tests := []struct {
		name string
		out  models.Outcome
		want string
	}{
		{"failure", models.Outcome{Error: "boom"}, "Error: boom"},
		{"bulk", models.Outcome{Success: true, Items: 3, Took: 7, Errors: true}, "Indexed 3 documents in 7ms (some items failed)"},
		{"write", models.Outcome{Success: true, Result: "created", Index: "idx", ID: "9"}, "created idx/9"},
		{"count", models.Outcome{Success: true, Message: "idx: 4 documentos"}, "idx: 4 documentos"},
		{"search", models.Outcome{Success: true, Total: 1, Resultados: []models.Hit{
			{ID: "a", Score: 2, Source: map[string]any{"term_child": "gato", "definition": "felino"}},
		}}, "term_child: gato"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOutcome(&buf, tc.out, OutputText); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("output %q missing %q", buf.String(), tc.want)
			}
		})
	}
}

func TestWriteTermHits(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteTermHits(&buf, nil, OutputText)
	if !strings.Contains(buf.String(), "No results") {
		t.Errorf("got %q", buf.String())
	}
	buf.Reset()
	_ = WriteTermHits(&buf, []models.TermHit{{Score: 1, Titulo: "informe.pdf", URLPDF: "https://x/informe.pdf"}}, OutputText)
	if !strings.Contains(buf.String(), "1. informe.pdf") || !strings.Contains(buf.String(), "https://x/informe.pdf") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	WriteIngestResult(&buf, ingest.Result{
		Documents: []models.Document{{"a": 1}},
		Dropped:   []string{"c.json"},
	})
	if !strings.Contains(buf.String(), "Documents: 1") || !strings.Contains(buf.String(), "c.json") {
		t.Errorf("ingest: %q", buf.String())
	}

	buf.Reset()
	WriteScrapeResult(&buf, scraper.Result{Found: 2, Attempted: []string{"u1", "u2"},
		Skipped: []scraper.Skip{{URL: "u2", Reason: "download: 404"}}})
	if !strings.Contains(buf.String(), "downloaded: 2") || !strings.Contains(buf.String(), "skipped u2") {
		t.Errorf("scrape: %q", buf.String())
	}

	buf.Reset()
	_ = WriteAccounts(&buf, []models.Account{{Username: "ana", Role: "Usuario",
		Permissions: models.Permissions{models.PermLogin: true, models.PermAdminUsers: true}}}, OutputText)
	if !strings.Contains(buf.String(), "admin_usuarios,login") {
		t.Errorf("accounts: %q", buf.String())
	}
}
