package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/usuarios/{usuario}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/api/usuarios/ana", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/usuarios/{usuario}", "200"))
	if val < 1 {
		t.Errorf("expected http_requests_total >= 1 for route pattern, got %f", val)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	r.Get("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/forbidden", "403"},
		{"/error", "500"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("GET", tc.path, http.NoBody))
			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.status, val)
			}
		})
	}
}

func TestIngestCounters(t *testing.T) {
	before := testutil.ToFloat64(DocumentsIngestedTotal.WithLabelValues("upload"))
	DocumentsIngestedTotal.WithLabelValues("upload").Add(3)
	if got := testutil.ToFloat64(DocumentsIngestedTotal.WithLabelValues("upload")); got != before+3 {
		t.Errorf("documents_ingested_total = %f, want %f", got, before+3)
	}
}
