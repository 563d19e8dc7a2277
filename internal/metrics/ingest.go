package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion metrics.
var (
	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buscador",
			Name:      "documents_ingested_total",
			Help:      "Documents produced by ingestion, by source",
		},
		[]string{"source"}, // "upload" / "web_scraping"
	)

	ScrapeDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buscador",
			Name:      "scrape_downloads_total",
			Help:      "Scraper download attempts, by outcome",
		},
		[]string{"status"}, // "ok" / "error" / "empty"
	)
)

func init() {
	prometheus.MustRegister(DocumentsIngestedTotal)
	prometheus.MustRegister(ScrapeDownloadsTotal)
}
