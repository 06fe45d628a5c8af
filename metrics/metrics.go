// backend/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscraper_ingest_runs_total",
		Help: "Number of ingestion runs started.",
	})

	LeadsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscraper_leads_scraped_total",
		Help: "Lead candidates produced per ad source.",
	}, []string{"source"})

	AdapterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscraper_adapter_failures_total",
		Help: "Adapter fetches that failed after exhausting retries.",
	}, []string{"source"})

	FetchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscraper_fetch_retries_total",
		Help: "Individual failed fetch attempts per ad source.",
	}, []string{"source"})

	LeadUpserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscraper_lead_upserts_total",
		Help: "Lead records written through the idempotent upsert.",
	})
)

// Handler exposes the default registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
