// backend/services/ingest_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/leadscout/adscraper/backend/metrics"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/scraper"
	"github.com/leadscout/adscraper/backend/utils"
)

// IngestService runs the configured source adapters and folds their
// candidate leads into one deduplicated batch keyed by domain.
type IngestService struct {
	adapters []scraper.Adapter
	retry    utils.RetryConfig
}

func NewIngestService(adapters []scraper.Adapter, retry utils.RetryConfig) *IngestService {
	return &IngestService{adapters: adapters, retry: retry}
}

// IngestReport is the outcome of one ingestion run: the deduplicated batch
// plus a per-adapter result record. A failing adapter contributes its error
// to Results without aborting the others.
type IngestReport struct {
	Leads   []models.Lead         `json:"leads"`
	Results []models.SourceResult `json:"results"`
}

// Run executes every adapter concurrently. Each adapter owns its rate
// limiter and HTTP session, so only the fold into the shared accumulator is
// serialized; each candidate lead is merged as one atomic step under the
// mutex. The returned batch is sorted by domain for deterministic output.
func (s *IngestService) Run(ctx context.Context, params scraper.FetchParams) *IngestReport {
	log.Printf("Service: starting ingestion run across %d sources (query=%q, max=%d)\n",
		len(s.adapters), params.Query, params.MaxResults)
	metrics.IngestRuns.Inc()

	accumulator := make(map[string]models.Lead)
	var mu sync.Mutex

	results := make([]models.SourceResult, len(s.adapters))
	var wg sync.WaitGroup
	for i, adapter := range s.adapters {
		wg.Add(1)
		go func(i int, adapter scraper.Adapter) {
			defer wg.Done()
			results[i] = s.runAdapter(ctx, adapter, params, accumulator, &mu)
		}(i, adapter)
	}
	wg.Wait()

	leads := make([]models.Lead, 0, len(accumulator))
	for _, lead := range accumulator {
		leads = append(leads, lead)
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].Domain < leads[j].Domain })

	log.Printf("Service: ingestion run complete, %d unique leads\n", len(leads))
	return &IngestReport{Leads: leads, Results: results}
}

func (s *IngestService) runAdapter(ctx context.Context, adapter scraper.Adapter, params scraper.FetchParams, accumulator map[string]models.Lead, mu *sync.Mutex) models.SourceResult {
	source := adapter.Source()
	start := time.Now()
	result := models.SourceResult{Source: source}

	var observations []scraper.RawObservation
	err := utils.Retry(ctx, fmt.Sprintf("fetch %s", source), s.retry, func() error {
		var fetchErr error
		observations, fetchErr = adapter.Fetch(ctx, params)
		if fetchErr != nil {
			metrics.FetchRetries.WithLabelValues(string(source)).Inc()
		}
		return fetchErr
	})
	if err != nil {
		log.Printf("ERROR Service: %s adapter failed: %v\n", source, err)
		metrics.AdapterFailures.WithLabelValues(string(source)).Inc()
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	for _, obs := range observations {
		lead := scraper.Normalize(obs)
		if lead == nil {
			continue // unnormalizable record, already logged
		}
		result.LeadsFound++

		mu.Lock()
		if existing, ok := accumulator[lead.Domain]; ok {
			accumulator[lead.Domain] = models.Merge(existing, *lead)
		} else {
			accumulator[lead.Domain] = *lead
		}
		mu.Unlock()
	}

	metrics.LeadsScraped.WithLabelValues(string(source)).Add(float64(result.LeadsFound))
	result.Success = true
	result.Duration = time.Since(start)
	log.Printf("Service: %s produced %d lead candidates in %s\n", source, result.LeadsFound, result.Duration.Round(time.Millisecond))
	return result
}
