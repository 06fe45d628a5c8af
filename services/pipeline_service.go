// backend/services/pipeline_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/database"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/scraper"
	"github.com/leadscout/adscraper/backend/utils"
)

// PipelineService is the full ingestion pipeline: fetch from the ad
// platforms, reconcile by domain, optionally enrich, and persist.
type PipelineService struct {
	cfg      *config.Config
	store    *database.LeadStore
	enricher *CompanyEnricher
}

func NewPipelineService(cfg *config.Config, store *database.LeadStore, enricher *CompanyEnricher) *PipelineService {
	return &PipelineService{cfg: cfg, store: store, enricher: enricher}
}

// PipelineOptions narrows one pipeline run. Zero values fall back to the
// configured defaults.
type PipelineOptions struct {
	Sources  []models.AdSource
	Query    string
	MaxLeads int
	Since    time.Time
	Enrich   *bool
}

// PipelineReport summarizes one completed pipeline run.
type PipelineReport struct {
	Results     []models.SourceResult `json:"results"`
	LeadsFound  int                   `json:"leads_found"`
	LeadsStored int                   `json:"leads_stored"`
	Enriched    bool                  `json:"enriched"`
}

// Run executes the pipeline once. Adapter failures are reported per source;
// persistence errors abort the run since a partial batch would be written.
func (p *PipelineService) Run(ctx context.Context, opts PipelineOptions) (*PipelineReport, error) {
	sources := opts.Sources
	if len(sources) == 0 {
		sources = p.enabledSources()
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no ad sources are enabled")
	}

	adapters := make([]scraper.Adapter, 0, len(sources))
	for _, src := range sources {
		adapter, err := p.buildAdapter(src)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	params := scraper.FetchParams{
		Query:      opts.Query,
		MaxResults: opts.MaxLeads,
		Since:      opts.Since,
		Region:     p.cfg.Scrape.Region,
	}
	if params.Query == "" {
		params.Query = p.cfg.Scrape.Query
	}
	if params.MaxResults <= 0 {
		params.MaxResults = p.cfg.Scrape.MaxLeads
	}
	if params.Since.IsZero() {
		params.Since = time.Now().AddDate(0, 0, -p.cfg.Scrape.SinceDays)
	}

	retry := utils.RetryConfig{
		MaxAttempts: p.cfg.Retry.MaxAttempts,
		Delay:       p.cfg.Retry.Delay,
		Backoff:     p.cfg.Retry.Backoff,
	}
	report := NewIngestService(adapters, retry).Run(ctx, params)

	enrich := p.cfg.Enrichment.Enabled
	if opts.Enrich != nil {
		enrich = *opts.Enrich
	}
	leads := report.Leads
	if enrich && p.enricher != nil {
		leads = p.enricher.EnrichLeads(ctx, leads)
	}

	// The per-source summary survives even when persistence fails below.
	out := &PipelineReport{
		Results:    report.Results,
		LeadsFound: len(leads),
		Enriched:   enrich,
	}
	for _, lead := range leads {
		if _, err := p.store.UpsertLead(ctx, lead); err != nil {
			return out, fmt.Errorf("failed to persist lead %s: %w", lead.Domain, err)
		}
		out.LeadsStored++
	}
	log.Printf("Service: pipeline run stored %d of %d leads\n", out.LeadsStored, len(leads))
	return out, nil
}

func (p *PipelineService) enabledSources() []models.AdSource {
	var sources []models.AdSource
	for _, src := range models.AllSources() {
		if p.cfg.Source(string(src)).Enabled {
			sources = append(sources, src)
		}
	}
	return sources
}

func (p *PipelineService) buildAdapter(src models.AdSource) (scraper.Adapter, error) {
	srcCfg := p.cfg.Source(string(src))
	switch src {
	case models.SourceGoogleAds:
		return scraper.NewGoogleAdsAdapter(srcCfg), nil
	case models.SourceMetaAds:
		return scraper.NewMetaAdsAdapter(srcCfg), nil
	case models.SourceAmazonAds:
		return scraper.NewAmazonAdsAdapter(srcCfg), nil
	case models.SourceShoppingAds:
		return scraper.NewShoppingAdsAdapter(srcCfg), nil
	}
	return nil, fmt.Errorf("no adapter for source %q", src)
}
