// backend/scraper/meta_ads.go
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

// MetaAdsAdapter reads ads from the Meta ad library JSON API. Each archived
// ad becomes one observation with a single creative; advertisers seen in
// several ads are folded together downstream by the reconciliation engine.
type MetaAdsAdapter struct {
	baseURL string
	client  *http.Client
	limiter *utils.RateLimiter
}

func NewMetaAdsAdapter(cfg config.SourceConfig) *MetaAdsAdapter {
	return &MetaAdsAdapter{
		baseURL: cfg.BaseURL,
		client:  newHTTPClient(30 * time.Second),
		limiter: utils.NewRateLimiter(cfg.MinDelay, cfg.MaxDelay),
	}
}

func (a *MetaAdsAdapter) Source() models.AdSource { return models.SourceMetaAds }

type metaSearchResponse struct {
	Data   []metaAd `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type metaAd struct {
	ID                         string     `json:"id"`
	PageName                   string     `json:"page_name"`
	AdSnapshotURL              string     `json:"ad_snapshot_url"`
	AdCreationTime             string     `json:"ad_creation_time"`
	Impressions                *metaBound `json:"impressions"`
	Spend                      *metaBound `json:"spend"`
	AdCreativeLinkCaptions     []string   `json:"ad_creative_link_captions"`
	AdCreativeLinkDescriptions []string   `json:"ad_creative_link_descriptions"`
	AdCreativeLinkTitles       []string   `json:"ad_creative_link_titles"`
}

// metaBound is the ad library's range format; bounds are encoded as strings.
type metaBound struct {
	LowerBound string `json:"lower_bound"`
	UpperBound string `json:"upper_bound"`
}

// Fetch pages through the archive until params.MaxResults ads are collected
// or the API stops returning a next-page URL.
func (a *MetaAdsAdapter) Fetch(ctx context.Context, params FetchParams) ([]RawObservation, error) {
	if a.baseURL == "" {
		return nil, fmt.Errorf("meta ads base URL is not configured")
	}

	q := url.Values{}
	q.Set("search_terms", params.Query)
	q.Set("ad_active_status", "ALL")
	q.Set("ad_reached_countries", params.Region)
	q.Set("fields", "id,page_name,ad_snapshot_url,ad_creation_time,impressions,spend,"+
		"ad_creative_link_captions,ad_creative_link_descriptions,ad_creative_link_titles")
	limit := params.MaxResults
	if limit > 100 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))

	fetchURL := a.baseURL + "?" + q.Encode()
	var observations []RawObservation
	for fetchURL != "" && len(observations) < params.MaxResults {
		if err := a.limiter.Wait(ctx); err != nil {
			return observations, err
		}

		var resp metaSearchResponse
		if err := getJSON(ctx, a.client, fetchURL, &resp); err != nil {
			return observations, fmt.Errorf("meta ad library search failed: %w", err)
		}
		if len(resp.Data) == 0 {
			break
		}

		now := time.Now().UTC()
		for _, ad := range resp.Data {
			if len(observations) >= params.MaxResults {
				break
			}
			if strings.TrimSpace(ad.PageName) == "" {
				continue
			}
			observations = append(observations, metaObservation(ad, now))
		}

		fetchURL = resp.Paging.Next
	}

	log.Printf("Scraper: found %d ads from Meta ad library\n", len(observations))
	return observations, nil
}

func metaObservation(ad metaAd, observedAt time.Time) RawObservation {
	obs := RawObservation{
		Source:         models.SourceMetaAds,
		AdvertiserName: ad.PageName,
		AdvertiserURL:  sniffMetaDomain(ad),
		ObservedAt:     observedAt,
	}

	c := RawCreative{
		AdID:        ad.ID,
		CreativeURL: ad.AdSnapshotURL,
	}
	if ad.AdCreationTime != "" {
		if t, err := time.Parse(time.RFC3339, ad.AdCreationTime); err == nil {
			c.CampaignStart = &t
		}
	}
	if b := ad.Impressions; b != nil {
		lower, err1 := strconv.ParseInt(strings.ReplaceAll(b.LowerBound, ",", ""), 10, 64)
		upper, err2 := strconv.ParseInt(strings.ReplaceAll(b.UpperBound, ",", ""), 10, 64)
		if err1 == nil {
			if err2 != nil {
				upper = lower
			}
			c.Impressions = midpointInt(lower, upper)
		}
	}
	if b := ad.Spend; b != nil {
		lower, err1 := strconv.ParseFloat(strings.ReplaceAll(b.LowerBound, ",", ""), 64)
		upper, err2 := strconv.ParseFloat(strings.ReplaceAll(b.UpperBound, ",", ""), 64)
		if err1 == nil {
			if err2 != nil {
				upper = lower
			}
			c.SpendEstimate = midpointFloat(lower, upper)
		}
	}

	obs.Creatives = append(obs.Creatives, c)
	return obs
}

// sniffMetaDomain scans the ad's link captions, descriptions and titles for
// something that looks like the advertiser's website. The ad snapshot URL is
// useless for this: it always points at the platform.
func sniffMetaDomain(ad metaAd) string {
	for _, texts := range [][]string{ad.AdCreativeLinkCaptions, ad.AdCreativeLinkDescriptions, ad.AdCreativeLinkTitles} {
		for _, text := range texts {
			if !strings.Contains(text, ".") || len(text) >= 50 {
				continue
			}
			if d := utils.ExtractDomain(text); utils.IsValidDomain(d) {
				return text
			}
		}
	}
	return ""
}
