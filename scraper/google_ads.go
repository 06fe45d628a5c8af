// backend/scraper/google_ads.go
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

// GoogleAdsAdapter reads advertisers from the ads transparency JSON API.
// Impression and spend figures arrive as ranges and are collapsed to their
// midpoints.
type GoogleAdsAdapter struct {
	baseURL string
	client  *http.Client
	limiter *utils.RateLimiter
}

func NewGoogleAdsAdapter(cfg config.SourceConfig) *GoogleAdsAdapter {
	return &GoogleAdsAdapter{
		baseURL: cfg.BaseURL,
		client:  newHTTPClient(30 * time.Second),
		limiter: utils.NewRateLimiter(cfg.MinDelay, cfg.MaxDelay),
	}
}

func (a *GoogleAdsAdapter) Source() models.AdSource { return models.SourceGoogleAds }

type googleSearchResponse struct {
	Advertisers   []googleAdvertiser `json:"advertisers"`
	NextPageToken string             `json:"next_page_token"`
}

type googleAdvertiser struct {
	AdvertiserName string     `json:"advertiser_name"`
	AdvertiserURL  string     `json:"advertiser_url"`
	Ads            []googleAd `json:"ads"`
}

type googleAd struct {
	AdID             string       `json:"ad_id"`
	CreativeURL      string       `json:"creative_url"`
	LandingPageURL   string       `json:"landing_page_url"`
	FirstShown       string       `json:"first_shown"` // YYYYMMDD
	ImpressionsRange *googleRange `json:"impressions_range"`
	SpendRange       *googleRange `json:"spend_range"`
}

type googleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fetch pages through advertiser search results until params.MaxResults
// observations are collected or the API stops returning a page token.
func (a *GoogleAdsAdapter) Fetch(ctx context.Context, params FetchParams) ([]RawObservation, error) {
	if a.baseURL == "" {
		return nil, fmt.Errorf("google ads base URL is not configured")
	}

	since := params.Since
	if since.IsZero() {
		since = time.Now().UTC().AddDate(0, 0, -30)
	}

	q := url.Values{}
	q.Set("entity_type", "ADVERTISER")
	q.Set("region", params.Region)
	q.Set("start_date", since.Format("20060102"))
	q.Set("end_date", time.Now().UTC().Format("20060102"))
	pageSize := params.MaxResults
	if pageSize > 50 {
		pageSize = 50 // API limit
	}
	q.Set("page_size", strconv.Itoa(pageSize))
	if params.Query != "" {
		q.Set("query", params.Query)
	}

	var observations []RawObservation
	pageToken := ""
	for len(observations) < params.MaxResults {
		if err := a.limiter.Wait(ctx); err != nil {
			return observations, err
		}
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var resp googleSearchResponse
		if err := getJSON(ctx, a.client, a.baseURL+"?"+q.Encode(), &resp); err != nil {
			return observations, fmt.Errorf("google ads search failed: %w", err)
		}
		if len(resp.Advertisers) == 0 {
			log.Println("Scraper: no more Google advertisers found")
			break
		}

		now := time.Now().UTC()
		for _, adv := range resp.Advertisers {
			if len(observations) >= params.MaxResults {
				break
			}
			obs := RawObservation{
				Source:         models.SourceGoogleAds,
				AdvertiserName: adv.AdvertiserName,
				AdvertiserURL:  adv.AdvertiserURL,
				ObservedAt:     now,
			}
			for _, ad := range adv.Ads {
				obs.Creatives = append(obs.Creatives, googleCreative(ad))
			}
			observations = append(observations, obs)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Printf("Scraper: found %d advertisers from Google Ads\n", len(observations))
	return observations, nil
}

func googleCreative(ad googleAd) RawCreative {
	c := RawCreative{
		AdID:           ad.AdID,
		CreativeURL:    ad.CreativeURL,
		LandingPageURL: ad.LandingPageURL,
	}
	if ad.FirstShown != "" {
		if t, err := time.Parse("20060102", ad.FirstShown); err == nil {
			c.CampaignStart = &t
		}
	}
	if r := ad.ImpressionsRange; r != nil {
		c.Impressions = midpointInt(int64(r.Min), int64(r.Max))
	}
	if r := ad.SpendRange; r != nil {
		c.SpendEstimate = midpointFloat(r.Min, r.Max)
	}
	return c
}
