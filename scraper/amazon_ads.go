// backend/scraper/amazon_ads.go
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

// AmazonAdsAdapter scrapes sponsored products out of marketplace search
// result pages. Brands advertising on the marketplace rarely expose a
// website, so these observations normalize to pseudo-domains.
type AmazonAdsAdapter struct {
	baseURL string
	queries []string
	client  *http.Client
	limiter *utils.RateLimiter
}

func NewAmazonAdsAdapter(cfg config.SourceConfig) *AmazonAdsAdapter {
	return &AmazonAdsAdapter{
		baseURL: cfg.BaseURL,
		queries: cfg.Queries,
		client:  newHTTPClient(30 * time.Second),
		limiter: utils.NewRateLimiter(cfg.MinDelay, cfg.MaxDelay),
	}
}

func (a *AmazonAdsAdapter) Source() models.AdSource { return models.SourceAmazonAds }

// Fetch runs one search per configured query (or just params.Query when
// set) and extracts the sponsored results from each page.
func (a *AmazonAdsAdapter) Fetch(ctx context.Context, params FetchParams) ([]RawObservation, error) {
	if a.baseURL == "" {
		return nil, fmt.Errorf("amazon ads base URL is not configured")
	}

	queries := a.queries
	if params.Query != "" {
		queries = []string{params.Query}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no amazon search queries configured")
	}

	perQuery := params.MaxResults / len(queries)
	if perQuery < 1 {
		perQuery = 1
	}

	var observations []RawObservation
	for _, query := range queries {
		if err := a.limiter.Wait(ctx); err != nil {
			return observations, err
		}

		searchURL := a.baseURL + "?" + url.Values{"k": {query}}.Encode()
		doc, err := getDocument(ctx, a.client, searchURL)
		if err != nil {
			return observations, fmt.Errorf("amazon search for %q failed: %w", query, err)
		}

		found := a.parseSearchPage(doc, perQuery)
		log.Printf("Scraper: found %d sponsored products for query: %s\n", len(found), query)
		observations = append(observations, found...)
	}
	return observations, nil
}

func (a *AmazonAdsAdapter) parseSearchPage(doc *goquery.Document, max int) []RawObservation {
	now := time.Now().UTC()
	var observations []RawObservation

	doc.Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(observations) >= max {
			return false
		}
		if !isSponsoredResult(sel) {
			return true
		}

		brand := extractBrand(sel)
		if brand == "" {
			return true
		}

		creative := RawCreative{AdID: sel.AttrOr("data-asin", "")}
		if href, ok := sel.Find("h2 a").First().Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				href = "https://www.amazon.com" + href
			}
			creative.LandingPageURL = href
		}

		observations = append(observations, RawObservation{
			Source:         models.SourceAmazonAds,
			AdvertiserName: brand,
			Creatives:      []RawCreative{creative},
			ObservedAt:     now,
		})
		return true
	})
	return observations
}

func isSponsoredResult(sel *goquery.Selection) bool {
	sponsored := false
	sel.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == "Sponsored" {
			sponsored = true
			return false
		}
		return true
	})
	return sponsored
}

// extractBrand tries the markup variants the result pages use for the brand
// line, newest first.
func extractBrand(sel *goquery.Selection) string {
	selectors := []string{
		".s-size-mini.s-spacing-none.s-color-base",
		`[class*="a-size-base-plus"]`,
		".a-row.a-size-base.a-color-secondary",
	}
	for _, s := range selectors {
		text := strings.TrimSpace(sel.Find(s).First().Text())
		if text == "" || len(text) >= 100 {
			continue
		}
		text = strings.TrimPrefix(text, "Visit the ")
		text = strings.TrimSuffix(text, " Store")
		return text
	}
	return ""
}
