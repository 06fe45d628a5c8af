// backend/scraper/shopping_ads.go
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

var shoppingRedirectRe = regexp.MustCompile(`url\?q=([^&]+)`)

// ShoppingAdsAdapter scrapes merchants out of shopping search result grids.
// Merchant websites are recovered from the redirect links when present;
// otherwise the merchant normalizes to a pseudo-domain.
type ShoppingAdsAdapter struct {
	baseURL string
	queries []string
	client  *http.Client
	limiter *utils.RateLimiter
}

func NewShoppingAdsAdapter(cfg config.SourceConfig) *ShoppingAdsAdapter {
	return &ShoppingAdsAdapter{
		baseURL: cfg.BaseURL,
		queries: cfg.Queries,
		client:  newHTTPClient(30 * time.Second),
		limiter: utils.NewRateLimiter(cfg.MinDelay, cfg.MaxDelay),
	}
}

func (a *ShoppingAdsAdapter) Source() models.AdSource { return models.SourceShoppingAds }

// Fetch runs one shopping search per configured query (or just params.Query
// when set), keeping the first product seen per merchant on each page.
func (a *ShoppingAdsAdapter) Fetch(ctx context.Context, params FetchParams) ([]RawObservation, error) {
	if a.baseURL == "" {
		return nil, fmt.Errorf("shopping ads base URL is not configured")
	}

	queries := a.queries
	if params.Query != "" {
		queries = []string{params.Query}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no shopping search queries configured")
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

		searchURL := a.baseURL + "?" + url.Values{"q": {query}, "tbm": {"shop"}}.Encode()
		doc, err := getDocument(ctx, a.client, searchURL)
		if err != nil {
			return observations, fmt.Errorf("shopping search for %q failed: %w", query, err)
		}

		found := a.parseResultGrid(doc, perQuery)
		log.Printf("Scraper: found %d merchants with shopping placements for query: %s\n", len(found), query)
		observations = append(observations, found...)
	}
	return observations, nil
}

func (a *ShoppingAdsAdapter) parseResultGrid(doc *goquery.Document, max int) []RawObservation {
	now := time.Now().UTC()
	seenMerchants := make(map[string]bool)
	var observations []RawObservation

	doc.Find(".sh-dgr__grid-result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(observations) >= max {
			return false
		}

		merchant := extractMerchant(sel)
		if merchant == "" || seenMerchants[merchant] {
			return true
		}
		seenMerchants[merchant] = true

		creative := RawCreative{}
		if href, ok := sel.Find("a.sh-dgr__grid-result").First().Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				href = "https://www.google.com" + href
			}
			creative.LandingPageURL = href
		}

		observations = append(observations, RawObservation{
			Source:         models.SourceShoppingAds,
			AdvertiserName: merchant,
			AdvertiserURL:  merchantRedirectURL(sel),
			Creatives:      []RawCreative{creative},
			ObservedAt:     now,
		})
		return true
	})
	return observations
}

func extractMerchant(sel *goquery.Selection) string {
	selectors := []string{".sh-dgr__merchant-name", ".aULzUe", "[data-merchant-name]"}
	for _, s := range selectors {
		if text := strings.TrimSpace(sel.Find(s).First().Text()); text != "" {
			return utils.CleanCompanyName(text)
		}
	}
	return ""
}

// merchantRedirectURL digs the merchant's real website out of the result's
// redirect link, if one exists.
func merchantRedirectURL(sel *goquery.Selection) string {
	var found string
	sel.Find(`a[href*="url?q="]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		m := shoppingRedirectRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		if unescaped, err := url.QueryUnescape(m[1]); err == nil {
			found = unescaped
		} else {
			found = m[1]
		}
		return false
	})
	return found
}
