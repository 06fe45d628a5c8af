// backend/scraper/adapter.go
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

// RawCreative is one unnormalized ad instance inside a RawObservation.
// Ranged metrics have already been collapsed to midpoints by the adapter.
type RawCreative struct {
	AdID           string
	CreativeURL    string
	LandingPageURL string
	CampaignStart  *time.Time
	Impressions    *int64
	SpendEstimate  *float64
}

// RawObservation is one unnormalized advertiser record as produced by a
// single source fetch: one source, one advertiser, one or more creatives.
type RawObservation struct {
	Source         models.AdSource
	AdvertiserName string
	AdvertiserURL  string // best-effort hint for domain inference, may be empty
	Creatives      []RawCreative
	ObservedAt     time.Time
}

// FetchParams bounds one adapter fetch.
type FetchParams struct {
	Query      string
	MaxResults int
	Since      time.Time
	Region     string
}

// Adapter is implemented once per ad platform. Fetch must be an idempotent
// read (safe to retry) and must apply the adapter's own rate limiter between
// outbound requests.
type Adapter interface {
	Source() models.AdSource
	Fetch(ctx context.Context, params FetchParams) ([]RawObservation, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// getJSON fetches a URL and decodes the JSON response into v, sending a
// rotated user agent. Non-2xx responses are errors.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", utils.RandomUserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request to %s returned status %d: %s", url, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}
	return nil
}

// getDocument fetches a URL and parses the HTML response with goquery.
func getDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", utils.RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	return doc, nil
}

// midpointInt collapses a [min, max] range to its integer midpoint.
func midpointInt(min, max int64) *int64 {
	if max < min {
		max = min
	}
	mid := (min + max) / 2
	return &mid
}

// midpointFloat collapses a [min, max] range to its midpoint.
func midpointFloat(min, max float64) *float64 {
	if max < min {
		max = min
	}
	mid := (min + max) / 2
	return &mid
}
