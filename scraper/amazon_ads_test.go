// backend/scraper/amazon_ads_test.go
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
)

const amazonSearchPage = `<!DOCTYPE html>
<html><body>
<div data-component-type="s-search-result" data-asin="B0SPONSORED1">
	<span class="puis-label-popover-default"><span>Sponsored</span></span>
	<div class="s-size-mini s-spacing-none s-color-base">Visit the Acme Corp Store</div>
	<h2><a href="/dp/B0SPONSORED1">Acme Widget, Pack of 4</a></h2>
</div>
<div data-component-type="s-search-result" data-asin="B0ORGANIC99">
	<div class="s-size-mini s-spacing-none s-color-base">Other Brand</div>
	<h2><a href="/dp/B0ORGANIC99">Plain Organic Result</a></h2>
</div>
<div data-component-type="s-search-result" data-asin="B0SPONSORED2">
	<span>Sponsored</span>
	<div class="s-size-mini s-spacing-none s-color-base">Widgets</div>
	<h2><a href="/dp/B0SPONSORED2">Widget Deluxe</a></h2>
</div>
</body></html>`

func TestAmazonAdsFetch(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("k"))
		fmt.Fprint(w, amazonSearchPage)
	}))
	defer server.Close()

	adapter := NewAmazonAdsAdapter(config.SourceConfig{
		BaseURL:  server.URL,
		Queries:  []string{"widgets", "gadgets"},
		MinDelay: time.Millisecond,
		MaxDelay: time.Millisecond,
	})
	obs, err := adapter.Fetch(context.Background(), FetchParams{MaxResults: 10})
	if err != nil {
		t.Fatalf("Fetch returned %v", err)
	}
	if len(queries) != 2 {
		t.Errorf("ran %d searches, want one per configured query", len(queries))
	}
	// Two sponsored results per page, organic result skipped.
	if len(obs) != 4 {
		t.Fatalf("got %d observations, want 4", len(obs))
	}

	first := obs[0]
	if first.Source != models.SourceAmazonAds {
		t.Errorf("Source = %q", first.Source)
	}
	if first.AdvertiserName != "Acme Corp" {
		t.Errorf("AdvertiserName = %q, want store wrapper stripped", first.AdvertiserName)
	}
	if len(first.Creatives) != 1 || first.Creatives[0].AdID != "B0SPONSORED1" {
		t.Fatalf("creatives = %+v, want the ASIN as ad id", first.Creatives)
	}
	if got := first.Creatives[0].LandingPageURL; got != "https://www.amazon.com/dp/B0SPONSORED1" {
		t.Errorf("LandingPageURL = %q", got)
	}
}

func TestAmazonAdsFetchParamsQueryOverridesConfig(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("k"))
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	defer server.Close()

	adapter := NewAmazonAdsAdapter(config.SourceConfig{
		BaseURL:  server.URL,
		Queries:  []string{"widgets", "gadgets"},
		MinDelay: time.Millisecond,
		MaxDelay: time.Millisecond,
	})
	if _, err := adapter.Fetch(context.Background(), FetchParams{Query: "sneakers", MaxResults: 5}); err != nil {
		t.Fatalf("Fetch returned %v", err)
	}
	if len(queries) != 1 || queries[0] != "sneakers" {
		t.Errorf("queries = %v, want just the override", queries)
	}
}

func TestAmazonAdsNoQueriesConfigured(t *testing.T) {
	adapter := NewAmazonAdsAdapter(config.SourceConfig{BaseURL: "https://www.amazon.com/s"})
	if _, err := adapter.Fetch(context.Background(), FetchParams{MaxResults: 5}); err == nil {
		t.Fatal("Fetch returned nil error without queries")
	}
}
