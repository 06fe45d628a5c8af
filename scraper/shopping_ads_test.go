// backend/scraper/shopping_ads_test.go
package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
)

const shoppingResultPage = `<!DOCTYPE html>
<html><body>
<div class="sh-dgr__grid-result">
	<div class="sh-dgr__merchant-name">Acme Corp Inc</div>
	<a href="/url?q=https%3A%2F%2Fwww.acme.com%2Fshop&amp;sa=U">Acme Widget</a>
</div>
<div class="sh-dgr__grid-result">
	<div class="sh-dgr__merchant-name">Acme Corp Inc</div>
	<a href="/url?q=https%3A%2F%2Fwww.acme.com%2Fother&amp;sa=U">Acme Gadget</a>
</div>
<div class="sh-dgr__grid-result">
	<div class="aULzUe">Widgets Direct</div>
</div>
</body></html>`

func TestShoppingAdsFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tbm"); got != "shop" {
			t.Errorf("tbm = %q, want shop", got)
		}
		io.WriteString(w, shoppingResultPage)
	}))
	defer server.Close()

	adapter := NewShoppingAdsAdapter(config.SourceConfig{
		BaseURL:  server.URL,
		Queries:  []string{"widgets"},
		MinDelay: time.Millisecond,
		MaxDelay: time.Millisecond,
	})
	obs, err := adapter.Fetch(context.Background(), FetchParams{MaxResults: 10})
	if err != nil {
		t.Fatalf("Fetch returned %v", err)
	}
	// Two results for the same merchant collapse to one observation.
	if len(obs) != 2 {
		t.Fatalf("got %d observations, want 2", len(obs))
	}

	first := obs[0]
	if first.Source != models.SourceShoppingAds {
		t.Errorf("Source = %q", first.Source)
	}
	if first.AdvertiserName != "Acme Corp" {
		t.Errorf("AdvertiserName = %q, want cleaned merchant name", first.AdvertiserName)
	}
	if first.AdvertiserURL != "https://www.acme.com/shop" {
		t.Errorf("AdvertiserURL = %q, want unescaped redirect target", first.AdvertiserURL)
	}

	second := obs[1]
	if second.AdvertiserName != "Widgets Direct" {
		t.Errorf("second AdvertiserName = %q", second.AdvertiserName)
	}
	if second.AdvertiserURL != "" {
		t.Errorf("second AdvertiserURL = %q, want empty without a redirect link", second.AdvertiserURL)
	}
}

func TestShoppingAdsNoQueriesConfigured(t *testing.T) {
	adapter := NewShoppingAdsAdapter(config.SourceConfig{BaseURL: "https://www.google.com/search"})
	if _, err := adapter.Fetch(context.Background(), FetchParams{MaxResults: 5}); err == nil {
		t.Fatal("Fetch returned nil error without queries")
	}
}
