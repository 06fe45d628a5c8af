// backend/scraper/normalize_test.go
package scraper

import (
	"testing"
	"time"

	"github.com/leadscout/adscraper/backend/models"
)

var observedAt = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func TestNormalizeRealDomain(t *testing.T) {
	imp := int64(1500)
	obs := RawObservation{
		Source:         models.SourceGoogleAds,
		AdvertiserName: "Acme Corp Inc.",
		AdvertiserURL:  "https://www.acme.com",
		ObservedAt:     observedAt,
		Creatives: []RawCreative{
			{AdID: "g-1", Impressions: &imp},
		},
	}

	lead := Normalize(obs)
	if lead == nil {
		t.Fatal("Normalize returned nil for a valid observation")
	}
	if lead.Domain != "acme.com" {
		t.Errorf("Domain = %q, want acme.com", lead.Domain)
	}
	if lead.CompanyName != "Acme Corp" {
		t.Errorf("CompanyName = %q, want legal suffix stripped", lead.CompanyName)
	}
	if !lead.FirstSeen.Equal(observedAt) || !lead.LastSeen.Equal(observedAt) {
		t.Errorf("seen window = [%v, %v], want both %v", lead.FirstSeen, lead.LastSeen, observedAt)
	}
	if len(lead.Sources) != 1 || lead.Sources[0] != models.SourceGoogleAds {
		t.Errorf("Sources = %v", lead.Sources)
	}
	if lead.TotalImpressions == nil || *lead.TotalImpressions != 1500 {
		t.Errorf("TotalImpressions = %v, want 1500", lead.TotalImpressions)
	}
	if !lead.IsActive {
		t.Error("new lead should be active")
	}
}

func TestNormalizeGoogleLandingPageFallback(t *testing.T) {
	obs := RawObservation{
		Source:         models.SourceGoogleAds,
		AdvertiserName: "Widgets",
		ObservedAt:     observedAt,
		Creatives: []RawCreative{
			{AdID: "g-2", LandingPageURL: "https://widgets.io/sale"},
		},
	}
	lead := Normalize(obs)
	if lead == nil || lead.Domain != "widgets.io" {
		t.Fatalf("lead = %+v, want domain widgets.io from the landing page", lead)
	}
}

func TestNormalizeGoogleWithoutDomainDropped(t *testing.T) {
	obs := RawObservation{
		Source:         models.SourceGoogleAds,
		AdvertiserName: "Mystery Advertiser",
		ObservedAt:     observedAt,
	}
	if lead := Normalize(obs); lead != nil {
		t.Errorf("lead = %+v, want nil for a Google advertiser without a domain", lead)
	}
}

func TestNormalizeMarketplacePseudoDomain(t *testing.T) {
	obs := RawObservation{
		Source:         models.SourceAmazonAds,
		AdvertiserName: "Acme Corp",
		ObservedAt:     observedAt,
		Creatives: []RawCreative{
			// Marketplace landing pages must not become the lead key.
			{AdID: "B0TEST123", LandingPageURL: "https://www.amazon.com/dp/B0TEST123"},
		},
	}
	lead := Normalize(obs)
	if lead == nil {
		t.Fatal("Normalize returned nil")
	}
	if lead.Domain != "acmecorp.amazon" {
		t.Errorf("Domain = %q, want pseudo-domain acmecorp.amazon", lead.Domain)
	}
}

func TestNormalizeEmptyNameDropped(t *testing.T) {
	obs := RawObservation{
		Source:        models.SourceMetaAds,
		AdvertiserURL: "https://acme.com",
		ObservedAt:    observedAt,
	}
	if lead := Normalize(obs); lead != nil {
		t.Errorf("lead = %+v, want nil for a nameless observation", lead)
	}
}

func TestNormalizeUnknownTotalsStayUnset(t *testing.T) {
	obs := RawObservation{
		Source:         models.SourceShoppingAds,
		AdvertiserName: "Widgets",
		ObservedAt:     observedAt,
		Creatives:      []RawCreative{{}},
	}
	lead := Normalize(obs)
	if lead == nil {
		t.Fatal("Normalize returned nil")
	}
	if lead.TotalImpressions != nil || lead.TotalSpendEstimate != nil {
		t.Errorf("totals = (%v, %v), want both unset", lead.TotalImpressions, lead.TotalSpendEstimate)
	}
	if len(lead.AdCreatives) != 1 {
		t.Errorf("got %d creatives, want 1", len(lead.AdCreatives))
	}
}
