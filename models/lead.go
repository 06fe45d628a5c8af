// backend/models/lead.go
package models

import (
	"fmt"
	"time"
)

// AdSource identifies the ad platform an observation came from.
type AdSource string

const (
	SourceGoogleAds   AdSource = "google_ads"
	SourceMetaAds     AdSource = "meta_ads"
	SourceAmazonAds   AdSource = "amazon_ads"
	SourceShoppingAds AdSource = "shopping_ads"
)

// AllSources returns every known ad platform tag, in a fixed order.
func AllSources() []AdSource {
	return []AdSource{SourceGoogleAds, SourceMetaAds, SourceAmazonAds, SourceShoppingAds}
}

// ParseAdSource converts a stored/user-supplied string into an AdSource.
func ParseAdSource(s string) (AdSource, error) {
	switch AdSource(s) {
	case SourceGoogleAds, SourceMetaAds, SourceAmazonAds, SourceShoppingAds:
		return AdSource(s), nil
	}
	return "", fmt.Errorf("unknown ad source: %q", s)
}

// PseudoTLD is the synthetic domain suffix used when no real website domain
// could be inferred for an advertiser from this source (e.g. "acmecorp.amazon").
func (s AdSource) PseudoTLD() string {
	switch s {
	case SourceGoogleAds:
		return "google"
	case SourceMetaAds:
		return "meta"
	case SourceAmazonAds:
		return "amazon"
	case SourceShoppingAds:
		return "shopping"
	}
	return "unknown"
}

// AdCreative is one observed advertisement instance. It is owned exclusively
// by the Lead that contains it.
type AdCreative struct {
	ID                int64      `db:"id" json:"-"`
	AdID              string     `db:"ad_id" json:"ad_id,omitempty"`
	AdvertiserName    string     `db:"advertiser_name" json:"advertiser_name"`
	CreativeURL       string     `db:"creative_url" json:"creative_url,omitempty"`
	LandingPageURL    string     `db:"landing_page_url" json:"landing_page_url,omitempty"`
	CampaignStartDate *time.Time `db:"campaign_start_date" json:"campaign_start_date,omitempty"`
	Impressions       *int64     `db:"impressions" json:"impressions,omitempty"`
	SpendEstimate     *float64   `db:"spend_estimate" json:"spend_estimate,omitempty"`
	Source            AdSource   `db:"source" json:"source"`
	ScrapedAt         time.Time  `db:"scraped_at" json:"scraped_at"`
}

// SameCreative reports whether two creatives describe the same ad instance:
// both carry a platform ad id, the ids are equal, and the source tags match.
// Creatives without an id never match through this method.
func (c AdCreative) SameCreative(other AdCreative) bool {
	return c.AdID != "" && other.AdID != "" && c.AdID == other.AdID && c.Source == other.Source
}

// CompanyInfo is an enrichment snapshot for a lead. All fields are optional.
type CompanyInfo struct {
	WebsiteTitle string `json:"website_title,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	CompanySize  string `json:"company_size,omitempty"`
	Industry     string `json:"industry,omitempty"`
}

// IsEmpty reports whether no enrichment field is populated.
func (ci CompanyInfo) IsEmpty() bool {
	return ci == CompanyInfo{}
}

// Lead is the reconciled advertiser record, keyed by domain.
type Lead struct {
	ID                 int64        `db:"id" json:"-"`
	Domain             string       `db:"domain" json:"domain"`
	CompanyName        string       `db:"company_name" json:"company_name"`
	FirstSeen          time.Time    `db:"first_seen" json:"first_seen"`
	LastSeen           time.Time    `db:"last_seen" json:"last_seen"`
	Sources            []AdSource   `db:"-" json:"sources"`
	AdCreatives        []AdCreative `db:"-" json:"ad_creatives,omitempty"`
	CompanyInfo        *CompanyInfo `db:"-" json:"company_info,omitempty"`
	TotalImpressions   *int64       `db:"total_impressions" json:"total_impressions,omitempty"`
	TotalSpendEstimate *float64     `db:"total_spend_estimate" json:"total_spend_estimate,omitempty"`
	IsActive           bool         `db:"is_active" json:"is_active"`
}

// HasSource reports whether the lead has been observed on the given platform.
func (l *Lead) HasSource(s AdSource) bool {
	for _, have := range l.Sources {
		if have == s {
			return true
		}
	}
	return false
}

// AddSource appends a platform tag if not already present (set semantics,
// insertion order preserved).
func (l *Lead) AddSource(s AdSource) {
	if !l.HasSource(s) {
		l.Sources = append(l.Sources, s)
	}
}

// SourceResult summarizes one adapter's run within an ingestion pass.
type SourceResult struct {
	Source     AdSource      `json:"source"`
	Success    bool          `json:"success"`
	LeadsFound int           `json:"leads_found"`
	Duration   time.Duration `json:"duration"`
	Errors     []string      `json:"errors,omitempty"`
}

// LeadStats is the aggregate view over the persistence store. A lead counts
// toward every source tag it carries, so the per-source counts can sum to
// more than TotalLeads.
type LeadStats struct {
	TotalLeads     int              `json:"total_leads"`
	ActiveLeads    int              `json:"active_leads"`
	TotalCreatives int              `json:"total_creatives"`
	LeadsBySource  map[AdSource]int `json:"leads_by_source"`
}
