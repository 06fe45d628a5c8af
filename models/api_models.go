// backend/models/api_models.go
package models

// ScrapeRequest is the expected JSON body for the /api/admin/scrape endpoint.
type ScrapeRequest struct {
	Sources  []string `json:"sources,omitempty"`   // defaults to all configured sources
	Query    string   `json:"query,omitempty"`     // search query passed to each adapter
	MaxLeads int      `json:"max_leads,omitempty"` // per-source cap
	Since    string   `json:"since,omitempty"`     // "YYYY-MM-DD" floor for campaign dates
	Enrich   *bool    `json:"enrich,omitempty"`    // overrides the configured default
}

// SetActiveRequest is the expected JSON body for PATCH /api/leads/{domain}/active.
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}
